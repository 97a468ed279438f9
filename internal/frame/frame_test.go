package frame

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokzlo13/ringclock/internal/hands"
	"github.com/dokzlo13/ringclock/internal/ring"
)

func intPtr(v int) *int { return &v }

func lit(start, bri int) Segment {
	return Segment{
		On:         true,
		Start:      start,
		Stop:       start + 1,
		EffectID:   intPtr(0),
		Colors:     []RGB{White},
		Brightness: intPtr(bri),
	}
}

func TestSparse_SingleSource(t *testing.T) {
	sources := []ring.LightSource{{Position: 0, Brightness: 1, Radius: 1.5}}

	got, err := Sparse(60, 8, sources, SparseOptions{Color: White})
	require.NoError(t, err)

	want := []Segment{
		lit(0, 255),
		lit(1, 85),
		lit(59, 85),
		{}, {}, {}, {}, {},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sparse() mismatch (-want +got):\n%s", diff)
	}
}

func TestSparse_AlwaysMaxSegments(t *testing.T) {
	ct := hands.ClockTime{Hour: 7, Minute: 23}
	sources := Sources(ct, 60, DefaultHands(), hands.PrecisionMinute)

	for _, max := range []int{6, 16, 32} {
		got, err := Sparse(60, max, sources, SparseOptions{Color: White})
		require.NoError(t, err)
		require.Len(t, got, max)

		for _, s := range got[CountLit(got):] {
			assert.True(t, s.IsEmpty())
			assert.Equal(t, 0, s.Start)
			assert.Equal(t, 0, s.Stop)
		}
	}
}

func TestSparse_OverlappingHandsTakeMax(t *testing.T) {
	// 12:00 puts both hands on LED 0.
	sources := Sources(hands.ClockTime{}, 60, DefaultHands(), hands.PrecisionMinute)

	got, err := Sparse(60, 6, sources, SparseOptions{Color: White})
	require.NoError(t, err)
	assert.Equal(t, 3, CountLit(got))
	assert.Equal(t, 255, *got[0].Brightness)
}

func TestSparse_Deterministic(t *testing.T) {
	ct := hands.ClockTime{Hour: 4, Minute: 17, Second: 12, Millis: 345}
	sources := Sources(ct, 48, DefaultHands(), hands.PrecisionFine)

	a, err := Sparse(48, 16, sources, SparseOptions{Color: White})
	require.NoError(t, err)
	b, err := Sparse(48, 16, sources, SparseOptions{Color: White})
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(a, b))
}

func TestSparse_Overflow(t *testing.T) {
	// A wide source lights LEDs 0..4 and 56..59 with rising brightness toward 0.
	sources := []ring.LightSource{{Position: 0, Brightness: 1, Radius: 5}}

	t.Run("truncate/keeps_brightest_in_ring_order", func(t *testing.T) {
		got, err := Sparse(60, 3, sources, SparseOptions{Color: White, Overflow: OverflowTruncate})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []int{0, 1, 59}, starts(got))
	})

	t.Run("default/is_truncate", func(t *testing.T) {
		got, err := Sparse(60, 3, sources, SparseOptions{Color: White})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 59}, starts(got))
	})

	t.Run("error/rejects", func(t *testing.T) {
		_, err := Sparse(60, 3, sources, SparseOptions{Color: White, Overflow: OverflowError})
		assert.ErrorIs(t, err, ErrSegmentOverflow)
	})

	t.Run("merge/coalesces_equal_runs", func(t *testing.T) {
		flat := []ring.LightSource{
			{Position: 10, Brightness: 1, Radius: 0},
			{Position: 11, Brightness: 1, Radius: 0},
			{Position: 12, Brightness: 1, Radius: 0},
			{Position: 30, Brightness: 1, Radius: 0},
		}
		got, err := Sparse(60, 2, flat, SparseOptions{Color: White, Overflow: OverflowMerge})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 10, got[0].Start)
		assert.Equal(t, 13, got[0].Stop)
		assert.Equal(t, 30, got[1].Start)
		assert.Equal(t, 31, got[1].Stop)
	})

	t.Run("merge/stops_at_ring_seam", func(t *testing.T) {
		seam := []ring.LightSource{
			{Position: 58, Brightness: 1, Radius: 0},
			{Position: 59, Brightness: 1, Radius: 0},
			{Position: 0, Brightness: 1, Radius: 0},
			{Position: 1, Brightness: 1, Radius: 0},
		}
		got, err := Sparse(60, 3, seam, SparseOptions{Color: White, Overflow: OverflowMerge})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, 0, got[0].Start)
		assert.Equal(t, 2, got[0].Stop)
		assert.Equal(t, 58, got[1].Start)
		assert.Equal(t, 60, got[1].Stop)
		assert.True(t, got[2].IsEmpty())
	})
}

func TestSparse_Errors(t *testing.T) {
	_, err := Sparse(0, 4, nil, SparseOptions{})
	assert.ErrorIs(t, err, ring.ErrEmptyRing)

	_, err = Sparse(60, 0, nil, SparseOptions{})
	assert.ErrorIs(t, err, ErrNoSegments)
}

func TestDense(t *testing.T) {
	sources := []ring.LightSource{{Position: 0, Brightness: 1, Radius: 1.5}}

	buf, err := Dense(12, sources, White)
	require.NoError(t, err)
	require.Len(t, buf, 36)

	assert.Equal(t, []byte{255, 255, 255}, buf[0:3])
	assert.Equal(t, []byte{85, 85, 85}, buf[3:6])
	assert.Equal(t, []byte{0, 0, 0}, buf[6:9])
	assert.Equal(t, []byte{85, 85, 85}, buf[33:36])
}

func TestDense_Color(t *testing.T) {
	sources := []ring.LightSource{{Position: 2, Brightness: 0.5, Radius: 1}}

	buf, err := Dense(4, sources, RGB{255, 0, 100})
	require.NoError(t, err)
	assert.Equal(t, []byte{128, 0, 50}, buf[6:9])
}

func TestDense_EmptyRing(t *testing.T) {
	_, err := Dense(0, nil, White)
	assert.ErrorIs(t, err, ring.ErrEmptyRing)
}

func TestSources(t *testing.T) {
	ct := hands.ClockTime{Hour: 3, Minute: 15, Second: 30}

	src := Sources(ct, 60, DefaultHands(), hands.PrecisionMinute)
	require.Len(t, src, 2)
	assert.InDelta(t, 3.25/12*60, src[0].Position, 1e-9)
	assert.InDelta(t, 15, src[1].Position, 1e-9)

	fine := Sources(ct, 60, DefaultHands(), hands.PrecisionFine)
	assert.InDelta(t, 15.5, fine[1].Position, 1e-9)

	h := DefaultHands()
	h.Second = &Hand{Brightness: 0.3, Radius: 1}
	withSecond := Sources(ct, 60, h, hands.PrecisionFine)
	require.Len(t, withSecond, 3)
	assert.InDelta(t, 30, withSecond[2].Position, 1e-9)
	assert.Equal(t, 0.3, withSecond[2].Brightness)
}

func TestPad(t *testing.T) {
	seg := Segment{On: true, Start: 0, Stop: 60}
	got, err := Pad(seg, 4)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, seg, got[0])
	assert.Equal(t, 1, CountLit(got))

	_, err = Pad(seg, 0)
	assert.ErrorIs(t, err, ErrNoSegments)
}

func TestParseOverflowPolicy(t *testing.T) {
	p, err := ParseOverflowPolicy("")
	require.NoError(t, err)
	assert.Equal(t, OverflowTruncate, p)

	p, err = ParseOverflowPolicy("merge")
	require.NoError(t, err)
	assert.Equal(t, OverflowMerge, p)

	_, err = ParseOverflowPolicy("drop")
	assert.Error(t, err)
}

func starts(segments []Segment) []int {
	var out []int
	for _, s := range segments {
		if !s.IsEmpty() {
			out = append(out, s.Start)
		}
	}
	return out
}
