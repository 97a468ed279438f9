package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokzlo13/ringclock/internal/frame"
)

// seqRand returns queued values modulo n, in order.
type seqRand struct {
	values []int
	calls  []int
}

func (r *seqRand) IntN(n int) int {
	r.calls = append(r.calls, n)
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}

var palette = []frame.RGB{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}}

func TestBuild(t *testing.T) {
	r := &seqRand{values: []int{42, 200, 17, 2}}
	sel := NewSelector(DefaultOptions(palette), r)

	seg, ok := sel.Build(60, 118)
	require.True(t, ok)

	assert.True(t, seg.On)
	assert.Equal(t, 0, seg.Start)
	assert.Equal(t, 60, seg.Stop)
	assert.Equal(t, 42, *seg.EffectID)
	assert.Equal(t, 200, *seg.Speed)
	assert.Equal(t, 17, *seg.Intensity)
	assert.Equal(t, []frame.RGB{{0, 0, 255}}, seg.Colors)
	assert.Equal(t, 255, *seg.Brightness)

	// fx in [0, fxcount-1], speed/intensity in [0, 255], palette index.
	assert.Equal(t, []int{118, 256, 256, 3}, r.calls)
}

func TestBuild_NarrowRanges(t *testing.T) {
	opts := DefaultOptions(palette)
	opts.Speed = Range{Min: 100, Max: 150}
	opts.Intensity = Range{Min: 200, Max: 200}
	r := &seqRand{values: []int{0, 50, 9, 0}}

	seg, ok := NewSelector(opts, r).Build(24, 10)
	require.True(t, ok)
	assert.Equal(t, 150, *seg.Speed)
	assert.Equal(t, 200, *seg.Intensity)
	assert.Equal(t, 24, seg.Stop)
}

func TestBuild_Degenerate(t *testing.T) {
	t.Run("empty_palette/falls_back", func(t *testing.T) {
		_, ok := NewSelector(DefaultOptions(nil), &seqRand{}).Build(60, 100)
		assert.False(t, ok)
	})

	t.Run("empty_ring/falls_back", func(t *testing.T) {
		_, ok := NewSelector(DefaultOptions(palette), &seqRand{}).Build(0, 100)
		assert.False(t, ok)
	})

	t.Run("no_effects/uses_solid", func(t *testing.T) {
		r := &seqRand{values: []int{5, 5, 1}}
		seg, ok := NewSelector(DefaultOptions(palette), r).Build(60, 0)
		require.True(t, ok)
		assert.Equal(t, 0, *seg.EffectID)
		assert.Equal(t, []int{256, 256, 3}, r.calls)
	})
}

func TestBuild_SystemRandInBounds(t *testing.T) {
	sel := NewSelector(DefaultOptions(palette), nil)
	for i := 0; i < 200; i++ {
		seg, ok := sel.Build(60, 5)
		require.True(t, ok)
		assert.GreaterOrEqual(t, *seg.EffectID, 0)
		assert.Less(t, *seg.EffectID, 5)
		assert.GreaterOrEqual(t, *seg.Speed, 0)
		assert.LessOrEqual(t, *seg.Speed, 255)
		assert.Contains(t, palette, seg.Colors[0])
	}
}

func TestShouldTrigger(t *testing.T) {
	assert.True(t, ShouldTrigger(0, false))
	assert.False(t, ShouldTrigger(0, true))
	assert.False(t, ShouldTrigger(1, false))
	assert.False(t, ShouldTrigger(59, false))
}
