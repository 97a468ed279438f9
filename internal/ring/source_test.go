package ring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContribution_SingleSource(t *testing.T) {
	src := LightSource{Position: 0, Brightness: 255, Radius: 1.5}

	tests := []struct {
		name string
		led  int
		want float64
	}{
		{name: "on_source", led: 0, want: 255},
		{name: "one_away", led: 1, want: 85},
		{name: "one_away_wrapped", led: 59, want: 85},
		{name: "outside_radius", led: 2, want: 0},
		{name: "far", led: 30, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Contribution(tt.led, src, 60)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Equal(t, tt.want, math.Round(got))
		})
	}
}

func TestContribution_ZeroRadius(t *testing.T) {
	src := LightSource{Position: 4, Brightness: 1, Radius: 0}

	got, err := Contribution(4, src, 12)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = Contribution(5, src, 12)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	// Between LEDs nothing is lit.
	src.Position = 4.5
	got, err = Contribution(4, src, 12)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestContribution_MonotonicAndBounded(t *testing.T) {
	src := LightSource{Position: 10.3, Brightness: 0.8, Radius: 3}
	const size = 40

	prevDist := -1.0
	prevVal := math.Inf(1)
	// Walk LEDs away from the source in distance order.
	for step := 0; step <= size/2; step++ {
		led := (10 + step) % size
		d, err := Distance(float64(led), src.Position, size)
		require.NoError(t, err)
		v, err := Contribution(led, src, size)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, src.Brightness)
		if d >= prevDist {
			assert.LessOrEqual(t, v, prevVal+1e-12)
		}
		prevDist, prevVal = d, v
	}
}

func TestContribution_EmptyRing(t *testing.T) {
	_, err := Contribution(0, LightSource{Brightness: 1, Radius: 1}, 0)
	assert.ErrorIs(t, err, ErrEmptyRing)
}

func TestBrightest_MaxNotSum(t *testing.T) {
	sources := []LightSource{
		{Position: 5, Brightness: 255, Radius: 1.5},
		{Position: 6, Brightness: 255, Radius: 1.5},
	}

	got, err := Brightest(5, sources, 60)
	require.NoError(t, err)
	assert.InDelta(t, 255, got, 1e-9)

	got, err = Brightest(7, sources, 60)
	require.NoError(t, err)
	assert.InDelta(t, 85, got, 1e-9)

	got, err = Brightest(7, nil, 60)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}
