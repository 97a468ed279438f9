// Package ring models a circular strip of LEDs and the virtual light sources
// that illuminate it.
package ring

import (
	"errors"
	"math"
)

var (
	// ErrEmptyRing is returned for rings with no LEDs.
	ErrEmptyRing = errors.New("ring has no leds")
	// ErrNonFinite is returned when a position is NaN or infinite.
	ErrNonFinite = errors.New("position is not finite")
)

// Distance returns the wraparound distance between two (possibly fractional)
// positions on a ring of the given size. The result is in [0, size/2].
func Distance(a, b float64, size int) (float64, error) {
	if size <= 0 {
		return 0, ErrEmptyRing
	}
	if !isFinite(a) || !isFinite(b) {
		return 0, ErrNonFinite
	}

	d := Wrap(a-b, size)
	return math.Min(d, float64(size)-d), nil
}

// Wrap folds a position into [0, size).
func Wrap(pos float64, size int) float64 {
	if size <= 0 {
		return 0
	}
	total := float64(size)
	w := math.Mod(pos, total)
	if w < 0 {
		w += total
	}
	return w
}

// Clamp limits value to [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Map linearly maps value from [fromMin, fromMax] onto [toMin, toMax] and clamps
// the result to the target range. Either range may be inverted.
func Map(value, fromMin, fromMax, toMin, toMax float64) float64 {
	mapped := (value-fromMin)*(toMax-toMin)/(fromMax-fromMin) + toMin
	lo, hi := toMin, toMax
	if lo > hi {
		lo, hi = hi, lo
	}
	return Clamp(mapped, lo, hi)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
