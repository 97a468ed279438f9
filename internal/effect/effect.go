// Package effect selects the randomized full-ring animation played at the top
// of each hour.
package effect

import (
	"math/rand"

	"github.com/dokzlo13/ringclock/internal/frame"
)

// Rand is the source of randomness for effect selection.
type Rand interface {
	// IntN returns a value in [0, n). n is always > 0.
	IntN(n int) int
}

// systemRand draws from the math/rand global source.
type systemRand struct{}

func (systemRand) IntN(n int) int { return rand.Intn(n) }

// SystemRand returns the process-wide random source.
func SystemRand() Rand { return systemRand{} }

// Range is an inclusive integer range.
type Range struct {
	Min int
	Max int
}

// FullRange covers every 8-bit value.
var FullRange = Range{Min: 0, Max: 255}

// Options configure effect selection.
type Options struct {
	Palette    []frame.RGB
	Speed      Range
	Intensity  Range
	Brightness int
}

// DefaultOptions returns full speed and intensity ranges at full brightness.
func DefaultOptions(palette []frame.RGB) Options {
	return Options{
		Palette:    palette,
		Speed:      FullRange,
		Intensity:  FullRange,
		Brightness: 255,
	}
}

// Selector builds hourly effect segments.
type Selector struct {
	opts Options
	rand Rand
}

// NewSelector creates a Selector. A nil r uses SystemRand.
func NewSelector(opts Options, r Rand) *Selector {
	if r == nil {
		r = SystemRand()
	}
	return &Selector{opts: opts, rand: r}
}

// ShouldTrigger reports whether an effect starts at minute, given whether one is
// already running.
func ShouldTrigger(minute int, inProgress bool) bool {
	return minute == 0 && !inProgress
}

// Build returns one segment covering the whole ring with a random effect, speed,
// intensity and palette color. It returns false when the palette is empty.
func (s *Selector) Build(size, fxCount int) (frame.Segment, bool) {
	if len(s.opts.Palette) == 0 || size <= 0 {
		return frame.Segment{}, false
	}

	fx := 0
	if fxCount > 0 {
		fx = s.rand.IntN(fxCount)
	}
	speed := s.between(s.opts.Speed)
	intensity := s.between(s.opts.Intensity)
	color := s.opts.Palette[s.rand.IntN(len(s.opts.Palette))]
	bri := s.opts.Brightness

	return frame.Segment{
		On:         true,
		Start:      0,
		Stop:       size,
		EffectID:   &fx,
		Speed:      &speed,
		Intensity:  &intensity,
		Colors:     []frame.RGB{color},
		Brightness: &bri,
	}, true
}

func (s *Selector) between(r Range) int {
	lo, hi := r.Min, r.Max
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + s.rand.IntN(hi-lo+1)
}
