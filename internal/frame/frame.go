// Package frame composes per-device LED frames from clock hand light sources.
//
// Two shapes are produced: a sparse list of segments for devices that take
// segment updates (one segment per lit LED, padded with empty slots that tell
// the receiver to delete unused segments), and a dense RGB channel buffer for
// streaming devices.
package frame

import (
	"errors"
	"math"

	"github.com/dokzlo13/ringclock/internal/hands"
	"github.com/dokzlo13/ringclock/internal/ring"
)

var (
	// ErrNoSegments is returned when a device reports no segment slots.
	ErrNoSegments = errors.New("device has no segment slots")
	// ErrSegmentOverflow is returned under OverflowError when more LEDs are lit
	// than the device has segment slots.
	ErrSegmentOverflow = errors.New("lit leds exceed segment slots")
)

// RGB is a linear 8-bit color.
type RGB [3]uint8

// White is the default hand color.
var White = RGB{255, 255, 255}

// Hand describes the light source drawn for one clock hand. Brightness is a
// fraction in [0, 1], Radius is in LED units.
type Hand struct {
	Brightness float64
	Radius     float64
}

// DefaultHand lights the nearest LED fully and its neighbours partially.
var DefaultHand = Hand{Brightness: 1, Radius: 1.5}

// Hands configures which hands are drawn. Second is optional.
type Hands struct {
	Hour   Hand
	Minute Hand
	Second *Hand
}

// DefaultHands draws hour and minute hands only.
func DefaultHands() Hands {
	return Hands{Hour: DefaultHand, Minute: DefaultHand}
}

// Sources builds the light sources for the hands at ct on a ring of size LEDs.
func Sources(ct hands.ClockTime, size int, h Hands, p hands.Precision) []ring.LightSource {
	sources := []ring.LightSource{
		{
			Position:   hands.Position(ct.HourProgress(p), size),
			Brightness: h.Hour.Brightness,
			Radius:     h.Hour.Radius,
		},
		{
			Position:   hands.Position(ct.MinuteProgress(p), size),
			Brightness: h.Minute.Brightness,
			Radius:     h.Minute.Radius,
		},
	}
	if h.Second != nil {
		sources = append(sources, ring.LightSource{
			Position:   hands.Position(ct.SecondProgress(), size),
			Brightness: h.Second.Brightness,
			Radius:     h.Second.Radius,
		})
	}
	return sources
}

// Level returns the brightest source at each LED as a fraction in [0, 1].
func Level(size int, sources []ring.LightSource) ([]float64, error) {
	if size <= 0 {
		return nil, ring.ErrEmptyRing
	}
	levels := make([]float64, size)
	for i := range levels {
		v, err := ring.Brightest(i, sources, size)
		if err != nil {
			return nil, err
		}
		levels[i] = ring.Clamp(v, 0, 1)
	}
	return levels, nil
}

// to8 scales a [0, 1] level to an 8-bit value.
func to8(level float64) int {
	return int(math.Round(ring.Clamp(level, 0, 1) * 255))
}
