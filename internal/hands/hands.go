// Package hands converts wall-clock time into fractional clock hand positions.
package hands

import (
	"fmt"
	"time"
)

// Precision controls whether sub-minute progress moves the minute hand.
type Precision string

const (
	// PrecisionMinute snaps the minute hand to whole minutes.
	PrecisionMinute Precision = "minute"
	// PrecisionFine folds seconds and milliseconds into the minute hand.
	PrecisionFine Precision = "fine"
)

// ParsePrecision parses a precision name. An empty string yields def.
func ParsePrecision(s string, def Precision) (Precision, error) {
	switch Precision(s) {
	case "":
		return def, nil
	case PrecisionMinute, PrecisionFine:
		return Precision(s), nil
	default:
		return "", fmt.Errorf("unknown hand precision %q (want %q or %q)", s, PrecisionMinute, PrecisionFine)
	}
}

// ClockTime is a wall-clock reading on a 12 hour dial.
type ClockTime struct {
	Hour   int // [0, 12)
	Minute int // [0, 60)
	Second int // [0, 60)
	Millis int // [0, 1000)
}

// Read returns the clock time at t shifted by offset, in loc. A nil loc uses the
// location already attached to t.
func Read(t time.Time, offset time.Duration, loc *time.Location) ClockTime {
	t = t.Add(offset)
	if loc != nil {
		t = t.In(loc)
	}
	return ClockTime{
		Hour:   t.Hour() % 12,
		Minute: t.Minute(),
		Second: t.Second(),
		Millis: t.Nanosecond() / int(time.Millisecond),
	}
}

// SecondProgress is the fraction of the current minute that has elapsed.
func (c ClockTime) SecondProgress() float64 {
	return (float64(c.Second) + float64(c.Millis)/1000) / 60
}

// MinuteProgress is the fraction of the current hour that has elapsed.
func (c ClockTime) MinuteProgress(p Precision) float64 {
	if p == PrecisionFine {
		return (float64(c.Minute) + c.SecondProgress()) / 60
	}
	return float64(c.Minute) / 60
}

// HourProgress is the fraction of the 12 hour dial that has elapsed.
func (c ClockTime) HourProgress(p Precision) float64 {
	return (float64(c.Hour) + c.MinuteProgress(p)) / 12
}

// Position maps a hand progress onto a ring of size LEDs.
func Position(progress float64, size int) float64 {
	return progress * float64(size)
}
