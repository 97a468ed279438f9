// Package scheduler emits clock ticks on a wall-clock aligned schedule.
package scheduler

import (
	"fmt"
	"time"
)

// Schedule is the core abstraction for any source of timed events.
type Schedule interface {
	// Next returns the next occurrence strictly after the given time
	Next(after time.Time) time.Time

	// String describes the schedule for logging
	String() string
}

// IntervalSchedule fires at every multiple of interval, aligned to wall-clock
// boundaries (a 10s interval fires at :00, :10, :20 ...).
type IntervalSchedule struct {
	interval time.Duration
}

// NewIntervalSchedule creates a new interval schedule.
func NewIntervalSchedule(interval time.Duration) (*IntervalSchedule, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}
	return &IntervalSchedule{interval: interval}, nil
}

// Next returns the next boundary after the given time.
func (s *IntervalSchedule) Next(after time.Time) time.Time {
	return after.Truncate(s.interval).Add(s.interval)
}

func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("every %s", s.interval)
}
