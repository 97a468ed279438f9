package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ringclock/internal/eventbus"
)

// Scheduler publishes tick events to the EventBus following a Schedule.
type Scheduler struct {
	bus      *eventbus.Bus
	schedule Schedule
	now      func() time.Time

	ticks   atomic.Int64
	lastRun atomic.Int64 // unix nanos of the last emitted tick
}

// New creates a new scheduler
func New(bus *eventbus.Bus, schedule Schedule) *Scheduler {
	return &Scheduler{
		bus:      bus,
		schedule: schedule,
		now:      time.Now,
	}
}

// Run starts the scheduler loop. The first tick is emitted immediately so the
// clock is drawn at startup rather than on the first boundary.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().Str("schedule", s.schedule.String()).Msg("Scheduler started")

	s.emit(s.now(), "startup")

	for {
		next := s.schedule.Next(s.now())
		sleepDuration := next.Sub(s.now())
		if sleepDuration < 0 {
			sleepDuration = 0
		}

		log.Trace().
			Dur("sleep_duration", sleepDuration).
			Time("next", next).
			Msg("Scheduler sleeping")

		timer := time.NewTimer(sleepDuration)

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("Scheduler stopping")
			return nil

		case <-timer.C:
			// Stamp with the boundary, not the wakeup time, so a late timer
			// still draws the intended minute.
			s.emit(next, "scheduler")
		}
	}
}

// emit publishes a tick event to the bus
func (s *Scheduler) emit(at time.Time, source string) {
	s.ticks.Add(1)
	s.lastRun.Store(at.UnixNano())

	log.Debug().
		Time("time", at).
		Str("source", source).
		Msg("Emitting tick")

	s.bus.Publish(eventbus.Event{
		Type: eventbus.EventTypeTick,
		Time: at,
	})
}

// Ticks returns how many ticks were emitted
func (s *Scheduler) Ticks() int64 {
	return s.ticks.Load()
}

// LastTick returns the time of the last emitted tick, zero if none
func (s *Scheduler) LastTick() time.Time {
	n := s.lastRun.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
