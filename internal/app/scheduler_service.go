package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ringclock/internal/config"
	"github.com/dokzlo13/ringclock/internal/eventbus"
	"github.com/dokzlo13/ringclock/internal/ledger"
	"github.com/dokzlo13/ringclock/internal/scheduler"
)

// SchedulerService wraps the tick scheduler and related periodic tasks.
type SchedulerService struct {
	cfg       *config.Config
	Scheduler *scheduler.Scheduler
	ledger    *ledger.Ledger
}

// NewSchedulerService creates a new SchedulerService ticking at cfg.TickInterval.
// l may be nil.
func NewSchedulerService(cfg *config.Config, bus *eventbus.Bus, l *ledger.Ledger) (*SchedulerService, error) {
	sched, err := scheduler.NewIntervalSchedule(cfg.TickInterval.Duration())
	if err != nil {
		return nil, err
	}
	return &SchedulerService{
		cfg:       cfg,
		Scheduler: scheduler.New(bus, sched),
		ledger:    l,
	}, nil
}

// Start begins the scheduler and related periodic tasks.
func (s *SchedulerService) Start(ctx context.Context) {
	go func() {
		if err := s.Scheduler.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduler error")
		}
	}()

	if s.ledger != nil {
		go s.runLedgerCleanup(ctx)
	}
}

// runLedgerCleanup periodically cleans up old ledger entries.
func (s *SchedulerService) runLedgerCleanup(ctx context.Context) {
	retention := s.cfg.Ledger.Retention()
	interval := s.cfg.Ledger.CleanupInterval.Duration()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.ledger.DeleteOlderThan(retention)
			if err != nil {
				log.Error().Err(err).Msg("Failed to cleanup old ledger entries")
			} else if deleted > 0 {
				log.Info().Int64("deleted", deleted).Dur("retention", retention).Msg("Cleaned up old ledger entries")
			}
		}
	}
}
