package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ringclock/internal/config"
	"github.com/dokzlo13/ringclock/internal/db"
	"github.com/dokzlo13/ringclock/internal/device"
	"github.com/dokzlo13/ringclock/internal/eventbus"
	"github.com/dokzlo13/ringclock/internal/ledger"
	"github.com/dokzlo13/ringclock/internal/storage"
)

// Options control how services are wired.
type Options struct {
	DryRun bool // log frames instead of delivering them
}

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB        *db.DB // nil unless the info cache or ledger is enabled
	InfoCache *storage.InfoCache
	Ledger    *ledger.Ledger
	Bus       *eventbus.Bus

	// High-level services
	Clock     *ClockService
	Scheduler *SchedulerService
	Health    *HealthService
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config, opts Options) (*Services, error) {
	s := &Services{cfg: cfg}

	ttl := cfg.CacheTTL()
	if ttl > 0 || cfg.Ledger.Enabled {
		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		s.DB = database
	}

	var cache device.InfoCache
	if ttl > 0 {
		s.InfoCache = storage.NewInfoCache(s.DB.DB, ttl)
		cache = s.InfoCache
		log.Info().Str("path", cfg.Database.Path).Dur("ttl", ttl).Msg("Device info cache enabled")
	}
	if cfg.Ledger.Enabled {
		s.Ledger = ledger.New(s.DB.DB)
		log.Info().Str("path", cfg.Database.Path).Int("retention_days", cfg.Ledger.RetentionDays).Msg("Delivery ledger enabled")
	}

	s.Bus = eventbus.NewWithConfig(cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())

	var err error
	s.Clock, err = NewClockService(cfg, s.Bus, cache, s.Ledger, opts.DryRun)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Scheduler, err = NewSchedulerService(cfg, s.Bus, s.Ledger)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Health = NewHealthService(cfg, s.Clock.Registry, s.Ledger, s.Scheduler.Scheduler, s.Bus)

	return s, nil
}

// Start starts all services in the correct order.
func (s *Services) Start(ctx context.Context) {
	// Subscribe before the scheduler emits its startup tick
	s.Clock.Start(ctx)
	s.Scheduler.Start(ctx)
	s.Health.Start(ctx)
}

// ClearCache removes all cached device info.
func (s *Services) ClearCache() (int64, error) {
	if s.InfoCache != nil {
		return s.InfoCache.Clear()
	}

	database, err := db.Open(s.cfg.Database.Path)
	if err != nil {
		return 0, err
	}
	defer database.Close()
	return storage.NewInfoCache(database.DB, 0).Clear()
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
		s.Bus.Close(ctx)
		cancel()
	}
	if s.Clock != nil {
		s.Clock.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
