package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ringclock/internal/config"
	"github.com/dokzlo13/ringclock/internal/device"
	"github.com/dokzlo13/ringclock/internal/eventbus"
	"github.com/dokzlo13/ringclock/internal/ledger"
)

// TickSource reports scheduler progress.
type TickSource interface {
	Ticks() int64
	LastTick() time.Time
}

// HealthService provides HTTP health check endpoints.
type HealthService struct {
	cfg      *config.Config
	registry *device.Registry
	ledger   *ledger.Ledger
	ticks    TickSource
	bus      *eventbus.Bus
	server   *http.Server
}

// NewHealthService creates a new HealthService. It is ready once ticks has
// emitted its first tick. l may be nil.
func NewHealthService(cfg *config.Config, registry *device.Registry, l *ledger.Ledger, ticks TickSource, bus *eventbus.Bus) *HealthService {
	return &HealthService{
		cfg:      cfg,
		registry: registry,
		ledger:   l,
		ticks:    ticks,
		bus:      bus,
	}
}

// Start begins the health check server if enabled.
func (s *HealthService) Start(ctx context.Context) {
	if !s.cfg.Healthcheck.Enabled {
		return
	}

	go s.run(ctx)
}

func (s *HealthService) handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// Ready once the scheduler has ticked
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]any{"status": "ready"}
		if s.bus != nil {
			status["dropped_events"] = s.bus.Dropped()
		}
		if s.ticks == nil || s.ticks.Ticks() == 0 {
			status["status"] = "starting"
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["ticks"] = s.ticks.Ticks()
		status["last_tick"] = s.ticks.LastTick()
		writeJSON(w, http.StatusOK, status)
	})

	// Per-device runtime state
	mux.HandleFunc("/devices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.registry.Snapshots())
	})

	// Recent delivery history, ?device=<name>&limit=<n>
	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		if s.ledger == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ledger disabled"})
			return
		}
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
				return
			}
			limit = n
		}
		entries, err := s.ledger.Recent(r.URL.Query().Get("device"), limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if entries == nil {
			entries = []*ledger.Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write health response")
	}
}

func (s *HealthService) run(ctx context.Context) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Healthcheck.Host, s.cfg.Healthcheck.Port)

	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler(),
	}

	log.Info().Str("addr", addr).Msg("Starting health check server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Health check server shutdown error")
		}
	}()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Health check server error")
	}
}
