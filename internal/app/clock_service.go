package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ringclock/internal/config"
	"github.com/dokzlo13/ringclock/internal/device"
	"github.com/dokzlo13/ringclock/internal/e131"
	"github.com/dokzlo13/ringclock/internal/effect"
	"github.com/dokzlo13/ringclock/internal/eventbus"
	"github.com/dokzlo13/ringclock/internal/hands"
	"github.com/dokzlo13/ringclock/internal/ledger"
	"github.com/dokzlo13/ringclock/internal/wled"
)

// ClockService owns the devices and runs the update pipeline for each tick.
type ClockService struct {
	Registry *device.Registry
	updater  *device.Updater
	bus      *eventbus.Bus
	ledger   *ledger.Ledger // nil when disabled
	loc      *time.Location

	mu  sync.RWMutex
	ctx context.Context
}

// NewClockService builds a device and sink for every configured device.
// cache and l may be nil. In dry-run mode frames are logged instead of delivered.
func NewClockService(cfg *config.Config, bus *eventbus.Bus, cache device.InfoCache, l *ledger.Ledger, dryRun bool) (*ClockService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var devices []*device.Device
	for _, def := range cfg.Definitions() {
		sink := newSink(cfg, def, cache)
		if dryRun {
			sink = device.NewDryRunSink(def.Name, sink)
		}
		devices = append(devices, device.New(def, sink))

		log.Info().
			Str("device", def.Name).
			Str("kind", string(def.Kind)).
			Str("address", def.Address).
			Dur("offset", def.Offset).
			Str("precision", string(def.Precision)).
			Bool("debounce", def.Debounce).
			Bool("effects", def.Effects).
			Msg("Device configured")
	}

	registry, err := device.NewRegistry(devices...)
	if err != nil {
		for _, d := range devices {
			d.Close()
		}
		return nil, err
	}

	updater := device.NewUpdater(device.UpdaterOptions{
		Hands:    cfg.HandSet(),
		Color:    cfg.Color(),
		Overflow: cfg.OverflowPolicy(),
		Location: loc,
	}, effect.NewSelector(cfg.EffectOptions(), nil))

	return &ClockService{
		Registry: registry,
		updater:  updater,
		bus:      bus,
		ledger:   l,
		loc:      loc,
		ctx:      context.Background(),
	}, nil
}

func newSink(cfg *config.Config, def device.Definition, cache device.InfoCache) device.Sink {
	switch def.Kind {
	case device.KindE131:
		sender := e131.NewSender(def.Address, def.Universe, e131.Options{
			SourceName: cfg.E131.SourceName,
			Priority:   uint8(cfg.E131.Priority),
			CID:        cfg.CID(),
		})
		return device.NewE131Sink(sender, def.Leds)
	default:
		client := wled.NewClient(def.Address, cfg.HTTPTimeout.Duration(), cfg.RateLimitRPS)
		return device.NewWLEDSink(client, cfg.GetTransition(), cache)
	}
}

// Start subscribes to tick events. Each tick fans out into one device_tick per
// device so slow devices do not hold up the others.
func (s *ClockService) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.bus.Subscribe(eventbus.EventTypeTick, func(e eventbus.Event) {
		for _, d := range s.Registry.All() {
			s.bus.Publish(eventbus.Event{Type: eventbus.EventTypeDeviceTick, Time: e.Time, Device: d.Name()})
		}
	})

	s.bus.Subscribe(eventbus.EventTypeDeviceTick, func(e eventbus.Event) {
		d, ok := s.Registry.Get(e.Device)
		if !ok {
			log.Warn().Str("device", e.Device).Msg("Tick for unknown device")
			return
		}
		s.tick(s.context(), d, e.Time)
	})

	log.Info().Int("devices", s.Registry.Len()).Msg("Clock service started")
}

func (s *ClockService) context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// tick updates one device and logs the result. Errors never propagate.
func (s *ClockService) tick(ctx context.Context, d *device.Device, now time.Time) (device.Outcome, error) {
	start := time.Now()
	outcome, err := s.updater.Tick(ctx, d, now)

	switch {
	case errors.Is(err, device.ErrDeviceUnreachable):
		log.Warn().Err(err).Str("device", d.Name()).Msg("Device unreachable, skipping")
	case err != nil:
		log.Error().Err(err).Str("device", d.Name()).Msg("Failed to update device")
	case outcome == device.OutcomeHands || outcome == device.OutcomeEffect:
		log.Debug().
			Str("device", d.Name()).
			Str("outcome", string(outcome)).
			Dur("took", time.Since(start)).
			Msg("Device updated")
	default:
		log.Trace().Str("device", d.Name()).Str("outcome", string(outcome)).Msg("Device tick skipped")
	}
	s.record(d, now, outcome, err)
	return outcome, err
}

// record appends attempts that reached the network to the ledger.
func (s *ClockService) record(d *device.Device, now time.Time, outcome device.Outcome, err error) {
	if s.ledger == nil {
		return
	}
	if err == nil && outcome != device.OutcomeHands && outcome != device.OutcomeEffect {
		return
	}

	ct := hands.Read(now, d.Def.Offset, s.loc)
	entry := ledger.Entry{
		Device:    d.Name(),
		Outcome:   string(outcome),
		Timestamp: now,
		Hour:      ct.Hour,
		Minute:    ct.Minute,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if err := s.ledger.Append(entry); err != nil {
		log.Warn().Err(err).Str("device", d.Name()).Msg("Failed to append to delivery ledger")
	}
}

// RunOnce updates every device concurrently at now and waits for all of them.
// It returns the outcomes and the joined per-device errors.
func (s *ClockService) RunOnce(ctx context.Context, now time.Time) (map[string]device.Outcome, error) {
	devices := s.Registry.All()
	outcomes := make([]device.Outcome, len(devices))
	errs := make([]error, len(devices))

	var wg sync.WaitGroup
	for i, d := range devices {
		i, d := i, d
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i], errs[i] = s.tick(ctx, d, now)
		}()
	}
	wg.Wait()

	result := make(map[string]device.Outcome, len(devices))
	for i, d := range devices {
		result[d.Name()] = outcomes[i]
		if errs[i] != nil {
			errs[i] = fmt.Errorf("%s: %w", d.Name(), errs[i])
		}
	}
	return result, errors.Join(errs...)
}

// Close releases all device transports.
func (s *ClockService) Close() {
	s.Registry.Close()
}
