package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dokzlo13/ringclock/internal/device"
	"github.com/dokzlo13/ringclock/internal/e131"
	"github.com/dokzlo13/ringclock/internal/effect"
	"github.com/dokzlo13/ringclock/internal/frame"
	"github.com/dokzlo13/ringclock/internal/hands"
)

// Validate checks the configuration after defaults are applied.
// All problems are reported together, wrapped in ErrInvalidConfig.
func (cfg *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, err := cfg.Location(); err != nil {
		add("timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.TickInterval.Duration() <= 0 {
		add("tick_interval must be positive")
	}
	if cfg.HTTPTimeout.Duration() <= 0 {
		add("http_timeout must be positive")
	}
	if cfg.RateLimitRPS < 0 {
		add("rate_limit_rps must not be negative")
	}
	if cfg.GetTransition() < 0 {
		add("transition must not be negative")
	}
	if _, err := frame.ParseOverflowPolicy(cfg.Overflow); err != nil {
		add("overflow: %w", err)
	}

	for name, h := range map[string]HandConfig{"hour": cfg.Hands.Hour, "minute": cfg.Hands.Minute, "second": cfg.Hands.Second} {
		if b := h.GetBrightness(); b < 0 || b > 1 {
			add("hands.%s.brightness must be within [0, 1]", name)
		}
		if h.GetRadius() < 0 {
			add("hands.%s.radius must not be negative", name)
		}
	}
	if _, err := parseRGB(cfg.Hands.Color); err != nil {
		add("hands.color: %w", err)
	}

	if len(cfg.Effect.Palette) == 0 && cfg.effectsWanted() {
		add("effect.palette must not be empty while effects are enabled")
	}
	for i, c := range cfg.Effect.Palette {
		if _, err := parseRGB(c); err != nil {
			add("effect.palette[%d]: %w", i, err)
		}
	}
	for name, r := range map[string]*RangeConfig{"speed": cfg.Effect.Speed, "intensity": cfg.Effect.Intensity} {
		if r.Min < 0 || r.Max > 255 || r.Min > r.Max {
			add("effect.%s must satisfy 0 <= min <= max <= 255", name)
		}
	}

	if len(cfg.Devices) == 0 {
		add("at least one device is required")
	}
	seen := make(map[string]bool)
	for i, d := range cfg.Devices {
		prefix := fmt.Sprintf("devices[%d] (%s)", i, d.Name)
		if seen[d.Name] {
			add("%s: duplicate device name", prefix)
		}
		seen[d.Name] = true

		kind, err := device.ParseKind(d.Kind)
		if err != nil {
			add("%s: %w", prefix, err)
			continue
		}
		if _, err := hands.ParsePrecision(d.Precision, hands.PrecisionMinute); err != nil {
			add("%s: %w", prefix, err)
		}
		switch kind {
		case device.KindWLED:
			if d.Address == "" {
				add("%s: address is required", prefix)
			}
		case device.KindE131:
			if d.Leds <= 0 {
				add("%s: leds must be positive", prefix)
			}
			if d.Universe < 1 || d.Universe > e131.MaxUniverse {
				add("%s: universe must be within [1, %d]", prefix, e131.MaxUniverse)
			} else if d.Leds > 0 {
				last := d.Universe + e131.Universes(d.Leds, frame.ChannelsPerLED) - 1
				if last > e131.MaxUniverse {
					add("%s: %d leds need universes %d..%d, beyond %d", prefix, d.Leds, d.Universe, last, e131.MaxUniverse)
				}
			}
		}
	}

	if cfg.E131.CID != "" {
		if _, err := uuid.Parse(cfg.E131.CID); err != nil {
			add("e131.cid: %w", err)
		}
	}
	if cfg.E131.Priority < 0 || cfg.E131.Priority > 200 {
		add("e131.priority must be within [0, 200]")
	}
	if cfg.Cache.Enabled && cfg.Cache.TTL.Duration() <= 0 {
		add("cache.ttl must be positive")
	}
	if cfg.Ledger.Enabled && (cfg.Ledger.RetentionDays < 0 || cfg.Ledger.CleanupInterval.Duration() <= 0) {
		add("ledger.retention_days and ledger.cleanup_interval must be positive")
	}
	if cfg.Healthcheck.Enabled && (cfg.Healthcheck.Port <= 0 || cfg.Healthcheck.Port > 65535) {
		add("healthcheck.port must be within [1, 65535]")
	}

	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// effectsWanted reports whether any segment device would play the hourly effect.
func (cfg *Config) effectsWanted() bool {
	for _, d := range cfg.Definitions() {
		if d.Effects {
			return true
		}
	}
	return false
}

func parseRGB(c []int) (frame.RGB, error) {
	if len(c) != 3 {
		return frame.RGB{}, errors.New("color needs exactly 3 components")
	}
	var rgb frame.RGB
	for i, v := range c {
		if v < 0 || v > 255 {
			return frame.RGB{}, fmt.Errorf("component %d out of range", v)
		}
		rgb[i] = uint8(v)
	}
	return rgb, nil
}

// Color returns the hand color.
func (cfg *Config) Color() frame.RGB {
	rgb, _ := parseRGB(cfg.Hands.Color)
	return rgb
}

// HandSet converts the hands section.
func (cfg *Config) HandSet() frame.Hands {
	h := frame.Hands{
		Hour:   handOf(&cfg.Hands.Hour),
		Minute: handOf(&cfg.Hands.Minute),
	}
	if cfg.Hands.Second.IsEnabled(false) {
		second := handOf(&cfg.Hands.Second)
		h.Second = &second
	}
	return h
}

func handOf(h *HandConfig) frame.Hand {
	return frame.Hand{Brightness: h.GetBrightness(), Radius: h.GetRadius()}
}

// OverflowPolicy returns the parsed overflow policy.
func (cfg *Config) OverflowPolicy() frame.OverflowPolicy {
	p, _ := frame.ParseOverflowPolicy(cfg.Overflow)
	return p
}

// EffectOptions converts the effect section.
func (cfg *Config) EffectOptions() effect.Options {
	palette := make([]frame.RGB, 0, len(cfg.Effect.Palette))
	for _, c := range cfg.Effect.Palette {
		rgb, _ := parseRGB(c)
		palette = append(palette, rgb)
	}
	opts := effect.DefaultOptions(palette)
	opts.Speed = effect.Range{Min: cfg.Effect.Speed.Min, Max: cfg.Effect.Speed.Max}
	opts.Intensity = effect.Range{Min: cfg.Effect.Intensity.Min, Max: cfg.Effect.Intensity.Max}
	return opts
}

// Definitions converts the devices section. Streaming devices default to fine
// precision without debounce and never play effects.
func (cfg *Config) Definitions() []device.Definition {
	defs := make([]device.Definition, 0, len(cfg.Devices))
	for _, d := range cfg.Devices {
		kind, _ := device.ParseKind(d.Kind)
		precision := hands.PrecisionMinute
		if kind.Dense() {
			precision = hands.PrecisionFine
		}
		precision, _ = hands.ParsePrecision(d.Precision, precision)

		def := device.Definition{
			Name:      d.Name,
			Kind:      kind,
			Address:   d.Address,
			Offset:    d.Offset.Duration(),
			Leds:      d.Leds,
			Universe:  uint16(d.Universe),
			Precision: precision,
			Debounce:  boolOr(d.Debounce, !kind.Dense()),
			Effects:   !kind.Dense() && cfg.Effect.IsEnabled() && boolOr(d.Effects, true),
		}
		defs = append(defs, def)
	}
	return defs
}

// CID returns the configured E1.31 source id, or uuid.Nil for a random one.
func (cfg *Config) CID() uuid.UUID {
	if cfg.E131.CID == "" {
		return uuid.Nil
	}
	id, _ := uuid.Parse(cfg.E131.CID)
	return id
}

// CacheTTL returns the info cache TTL, or zero when caching is disabled.
func (cfg *Config) CacheTTL() time.Duration {
	if !cfg.Cache.Enabled {
		return 0
	}
	return cfg.Cache.TTL.Duration()
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
