package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks configuration errors. They are fatal at startup.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration
type Config struct {
	Log             LogConfig         `yaml:"log"`
	Timezone        string            `yaml:"timezone"`
	TickInterval    Duration          `yaml:"tick_interval"`    // Cadence of the update driver
	HTTPTimeout     Duration          `yaml:"http_timeout"`     // Per-request timeout for WLED devices
	RateLimitRPS    float64           `yaml:"rate_limit_rps"`   // Per-device request rate, 0 = unlimited
	Transition      *int              `yaml:"transition"`       // WLED transition time in 100ms units
	ShutdownTimeout Duration          `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
	Overflow        string            `yaml:"overflow"`         // truncate | merge | error
	Hands           HandsConfig       `yaml:"hands"`
	Effect          EffectConfig      `yaml:"effect"`
	Devices         []DeviceConfig    `yaml:"devices"`
	E131            E131Config        `yaml:"e131"`
	Cache           CacheConfig       `yaml:"cache"`
	Database        DatabaseConfig    `yaml:"database"`
	Ledger          LedgerConfig      `yaml:"ledger"`
	Healthcheck     HealthcheckConfig `yaml:"healthcheck"`
	EventBus        EventBusConfig    `yaml:"eventbus"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	Colors  bool   `yaml:"colors"`
	UseJSON bool   `yaml:"json"`
}

// GetLevel returns the log level with default
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// HandConfig describes one clock hand light source
type HandConfig struct {
	Enabled    *bool    `yaml:"enabled"`    // Only consulted for the second hand
	Brightness *float64 `yaml:"brightness"` // Fraction of full output, 0..1
	Radius     *float64 `yaml:"radius"`     // Falloff distance in LEDs; 0 lights only the LED under the hand
}

// IsEnabled returns whether the hand is drawn, defaulting to def
func (h *HandConfig) IsEnabled(def bool) bool {
	if h.Enabled == nil {
		return def
	}
	return *h.Enabled
}

// GetBrightness returns the hand brightness
func (h *HandConfig) GetBrightness() float64 {
	if h.Brightness == nil {
		return 0
	}
	return *h.Brightness
}

// GetRadius returns the hand falloff radius
func (h *HandConfig) GetRadius() float64 {
	if h.Radius == nil {
		return 0
	}
	return *h.Radius
}

// HandsConfig contains the clock hand settings
type HandsConfig struct {
	Hour   HandConfig `yaml:"hour"`
	Minute HandConfig `yaml:"minute"`
	Second HandConfig `yaml:"second"`
	Color  []int      `yaml:"color"`
}

// RangeConfig is an inclusive integer range
type RangeConfig struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// EffectConfig contains the hourly effect settings
type EffectConfig struct {
	Enabled   *bool        `yaml:"enabled"`
	Palette   [][]int      `yaml:"palette"`
	Speed     *RangeConfig `yaml:"speed"`
	Intensity *RangeConfig `yaml:"intensity"`
}

// IsEnabled returns whether hourly effects are enabled (default: true)
func (c *EffectConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// DeviceConfig describes one lighting controller
type DeviceConfig struct {
	Name      string   `yaml:"name"`
	Kind      string   `yaml:"kind"`      // wled | e131
	Address   string   `yaml:"address"`   // Host or URL; empty e131 address streams multicast
	Offset    Duration `yaml:"offset"`    // Added to the current time, for clocks that run ahead or behind
	Leds      int      `yaml:"leds"`      // Required for e131 devices
	Universe  int      `yaml:"universe"`  // e131 start universe (default: 1)
	Precision string   `yaml:"precision"` // minute | fine
	Debounce  *bool    `yaml:"debounce"`  // Update at most once per minute
	Effects   *bool    `yaml:"effects"`   // Play the hourly effect (wled only)
}

// E131Config contains streaming source settings
type E131Config struct {
	SourceName string `yaml:"source_name"`
	Priority   int    `yaml:"priority"`
	CID        string `yaml:"cid"` // Fixed source UUID; random when empty
}

// CacheConfig contains device info cache settings
type CacheConfig struct {
	Enabled bool     `yaml:"enabled"` // If false, device info is fetched every update (default: false)
	TTL     Duration `yaml:"ttl"`     // Only used if enabled
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LedgerConfig contains delivery ledger settings
type LedgerConfig struct {
	Enabled         bool     `yaml:"enabled"` // Record every update attempt in the database (default: false)
	CleanupInterval Duration `yaml:"cleanup_interval"`
	RetentionDays   int      `yaml:"retention_days"`
}

// Retention returns the ledger retention period
func (c *LedgerConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// HealthcheckConfig contains health check server settings
type HealthcheckConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// EventBusConfig contains event bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`    // Number of worker goroutines (default: 4)
	QueueSize int `yaml:"queue_size"` // Event queue size (default: 100)
}

// GetWorkers returns worker count with default
func (c *EventBusConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}

// GetQueueSize returns queue size with default
func (c *EventBusConfig) GetQueueSize() int {
	if c.QueueSize <= 0 {
		return 100
	}
	return c.QueueSize
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads, parses and validates the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return Parse(data)
}

// Parse parses and validates configuration from YAML bytes
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = Duration(10 * time.Second)
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = Duration(2500 * time.Millisecond)
	}
	if cfg.Transition == nil {
		transition := 3
		cfg.Transition = &transition
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}
	if cfg.Overflow == "" {
		cfg.Overflow = "truncate"
	}

	// Hand defaults
	setHandDefaults(&cfg.Hands.Hour, 1.0, 1.5)
	setHandDefaults(&cfg.Hands.Minute, 1.0, 1.5)
	setHandDefaults(&cfg.Hands.Second, 0.3, 1.0)
	if len(cfg.Hands.Color) == 0 {
		cfg.Hands.Color = []int{255, 255, 255}
	}

	// Effect defaults
	if cfg.Effect.Speed == nil {
		cfg.Effect.Speed = &RangeConfig{Min: 0, Max: 255}
	}
	if cfg.Effect.Intensity == nil {
		cfg.Effect.Intensity = &RangeConfig{Min: 0, Max: 255}
	}

	for i := range cfg.Devices {
		dev := &cfg.Devices[i]
		if dev.Kind == "" {
			dev.Kind = "wled"
		}
		if dev.Name == "" {
			dev.Name = dev.Address
			if dev.Name == "" {
				dev.Name = fmt.Sprintf("%s-%d", dev.Kind, i)
			}
		}
		if dev.Kind == "e131" && dev.Universe == 0 {
			dev.Universe = 1
		}
	}

	if cfg.E131.SourceName == "" {
		cfg.E131.SourceName = "ringclock"
	}
	if cfg.E131.Priority == 0 {
		cfg.E131.Priority = 100
	}

	// Cache defaults - caching is OFF by default (always fetch fresh info)
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = Duration(1 * time.Hour)
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./ringclock.sqlite"
	}

	// Ledger defaults
	if cfg.Ledger.CleanupInterval == 0 {
		cfg.Ledger.CleanupInterval = Duration(24 * time.Hour)
	}
	if cfg.Ledger.RetentionDays == 0 {
		cfg.Ledger.RetentionDays = 7
	}

	// Healthcheck defaults
	if cfg.Healthcheck.Port == 0 {
		cfg.Healthcheck.Port = 9090
	}
	if cfg.Healthcheck.Host == "" {
		cfg.Healthcheck.Host = "0.0.0.0"
	}
}

func setHandDefaults(h *HandConfig, brightness, radius float64) {
	if h.Brightness == nil {
		h.Brightness = &brightness
	}
	if h.Radius == nil {
		h.Radius = &radius
	}
}

// GetTransition returns the WLED transition time in 100ms units
func (cfg *Config) GetTransition() int {
	if cfg.Transition == nil {
		return 0
	}
	return *cfg.Transition
}

// GetShutdownTimeout returns the shutdown timeout
func (cfg *Config) GetShutdownTimeout() time.Duration {
	return cfg.ShutdownTimeout.Duration()
}

// Location returns the configured timezone
func (cfg *Config) Location() (*time.Location, error) {
	return time.LoadLocation(cfg.Timezone)
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
