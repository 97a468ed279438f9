// Package device tracks per-device runtime state and runs the clock update
// pipeline for one device per tick.
package device

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dokzlo13/ringclock/internal/hands"
)

// ErrDeviceUnreachable marks info-fetch and delivery failures. They are
// recoverable: the device is skipped and retried on a later tick.
var ErrDeviceUnreachable = errors.New("device unreachable")

// Kind identifies the transport a device speaks.
type Kind string

const (
	// KindWLED devices take segment updates over JSON/HTTP.
	KindWLED Kind = "wled"
	// KindE131 devices take dense RGB frames over E1.31.
	KindE131 Kind = "e131"
)

// ParseKind parses a device kind. An empty string yields KindWLED.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "":
		return KindWLED, nil
	case KindWLED, KindE131:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown device kind %q", s)
	}
}

// Dense reports whether the kind takes dense frames.
func (k Kind) Dense() bool {
	return k == KindE131
}

// Definition is the static, validated description of a device.
type Definition struct {
	Name      string
	Kind      Kind
	Address   string
	Offset    time.Duration // added to wall-clock time before reading the hands
	Leds      int           // known LED count, required for dense devices
	Universe  uint16
	Precision hands.Precision
	Debounce  bool // update at most once per minute
	Effects   bool // play the hourly effect
}

// Info describes the LED layout a device reports.
type Info struct {
	LedCount    int `json:"led_count"`
	MaxSegments int `json:"max_segments"`
	EffectCount int `json:"effect_count"`
}

// State is the runtime state of a device. It lives as long as the process.
type State struct {
	LastUpdatedMinute int       `json:"last_updated_minute"`
	HasUpdated        bool      `json:"has_updated"`
	EffectInProgress  bool      `json:"effect_in_progress"`
	LastDelivery      time.Time `json:"last_delivery,omitzero"`
	LastError         string    `json:"last_error,omitempty"`
	Deliveries        int       `json:"deliveries"`
	Failures          int       `json:"failures"`
}

// Device couples a definition with its sink and runtime state.
type Device struct {
	Def  Definition
	sink Sink

	// busy is held for the duration of a tick; a tick that cannot take it is
	// skipped so state is only touched by one tick at a time.
	busy sync.Mutex

	// Guards state for readers outside the tick (health endpoint)
	mu    sync.RWMutex
	state State
}

// New creates a device.
func New(def Definition, sink Sink) *Device {
	return &Device{Def: def, sink: sink}
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.Def.Name
}

// Snapshot returns a copy of the runtime state.
func (d *Device) Snapshot() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// ShouldUpdate reports whether a tick at minute has work to do.
func (d *Device) ShouldUpdate(minute int) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.state.HasUpdated || d.state.LastUpdatedMinute != minute
}

// MarkUpdated records that minute has been handled.
func (d *Device) MarkUpdated(minute int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.LastUpdatedMinute = minute
	d.state.HasUpdated = true
}

// EffectInProgress reports whether the hourly effect is playing.
func (d *Device) EffectInProgress() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.EffectInProgress
}

// SetEffectInProgress sets the hourly effect flag.
func (d *Device) SetEffectInProgress(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.EffectInProgress = v
}

func (d *Device) recordDelivery(at time.Time, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.state.Failures++
		d.state.LastError = err.Error()
		return
	}
	d.state.Deliveries++
	d.state.LastDelivery = at
	d.state.LastError = ""
}

func (d *Device) tryAcquire() bool {
	return d.busy.TryLock()
}

func (d *Device) release() {
	d.busy.Unlock()
}

// Close releases the device sink.
func (d *Device) Close() error {
	if d.sink == nil {
		return nil
	}
	return d.sink.Close()
}
