package device

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ringclock/internal/e131"
	"github.com/dokzlo13/ringclock/internal/frame"
	"github.com/dokzlo13/ringclock/internal/wled"
)

// Frame is a composed, transport-agnostic payload. Exactly one of Segments
// (sparse devices) or Channels (dense devices) is set.
type Frame struct {
	Segments []frame.Segment
	Channels []byte
}

// Sink is the transport side of a device.
type Sink interface {
	// Info returns the current LED layout of the device.
	Info(ctx context.Context) (Info, error)
	// Deliver pushes a frame to the device.
	Deliver(ctx context.Context, f Frame) error
	Close() error
}

// InfoCache stores device info between ticks.
type InfoCache interface {
	Get(address string) (*Info, bool)
	Put(address string, info Info) error
}

// WLEDSink delivers segment frames to a WLED controller.
type WLEDSink struct {
	client     *wled.Client
	transition int
	cache      InfoCache
}

// NewWLEDSink creates a WLED sink. cache may be nil.
func NewWLEDSink(client *wled.Client, transition int, cache InfoCache) *WLEDSink {
	return &WLEDSink{client: client, transition: transition, cache: cache}
}

// Info returns cached info when fresh, otherwise fetches it from the device.
func (s *WLEDSink) Info(ctx context.Context) (Info, error) {
	if s.cache != nil {
		if info, ok := s.cache.Get(s.client.Address()); ok {
			return *info, nil
		}
	}

	raw, err := s.client.Info(ctx)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		LedCount:    raw.Leds.Count,
		MaxSegments: raw.Leds.MaxSeg,
		EffectCount: raw.FxCount,
	}

	if s.cache != nil {
		if err := s.cache.Put(s.client.Address(), info); err != nil {
			log.Warn().Err(err).Str("address", s.client.Address()).Msg("Failed to cache device info")
		}
	}
	return info, nil
}

// Deliver posts the segments as a state update.
func (s *WLEDSink) Deliver(ctx context.Context, f Frame) error {
	if f.Segments == nil {
		return fmt.Errorf("wled device %s needs a segment frame", s.client.Address())
	}
	return s.client.SetState(ctx, wled.NewState(f.Segments, s.transition))
}

// Close releases idle connections.
func (s *WLEDSink) Close() error {
	return s.client.Close()
}

// E131Sink streams dense frames to an E1.31 receiver with a fixed LED count.
type E131Sink struct {
	sender *e131.Sender
	leds   int
}

// NewE131Sink creates an E1.31 sink for a ring of leds LEDs.
func NewE131Sink(sender *e131.Sender, leds int) *E131Sink {
	return &E131Sink{sender: sender, leds: leds}
}

// Info returns the static layout. Streaming devices have no segments or effects.
func (s *E131Sink) Info(context.Context) (Info, error) {
	return Info{LedCount: s.leds}, nil
}

// Deliver sends the channel buffer.
func (s *E131Sink) Deliver(_ context.Context, f Frame) error {
	if f.Channels == nil {
		return fmt.Errorf("e131 universe %d needs a channel frame", s.sender.Universe())
	}
	return s.sender.Send(f.Channels)
}

// Close closes the UDP connections.
func (s *E131Sink) Close() error {
	return s.sender.Close()
}

// DryRunSink fetches info from the wrapped sink but only logs frames.
type DryRunSink struct {
	Sink
	name string
}

// NewDryRunSink wraps sink so nothing is delivered.
func NewDryRunSink(name string, sink Sink) *DryRunSink {
	return &DryRunSink{Sink: sink, name: name}
}

// Deliver logs the frame.
func (s *DryRunSink) Deliver(_ context.Context, f Frame) error {
	ev := log.Info().Str("device", s.name)
	if f.Segments != nil {
		ev = ev.Int("segments", len(f.Segments)).Int("lit", frame.CountLit(f.Segments))
	} else {
		ev = ev.Int("channels", len(f.Channels))
	}
	ev.Msg("Dry run: frame not delivered")
	return nil
}
