package device

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ringclock/internal/effect"
	"github.com/dokzlo13/ringclock/internal/frame"
	"github.com/dokzlo13/ringclock/internal/hands"
)

// Outcome describes what a tick did for a device.
type Outcome string

const (
	OutcomeBusy          Outcome = "busy"           // previous tick still running
	OutcomeDebounced     Outcome = "debounced"      // minute already handled
	OutcomeEffectRunning Outcome = "effect_running" // hourly effect playing
	OutcomeSkipped       Outcome = "skipped"        // info or frame unavailable
	OutcomeHands         Outcome = "hands"
	OutcomeEffect        Outcome = "effect"
)

// UpdaterOptions configure frame composition shared by all devices.
type UpdaterOptions struct {
	Hands    frame.Hands
	Color    frame.RGB
	Overflow frame.OverflowPolicy
	Location *time.Location
}

// Updater runs the per-device clock pipeline: read the hands, fetch device info,
// compose a frame (or the hourly effect) and deliver it.
type Updater struct {
	opts     UpdaterOptions
	selector *effect.Selector
}

// NewUpdater creates an Updater.
func NewUpdater(opts UpdaterOptions, selector *effect.Selector) *Updater {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Updater{opts: opts, selector: selector}
}

// Tick runs one update of d at now. Errors are per device and never fatal;
// unreachable devices return an error wrapping ErrDeviceUnreachable.
//
// The minute is marked handled once a frame is composed and before delivery, so
// a failed delivery is retried on the next minute rather than the next tick. An
// info fetch failure leaves the state untouched.
func (u *Updater) Tick(ctx context.Context, d *Device, now time.Time) (Outcome, error) {
	if !d.tryAcquire() {
		return OutcomeBusy, nil
	}
	defer d.release()

	ct := hands.Read(now, d.Def.Offset, u.opts.Location)

	if ct.Minute != 0 && d.EffectInProgress() {
		d.SetEffectInProgress(false)
	}
	if ct.Minute == 0 && d.EffectInProgress() {
		return OutcomeEffectRunning, nil
	}
	if d.Def.Debounce && !d.ShouldUpdate(ct.Minute) {
		return OutcomeDebounced, nil
	}

	info, err := d.sink.Info(ctx)
	if err != nil {
		d.recordDelivery(now, err)
		return OutcomeSkipped, fmt.Errorf("%w: %s: %w", ErrDeviceUnreachable, d.Name(), err)
	}

	f, outcome, err := u.compose(d, ct, info)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("%s: %w", d.Name(), err)
	}

	d.MarkUpdated(ct.Minute)
	if outcome == OutcomeEffect {
		d.SetEffectInProgress(true)
	}

	log.Debug().
		Str("device", d.Name()).
		Int("hour", ct.Hour).
		Int("minute", ct.Minute).
		Str("outcome", string(outcome)).
		Msg("Delivering frame")

	if err := d.sink.Deliver(ctx, f); err != nil {
		d.recordDelivery(now, err)
		return outcome, fmt.Errorf("%w: %s: %w", ErrDeviceUnreachable, d.Name(), err)
	}
	d.recordDelivery(now, nil)

	return outcome, nil
}

func (u *Updater) compose(d *Device, ct hands.ClockTime, info Info) (Frame, Outcome, error) {
	dense := d.Def.Kind.Dense()

	if !dense && d.Def.Effects && u.selector != nil && effect.ShouldTrigger(ct.Minute, d.EffectInProgress()) {
		if seg, ok := u.selector.Build(info.LedCount, info.EffectCount); ok {
			segments, err := frame.Pad(seg, info.MaxSegments)
			if err != nil {
				return Frame{}, OutcomeSkipped, err
			}
			return Frame{Segments: segments}, OutcomeEffect, nil
		}
		log.Warn().Str("device", d.Name()).Msg("Hourly effect unavailable, drawing hands instead")
	}

	sources := frame.Sources(ct, info.LedCount, u.opts.Hands, d.Def.Precision)

	if dense {
		buf, err := frame.Dense(info.LedCount, sources, u.opts.Color)
		if err != nil {
			return Frame{}, OutcomeSkipped, err
		}
		return Frame{Channels: buf}, OutcomeHands, nil
	}

	segments, err := frame.Sparse(info.LedCount, info.MaxSegments, sources, frame.SparseOptions{
		Color:    u.opts.Color,
		Overflow: u.opts.Overflow,
	})
	if err != nil {
		return Frame{}, OutcomeSkipped, err
	}
	return Frame{Segments: segments}, OutcomeHands, nil
}
