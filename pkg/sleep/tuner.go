package sleep

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mkarlstad/goddc/pkg/threadstate"
	"github.com/mkarlstad/goddc/pkg/types"
)

// Adjuster supplies the dynamic sleep adjustment factor. The factor
// computation (from recent success/error history) lives outside this
// package; the tuner only consumes the result and stores it back into
// the worker record for reporting.
type Adjuster interface {
	Adjustment(rec *threadstate.Record) float64
}

// FixedAdjuster always returns the same factor. The zero-value factor
// is treated as 1.0. Used when dynamic sleep is disabled and in tests.
type FixedAdjuster struct {
	Factor float64
}

// Adjustment implements Adjuster.
func (a FixedAdjuster) Adjustment(*threadstate.Record) float64 {
	if a.Factor == 0 {
		return 1.0
	}
	return a.Factor
}

// Tuner paces DDC exchanges for one worker. All delays go through the
// injected clock so tests can run against a mock.
type Tuner struct {
	rec       *threadstate.Record
	clock     types.Clock
	adjuster  Adjuster
	transport Transport
	logger    *slog.Logger

	// suppress skips the delay for low-risk events (post-read,
	// pre-EDID). Atomic so it can be toggled while workers run.
	suppress atomic.Bool
}

// TunerOption configures a Tuner.
type TunerOption func(*Tuner)

// WithClock sets the clock used for delays.
func WithClock(clock types.Clock) TunerOption {
	return func(t *Tuner) {
		t.clock = clock
	}
}

// WithAdjuster sets the dynamic sleep adjustment source.
func WithAdjuster(a Adjuster) TunerOption {
	return func(t *Tuner) {
		t.adjuster = a
	}
}

// WithLogger enables delay tracing.
func WithLogger(logger *slog.Logger) TunerOption {
	return func(t *Tuner) {
		t.logger = logger
	}
}

// NewTuner creates a tuner for one worker record on the given transport.
func NewTuner(rec *threadstate.Record, transport Transport, opts ...TunerOption) *Tuner {
	t := &Tuner{
		rec:       rec,
		clock:     types.NewRealClock(),
		adjuster:  FixedAdjuster{},
		transport: transport,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record returns the worker record the tuner operates on.
func (t *Tuner) Record() *threadstate.Record {
	return t.rec
}

// SetSuppression enables or disables sleep suppression. When enabled,
// Pace returns immediately for PostRead and PreEDID events.
func (t *Tuner) SetSuppression(enabled bool) {
	t.suppress.Store(enabled)
}

// Suppressed reports the current suppression setting.
func (t *Tuner) Suppressed() bool {
	return t.suppress.Load()
}

// Pace performs the protocol delay for an event:
//
//	millis = base(transport, event) * multiplier count
//	         * multiplier factor * dynamic adjustment factor
//
// and records the sleep event. The multiplier count is the transient
// per-operation value bumped by retry logic; the multiplier factor is
// the per-worker configuration value; the adjustment factor comes from
// the Adjuster when dynamic sleep is enabled on the record.
func (t *Tuner) Pace(ev EventKind) {
	if ev == Special {
		panic("sleep: Special event requires PaceSpecial")
	}
	if t.suppress.Load() && (ev == PostRead || ev == PreEDID) {
		return
	}
	t.sleepFor(ev, baseMillis(t.transport, ev))
}

// PaceSpecial performs a delay with a caller-supplied base duration,
// scaled like any other event.
func (t *Tuner) PaceSpecial(base time.Duration) {
	if base <= 0 {
		panic("sleep: PaceSpecial requires a positive duration")
	}
	t.sleepFor(Special, int(base.Milliseconds()))
}

func (t *Tuner) sleepFor(ev EventKind, base int) {
	adjustment := 1.0
	if t.rec.DynamicSleepEnabled() {
		adjustment = t.adjuster.Adjustment(t.rec)
		t.rec.SetAdjustmentFactor(adjustment)
	}

	count := t.rec.SleepMultiplierCount()
	factor := t.rec.SleepMultiplierFactor()
	millis := float64(base) * float64(count) * factor * adjustment

	if t.logger != nil {
		t.logger.Debug("pacing delay",
			"event", ev.String(),
			"transport", t.transport.String(),
			"base_ms", base,
			"multiplier_count", count,
			"multiplier_factor", factor,
			"adjustment_factor", adjustment,
			"sleep_ms", millis)
	}

	t.rec.RecordSleepEvent()
	t.clock.Sleep(time.Duration(millis * float64(time.Millisecond)))
}

// BumpMultiplierCount raises the transient multiplier count for the
// current worker, typically from retry logic reacting to instability.
// Call ResetMultiplierCount when the top-level operation finishes.
func (t *Tuner) BumpMultiplierCount(n int) {
	t.rec.SetSleepMultiplierCount(n)
	t.rec.BumpMultiplierChangedCount()
}

// ResetMultiplierCount restores the multiplier count to 1.
func (t *Tuner) ResetMultiplierCount() {
	t.rec.SetSleepMultiplierCount(1)
}
