package threadstate

import (
	"fmt"
	"sync"

	"github.com/mkarlstad/goddc/pkg/types"
)

// HistogramSize is the number of outcome buckets per retry class:
// index 0 counts fatal failures, index 1 counts exhausted retries and
// determined-unsupported results, index k >= 2 counts successes that
// needed k-1 tries.
const HistogramSize = types.MaxMaxTries + 2

// Histogram bucket indexes.
const (
	BucketFatal     = 0
	BucketExhausted = 1
)

// retryState holds the retry bound and outcome histogram for one class.
// The lowest/highest fields track the range the current bound has moved
// through over the record's lifetime, for the all-thread range report.
type retryState struct {
	defined  bool
	current  int
	lowest   int
	highest  int
	counters [HistogramSize]uint32
}

// sleepState holds the adaptive sleep bookkeeping for one record.
type sleepState struct {
	dynamicEnabled   bool
	multiplierFactor float64
	// multiplierCount is transient: bumped by retry logic within one
	// top-level operation, reset to 1 afterwards.
	multiplierCount        int
	maxMultiplierCount     int
	multiplierChangedCount int
	adjustmentFactor       float64

	currentOKCount    int
	currentErrorCount int
	totalOKCount      int
	totalErrorCount   int
	totalOtherCount   int

	callsSinceLastCheck     int
	adjustmentCheckInterval int
	totalAdjustmentChecks   int
	adjustmentCount         int
	excessAdjustmentCount   int

	sleepEventCount int
}

// Record is the per-worker state block: retry bounds and outcome
// histograms for each class, plus adaptive sleep state.
//
// A record is owned by exactly one goroutine, which performs all
// mutations; other goroutines only observe it through Snapshot or the
// registry's aggregation helpers. The mutex makes those observations
// race-free, it does not arbitrate between writers.
//
// Records are created by the registry and never destroyed, so statistics
// remain reportable after the owning goroutine exits.
type Record struct {
	mu    sync.Mutex
	id    int64
	label string

	defaults  *Defaults
	retry     [types.RetryClassCount]retryState
	sleep     sleepState
	sleepInit bool
}

// ID returns the key under which the record is registered.
func (r *Record) ID() int64 {
	return r.id
}

// SetLabel attaches a human-readable description, e.g. the display the
// owning worker is probing. Shown in stats reports.
func (r *Record) SetLabel(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.label = label
}

// ensureRetryInit seeds class state from defaults. Caller holds r.mu.
func (r *Record) ensureRetryInit(c types.RetryClass) *retryState {
	st := &r.retry[c]
	if !st.defined {
		n := r.defaults.MaxTries(c)
		st.current, st.lowest, st.highest = n, n, n
		st.defined = true
	}
	return st
}

// ensureSleepInit seeds sleep state from defaults. Caller holds r.mu.
func (r *Record) ensureSleepInit() *sleepState {
	if !r.sleepInit {
		r.sleep.dynamicEnabled = r.defaults.DynamicSleepEnabled()
		r.sleep.multiplierFactor = r.defaults.SleepMultiplier()
		r.sleep.multiplierCount = 1
		r.sleep.maxMultiplierCount = 1
		r.sleep.adjustmentFactor = 1.0
		r.sleep.adjustmentCheckInterval = 2
		r.sleepInit = true
	}
	return &r.sleep
}

func checkBound(n int) {
	if n < 1 || n > types.MaxMaxTries {
		panic(fmt.Sprintf("threadstate: max tries %d outside [1,%d]", n, types.MaxMaxTries))
	}
}

// SetInitialMaxTries sets current, lowest and highest bounds to n,
// discarding any range history. Idempotent. n outside [1,MaxMaxTries]
// is a programming error.
func (r *Record) SetInitialMaxTries(c types.RetryClass, n int) {
	checkBound(n)
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.ensureRetryInit(c)
	st.current, st.lowest, st.highest = n, n, n
}

// SetMaxTries sets the current bound to n, widening the lowest/highest
// range if n falls outside it.
func (r *Record) SetMaxTries(c types.RetryClass, n int) {
	checkBound(n)
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.ensureRetryInit(c)
	st.current = n
	if n > st.highest {
		st.highest = n
	}
	if n < st.lowest {
		st.lowest = n
	}
}

// MaxTries returns the current retry bound for a class.
func (r *Record) MaxTries(c types.RetryClass) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureRetryInit(c).current
}

// RecordSuccess counts a successful exchange that needed tries attempts.
func (r *Record) RecordSuccess(c types.RetryClass, tries int) {
	if tries < 1 || tries > types.MaxMaxTries {
		panic(fmt.Sprintf("threadstate: success try count %d outside [1,%d]", tries, types.MaxMaxTries))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureRetryInit(c).counters[tries+1]++
}

// RecordExhausted counts an exchange that failed after using its whole
// retry budget. Determined-unsupported results share this bucket: in
// both cases no value was obtained within the budget.
func (r *Record) RecordExhausted(c types.RetryClass) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureRetryInit(c).counters[BucketExhausted]++
}

// RecordFatal counts an exchange terminated by a non-retryable error.
func (r *Record) RecordFatal(c types.RetryClass) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureRetryInit(c).counters[BucketFatal]++
}

// ResetTries zeroes all outcome histograms, keeping bounds.
func (r *Record) ResetTries() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.retry {
		r.retry[i].counters = [HistogramSize]uint32{}
	}
}

//
// Sleep state accessors. All follow the same single-writer convention.
//

// DynamicSleepEnabled reports whether dynamic sleep adjustment is active
// for this record.
func (r *Record) DynamicSleepEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureSleepInit().dynamicEnabled
}

// EnableDynamicSleep switches dynamic sleep adjustment on or off.
func (r *Record) EnableDynamicSleep(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureSleepInit().dynamicEnabled = enabled
}

// SleepMultiplierFactor returns the per-record sleep multiplier, as set
// from the --sleep-multiplier option or SetSleepMultiplierFactor.
func (r *Record) SleepMultiplierFactor() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureSleepInit().multiplierFactor
}

// SetSleepMultiplierFactor sets the per-record sleep multiplier.
func (r *Record) SetSleepMultiplierFactor(f float64) {
	if f <= 0 {
		panic(fmt.Sprintf("threadstate: sleep multiplier factor %f not positive", f))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureSleepInit().multiplierFactor = f
}

// SleepMultiplierCount returns the transient multiplier count.
func (r *Record) SleepMultiplierCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureSleepInit().multiplierCount
}

// SetSleepMultiplierCount sets the transient multiplier count, tracking
// the high-water mark. Counts outside (0,100) are a programming error.
func (r *Record) SetSleepMultiplierCount(n int) {
	if n <= 0 || n >= 100 {
		panic(fmt.Sprintf("threadstate: sleep multiplier count %d outside (0,100)", n))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.ensureSleepInit()
	st.multiplierCount = n
	if n > st.maxMultiplierCount {
		st.maxMultiplierCount = n
	}
}

// BumpMultiplierChangedCount counts a retry-driven multiplier change.
func (r *Record) BumpMultiplierChangedCount() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureSleepInit().multiplierChangedCount++
}

// AdjustmentFactor returns the dynamic adjustment factor last supplied
// by the DSA collaborator, 1.0 until one is recorded.
func (r *Record) AdjustmentFactor() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureSleepInit().adjustmentFactor
}

// SetAdjustmentFactor stores the factor computed by the DSA collaborator.
func (r *Record) SetAdjustmentFactor(f float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureSleepInit().adjustmentFactor = f
}

// RecordSleepEvent counts one pacing delay.
func (r *Record) RecordSleepEvent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureSleepInit().sleepEventCount++
}

// ExchangeStatus classifies the result of one physical exchange for the
// dynamic sleep history.
type ExchangeStatus int

const (
	// StatusOK is a successful exchange.
	StatusOK ExchangeStatus = iota
	// StatusError is a DDC-level error.
	StatusError
	// StatusOther is a status the sleep history ignores.
	StatusOther
)

// RecordExchangeStatus feeds one exchange result into the success/error
// history consumed by dynamic sleep adjustment.
func (r *Record) RecordExchangeStatus(s ExchangeStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.ensureSleepInit()
	switch s {
	case StatusOK:
		st.currentOKCount++
		st.totalOKCount++
	case StatusError:
		st.currentErrorCount++
		st.totalErrorCount++
	default:
		st.totalOtherCount++
	}
	st.callsSinceLastCheck++
}

// AdjustmentCheckDue reports whether enough exchanges have accumulated
// since the last check for the DSA collaborator to run, and if so resets
// the interval counter and bumps the check total.
func (r *Record) AdjustmentCheckDue() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.ensureSleepInit()
	if st.callsSinceLastCheck < st.adjustmentCheckInterval {
		return false
	}
	st.callsSinceLastCheck = 0
	st.totalAdjustmentChecks++
	return true
}

// NoteAdjustment counts an applied adjustment; excess marks adjustments
// that hit the adjustment ceiling.
func (r *Record) NoteAdjustment(excess bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.ensureSleepInit()
	st.adjustmentCount++
	if excess {
		st.excessAdjustmentCount++
	}
	st.currentOKCount = 0
	st.currentErrorCount = 0
}

// CurrentErrorRate returns the ok/error counts accumulated since the
// last adjustment, for DSA implementations.
func (r *Record) CurrentErrorRate() (ok, errs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.ensureSleepInit()
	return st.currentOKCount, st.currentErrorCount
}
