package threadstate

import "github.com/mkarlstad/goddc/pkg/types"

// RetrySnapshot is a point-in-time copy of one class's retry state.
type RetrySnapshot struct {
	Current  int
	Lowest   int
	Highest  int
	Counters [HistogramSize]uint32
}

// TotalAttempts sums every histogram bucket.
func (s RetrySnapshot) TotalAttempts() int {
	total := 0
	for _, n := range s.Counters {
		total += int(n)
	}
	return total
}

// TotalSuccesses sums the success buckets (index >= 2).
func (s RetrySnapshot) TotalSuccesses() int {
	total := 0
	for _, n := range s.Counters[2:] {
		total += int(n)
	}
	return total
}

// SleepSnapshot is a point-in-time copy of a record's sleep state.
type SleepSnapshot struct {
	DynamicSleepEnabled    bool
	MultiplierFactor       float64
	MultiplierCount        int
	MaxMultiplierCount     int
	MultiplierChangedCount int
	AdjustmentFactor       float64

	CurrentOKCount    int
	CurrentErrorCount int
	TotalOKCount      int
	TotalErrorCount   int
	TotalOtherCount   int

	CallsSinceLastCheck     int
	AdjustmentCheckInterval int
	TotalAdjustmentChecks   int
	AdjustmentCount         int
	ExcessAdjustmentCount   int

	SleepEventCount int
}

// Snapshot is a consistent copy of a whole record, taken under the
// record lock. Safe to read from any goroutine, including after the
// owning goroutine has exited.
type Snapshot struct {
	ID    int64
	Label string
	Retry [types.RetryClassCount]RetrySnapshot
	Sleep SleepSnapshot
}

// Snapshot copies the record's current state. Unset class or sleep state
// is initialized from defaults first, so the snapshot reflects what the
// owner would observe.
func (r *Record) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{ID: r.id, Label: r.label}
	for _, c := range types.RetryClasses() {
		st := r.ensureRetryInit(c)
		snap.Retry[c] = RetrySnapshot{
			Current:  st.current,
			Lowest:   st.lowest,
			Highest:  st.highest,
			Counters: st.counters,
		}
	}
	sl := r.ensureSleepInit()
	snap.Sleep = SleepSnapshot{
		DynamicSleepEnabled:     sl.dynamicEnabled,
		MultiplierFactor:        sl.multiplierFactor,
		MultiplierCount:         sl.multiplierCount,
		MaxMultiplierCount:      sl.maxMultiplierCount,
		MultiplierChangedCount:  sl.multiplierChangedCount,
		AdjustmentFactor:        sl.adjustmentFactor,
		CurrentOKCount:          sl.currentOKCount,
		CurrentErrorCount:       sl.currentErrorCount,
		TotalOKCount:            sl.totalOKCount,
		TotalErrorCount:         sl.totalErrorCount,
		TotalOtherCount:         sl.totalOtherCount,
		CallsSinceLastCheck:     sl.callsSinceLastCheck,
		AdjustmentCheckInterval: sl.adjustmentCheckInterval,
		TotalAdjustmentChecks:   sl.totalAdjustmentChecks,
		AdjustmentCount:         sl.adjustmentCount,
		ExcessAdjustmentCount:   sl.excessAdjustmentCount,
		SleepEventCount:         sl.sleepEventCount,
	}
	return snap
}
