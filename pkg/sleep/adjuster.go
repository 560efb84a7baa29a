package sleep

import "github.com/mkarlstad/goddc/pkg/threadstate"

// Error-rate adjustment parameters.
const (
	defaultErrorThreshold = 0.1
	defaultAdjustStep     = 0.5
	defaultAdjustMax      = 3.0
)

// ErrorRateAdjuster raises the dynamic adjustment factor when the
// recent exchange history shows errors and walks it back toward 1.0 as
// exchanges succeed. It consults the record's check interval so the
// factor only moves after enough exchanges have accumulated to mean
// something.
//
// Not safe for concurrent use; owned by one worker like its record.
type ErrorRateAdjuster struct {
	// Threshold is the error fraction that triggers an increase.
	Threshold float64
	// Step is the additive factor change per adjustment.
	Step float64
	// Max caps the factor. Hitting the cap counts as an excess
	// adjustment in the record's statistics.
	Max float64

	current float64
}

func (a *ErrorRateAdjuster) params() (threshold, step, max float64) {
	threshold, step, max = a.Threshold, a.Step, a.Max
	if threshold == 0 {
		threshold = defaultErrorThreshold
	}
	if step == 0 {
		step = defaultAdjustStep
	}
	if max == 0 {
		max = defaultAdjustMax
	}
	return threshold, step, max
}

// Adjustment implements Adjuster.
func (a *ErrorRateAdjuster) Adjustment(rec *threadstate.Record) float64 {
	if a.current == 0 {
		a.current = 1.0
	}
	if !rec.AdjustmentCheckDue() {
		return a.current
	}

	ok, errs := rec.CurrentErrorRate()
	total := ok + errs
	if total == 0 {
		return a.current
	}

	threshold, step, max := a.params()
	rate := float64(errs) / float64(total)
	switch {
	case rate > threshold:
		next := a.current + step
		excess := next >= max
		if excess {
			next = max
		}
		a.current = next
		rec.NoteAdjustment(excess)
	case errs == 0 && a.current > 1.0:
		next := a.current - step
		if next < 1.0 {
			next = 1.0
		}
		a.current = next
		rec.NoteAdjustment(false)
	}
	return a.current
}
