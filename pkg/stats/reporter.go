// Package stats renders the retry and sleep statistics accumulated in a
// worker registry as the text reports shown by the stats CLI options.
package stats

import (
	"fmt"
	"io"

	"github.com/mkarlstad/goddc/pkg/threadstate"
	"github.com/mkarlstad/goddc/pkg/types"
)

// Reporter formats the statistics held by one registry.
type Reporter struct {
	reg *threadstate.Registry
}

// New creates a reporter over reg. A nil reg uses the default registry.
func New(reg *threadstate.Registry) *Reporter {
	if reg == nil {
		reg = threadstate.Default()
	}
	return &Reporter{reg: reg}
}

// Option configures one report call.
type Option func(*config)

type config struct {
	perWorker bool
	classes   []types.RetryClass
}

// PerWorker adds a per-worker breakdown after the aggregate view.
func PerWorker() Option {
	return func(c *config) {
		c.perWorker = true
	}
}

// Classes restricts the retry report to the named classes.
func Classes(cs ...types.RetryClass) Option {
	return func(c *config) {
		c.classes = cs
	}
}

func buildConfig(opts []Option) config {
	all := types.RetryClasses()
	cfg := config{classes: all[:]}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// classTotals is one class's histogram summed across workers.
type classTotals struct {
	counters [threadstate.HistogramSize]uint64
	lowest   int
	highest  int
}

func (t classTotals) total() uint64 {
	var sum uint64
	for _, n := range t.counters {
		sum += n
	}
	return sum
}

func (t classTotals) successes() uint64 {
	var sum uint64
	for _, n := range t.counters[2:] {
		sum += n
	}
	return sum
}

// RetryReport writes the retry statistics report. The aggregate section
// sums each class's histogram over every worker that ever ran; with
// PerWorker, a section per worker follows in ascending id order.
func (r *Reporter) RetryReport(w io.Writer, opts ...Option) error {
	cfg := buildConfig(opts)

	ew := &errWriter{w: w}
	ew.printf("Retry statistics for all workers\n")
	for _, c := range cfg.classes {
		totals := r.sumClass(c)
		r.writeClassSection(ew, c, totals, r.reg.Len())
	}

	if cfg.perWorker {
		r.reg.ForEachSorted(func(rec *threadstate.Record) {
			snap := rec.Snapshot()
			ew.printf("\nRetry statistics for worker %d", snap.ID)
			if snap.Label != "" {
				ew.printf(" (%s)", snap.Label)
			}
			ew.printf("\n")
			for _, c := range cfg.classes {
				st := snap.Retry[c]
				totals := classTotals{lowest: st.Lowest, highest: st.Highest}
				for i, n := range st.Counters {
					totals.counters[i] = uint64(n)
				}
				r.writeClassSection(ew, c, totals, 1)
			}
		})
	}
	return ew.err
}

func (r *Reporter) sumClass(c types.RetryClass) classTotals {
	var totals classTotals
	totals.lowest, totals.highest = r.reg.MaxTriesRange(c)
	r.reg.ForEach(func(rec *threadstate.Record) {
		st := rec.Snapshot().Retry[c]
		for i, n := range st.Counters {
			totals.counters[i] += uint64(n)
		}
	})
	return totals
}

func (r *Reporter) writeClassSection(ew *errWriter, c types.RetryClass, totals classTotals, workers int) {
	ew.printf("\nRetry data for %s exchanges:\n", c.Description())
	if totals.lowest == totals.highest {
		ew.printf("   Max tries allowed: %d\n", totals.highest)
	} else {
		ew.printf("   Max tries allowed: %d .. %d\n", totals.lowest, totals.highest)
	}

	if totals.total() == 0 {
		ew.printf("   No retry data recorded\n")
		return
	}

	ew.printf("   Successful attempts by number of tries required:\n")
	for tries := 1; tries <= types.MaxMaxTries; tries++ {
		n := totals.counters[tries+1]
		if n == 0 && tries > totals.highest {
			continue
		}
		ew.printf("      %2d: %4d\n", tries, n)
	}
	ew.printf("   Total successful attempts:        %4d\n", totals.successes())
	ew.printf("   Failed due to max tries exceeded: %4d\n", totals.counters[threadstate.BucketExhausted])
	ew.printf("   Failed due to fatal error:        %4d\n", totals.counters[threadstate.BucketFatal])
	ew.printf("   Total attempts:                   %4d\n", totals.total())
}

// SleepReport writes the adaptive sleep report, one section per worker.
func (r *Reporter) SleepReport(w io.Writer, opts ...Option) error {
	_ = buildConfig(opts)

	ew := &errWriter{w: w}
	ew.printf("Sleep statistics for all workers\n")
	if r.reg.Len() == 0 {
		ew.printf("   No sleep data recorded\n")
		return ew.err
	}

	r.reg.ForEachSorted(func(rec *threadstate.Record) {
		snap := rec.Snapshot()
		sl := snap.Sleep
		ew.printf("\nSleep data for worker %d", snap.ID)
		if snap.Label != "" {
			ew.printf(" (%s)", snap.Label)
		}
		ew.printf("\n")
		ew.printf("   Dynamic sleep enabled:       %t\n", sl.DynamicSleepEnabled)
		ew.printf("   Sleep multiplier factor:     %.2f\n", sl.MultiplierFactor)
		ew.printf("   Current multiplier count:    %d\n", sl.MultiplierCount)
		ew.printf("   Max multiplier count:        %d\n", sl.MaxMultiplierCount)
		ew.printf("   Multiplier changed count:    %d\n", sl.MultiplierChangedCount)
		if sl.DynamicSleepEnabled {
			ew.printf("   Current adjustment factor:   %.2f\n", sl.AdjustmentFactor)
			ew.printf("   Total adjustment checks:     %d\n", sl.TotalAdjustmentChecks)
			ew.printf("   Number of adjustments:       %d\n", sl.AdjustmentCount)
			ew.printf("   Excess adjustments:          %d\n", sl.ExcessAdjustmentCount)
		}
		ew.printf("   Exchanges ok/error/other:    %d/%d/%d\n",
			sl.TotalOKCount, sl.TotalErrorCount, sl.TotalOtherCount)
		ew.printf("   Total sleep events:          %d\n", sl.SleepEventCount)
	})
	return ew.err
}

// ElapsedReport writes both reports in the order the CLI shows them.
func (r *Reporter) ElapsedReport(w io.Writer, opts ...Option) error {
	if err := r.RetryReport(w, opts...); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return r.SleepReport(w, opts...)
}

// errWriter latches the first write error so report code can stay free
// of per-line error checks.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
