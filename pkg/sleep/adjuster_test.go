package sleep

import (
	"testing"

	"github.com/mkarlstad/goddc/pkg/threadstate"
)

func feedStatuses(rec *threadstate.Record, ok, errs int) {
	for i := 0; i < ok; i++ {
		rec.RecordExchangeStatus(threadstate.StatusOK)
	}
	for i := 0; i < errs; i++ {
		rec.RecordExchangeStatus(threadstate.StatusError)
	}
}

func TestErrorRateAdjuster_RaisesOnErrors(t *testing.T) {
	rec := threadstate.NewRegistry(nil).GetOrCreate(1)
	adj := &ErrorRateAdjuster{}

	feedStatuses(rec, 1, 1)
	if got := adj.Adjustment(rec); got != 1.5 {
		t.Errorf("Expected factor 1.5 after errors, got %f", got)
	}

	snap := rec.Snapshot().Sleep
	if snap.AdjustmentCount != 1 {
		t.Errorf("Expected 1 recorded adjustment, got %d", snap.AdjustmentCount)
	}
	if snap.TotalAdjustmentChecks != 1 {
		t.Errorf("Expected 1 adjustment check, got %d", snap.TotalAdjustmentChecks)
	}
}

func TestErrorRateAdjuster_HoldsBetweenChecks(t *testing.T) {
	rec := threadstate.NewRegistry(nil).GetOrCreate(1)
	adj := &ErrorRateAdjuster{}

	// only one exchange since the last check, below the interval of 2
	rec.RecordExchangeStatus(threadstate.StatusError)
	if got := adj.Adjustment(rec); got != 1.0 {
		t.Errorf("Expected factor held at 1.0 before the check is due, got %f", got)
	}
}

func TestErrorRateAdjuster_CapsAndCountsExcess(t *testing.T) {
	rec := threadstate.NewRegistry(nil).GetOrCreate(1)
	adj := &ErrorRateAdjuster{Max: 2.0}

	for i := 0; i < 4; i++ {
		feedStatuses(rec, 0, 2)
		adj.Adjustment(rec)
	}
	if got := adj.Adjustment(rec); got != 2.0 {
		t.Errorf("Expected factor capped at 2.0, got %f", got)
	}
	if rec.Snapshot().Sleep.ExcessAdjustmentCount == 0 {
		t.Error("Expected excess adjustments to be counted")
	}
}

func TestErrorRateAdjuster_DecaysOnCleanHistory(t *testing.T) {
	rec := threadstate.NewRegistry(nil).GetOrCreate(1)
	adj := &ErrorRateAdjuster{}

	feedStatuses(rec, 0, 2)
	adj.Adjustment(rec) // 1.5
	feedStatuses(rec, 2, 0)
	if got := adj.Adjustment(rec); got != 1.0 {
		t.Errorf("Expected factor back at 1.0 after clean history, got %f", got)
	}
}

func TestErrorRateAdjuster_NeverBelowOne(t *testing.T) {
	rec := threadstate.NewRegistry(nil).GetOrCreate(1)
	adj := &ErrorRateAdjuster{}

	for i := 0; i < 3; i++ {
		feedStatuses(rec, 2, 0)
		if got := adj.Adjustment(rec); got < 1.0 {
			t.Fatalf("Expected factor >= 1.0, got %f", got)
		}
	}
}
