package threadstate

import (
	"sync"

	"github.com/mkarlstad/goddc/pkg/types"
)

// Defaults holds the process-wide startup settings that seed new records.
// Updating a default never mutates records that already exist; it only
// affects records (or lazily-initialized class state) created afterwards.
//
// Guarded by its own mutex since the CLI sets defaults from the main
// goroutine while probe workers read them.
type Defaults struct {
	mu              sync.Mutex
	maxTries        [types.RetryClassCount]int
	sleepMultiplier float64
	dynamicSleep    bool
}

// NewDefaults returns defaults matching the DDC/CI reference parameters:
// per-class bounds 4/10/8/8, sleep multiplier 1.0, dynamic sleep off.
func NewDefaults() *Defaults {
	d := &Defaults{sleepMultiplier: 1.0}
	for _, c := range types.RetryClasses() {
		d.maxTries[c] = types.DefaultMaxTries(c)
	}
	return d
}

// MaxTries returns the default retry bound for a class.
func (d *Defaults) MaxTries(c types.RetryClass) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxTries[c]
}

// SetMaxTries sets the default retry bound for a class. Bounds outside
// [1,MaxMaxTries] are a programming error.
func (d *Defaults) SetMaxTries(c types.RetryClass, n int) {
	checkBound(n)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.maxTries[c] = n
}

// SleepMultiplier returns the default sleep multiplier factor.
func (d *Defaults) SleepMultiplier() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sleepMultiplier
}

// SetSleepMultiplier sets the default sleep multiplier factor.
func (d *Defaults) SetSleepMultiplier(f float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sleepMultiplier = f
}

// DynamicSleepEnabled returns the default dynamic sleep setting.
func (d *Defaults) DynamicSleepEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dynamicSleep
}

// SetDynamicSleepEnabled sets the default dynamic sleep setting.
func (d *Defaults) SetDynamicSleepEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dynamicSleep = enabled
}
