// Package threadstate maintains retry bounds, outcome histograms and
// adaptive sleep state on a per-worker basis.
//
// The reference implementation keys this state by OS thread id so that
// statistics survive thread exit and can be enumerated externally. Go
// deliberately hides OS thread identity, so records are keyed by a
// caller-chosen worker id instead: each probe goroutine acquires one
// record, mutates only its own, and the registry enumerates all records
// for reporting regardless of whether the owning goroutine still runs.
package threadstate

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/mkarlstad/goddc/pkg/types"
)

// Registry is the process-wide map from worker id to Record. One coarse
// mutex guards lookup, insert and iteration; contention is negligible at
// one lock acquisition per multi-millisecond I/O exchange.
type Registry struct {
	mu       sync.Mutex
	records  map[int64]*Record
	defaults *Defaults
	nextID   atomic.Int64
}

// NewRegistry creates an empty registry seeded by defaults.
func NewRegistry(defaults *Defaults) *Registry {
	if defaults == nil {
		defaults = NewDefaults()
	}
	return &Registry{
		records:  make(map[int64]*Record),
		defaults: defaults,
	}
}

var defaultRegistry = NewRegistry(nil)

// Default returns the package-level registry used when callers do not
// construct their own, mirroring the reference's single global table.
func Default() *Registry {
	return defaultRegistry
}

// Defaults returns the registry's startup defaults.
func (r *Registry) Defaults() *Defaults {
	return r.defaults
}

// GetOrCreate returns the record keyed by id, creating and seeding it on
// first use. Records are never removed.
func (r *Registry) GetOrCreate(id int64) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		rec = &Record{id: id, defaults: r.defaults}
		r.records[id] = rec
	}
	return rec
}

// Acquire creates a record under a fresh auto-allocated id, for callers
// that do not have a natural key for their worker.
func (r *Registry) Acquire() *Record {
	return r.GetOrCreate(r.nextID.Add(1))
}

// Len returns the number of records ever created.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// ForEach applies fn to every record in unspecified order. fn must not
// call back into the registry.
func (r *Registry) ForEach(fn func(*Record)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		fn(rec)
	}
}

// ForEachSorted applies fn to every record in ascending id order.
func (r *Registry) ForEachSorted(fn func(*Record)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(r.records[id])
	}
}

// MaxTriesRange folds the minimum lowest and maximum highest bound for a
// class across all records. Class state not yet touched by its owner is
// lazily initialized from defaults, matching what the owner would see.
// Reporting-only; O(record count).
func (r *Registry) MaxTriesRange(c types.RetryClass) (lo, hi int) {
	lo = types.MaxMaxTries + 1
	hi = 0
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		rec.mu.Lock()
		st := rec.ensureRetryInit(c)
		if st.lowest < lo {
			lo = st.lowest
		}
		if st.highest > hi {
			hi = st.highest
		}
		rec.mu.Unlock()
	}
	if hi == 0 {
		// no records: report the defaults
		n := r.defaults.MaxTries(c)
		return n, n
	}
	return lo, hi
}
