// Package retry implements the bounded retry loop that makes the
// half-duplex DDC/CI wire protocol usable.
//
// Each logical exchange belongs to one of four retry classes
// (write-only, write-read, multi-part read, multi-part write), each
// with its own per-worker retry bound in [1,15]. Execute runs the
// supplied op until it succeeds, returns a definitive negative
// (null or all-zero response), fails fatally, or the budget is spent.
//
// Outcome classification:
//
//   - nil                      -> Succeeded(tries)
//   - types.ErrNullResponse    -> Unsupported(NullResponse), stop at once
//   - types.ErrAllZeroResponse -> Unsupported(AllZeroResponse), stop at once
//   - types.Fatal(err)         -> FatalFailure, stop at once
//   - anything else            -> transient, try again
//
// Callers that need additional early termination pre-convert their
// status codes into one of the terminating forms before returning from
// the op. Exhaustion carries the full per-attempt error history for
// diagnostic output.
//
// Every terminal outcome is recorded exactly once in the worker
// record's histogram: bucket 0 fatal, bucket 1 exhausted or determined
// unsupported, bucket k+1 success after k tries.
//
// The executor never sleeps; pacing belongs to the op via the sleep
// package, since call sites classify sleep events differently.
//
// Basic usage:
//
//	rec := threadstate.Default().Acquire()
//	exec := retry.New(rec)
//
//	out := exec.Execute(types.WriteRead, func() error {
//		return doExchange()
//	})
//	if err := out.Err(); err != nil {
//		return err
//	}
package retry
