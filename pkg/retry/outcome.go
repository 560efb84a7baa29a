package retry

import (
	"fmt"
	"strings"

	"github.com/mkarlstad/goddc/pkg/types"
)

// OutcomeKind classifies the terminal result of one retried exchange.
type OutcomeKind int

const (
	// Succeeded means some attempt within the budget returned data.
	Succeeded OutcomeKind = iota

	// Exhausted means every attempt in the budget failed with a
	// retryable error.
	Exhausted

	// Unsupported means the monitor gave a definitive "no such data"
	// answer; retrying could not have helped.
	Unsupported

	// FatalFailure means a non-retryable, non-protocol error occurred.
	FatalFailure
)

// UnsupportedReason distinguishes the two definitive negative replies.
type UnsupportedReason int

const (
	// NullResponse is the DDC Null Message.
	NullResponse UnsupportedReason = iota
	// AllZeroResponse is a reply consisting solely of zero bytes.
	AllZeroResponse
)

func (r UnsupportedReason) String() string {
	if r == NullResponse {
		return "null response"
	}
	return "all-zero response"
}

// Outcome is the terminal result of Executor.Execute: what happened,
// how many attempts it took, and the error seen on every attempt.
type Outcome struct {
	Class types.RetryClass
	Kind  OutcomeKind

	// Tries is the number of attempts performed.
	Tries int

	// History holds the error from each failed attempt, in order. The
	// full sequence is kept, not just the last error, so diagnostics
	// can show the complete try history.
	History []error

	// Reason is set when Kind is Unsupported.
	Reason UnsupportedReason

	// Cause is set when Kind is FatalFailure.
	Cause error
}

// Success reports whether the exchange produced data.
func (o Outcome) Success() bool {
	return o.Kind == Succeeded
}

// Err converts a failed outcome into an error; nil for success.
// Exhaustion maps to ExhaustedError, unsupported to UnsupportedError,
// fatal to its cause.
func (o Outcome) Err() error {
	switch o.Kind {
	case Succeeded:
		return nil
	case Exhausted:
		return &ExhaustedError{Class: o.Class, Tries: o.Tries, History: o.History}
	case Unsupported:
		return &UnsupportedError{Class: o.Class, Reason: o.Reason}
	default:
		return o.Cause
	}
}

// ExhaustedError reports that an exchange used its whole retry budget,
// carrying the per-attempt error sequence.
type ExhaustedError struct {
	Class   types.RetryClass
	Tries   int
	History []error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s exchange failed after %d tries", e.Class, e.Tries)
}

// Is matches types.ErrRetriesExhausted.
func (e *ExhaustedError) Is(target error) bool {
	return target == types.ErrRetriesExhausted
}

// TryHistory renders the per-attempt errors for diagnostic output.
func (e *ExhaustedError) TryHistory() string {
	parts := make([]string, len(e.History))
	for i, err := range e.History {
		parts[i] = fmt.Sprintf("try %d: %v", i+1, err)
	}
	return strings.Join(parts, "; ")
}

// UnsupportedError reports a definitive "monitor does not have this
// data" result. Callers render it as "not supported", not as an error.
type UnsupportedError struct {
	Class  types.RetryClass
	Reason UnsupportedReason
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s exchange determined unsupported (%s)", e.Class, e.Reason)
}

// Is matches types.ErrDeterminedUnsupported.
func (e *UnsupportedError) Is(target error) bool {
	return target == types.ErrDeterminedUnsupported
}
