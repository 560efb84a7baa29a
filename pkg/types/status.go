// Package types defines error types for the DDC status taxonomy.
package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the DDC/CI failure modes that terminate a retry loop.
//
// A null response (the monitor's "I have nothing to say" frame) and an
// all-zero response are definitive negatives, not transport noise: retrying
// them cannot produce data. Everything else on the wire is assumed
// transient unless wrapped with Fatal.
var (
	// ErrNullResponse indicates the monitor returned the DDC Null Message.
	ErrNullResponse = errors.New("ddc null response")

	// ErrAllZeroResponse indicates the read returned nothing but zero bytes.
	ErrAllZeroResponse = errors.New("ddc all-zero response")

	// ErrFragmentOffset indicates a multi-part fragment reported an offset
	// other than the one requested. Retryable at the same offset.
	ErrFragmentOffset = errors.New("ddc fragment offset mismatch")

	// ErrDeterminedUnsupported indicates the client concluded the monitor
	// does not support the requested data. A definitive negative result,
	// not a communication failure.
	ErrDeterminedUnsupported = errors.New("ddc determined unsupported")

	// ErrRetriesExhausted indicates all retry attempts failed.
	ErrRetriesExhausted = errors.New("ddc maximum retries exceeded")

	// ErrUnsupportedPlatform indicates the transport is not available on
	// this operating system.
	ErrUnsupportedPlatform = errors.New("transport not supported on this platform")
)

// TransientError marks an error as a retryable communication failure.
type TransientError struct {
	Cause error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return fmt.Sprintf("transient ddc error: %v", e.Cause)
}

// Unwrap returns the underlying error.
func (e *TransientError) Unwrap() error {
	return e.Cause
}

// Transient wraps err as a retryable communication failure.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Cause: err}
}

// FatalError marks an error as non-retryable and non-protocol, e.g. the
// device node vanished mid-exchange.
type FatalError struct {
	Cause error
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal ddc error: %v", e.Cause)
}

// Unwrap returns the underlying error.
func (e *FatalError) Unwrap() error {
	return e.Cause
}

// Fatal wraps err as a non-retryable failure.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Cause: err}
}

// IsFatal checks whether err is marked fatal.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// IsTransient checks whether err is explicitly marked transient.
// The retry executor treats any error that is neither a definitive
// sentinel nor fatal as transient; this helper only recognizes the
// explicit wrapper.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsDefinitive reports whether err is one of the sentinels that
// short-circuits a retry loop with a definitive negative answer.
func IsDefinitive(err error) bool {
	return errors.Is(err, ErrNullResponse) || errors.Is(err, ErrAllZeroResponse)
}
