package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestTransientWrapping(t *testing.T) {
	base := errors.New("bus glitch")
	err := Transient(base)

	if !IsTransient(err) {
		t.Error("Expected IsTransient to be true")
	}
	if IsFatal(err) {
		t.Error("Expected IsFatal to be false")
	}
	if !errors.Is(err, base) {
		t.Error("Expected wrapped error to match base")
	}
}

func TestFatalWrapping(t *testing.T) {
	base := errors.New("device vanished")
	err := Fatal(base)

	if !IsFatal(err) {
		t.Error("Expected IsFatal to be true")
	}
	if IsTransient(err) {
		t.Error("Expected IsTransient to be false")
	}
	if !errors.Is(err, base) {
		t.Error("Expected wrapped error to match base")
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) should be nil")
	}
	if Fatal(nil) != nil {
		t.Error("Fatal(nil) should be nil")
	}
}

func TestIsDefinitive(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{ErrNullResponse, true},
		{ErrAllZeroResponse, true},
		{fmt.Errorf("exchange: %w", ErrNullResponse), true},
		{ErrFragmentOffset, false},
		{Transient(errors.New("noise")), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := IsDefinitive(tc.err); got != tc.want {
			t.Errorf("IsDefinitive(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestRetryClassNames(t *testing.T) {
	if WriteOnly.String() != "write-only" {
		t.Errorf("unexpected name %q", WriteOnly.String())
	}
	if MultiPartRead.Description() != "multi-part read" {
		t.Errorf("unexpected description %q", MultiPartRead.Description())
	}
	for _, c := range RetryClasses() {
		if !c.Valid() {
			t.Errorf("class %v should be valid", c)
		}
	}
	if RetryClass(99).Valid() {
		t.Error("class 99 should be invalid")
	}
}

func TestDefaultMaxTries(t *testing.T) {
	if DefaultMaxTries(WriteOnly) != 4 {
		t.Error("write-only default should be 4")
	}
	if DefaultMaxTries(WriteRead) != 10 {
		t.Error("write-read default should be 10")
	}
	if DefaultMaxTries(MultiPartRead) != 8 || DefaultMaxTries(MultiPartWrite) != 8 {
		t.Error("multi-part defaults should be 8")
	}
}
