// Package types defines the shared vocabulary of the DDC/CI client:
// retry classes, the status taxonomy, and the clock abstraction.
package types

import "fmt"

// RetryClass identifies one of the four DDC exchange shapes, each with its
// own retry bound and statistics.
type RetryClass int

const (
	// WriteOnly is a bare request with no reply, e.g. Set VCP Feature.
	WriteOnly RetryClass = iota

	// WriteRead is a request followed by a reply, e.g. Get VCP Feature.
	WriteRead

	// MultiPartRead is one fragment exchange of a capabilities or table
	// read sequence.
	MultiPartRead

	// MultiPartWrite is one fragment exchange of a table write sequence.
	MultiPartWrite
)

// RetryClassCount is the number of retry classes.
const RetryClassCount = 4

// MaxMaxTries is the upper limit to which any retry bound can be set.
// Histogram storage is sized from it.
const MaxMaxTries = 15

// Default per-class retry bounds, per the DDC/CI protocol experience
// baked into the reference parameters.
const (
	DefaultWriteOnlyTries     = 4
	DefaultWriteReadTries     = 10
	DefaultMultiExchangeTries = 8
)

// DefaultMaxTries returns the startup retry bound for a class.
func DefaultMaxTries(c RetryClass) int {
	switch c {
	case WriteOnly:
		return DefaultWriteOnlyTries
	case WriteRead:
		return DefaultWriteReadTries
	case MultiPartRead, MultiPartWrite:
		return DefaultMultiExchangeTries
	default:
		panic(fmt.Sprintf("types: invalid retry class %d", int(c)))
	}
}

// RetryClasses lists all classes in declaration order, for iteration.
func RetryClasses() [RetryClassCount]RetryClass {
	return [RetryClassCount]RetryClass{WriteOnly, WriteRead, MultiPartRead, MultiPartWrite}
}

// Valid reports whether c names a defined retry class.
func (c RetryClass) Valid() bool {
	return c >= WriteOnly && c <= MultiPartWrite
}

// String returns the short identifier used in logs and flags.
func (c RetryClass) String() string {
	switch c {
	case WriteOnly:
		return "write-only"
	case WriteRead:
		return "write-read"
	case MultiPartRead:
		return "multi-part-read"
	case MultiPartWrite:
		return "multi-part-write"
	default:
		return fmt.Sprintf("RetryClass(%d)", int(c))
	}
}

// Description returns the human-readable form used in stats reports.
func (c RetryClass) Description() string {
	switch c {
	case WriteOnly:
		return "write only"
	case WriteRead:
		return "write-read"
	case MultiPartRead:
		return "multi-part read"
	case MultiPartWrite:
		return "multi-part write"
	default:
		return c.String()
	}
}
