// Package sleep implements the per-worker adaptive pacing layer of the
// DDC/CI client. Every physical exchange site calls Pace with the event
// that just occurred; the delay is the protocol-mandated base time for
// that event scaled by the worker's multiplier state and the dynamic
// adjustment factor.
package sleep

import "fmt"

// EventKind names a protocol timing point that requires a pacing delay.
type EventKind int

const (
	// WriteToRead separates a request write from the reply read.
	WriteToRead EventKind = iota
	// PostWrite follows a write-only request.
	PostWrite
	// PostOpen follows opening the device.
	PostOpen
	// PostRead follows a completed reply read.
	PostRead
	// PostSaveSettings follows a Save Current Settings command, which
	// the DDC spec gives an extended settle time.
	PostSaveSettings
	// NullResponseRecovery follows receipt of a DDC Null Message before
	// the next attempt.
	NullResponseRecovery
	// PreEDID precedes an EDID read.
	PreEDID
	// PreMultiPartRead precedes the first fragment of a capabilities or
	// table read.
	PreMultiPartRead
	// MultiPartReadToWrite separates a multi-part read sequence from a
	// following write.
	MultiPartReadToWrite
	// Other covers timing points with no specific entry.
	Other
	// Special is a caller-supplied duration; see PaceSpecial.
	Special
)

// String returns the event name used in logs.
func (e EventKind) String() string {
	switch e {
	case WriteToRead:
		return "write-to-read"
	case PostWrite:
		return "post-write"
	case PostOpen:
		return "post-open"
	case PostRead:
		return "post-read"
	case PostSaveSettings:
		return "post-save-settings"
	case NullResponseRecovery:
		return "null-response-recovery"
	case PreEDID:
		return "pre-edid"
	case PreMultiPartRead:
		return "pre-multi-part-read"
	case MultiPartReadToWrite:
		return "multi-part-read-to-write"
	case Other:
		return "other"
	case Special:
		return "special"
	default:
		return fmt.Sprintf("EventKind(%d)", int(e))
	}
}

// Transport identifies the communication mechanism, which determines
// the base delay table.
type Transport int

const (
	// TransportI2C is the /dev/i2c-N DDC channel.
	TransportI2C Transport = iota
	// TransportUSB is a USB HID monitor. USB exchanges are timed by the
	// kernel HID layer; pacing them here is a programming error.
	TransportUSB
	// TransportVendor is a vendor display library channel.
	TransportVendor
)

// String returns the transport name used in logs.
func (t Transport) String() string {
	switch t {
	case TransportI2C:
		return "i2c"
	case TransportUSB:
		return "usb"
	case TransportVendor:
		return "vendor"
	default:
		return fmt.Sprintf("Transport(%d)", int(t))
	}
}

// Base delay values in milliseconds, from the DDC/CI specification.
const (
	defaultMillis          = 50
	postSaveSettingsMillis = 200
	nullResponseMillis     = 100
	preMultiPartReadMillis = 200
)

// baseMillis returns the protocol-spec delay for a transport and event.
func baseMillis(tr Transport, ev EventKind) int {
	if tr == TransportUSB {
		panic("sleep: pacing invoked for USB transport")
	}
	switch ev {
	case PostSaveSettings:
		return postSaveSettingsMillis
	case NullResponseRecovery:
		if tr == TransportI2C {
			return nullResponseMillis
		}
		return defaultMillis
	case PreMultiPartRead:
		if tr == TransportI2C {
			return preMultiPartReadMillis
		}
		return defaultMillis
	default:
		return defaultMillis
	}
}
