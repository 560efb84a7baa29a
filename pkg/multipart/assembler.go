// Package multipart reassembles DDC/CI payloads that exceed a single
// 32-byte packet, such as capabilities strings and table values. Reads
// walk the offset space fragment by fragment until the display sends a
// zero-length fragment; writes split the value into bounded chunks and
// finish with an explicit zero-length terminator.
//
// Each fragment exchange runs under the retry executor with the
// matching multi-part class, so a corrupted fragment is retried at the
// same offset without restarting the whole sequence.
package multipart

import (
	"errors"
	"fmt"

	"github.com/mkarlstad/goddc/pkg/retry"
	"github.com/mkarlstad/goddc/pkg/sleep"
	"github.com/mkarlstad/goddc/pkg/types"
)

// WriteChunkSize is the maximum payload carried by one write fragment.
// A 32-byte packet minus header, opcode, offset and checksum bytes.
const WriteChunkSize = 28

// Fragment is one reply in a multi-fragment read sequence. The display
// echoes the offset it is answering for; the assembler verifies it
// against the offset it asked for. An empty Data marks the end of the
// sequence.
type Fragment struct {
	Offset int
	Data   []byte
}

// ReadFragmentFunc performs one fragment request at the given offset.
type ReadFragmentFunc func(offset int) (Fragment, error)

// WriteFragmentFunc sends one chunk of a multi-part write starting at
// offset. A zero-length chunk terminates the sequence.
type WriteFragmentFunc func(offset int, chunk []byte) error

// Assembler drives multi-fragment reads and writes for one worker.
type Assembler struct {
	exec  *retry.Executor
	tuner *sleep.Tuner
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithTuner makes the assembler pace the start of read sequences.
func WithTuner(t *sleep.Tuner) Option {
	return func(a *Assembler) {
		a.tuner = t
	}
}

// New creates an assembler running fragment exchanges on exec.
func New(exec *retry.Executor, opts ...Option) *Assembler {
	a := &Assembler{exec: exec}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ReadOption configures one Read call.
type ReadOption func(*readConfig)

type readConfig struct {
	allZeroOK bool
}

// AllZeroResponseOK marks an all-zero first fragment as a meaningful
// answer rather than a glitch. Capabilities reads use this: some
// displays answer an unsupported capabilities request with zeros, which
// is then reported as determined-unsupported instead of being retried.
// All-zero replies after the first fragment are definitive either way.
func AllZeroResponseOK() ReadOption {
	return func(c *readConfig) {
		c.allZeroOK = true
	}
}

// Read assembles a complete value by requesting fragments at increasing
// offsets until the display sends a zero-length fragment. A fragment
// whose echoed offset differs from the requested one is treated as a
// transient failure and retried at the same offset. Any terminal
// per-fragment failure aborts the sequence and discards the partial
// data.
func (a *Assembler) Read(fn ReadFragmentFunc, opts ...ReadOption) ([]byte, error) {
	var cfg readConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if a.tuner != nil {
		a.tuner.Pace(sleep.PreMultiPartRead)
	}

	var buf []byte
	offset := 0
	for {
		var frag Fragment
		out := a.exec.Execute(types.MultiPartRead, func() error {
			f, err := fn(offset)
			if err != nil {
				return classifyReadErr(err, offset, cfg)
			}
			if f.Offset != offset {
				return fmt.Errorf("%w: requested %d, display answered %d",
					types.ErrFragmentOffset, offset, f.Offset)
			}
			frag = f
			return nil
		})
		if !out.Success() {
			return nil, out.Err()
		}
		if len(frag.Data) == 0 {
			return buf, nil
		}
		buf = append(buf, frag.Data...)
		offset += len(frag.Data)
	}
}

// classifyReadErr adjusts the all-zero sentinel for context. An
// all-zero first fragment is line noise unless the caller declared it
// meaningful: the sentinel identity is stripped so the executor retries
// instead of declaring the feature unsupported. Once the display has
// answered with real fragments, zeros mid-sequence are a definitive
// answer and keep the sentinel.
func classifyReadErr(err error, offset int, cfg readConfig) error {
	if !errors.Is(err, types.ErrAllZeroResponse) {
		return err
	}
	if offset == 0 && !cfg.allZeroOK {
		return fmt.Errorf("all-zero fragment (retrying): %v", err)
	}
	return err
}

// Write sends data as a sequence of chunks of at most WriteChunkSize
// bytes, each under the multi-part write retry class, then terminates
// the sequence with a zero-length chunk. Writing n bytes therefore
// takes ceil(n/WriteChunkSize)+1 exchanges.
func (a *Assembler) Write(fn WriteFragmentFunc, data []byte) error {
	offset := 0
	for {
		chunk := data[offset:]
		if len(chunk) > WriteChunkSize {
			chunk = chunk[:WriteChunkSize]
		}

		out := a.exec.Execute(types.MultiPartWrite, func() error {
			return fn(offset, chunk)
		})
		if !out.Success() {
			return out.Err()
		}
		if len(chunk) == 0 {
			return nil
		}
		offset += len(chunk)
	}
}
