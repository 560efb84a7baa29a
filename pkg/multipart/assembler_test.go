package multipart

import (
	"errors"
	"testing"

	"github.com/mkarlstad/goddc/pkg/retry"
	"github.com/mkarlstad/goddc/pkg/threadstate"
	"github.com/mkarlstad/goddc/pkg/types"
)

func newTestAssembler() (*Assembler, *threadstate.Record) {
	rec := threadstate.NewRegistry(nil).GetOrCreate(1)
	return New(retry.New(rec)), rec
}

// scriptedReader serves fragments from a fixed script and counts the
// exchanges performed.
type scriptedReader struct {
	script    []func(offset int) (Fragment, error)
	exchanges int
}

func (r *scriptedReader) read(offset int) (Fragment, error) {
	if r.exchanges >= len(r.script) {
		return Fragment{}, errors.New("script exhausted")
	}
	fn := r.script[r.exchanges]
	r.exchanges++
	return fn(offset)
}

func fragAt(data string) func(offset int) (Fragment, error) {
	return func(offset int) (Fragment, error) {
		return Fragment{Offset: offset, Data: []byte(data)}, nil
	}
}

func TestRead_AssemblesFragmentsInOrder(t *testing.T) {
	asm, _ := newTestAssembler()
	reader := &scriptedReader{script: []func(int) (Fragment, error){
		fragAt("AAAAAAAAAA"),
		fragAt("BBBBBBBBBB"),
		fragAt(""),
	}}

	got, err := asm.Read(reader.read)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "AAAAAAAAAABBBBBBBBBB" {
		t.Errorf("Expected concatenated payload, got %q", got)
	}
	if reader.exchanges != 3 {
		t.Errorf("Expected exactly 3 exchanges, got %d", reader.exchanges)
	}
}

func TestRead_OffsetMismatchRetriesSameOffset(t *testing.T) {
	asm, _ := newTestAssembler()

	var offsets []int
	reader := &scriptedReader{script: []func(int) (Fragment, error){
		fragAt("AAAAAAAAAA"),
		func(offset int) (Fragment, error) {
			// display answers for offset 15 when asked for 10
			return Fragment{Offset: 15, Data: []byte("XXXXX")}, nil
		},
		fragAt("BBBBBBBBBB"),
		fragAt(""),
	}}
	record := func(offset int) (Fragment, error) {
		offsets = append(offsets, offset)
		return reader.read(offset)
	}

	got, err := asm.Read(record)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "AAAAAAAAAABBBBBBBBBB" {
		t.Errorf("Expected mismatched fragment discarded, got %q", got)
	}
	want := []int{0, 10, 10, 20}
	if len(offsets) != len(want) {
		t.Fatalf("Expected offsets %v, got %v", want, offsets)
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Fatalf("Expected retry at the same offset, got sequence %v", offsets)
		}
	}
}

func TestRead_TerminalFailureDiscardsPartialData(t *testing.T) {
	asm, rec := newTestAssembler()
	rec.SetInitialMaxTries(types.MultiPartRead, 2)

	reader := &scriptedReader{script: []func(int) (Fragment, error){
		fragAt("AAAAAAAAAA"),
		func(int) (Fragment, error) { return Fragment{}, errors.New("bus noise") },
		func(int) (Fragment, error) { return Fragment{}, errors.New("bus noise") },
	}}

	got, err := asm.Read(reader.read)
	if !errors.Is(err, types.ErrRetriesExhausted) {
		t.Fatalf("Expected ErrRetriesExhausted, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected partial data discarded, got %q", got)
	}
}

func TestRead_NullResponseAborts(t *testing.T) {
	asm, _ := newTestAssembler()
	reader := &scriptedReader{script: []func(int) (Fragment, error){
		func(int) (Fragment, error) { return Fragment{}, types.ErrNullResponse },
	}}

	_, err := asm.Read(reader.read)
	if !errors.Is(err, types.ErrDeterminedUnsupported) {
		t.Fatalf("Expected determined-unsupported, got %v", err)
	}
	if reader.exchanges != 1 {
		t.Errorf("Expected no retry after null response, got %d exchanges", reader.exchanges)
	}
}

func TestRead_AllZeroRetriedByDefault(t *testing.T) {
	asm, _ := newTestAssembler()
	reader := &scriptedReader{script: []func(int) (Fragment, error){
		func(int) (Fragment, error) { return Fragment{}, types.ErrAllZeroResponse },
		fragAt("DATA"),
		fragAt(""),
	}}

	got, err := asm.Read(reader.read)
	if err != nil {
		t.Fatalf("Expected all-zero treated as transient, got %v", err)
	}
	if string(got) != "DATA" {
		t.Errorf("Expected %q, got %q", "DATA", got)
	}
}

func TestRead_AllZeroAfterFirstFragmentIsDefinitive(t *testing.T) {
	asm, _ := newTestAssembler()
	reader := &scriptedReader{script: []func(int) (Fragment, error){
		fragAt("AAAAAAAAAA"),
		func(int) (Fragment, error) { return Fragment{}, types.ErrAllZeroResponse },
	}}

	got, err := asm.Read(reader.read)
	if !errors.Is(err, types.ErrDeterminedUnsupported) {
		t.Fatalf("Expected determined-unsupported, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected partial data discarded, got %q", got)
	}
	if reader.exchanges != 2 {
		t.Errorf("Expected one attempt at the zeroed offset, got %d exchanges", reader.exchanges)
	}
}

func TestRead_AllZeroDefinitiveWhenAcceptable(t *testing.T) {
	asm, _ := newTestAssembler()
	reader := &scriptedReader{script: []func(int) (Fragment, error){
		func(int) (Fragment, error) { return Fragment{}, types.ErrAllZeroResponse },
	}}

	_, err := asm.Read(reader.read, AllZeroResponseOK())
	if !errors.Is(err, types.ErrDeterminedUnsupported) {
		t.Fatalf("Expected determined-unsupported, got %v", err)
	}
	if reader.exchanges != 1 {
		t.Errorf("Expected no retry, got %d exchanges", reader.exchanges)
	}
}

func TestWrite_ChunksAndTerminator(t *testing.T) {
	asm, _ := newTestAssembler()
	data := make([]byte, 60)
	for i := range data {
		data[i] = byte(i)
	}

	type call struct {
		offset int
		size   int
	}
	var calls []call
	err := asm.Write(func(offset int, chunk []byte) error {
		calls = append(calls, call{offset, len(chunk)})
		return nil
	}, data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// 60 bytes in 28-byte chunks: 28 + 28 + 4, then the terminator
	want := []call{{0, 28}, {28, 28}, {56, 4}, {60, 0}}
	if len(calls) != len(want) {
		t.Fatalf("Expected %d exchanges, got %d: %v", len(want), len(calls), calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("Exchange %d: expected %v, got %v", i, want[i], calls[i])
		}
	}
}

func TestWrite_EmptyValueSendsOnlyTerminator(t *testing.T) {
	asm, _ := newTestAssembler()

	calls := 0
	err := asm.Write(func(offset int, chunk []byte) error {
		calls++
		if offset != 0 || len(chunk) != 0 {
			t.Errorf("Expected zero-length chunk at offset 0, got %d bytes at %d", len(chunk), offset)
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 exchange, got %d", calls)
	}
}

func TestWrite_ChunkFailureAborts(t *testing.T) {
	asm, rec := newTestAssembler()
	rec.SetInitialMaxTries(types.MultiPartWrite, 2)

	var offsets []int
	err := asm.Write(func(offset int, chunk []byte) error {
		offsets = append(offsets, offset)
		if offset == 28 {
			return errors.New("bus noise")
		}
		return nil
	}, make([]byte, 60))
	if !errors.Is(err, types.ErrRetriesExhausted) {
		t.Fatalf("Expected ErrRetriesExhausted, got %v", err)
	}

	want := []int{0, 28, 28}
	if len(offsets) != len(want) {
		t.Fatalf("Expected offsets %v, got %v", want, offsets)
	}
}

func TestWrite_TransientChunkRetrySucceeds(t *testing.T) {
	asm, _ := newTestAssembler()

	failures := 1
	var sizes []int
	err := asm.Write(func(offset int, chunk []byte) error {
		if offset == 0 && failures > 0 {
			failures--
			return errors.New("bus noise")
		}
		sizes = append(sizes, len(chunk))
		return nil
	}, make([]byte, 30))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := []int{28, 2, 0}
	if len(sizes) != len(want) {
		t.Fatalf("Expected successful chunk sizes %v, got %v", want, sizes)
	}
}
