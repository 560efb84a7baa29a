// Package probe scans i2c buses for DDC-capable displays with a small
// worker pool. Each bus is probed under its own registry record, keyed
// by bus number, so per-display statistics stay separate even when
// buses are scanned in parallel.
package probe

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/mkarlstad/goddc/internal/i2c"
	"github.com/mkarlstad/goddc/pkg/ddc"
	"github.com/mkarlstad/goddc/pkg/edid"
	"github.com/mkarlstad/goddc/pkg/threadstate"
	"github.com/mkarlstad/goddc/pkg/types"
)

// Display is one display found during a scan.
type Display struct {
	Bus  int
	EDID *edid.EDID

	// Comm reports whether the display answered a DDC exchange, not
	// just an EDID read. Laptop panels typically expose EDID but no
	// DDC/CI.
	Comm bool
}

// Scanner probes buses concurrently.
type Scanner struct {
	reg     *threadstate.Registry
	logger  *slog.Logger
	workers int

	readEDID  func(bus int) ([]byte, error)
	checkComm func(bus int, rec *threadstate.Record) bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers sets the number of concurrent probe workers.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger enables probe tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// withProbes substitutes the bus access functions, for tests.
func withProbes(readEDID func(int) ([]byte, error), checkComm func(int, *threadstate.Record) bool) Option {
	return func(s *Scanner) {
		s.readEDID = readEDID
		s.checkComm = checkComm
	}
}

// NewScanner creates a scanner reporting statistics into reg.
func NewScanner(reg *threadstate.Registry, opts ...Option) *Scanner {
	s := &Scanner{
		reg:       reg,
		workers:   4,
		readEDID:  i2c.ReadEDID,
		checkComm: checkComm,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan probes every bus and returns the displays found, ordered by bus
// number. Buses with no display are skipped silently; a cancelled
// context returns whatever has been found so far.
func (s *Scanner) Scan(ctx context.Context, buses []int) []Display {
	tasks := make(chan int)
	var mu sync.Mutex
	var found []Display

	workers := s.workers
	if workers > len(buses) {
		workers = len(buses)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for bus := range tasks {
				if d, ok := s.probe(bus); ok {
					mu.Lock()
					found = append(found, d)
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for _, bus := range buses {
		select {
		case tasks <- bus:
		case <-ctx.Done():
			break feed
		}
	}
	close(tasks)
	wg.Wait()

	sort.Slice(found, func(i, j int) bool { return found[i].Bus < found[j].Bus })
	return found
}

// probe examines one bus under the record keyed by its bus number.
func (s *Scanner) probe(bus int) (Display, bool) {
	raw, err := s.readEDID(bus)
	if err != nil {
		s.log("no EDID", bus, err)
		return Display{}, false
	}
	e, err := edid.Parse(raw)
	if err != nil {
		s.log("invalid EDID", bus, err)
		return Display{}, false
	}

	rec := s.reg.GetOrCreate(int64(bus))
	rec.SetLabel("/dev/i2c-" + strconv.Itoa(bus))
	return Display{Bus: bus, EDID: e, Comm: s.checkComm(bus, rec)}, true
}

// checkComm verifies DDC communication by reading a VCP feature every
// MCCS display implements. A determined-unsupported answer still
// proves the display talks DDC.
func checkComm(bus int, rec *threadstate.Record) bool {
	dev, err := i2c.Open(bus, ddc.SlaveAddr)
	if err != nil {
		return false
	}
	defer dev.Close()

	ch := ddc.NewChannel(dev, rec)
	// 0xDF: MCCS version, mandatory since MCCS 2.0
	_, err = ch.GetVCP(0xDF)
	return err == nil || errors.Is(err, types.ErrDeterminedUnsupported)
}

func (s *Scanner) log(msg string, bus int, err error) {
	if s.logger != nil {
		s.logger.Debug(msg, "bus", bus, "error", err)
	}
}
