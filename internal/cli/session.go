package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkarlstad/goddc/internal/config"
	"github.com/mkarlstad/goddc/internal/i2c"
	"github.com/mkarlstad/goddc/internal/logging"
	"github.com/mkarlstad/goddc/pkg/ddc"
	"github.com/mkarlstad/goddc/pkg/retry"
	"github.com/mkarlstad/goddc/pkg/sleep"
	"github.com/mkarlstad/goddc/pkg/stats"
	"github.com/mkarlstad/goddc/pkg/threadstate"
	"github.com/mkarlstad/goddc/pkg/types"
)

const defaultConfigFile = "goddc.yaml"

// session carries the per-invocation state every command needs: merged
// configuration, the logger, and the worker registry statistics are
// collected in.
type session struct {
	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
	reg      *threadstate.Registry

	verbose   bool
	sleepLess bool
	showStats bool
}

// newSession merges config file, environment and flags, then prepares
// the logger and a registry seeded with the resulting defaults.
func newSession(cmd *cobra.Command) (*session, error) {
	flags := cmd.Flags()

	var cfg config.Config
	var err error
	if path, _ := flags.GetString("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault(defaultConfigFile)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if flags.Changed("bus") {
		cfg.Bus, _ = flags.GetInt("bus")
	}
	if flags.Changed("sleep-multiplier") {
		cfg.Sleep.Multiplier, _ = flags.GetFloat64("sleep-multiplier")
	}
	if flags.Changed("enable-dynamic-sleep") {
		cfg.Sleep.DynamicSleep, _ = flags.GetBool("enable-dynamic-sleep")
	}
	if flags.Changed("sleep-less") {
		cfg.Sleep.SleepLess, _ = flags.GetBool("sleep-less")
	}
	if spec, _ := flags.GetString("maxtries"); spec != "" {
		if err := applyMaxTriesSpec(&cfg.Retry, spec); err != nil {
			return nil, err
		}
	}
	if cfg.Sleep.Multiplier <= 0 {
		return nil, fmt.Errorf("sleep multiplier %v not positive", cfg.Sleep.Multiplier)
	}

	s := &session{cfg: cfg}
	s.verbose, _ = flags.GetBool("verbose")
	s.sleepLess = cfg.Sleep.SleepLess
	s.showStats, _ = flags.GetBool("stats")

	level := cfg.Log.Level
	if s.verbose {
		level = "debug"
	}
	logFile := cfg.Log.File
	if f, _ := flags.GetString("log-file"); f != "" {
		logFile = f
	}
	s.logger, s.closeLog = logging.New(logging.Options{Level: level, File: logFile})

	defaults := threadstate.NewDefaults()
	for c, n := range map[types.RetryClass]int{
		types.WriteOnly:      cfg.Retry.WriteOnlyTries,
		types.WriteRead:      cfg.Retry.WriteReadTries,
		types.MultiPartRead:  cfg.Retry.MultiPartReadTries,
		types.MultiPartWrite: cfg.Retry.MultiPartWriteTries,
	} {
		if n > 0 {
			defaults.SetMaxTries(c, n)
		}
	}
	defaults.SetSleepMultiplier(cfg.Sleep.Multiplier)
	defaults.SetDynamicSleepEnabled(cfg.Sleep.DynamicSleep)
	s.reg = threadstate.NewRegistry(defaults)
	return s, nil
}

// applyMaxTriesSpec parses the "wo,wr,mpr,mpw" retry limit list.
// Blank fields keep the current value.
func applyMaxTriesSpec(rc *config.RetryConfig, spec string) error {
	slots := []*int{
		&rc.WriteOnlyTries,
		&rc.WriteReadTries,
		&rc.MultiPartReadTries,
		&rc.MultiPartWriteTries,
	}
	fields := strings.Split(spec, ",")
	if len(fields) > len(slots) {
		return fmt.Errorf("maxtries %q: at most %d fields", spec, len(slots))
	}
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > types.MaxMaxTries {
			return fmt.Errorf("maxtries %q: field %d must be 1..%d", spec, i+1, types.MaxMaxTries)
		}
		*slots[i] = n
	}
	return nil
}

// finish renders the statistics report when requested and releases the
// log writer. Deferred by every command that talks to a display.
func (s *session) finish() {
	if s.showStats {
		fmt.Println()
		if err := stats.New(s.reg).ElapsedReport(os.Stdout); err != nil {
			s.logger.Error("stats report failed", "error", err)
		}
	}
	_ = s.closeLog()
}

// pickBus resolves the bus to talk to: the configured one, or the first
// bus that answers an EDID read.
func (s *session) pickBus() (int, error) {
	if s.cfg.Bus >= 0 {
		return s.cfg.Bus, nil
	}
	buses, err := i2c.Enumerate()
	if err != nil {
		return 0, err
	}
	for _, bus := range buses {
		if _, err := i2c.ReadEDID(bus); err == nil {
			return bus, nil
		}
	}
	return 0, errors.New("no DDC display found; specify --bus")
}

// openChannel opens the DDC channel for one display and binds it to a
// fresh worker record.
func (s *session) openChannel() (*ddc.Channel, error) {
	bus, err := s.pickBus()
	if err != nil {
		return nil, err
	}
	dev, err := i2c.Open(bus, ddc.SlaveAddr)
	if err != nil {
		return nil, err
	}

	rec := s.reg.Acquire()
	rec.SetLabel(fmt.Sprintf("/dev/i2c-%d", bus))

	opts := []ddc.ChannelOption{ddc.WithLogger(s.logger)}
	if s.cfg.Sleep.DynamicSleep {
		opts = append(opts, ddc.WithAdjuster(&sleep.ErrorRateAdjuster{}))
	}
	ch := ddc.NewChannel(dev, rec, opts...)
	if s.sleepLess {
		ch.Tuner().SetSuppression(true)
	}
	return ch, nil
}

// renderError maps the transport error taxonomy onto user-facing
// messages: determined-unsupported is a result, exhaustion names the
// cost, everything else passes through.
func renderError(err error) error {
	var ex *retry.ExhaustedError
	switch {
	case errors.Is(err, types.ErrDeterminedUnsupported):
		fmt.Println(warnStyle.Render("Feature not supported by this display"))
		return nil
	case errors.As(err, &ex):
		return fmt.Errorf("display stopped responding after %d tries (%s)", ex.Tries, ex.TryHistory())
	default:
		return err
	}
}

// parseFeatureCode accepts "10", "0x10" or "x10".
func parseFeatureCode(arg string) (byte, error) {
	s := strings.ToLower(strings.TrimSpace(arg))
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "x")
	n, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("bad feature code %q: two hex digits expected", arg)
	}
	return byte(n), nil
}
