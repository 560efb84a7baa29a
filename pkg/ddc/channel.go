package ddc

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mkarlstad/goddc/pkg/multipart"
	"github.com/mkarlstad/goddc/pkg/retry"
	"github.com/mkarlstad/goddc/pkg/sleep"
	"github.com/mkarlstad/goddc/pkg/threadstate"
	"github.com/mkarlstad/goddc/pkg/types"
)

// Channel is the exchange layer for one display: it frames requests,
// paces the wire, runs every exchange under the retry executor of its
// worker record, and reassembles multi-part payloads.
//
// A Channel belongs to one worker goroutine, like the record it feeds.
type Channel struct {
	tr    Transport
	rec   *threadstate.Record
	exec  *retry.Executor
	tuner *sleep.Tuner
	asm   *multipart.Assembler
}

type channelConfig struct {
	kind     sleep.Transport
	logger   *slog.Logger
	clock    types.Clock
	adjuster sleep.Adjuster
}

// ChannelOption configures a Channel.
type ChannelOption func(*channelConfig)

// WithLogger enables exchange and pacing logs.
func WithLogger(logger *slog.Logger) ChannelOption {
	return func(c *channelConfig) {
		c.logger = logger
	}
}

// WithClock sets the clock used for pacing delays.
func WithClock(clock types.Clock) ChannelOption {
	return func(c *channelConfig) {
		c.clock = clock
	}
}

// WithAdjuster sets the dynamic sleep adjustment source.
func WithAdjuster(a sleep.Adjuster) ChannelOption {
	return func(c *channelConfig) {
		c.adjuster = a
	}
}

// WithTransportKind overrides the pacing transport, which defaults to
// I2C.
func WithTransportKind(kind sleep.Transport) ChannelOption {
	return func(c *channelConfig) {
		c.kind = kind
	}
}

// NewChannel creates a channel over tr feeding statistics into rec.
// The display gets post-open settle time before the first exchange.
func NewChannel(tr Transport, rec *threadstate.Record, opts ...ChannelOption) *Channel {
	cfg := channelConfig{kind: sleep.TransportI2C}
	for _, opt := range opts {
		opt(&cfg)
	}

	var tunerOpts []sleep.TunerOption
	if cfg.clock != nil {
		tunerOpts = append(tunerOpts, sleep.WithClock(cfg.clock))
	}
	if cfg.adjuster != nil {
		tunerOpts = append(tunerOpts, sleep.WithAdjuster(cfg.adjuster))
	}
	if cfg.logger != nil {
		tunerOpts = append(tunerOpts, sleep.WithLogger(cfg.logger))
	}
	tuner := sleep.NewTuner(rec, cfg.kind, tunerOpts...)
	tuner.Pace(sleep.PostOpen)

	var execOpts []retry.Option
	if cfg.logger != nil {
		execOpts = append(execOpts, retry.WithEventHandler(retry.NewSlogEventHandler(cfg.logger)))
	}
	exec := retry.New(rec, execOpts...)

	return &Channel{
		tr:    tr,
		rec:   rec,
		exec:  exec,
		tuner: tuner,
		asm:   multipart.New(exec, multipart.WithTuner(tuner)),
	}
}

// Record returns the worker record the channel reports into.
func (c *Channel) Record() *threadstate.Record {
	return c.rec
}

// Tuner returns the channel's pacing tuner.
func (c *Channel) Tuner() *sleep.Tuner {
	return c.tuner
}

// Close releases the underlying transport.
func (c *Channel) Close() error {
	return c.tr.Close()
}

// GetVCP reads one VCP feature. A display that answers but reports the
// feature unsupported yields types.ErrDeterminedUnsupported.
func (c *Channel) GetVCP(code byte) (VCPValue, error) {
	var val VCPValue
	out := c.exec.Execute(types.WriteRead, func() error {
		v, err := c.exchangeVCP(code)
		if err != nil {
			c.noteExchange(err)
			return err
		}
		c.noteExchange(nil)
		val = v
		return nil
	})
	if err := out.Err(); err != nil {
		return VCPValue{}, err
	}
	if val.Unsupported {
		return VCPValue{}, fmt.Errorf("feature 0x%02x: %w", code, types.ErrDeterminedUnsupported)
	}
	return val, nil
}

func (c *Channel) exchangeVCP(code byte) (VCPValue, error) {
	if err := c.tr.Write(GetVCPRequest(code)); err != nil {
		return VCPValue{}, err
	}
	c.tuner.Pace(sleep.WriteToRead)

	raw, err := c.tr.Read(11)
	if err != nil {
		return VCPValue{}, err
	}
	c.tuner.Pace(sleep.PostRead)

	payload, err := ParseReply(raw)
	if err != nil {
		return VCPValue{}, c.recovered(err)
	}
	return ParseVCPReply(code, payload)
}

// SetVCP writes one VCP feature value. Write-only: the display sends no
// reply, so verification requires a subsequent GetVCP.
func (c *Channel) SetVCP(code byte, value uint16) error {
	out := c.exec.Execute(types.WriteOnly, func() error {
		err := c.tr.Write(SetVCPRequest(code, value))
		c.noteExchange(err)
		if err != nil {
			return err
		}
		c.tuner.Pace(sleep.PostWrite)
		return nil
	})
	return out.Err()
}

// SaveSettings issues a Save Current Settings command, which carries an
// extended settle delay.
func (c *Channel) SaveSettings() error {
	out := c.exec.Execute(types.WriteOnly, func() error {
		err := c.tr.Write(SaveSettingsRequest())
		c.noteExchange(err)
		if err != nil {
			return err
		}
		c.tuner.Pace(sleep.PostSaveSettings)
		return nil
	})
	return out.Err()
}

// Capabilities reads the display's capabilities string. Some displays
// answer an unsupported capabilities request with zeros, reported as
// types.ErrDeterminedUnsupported rather than retried.
func (c *Channel) Capabilities() (string, error) {
	data, err := c.asm.Read(
		c.fragmentReader(opCapReply, func(offset int) []byte {
			return CapabilitiesRequest(offset)
		}),
		multipart.AllZeroResponseOK(),
	)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// TableRead reads a table-typed VCP feature.
func (c *Channel) TableRead(code byte) ([]byte, error) {
	return c.asm.Read(c.fragmentReader(opTableReadReply, func(offset int) []byte {
		return TableReadRequest(code, offset)
	}))
}

// TableWrite writes a table-typed VCP feature value.
func (c *Channel) TableWrite(code byte, value []byte) error {
	return c.asm.Write(func(offset int, chunk []byte) error {
		err := c.tr.Write(TableWriteRequest(code, offset, chunk))
		c.noteExchange(err)
		if err != nil {
			return err
		}
		c.tuner.Pace(sleep.PostWrite)
		return nil
	}, value)
}

// fragmentReader builds the per-fragment exchange for a multi-part
// read: request at offset, paced read, framing check, fragment decode.
func (c *Channel) fragmentReader(replyOpcode byte, request func(offset int) []byte) multipart.ReadFragmentFunc {
	return func(offset int) (multipart.Fragment, error) {
		if err := c.tr.Write(request(offset)); err != nil {
			c.noteExchange(err)
			return multipart.Fragment{}, err
		}
		c.tuner.Pace(sleep.WriteToRead)

		raw, err := c.tr.Read(MaxPacketSize)
		if err != nil {
			c.noteExchange(err)
			return multipart.Fragment{}, err
		}
		c.tuner.Pace(sleep.PostRead)

		payload, err := ParseReply(raw)
		if err != nil {
			c.noteExchange(err)
			return multipart.Fragment{}, c.recovered(err)
		}
		off, data, err := ParseFragmentReply(replyOpcode, payload)
		c.noteExchange(err)
		if err != nil {
			return multipart.Fragment{}, err
		}
		return multipart.Fragment{Offset: off, Data: data}, nil
	}
}

// recovered gives the display settle time after a null response before
// whatever exchange the caller runs next.
func (c *Channel) recovered(err error) error {
	if errors.Is(err, types.ErrNullResponse) {
		c.tuner.Pace(sleep.NullResponseRecovery)
	}
	return err
}

// noteExchange feeds one exchange result into the record's dynamic
// sleep history.
func (c *Channel) noteExchange(err error) {
	switch {
	case err == nil:
		c.rec.RecordExchangeStatus(threadstate.StatusOK)
	case types.IsFatal(err):
		c.rec.RecordExchangeStatus(threadstate.StatusOther)
	default:
		c.rec.RecordExchangeStatus(threadstate.StatusError)
	}
}
