// Package retry provides the bounded retry loop around one logical DDC
// exchange, with outcome classification and per-worker statistics.
package retry

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mkarlstad/goddc/pkg/threadstate"
	"github.com/mkarlstad/goddc/pkg/types"
)

// Op performs one physical exchange attempt. It returns nil on success,
// one of the definitive sentinels (types.ErrNullResponse,
// types.ErrAllZeroResponse), a fatal-wrapped error, or any other error,
// which the executor treats as transient.
//
// Sleep pacing is the op's own responsibility: different call sites
// classify sleep events differently, so the executor never sleeps.
type Op func() error

// EventHandler observes retry progress, for logging and tracing.
type EventHandler interface {
	OnAttempt(class types.RetryClass, exchangeID string, try int, err error)
	OnOutcome(class types.RetryClass, exchangeID string, outcome Outcome)
}

// Executor runs ops under the retry bound of its worker record and
// records every terminal outcome in the record's histogram, exactly
// once per Execute call.
type Executor struct {
	rec    *threadstate.Record
	events EventHandler
}

// Option configures an Executor.
type Option func(*Executor)

// WithEventHandler sets the event handler.
func WithEventHandler(h EventHandler) Option {
	return func(e *Executor) {
		e.events = h
	}
}

// New creates an executor bound to a worker record.
func New(rec *threadstate.Record, opts ...Option) *Executor {
	e := &Executor{rec: rec}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Record returns the worker record the executor reports into.
func (e *Executor) Record() *threadstate.Record {
	return e.rec
}

// Execute runs op until it succeeds, fails definitively, fails fatally,
// or the class's retry budget is used up. op is invoked at most
// current-max-tries times.
func (e *Executor) Execute(class types.RetryClass, op Op) Outcome {
	if !class.Valid() {
		panic("retry: invalid retry class")
	}
	maxTries := e.rec.MaxTries(class)

	var exchangeID string
	if e.events != nil {
		exchangeID = uuid.NewString()
	}

	var history []error
	for try := 1; try <= maxTries; try++ {
		err := op()
		if e.events != nil {
			e.events.OnAttempt(class, exchangeID, try, err)
		}

		if err == nil {
			out := Outcome{Class: class, Kind: Succeeded, Tries: try, History: history}
			e.rec.RecordSuccess(class, try)
			e.finish(out, exchangeID)
			return out
		}
		history = append(history, err)

		switch {
		case errors.Is(err, types.ErrNullResponse):
			out := Outcome{Class: class, Kind: Unsupported, Tries: try, History: history, Reason: NullResponse}
			e.rec.RecordExhausted(class)
			e.finish(out, exchangeID)
			return out
		case errors.Is(err, types.ErrAllZeroResponse):
			out := Outcome{Class: class, Kind: Unsupported, Tries: try, History: history, Reason: AllZeroResponse}
			e.rec.RecordExhausted(class)
			e.finish(out, exchangeID)
			return out
		case types.IsFatal(err):
			out := Outcome{Class: class, Kind: FatalFailure, Tries: try, History: history, Cause: err}
			e.rec.RecordFatal(class)
			e.finish(out, exchangeID)
			return out
		}
		// transient: loop for another try
	}

	out := Outcome{Class: class, Kind: Exhausted, Tries: maxTries, History: history}
	e.rec.RecordExhausted(class)
	e.finish(out, exchangeID)
	return out
}

func (e *Executor) finish(out Outcome, exchangeID string) {
	if e.events != nil {
		e.events.OnOutcome(out.Class, exchangeID, out)
	}
}

// SlogEventHandler logs retry progress through slog. The exchange id
// correlates the attempt lines of one Execute call.
type SlogEventHandler struct {
	Logger *slog.Logger
}

// NewSlogEventHandler creates a handler writing to logger.
func NewSlogEventHandler(logger *slog.Logger) *SlogEventHandler {
	return &SlogEventHandler{Logger: logger}
}

// OnAttempt logs one attempt at debug level.
func (h *SlogEventHandler) OnAttempt(class types.RetryClass, exchangeID string, try int, err error) {
	if h.Logger == nil {
		return
	}
	if err == nil {
		h.Logger.Debug("exchange attempt succeeded",
			"class", class.String(), "exchange_id", exchangeID, "try", try)
		return
	}
	h.Logger.Debug("exchange attempt failed",
		"class", class.String(), "exchange_id", exchangeID, "try", try, "error", err)
}

// OnOutcome logs the terminal outcome.
func (h *SlogEventHandler) OnOutcome(class types.RetryClass, exchangeID string, out Outcome) {
	if h.Logger == nil {
		return
	}
	switch out.Kind {
	case Succeeded:
		if out.Tries > 1 {
			h.Logger.Debug("exchange succeeded after retries",
				"class", class.String(), "exchange_id", exchangeID, "tries", out.Tries)
		}
	case Exhausted:
		h.Logger.Warn("exchange exhausted retries",
			"class", class.String(), "exchange_id", exchangeID, "tries", out.Tries)
	case Unsupported:
		h.Logger.Debug("exchange determined unsupported",
			"class", class.String(), "exchange_id", exchangeID, "reason", out.Reason.String())
	case FatalFailure:
		h.Logger.Error("exchange failed fatally",
			"class", class.String(), "exchange_id", exchangeID, "error", out.Cause)
	}
}
