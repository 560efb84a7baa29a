// Package testutils provides clock helpers for testing the pacing layer.
package testutils

import (
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"

	"github.com/mkarlstad/goddc/pkg/types"
)

// NewMockClock creates a quartz mock clock for testing.
func NewMockClock(t testing.TB) *quartz.Mock {
	return quartz.NewMock(t)
}

// ClockWrapper wraps quartz.Mock to implement the types.Clock interface.
type ClockWrapper struct {
	*quartz.Mock
}

// NewClockWrapper creates a new ClockWrapper.
func NewClockWrapper(mock *quartz.Mock) *ClockWrapper {
	return &ClockWrapper{Mock: mock}
}

// After returns a channel that delivers the current time after the duration.
func (c *ClockWrapper) After(d time.Duration) <-chan time.Time {
	timer := c.Mock.NewTimer(d)
	return timer.C
}

// Sleep blocks for the given duration.
func (c *ClockWrapper) Sleep(d time.Duration) {
	timer := c.Mock.NewTimer(d)
	<-timer.C
}

// Now returns the current time.
func (c *ClockWrapper) Now() time.Time {
	return c.Mock.Now()
}

// Since returns the time elapsed since t.
func (c *ClockWrapper) Since(t time.Time) time.Duration {
	return c.Mock.Since(t)
}

// NewTimer creates a new Timer.
func (c *ClockWrapper) NewTimer(d time.Duration) types.Timer {
	timer := c.Mock.NewTimer(d)
	return &TimerWrapper{timer: timer}
}

// TimerWrapper wraps a quartz timer.
type TimerWrapper struct {
	timer *quartz.Timer
}

func (t *TimerWrapper) C() <-chan time.Time {
	return t.timer.C
}

func (t *TimerWrapper) Stop() bool {
	return t.timer.Stop()
}

func (t *TimerWrapper) Reset(d time.Duration) bool {
	return t.timer.Reset(d)
}

// RecordingClock satisfies types.Clock without blocking, capturing each
// Sleep duration for assertion. Pacing tests verify computed delays
// against the captured values instead of waiting them out.
type RecordingClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewRecordingClock creates a recording clock starting at an arbitrary
// fixed instant.
func NewRecordingClock() *RecordingClock {
	return &RecordingClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Sleep records d and advances the clock's notion of now without blocking.
func (c *RecordingClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

// Sleeps returns a copy of all recorded Sleep durations.
func (c *RecordingClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// Now returns the advanced clock time.
func (c *RecordingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since returns elapsed time against the advanced clock.
func (c *RecordingClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// After delivers immediately; recording tests never wait.
func (c *RecordingClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.Now().Add(d)
	return ch
}

// NewTimer delivers immediately; recording tests never wait.
func (c *RecordingClock) NewTimer(d time.Duration) types.Timer {
	return &immediateTimer{at: c.Now().Add(d)}
}

type immediateTimer struct {
	at time.Time
}

func (t *immediateTimer) C() <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- t.at
	return ch
}

func (t *immediateTimer) Stop() bool {
	return false
}

func (t *immediateTimer) Reset(time.Duration) bool {
	return false
}
