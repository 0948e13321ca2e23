package netdev

import (
	"errors"
	"time"
)

// Tick is the native resolution of timer deadlines.
const Tick = 100 * time.Nanosecond

// DurationToTicks converts a duration to timer ticks, rounding up.
func DurationToTicks(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64((d + Tick - 1) / Tick)
}

// TimerKind selects timer behavior.
type TimerKind int

// TimerKind values.
const (
	TimerCancel TimerKind = iota
	TimerPeriodic
	TimerRelative
)

// ErrTimerClosed indicates the timer has been closed.
var ErrTimerClosed = errors.New("timer closed")

// Timer is a countdown event.
// It never blocks: expiry is observed by polling Check.
type Timer interface {
	// Set arms or disarms the timer.
	// TimerRelative fires once after ticks; TimerPeriodic fires every ticks; TimerCancel disarms.
	Set(kind TimerKind, ticks uint64) error

	// Check returns true if the timer has fired since the last Check.
	// The signal is consumed.
	Check() bool

	// Close disarms and releases the timer.
	Close() error
}

// ClockTimer is a Timer driven by a clock function.
type ClockTimer struct {
	now      func() time.Time
	deadline time.Time
	period   time.Duration
	armed    bool
	closed   bool
}

var _ Timer = (*ClockTimer)(nil)

// NewClockTimer creates a ClockTimer.
// If now is nil, time.Now is used.
func NewClockTimer(now func() time.Time) *ClockTimer {
	if now == nil {
		now = time.Now
	}
	return &ClockTimer{now: now}
}

// Set implements Timer.
func (t *ClockTimer) Set(kind TimerKind, ticks uint64) error {
	if t.closed {
		return ErrTimerClosed
	}
	d := time.Duration(ticks) * Tick
	switch kind {
	case TimerCancel:
		t.armed = false
	case TimerRelative:
		t.armed, t.period, t.deadline = true, 0, t.now().Add(d)
	case TimerPeriodic:
		t.armed, t.period, t.deadline = true, d, t.now().Add(d)
	default:
		return ErrUnsupported
	}
	return nil
}

// Check implements Timer.
func (t *ClockTimer) Check() bool {
	if t.closed || !t.armed {
		return false
	}
	now := t.now()
	if now.Before(t.deadline) {
		return false
	}
	if t.period <= 0 {
		t.armed = false
		return true
	}
	// coalesce missed periods into one signal
	missed := now.Sub(t.deadline)/t.period + 1
	t.deadline = t.deadline.Add(missed * t.period)
	return true
}

// Armed returns true if the timer has a pending deadline.
func (t *ClockTimer) Armed() bool {
	return t.armed && !t.closed
}

// Close implements Timer.
func (t *ClockTimer) Close() error {
	t.armed, t.closed = false, true
	return nil
}
