package netdev_test

import (
	"testing"
	"time"

	"github.com/usnistgov/netifc/netdev"
)

type manualClock struct {
	t time.Time
}

func (c *manualClock) Now() time.Time {
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestDurationToTicks(t *testing.T) {
	assert, _ := makeAR(t)

	assert.Equal(uint64(0), netdev.DurationToTicks(0))
	assert.Equal(uint64(0), netdev.DurationToTicks(-time.Second))
	assert.Equal(uint64(10000), netdev.DurationToTicks(time.Millisecond))
	assert.Equal(uint64(1), netdev.DurationToTicks(time.Nanosecond))
}

func TestClockTimerRelative(t *testing.T) {
	assert, _ := makeAR(t)

	var clock manualClock
	timer := netdev.NewClockTimer(clock.Now)
	assert.False(timer.Check())

	assert.NoError(timer.Set(netdev.TimerRelative, netdev.DurationToTicks(20*time.Millisecond)))
	assert.True(timer.Armed())
	clock.Advance(19 * time.Millisecond)
	assert.False(timer.Check())
	clock.Advance(1 * time.Millisecond)
	assert.True(timer.Check())
	assert.False(timer.Check(), "signal is consumed")
	assert.False(timer.Armed())

	assert.NoError(timer.Set(netdev.TimerRelative, netdev.DurationToTicks(time.Millisecond)))
	assert.NoError(timer.Set(netdev.TimerCancel, 0))
	clock.Advance(time.Second)
	assert.False(timer.Check())
}

func TestClockTimerPeriodic(t *testing.T) {
	assert, _ := makeAR(t)

	var clock manualClock
	timer := netdev.NewClockTimer(clock.Now)
	assert.NoError(timer.Set(netdev.TimerPeriodic, netdev.DurationToTicks(10*time.Millisecond)))

	clock.Advance(10 * time.Millisecond)
	assert.True(timer.Check())
	assert.False(timer.Check())
	clock.Advance(35 * time.Millisecond)
	assert.True(timer.Check())
	assert.False(timer.Check())
	clock.Advance(5 * time.Millisecond)
	assert.True(timer.Check())

	assert.NoError(timer.Close())
	assert.False(timer.Check())
	assert.ErrorIs(timer.Set(netdev.TimerRelative, 1), netdev.ErrTimerClosed)
}
