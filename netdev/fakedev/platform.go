// Package fakedev provides a deterministic in-memory netdev.Platform for tests.
//
// It simulates link presence, filter table read-back faults, transmit completion timing,
// and failures of each device operation.
package fakedev

import (
	"errors"
	"fmt"
	"time"

	"github.com/usnistgov/netifc/bufpool"
	"github.com/usnistgov/netifc/netdev"
)

// ErrInjected is the default error returned by injected failures.
var ErrInjected = errors.New("injected failure")

// Event records one operation on the platform or a device, in call order.
type Event struct {
	Op string
	ID netdev.ID
}

func (evt Event) String() string {
	return fmt.Sprintf("%s(%v)", evt.Op, evt.ID)
}

// Clock is a manually advanced clock.
type Clock struct {
	t time.Time
}

// Now returns current time.
func (c *Clock) Now() time.Time {
	return c.t
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

// Platform is a fake netdev.Platform.
type Platform struct {
	Devices []*Device
	Clock   Clock
	Events  []Event
	Timers  []*netdev.ClockTimer

	EnumerateError error
	AllocateError  error
	TimerError     error

	claimed map[netdev.ID]bool
}

var _ netdev.Platform = (*Platform)(nil)

// New creates a Platform with devices in enumeration order.
func New(devices ...*Device) *Platform {
	pf := &Platform{
		Devices: devices,
		claimed: map[netdev.ID]bool{},
	}
	for i, dev := range devices {
		dev.attach(pf, netdev.ID(i))
	}
	return pf
}

func (pf *Platform) record(op string, id netdev.ID) {
	pf.Events = append(pf.Events, Event{op, id})
}

// Ops returns recorded events of one operation kind, as a list of device IDs.
func (pf *Platform) Ops(op string) (ids []netdev.ID) {
	for _, evt := range pf.Events {
		if evt.Op == op {
			ids = append(ids, evt.ID)
		}
	}
	return ids
}

// Claimed returns IDs of currently claimed devices.
func (pf *Platform) Claimed() (ids []netdev.ID) {
	for i := range pf.Devices {
		if pf.claimed[netdev.ID(i)] {
			ids = append(ids, netdev.ID(i))
		}
	}
	return ids
}

// Enumerate implements netdev.Platform.
func (pf *Platform) Enumerate() (list []netdev.ID, e error) {
	if pf.EnumerateError != nil {
		return nil, pf.EnumerateError
	}
	for i := range pf.Devices {
		list = append(list, netdev.ID(i))
	}
	return list, nil
}

// Describe implements netdev.Platform.
func (pf *Platform) Describe(id netdev.ID) string {
	if dev := pf.device(id); dev != nil {
		return dev.Name
	}
	return ""
}

// OpenExclusive implements netdev.Platform.
func (pf *Platform) OpenExclusive(id netdev.ID) (netdev.Device, error) {
	pf.record("claim", id)
	dev := pf.device(id)
	switch {
	case dev == nil:
		return nil, fmt.Errorf("no device %v", id)
	case pf.claimed[id]:
		return nil, netdev.ErrClaimed
	case dev.FailClaim != nil:
		return nil, dev.FailClaim
	}
	pf.claimed[id] = true
	return dev, nil
}

// CloseExclusive implements netdev.Platform.
func (pf *Platform) CloseExclusive(id netdev.ID) error {
	pf.record("release", id)
	if !pf.claimed[id] {
		return fmt.Errorf("%v is not claimed", id)
	}
	delete(pf.claimed, id)
	return nil
}

// AllocatePages implements netdev.Platform.
func (pf *Platform) AllocatePages(nPages int) ([]byte, error) {
	if pf.AllocateError != nil {
		return nil, pf.AllocateError
	}
	return bufpool.ReserveHeap(nPages)
}

// NewTimer implements netdev.Platform.
// Timers are driven by pf.Clock.
func (pf *Platform) NewTimer() (netdev.Timer, error) {
	if pf.TimerError != nil {
		return nil, pf.TimerError
	}
	timer := netdev.NewClockTimer(pf.Clock.Now)
	pf.Timers = append(pf.Timers, timer)
	return timer, nil
}

func (pf *Platform) device(id netdev.ID) *Device {
	if id < 0 || int(id) >= len(pf.Devices) {
		return nil
	}
	return pf.Devices[id]
}
