// Package netdev defines the capability set of a platform network device.
//
// The platform (firmware, or an operating system adapter) enumerates devices by ID and grants exclusive claims.
// A claimed device is wrapped in a Handle, which is the only way the rest of this module touches it.
package netdev

import (
	"errors"
	"net"
	"strconv"

	"github.com/usnistgov/netifc/core/logging"
)

var logger = logging.New("netdev")

// Errors.
var (
	// ErrNotReady indicates there is no frame to receive.
	// It is not a failure.
	ErrNotReady = errors.New("no frame available")

	// ErrClaimed indicates the device is claimed by another consumer.
	ErrClaimed = errors.New("device already claimed")

	// ErrNotStarted indicates the device is not in a state that permits the operation.
	ErrNotStarted = errors.New("device not started")

	// ErrUnsupported indicates the device does not support the requested operation.
	ErrUnsupported = errors.New("unsupported")
)

// ID identifies a device within a Platform.
type ID int

func (id ID) String() string {
	return "net" + strconv.Itoa(int(id))
}

// Platform is the environment that exposes network devices.
type Platform interface {
	// Enumerate lists devices that currently provide the network capability set.
	Enumerate() ([]ID, error)

	// Describe returns a human readable device path or name.
	Describe(id ID) string

	// OpenExclusive claims a device.
	OpenExclusive(id ID) (Device, error)

	// CloseExclusive releases a claim made by OpenExclusive.
	CloseExclusive(id ID) error

	// AllocatePages reserves nPages memory pages.
	AllocatePages(nPages int) ([]byte, error)

	// NewTimer creates a timer event.
	NewTimer() (Timer, error)
}

// Device is the capability set of a claimed network device.
// Every method returns immediately.
type Device interface {
	// Start changes state from Stopped to Started.
	Start() error

	// Initialize allocates device resources and changes state from Started to Initialized.
	// extraRxBuffer and extraTxBuffer request additional driver-managed buffer space; zero means default.
	Initialize(extraRxBuffer, extraTxBuffer int) error

	// GetStatus reads interrupt status and the next transmit buffer whose transmission has completed.
	// Calling GetStatus also refreshes Mode().MediaPresent.
	GetStatus() (Status, error)

	// Receive copies one inbound frame into buf.
	// Returns ErrNotReady if no frame is waiting.
	// frameLen is the full frame length including hdrLen octets of media header.
	// A frame longer than buf is consumed, and only its first len(buf) octets are copied.
	Receive(buf []byte) (hdrLen, frameLen int, e error)

	// Transmit queues one frame.
	// If accepted, the device owns frame until GetStatus returns it in Status.TxDone.
	Transmit(frame []byte) error

	// ReceiveFilters enables and disables receive filter bits, and optionally replaces the multicast filter list.
	// If resetMCast is true, mcast is ignored and the multicast filter list is cleared.
	ReceiveFilters(enable, disable ReceiveFilter, resetMCast bool, mcast []net.HardwareAddr) error

	// Shutdown releases resources allocated by Initialize, changing state back to Started.
	Shutdown() error

	// Stop changes state from Started to Stopped.
	Stop() error

	// Mode returns current device mode.
	Mode() Mode
}
