// Package netifc brings up a platform network device and drives raw Ethernet frame I/O over it.
//
// A Session discovers a device with link, carves a fixed buffer pool from reserved pages,
// programs multicast receive filters with a promiscuous fallback, and then moves frames
// each time the caller invokes Poll. Nothing in this package blocks or starts a goroutine.
package netifc

import (
	"errors"

	"github.com/usnistgov/netifc/core/logging"
)

var logger = logging.New("netifc")

// MaxMulticastFilters is the maximum number of multicast filter entries in a session.
const MaxMulticastFilters = 8

// Errors.
var (
	ErrNoDeviceFound     = errors.New("no network device with link found")
	ErrEnumerationFailed = errors.New("network device enumeration failed")
	ErrFilterConfig      = errors.New("receive filter configuration failed")
	ErrPoolAlloc         = errors.New("buffer pool allocation failed")
	ErrTimer             = errors.New("timer creation failed")
	ErrNoBuffer          = errors.New("no buffer available")
	ErrTransmit          = errors.New("transmit failed")
	ErrActive            = errors.New("session is open")
	ErrClosed            = errors.New("session is closed")
	ErrTooManyFilters    = errors.New("too many multicast filters")
	ErrInvalidAddress    = errors.New("not a multicast MAC-48 address")
	ErrFiltersFrozen     = errors.New("multicast filters are frozen while session is open")
)
