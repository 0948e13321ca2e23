package netdev

import (
	"net"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// State is the device state.
type State int

// State values.
const (
	StateStopped State = iota
	StateStarted
	StateInitialized
)

func (st State) String() string {
	switch st {
	case StateStopped:
		return "stopped"
	case StateStarted:
		return "started"
	case StateInitialized:
		return "initialized"
	}
	return "invalid"
}

// ReceiveFilter is a bit set of receive filter settings.
type ReceiveFilter uint32

// ReceiveFilter bits.
const (
	ReceiveUnicast ReceiveFilter = 1 << iota
	ReceiveMulticast
	ReceiveBroadcast
	ReceivePromiscuous
	ReceivePromiscuousMulticast
)

var receiveFilterNames = []string{"unicast", "multicast", "broadcast", "promiscuous", "promiscuous-multicast"}

func (f ReceiveFilter) String() string {
	var tokens []string
	for i, name := range receiveFilterNames {
		if f&(1<<i) != 0 {
			tokens = append(tokens, name)
		}
	}
	if len(tokens) == 0 {
		return "none"
	}
	return strings.Join(tokens, "|")
}

// InterruptFlags is a bit set of pending interrupts reported by GetStatus.
type InterruptFlags uint32

// InterruptFlags bits.
const (
	InterruptReceive InterruptFlags = 1 << iota
	InterruptTransmit
	InterruptCommand
	InterruptSoftware
)

// Status is the result of GetStatus.
type Status struct {
	Interrupts InterruptFlags
	// TxDone is a frame previously passed to Transmit whose transmission has completed, or nil.
	TxDone []byte
}

// Mode describes current state and capabilities of a device.
type Mode struct {
	State                 State
	HardwareAddr          net.HardwareAddr
	MediaHeaderSize       int
	MaxFrameSize          int // maximum payload after media header
	ReceiveFilterMask     ReceiveFilter
	ReceiveFilterSetting  ReceiveFilter
	MaxMCastFilterCount   int
	MCastFilters          []net.HardwareAddr
	MacAddressChangeable  bool
	MultipleTxSupported   bool
	MediaPresentSupported bool
	MediaPresent          bool
}

// RxBufferSize returns the buffer size needed to receive a maximum size frame.
func (m Mode) RxBufferSize() int {
	if m.MaxFrameSize <= 0 {
		return DefaultRxBufferSize
	}
	return m.MediaHeaderSize + m.MaxFrameSize
}

// DefaultRxBufferSize is the receive buffer size when a device does not report its frame size.
const DefaultRxBufferSize = 1514

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (m Mode) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("state", m.State.String())
	enc.AddString("hwaddr", m.HardwareAddr.String())
	enc.AddInt("header-size", m.MediaHeaderSize)
	enc.AddInt("max-frame", m.MaxFrameSize)
	enc.AddString("rx-mask", m.ReceiveFilterMask.String())
	enc.AddString("rx-setting", m.ReceiveFilterSetting.String())
	enc.AddInt("max-mcast", m.MaxMCastFilterCount)
	enc.AddInt("n-mcast", len(m.MCastFilters))
	enc.AddBool("mac-changeable", m.MacAddressChangeable)
	enc.AddBool("multi-tx", m.MultipleTxSupported)
	enc.AddBool("link-detect", m.MediaPresentSupported)
	enc.AddBool("link", m.MediaPresent)
	return nil
}

// ZapField returns a zap.Field that logs the mode.
func (m Mode) ZapField(key string) zap.Field {
	return zap.Object(key, m)
}
