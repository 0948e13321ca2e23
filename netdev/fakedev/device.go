package fakedev

import (
	"fmt"
	"net"
	"slices"

	"github.com/usnistgov/netifc/core/macaddr"
	"github.com/usnistgov/netifc/netdev"
)

// FilterBehavior selects how a Device applies a multicast filter list.
type FilterBehavior int

// FilterBehavior values.
const (
	// FilterApply applies the list as requested.
	FilterApply FilterBehavior = iota
	// FilterReorder applies the list in reverse order.
	FilterReorder
	// FilterDropLast silently drops the last entry.
	FilterDropLast
	// FilterCorrupt reports a damaged copy of the first entry.
	FilterCorrupt
	// FilterReject fails any call that carries a multicast list.
	FilterReject
)

// Defaults.
const (
	DefaultMaxFrameSize        = 1500
	DefaultMediaHeaderSize     = 14
	DefaultMaxMCastFilterCount = 16
)

// FilterCall records one ReceiveFilters invocation.
type FilterCall struct {
	Enable  netdev.ReceiveFilter
	Disable netdev.ReceiveFilter
	Reset   bool
	MCast   []net.HardwareAddr
}

type txEntry struct {
	frame []byte
	delay int
}

// Device is a fake netdev.Device.
// Exported fields may be changed between operations to script behavior.
type Device struct {
	Name                string
	HardwareAddr        net.HardwareAddr
	Link                bool
	MaxFrameSize        int
	MaxMCastFilterCount int
	Filter              FilterBehavior
	RejectPromiscuous   bool
	MultipleTx          bool

	// TxCompletionDelay is the number of GetStatus calls that report nothing before a transmitted frame is returned.
	TxCompletionDelay int

	FailClaim      error
	FailStart      error
	FailInitialize error
	FailStatus     error
	FailReceive    error
	FailTransmit   error
	FailShutdown   error
	FailStop       error

	Transmitted [][]byte
	FilterCalls []FilterCall

	pf        *Platform
	id        netdev.ID
	mode      netdev.Mode
	rxQueue   [][]byte
	txPending []txEntry
}

var _ netdev.Device = (*Device)(nil)

func (dev *Device) attach(pf *Platform, id netdev.ID) {
	dev.pf, dev.id = pf, id
	if dev.Name == "" {
		dev.Name = fmt.Sprintf("fake%d", id)
	}
	if dev.HardwareAddr == nil {
		dev.HardwareAddr = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, byte(id + 1)}
	}
	if dev.MaxFrameSize == 0 {
		dev.MaxFrameSize = DefaultMaxFrameSize
	}
	if dev.MaxMCastFilterCount == 0 {
		dev.MaxMCastFilterCount = DefaultMaxMCastFilterCount
	}
	dev.mode = netdev.Mode{
		State:                 netdev.StateStopped,
		HardwareAddr:          macaddr.Clone(dev.HardwareAddr),
		MediaHeaderSize:       DefaultMediaHeaderSize,
		MaxFrameSize:          dev.MaxFrameSize,
		ReceiveFilterMask:     netdev.ReceiveUnicast | netdev.ReceiveMulticast | netdev.ReceiveBroadcast | netdev.ReceivePromiscuous | netdev.ReceivePromiscuousMulticast,
		MaxMCastFilterCount:   dev.MaxMCastFilterCount,
		MediaPresentSupported: true,
	}
}

func (dev *Device) record(op string) {
	if dev.pf != nil {
		dev.pf.record(op, dev.id)
	}
}

// Inject queues an inbound frame.
func (dev *Device) Inject(frame []byte) {
	dev.rxQueue = append(dev.rxQueue, slices.Clone(frame))
}

// PendingRx returns number of queued inbound frames.
func (dev *Device) PendingRx() int {
	return len(dev.rxQueue)
}

// PendingTx returns number of transmitted frames not yet reported as completed.
func (dev *Device) PendingTx() int {
	return len(dev.txPending)
}

// Start implements netdev.Device.
func (dev *Device) Start() error {
	dev.record("start")
	if dev.FailStart != nil {
		return dev.FailStart
	}
	if dev.mode.State != netdev.StateStopped {
		return fmt.Errorf("device is %s", dev.mode.State)
	}
	dev.mode.State = netdev.StateStarted
	return nil
}

// Initialize implements netdev.Device.
func (dev *Device) Initialize(extraRxBuffer, extraTxBuffer int) error {
	dev.record("initialize")
	if dev.FailInitialize != nil {
		return dev.FailInitialize
	}
	if dev.mode.State != netdev.StateStarted {
		return netdev.ErrNotStarted
	}
	dev.mode.State = netdev.StateInitialized
	dev.mode.MultipleTxSupported = dev.MultipleTx
	return nil
}

// GetStatus implements netdev.Device.
// It latches the Link field into Mode().MediaPresent, and reports at most one completed transmission.
func (dev *Device) GetStatus() (st netdev.Status, e error) {
	dev.record("status")
	if dev.FailStatus != nil {
		return st, dev.FailStatus
	}
	if dev.mode.State != netdev.StateInitialized {
		return st, netdev.ErrNotStarted
	}
	dev.mode.MediaPresent = dev.Link

	if len(dev.rxQueue) > 0 {
		st.Interrupts |= netdev.InterruptReceive
	}
	if len(dev.txPending) > 0 {
		head := &dev.txPending[0]
		if head.delay > 0 {
			head.delay--
		} else {
			st.TxDone = head.frame
			st.Interrupts |= netdev.InterruptTransmit
			dev.txPending = dev.txPending[1:]
		}
	}
	return st, nil
}

// Receive implements netdev.Device.
func (dev *Device) Receive(buf []byte) (hdrLen, frameLen int, e error) {
	if dev.FailReceive != nil {
		return 0, 0, dev.FailReceive
	}
	if dev.mode.State != netdev.StateInitialized {
		return 0, 0, netdev.ErrNotStarted
	}
	if len(dev.rxQueue) == 0 {
		return 0, 0, netdev.ErrNotReady
	}

	frame := dev.rxQueue[0]
	dev.rxQueue = dev.rxQueue[1:]
	copy(buf, frame)
	return dev.mode.MediaHeaderSize, len(frame), nil
}

// Transmit implements netdev.Device.
// An accepted frame is retained, not copied, until GetStatus reports its completion.
func (dev *Device) Transmit(frame []byte) error {
	dev.record("transmit")
	if dev.FailTransmit != nil {
		return dev.FailTransmit
	}
	if dev.mode.State != netdev.StateInitialized {
		return netdev.ErrNotStarted
	}
	if len(frame) > dev.mode.MediaHeaderSize+dev.mode.MaxFrameSize {
		return fmt.Errorf("frame length %d exceeds maximum", len(frame))
	}
	dev.Transmitted = append(dev.Transmitted, slices.Clone(frame))
	dev.txPending = append(dev.txPending, txEntry{frame: frame, delay: dev.TxCompletionDelay})
	return nil
}

// ReceiveFilters implements netdev.Device.
func (dev *Device) ReceiveFilters(enable, disable netdev.ReceiveFilter, resetMCast bool, mcast []net.HardwareAddr) error {
	dev.record("filters")
	call := FilterCall{Enable: enable, Disable: disable, Reset: resetMCast}
	for _, a := range mcast {
		call.MCast = append(call.MCast, macaddr.Clone(a))
	}
	dev.FilterCalls = append(dev.FilterCalls, call)

	if dev.mode.State != netdev.StateInitialized {
		return netdev.ErrNotStarted
	}
	if enable&^dev.mode.ReceiveFilterMask != 0 {
		return netdev.ErrUnsupported
	}
	if dev.RejectPromiscuous && enable&(netdev.ReceivePromiscuous|netdev.ReceivePromiscuousMulticast) != 0 {
		return fmt.Errorf("promiscuous %w", ErrInjected)
	}
	if !resetMCast && len(mcast) > 0 {
		if dev.Filter == FilterReject {
			return fmt.Errorf("multicast filter %w", ErrInjected)
		}
		if len(mcast) > dev.mode.MaxMCastFilterCount {
			return fmt.Errorf("%d multicast filters exceed maximum %d", len(mcast), dev.mode.MaxMCastFilterCount)
		}
	}

	dev.mode.ReceiveFilterSetting = (dev.mode.ReceiveFilterSetting | enable) &^ disable
	if resetMCast {
		dev.mode.MCastFilters = nil
		return nil
	}

	table := slices.Clone(call.MCast)
	switch dev.Filter {
	case FilterReorder:
		slices.Reverse(table)
	case FilterDropLast:
		if len(table) > 0 {
			table = table[:len(table)-1]
		}
	case FilterCorrupt:
		if len(table) > 0 {
			table[0] = macaddr.Clone(table[0])
			table[0][5] ^= 0x01
		}
	}
	dev.mode.MCastFilters = table
	return nil
}

// Shutdown implements netdev.Device.
func (dev *Device) Shutdown() error {
	dev.record("shutdown")
	if dev.FailShutdown != nil {
		return dev.FailShutdown
	}
	if dev.mode.State != netdev.StateInitialized {
		return netdev.ErrNotStarted
	}
	dev.mode.State = netdev.StateStarted
	dev.txPending = nil
	return nil
}

// Stop implements netdev.Device.
func (dev *Device) Stop() error {
	dev.record("stop")
	if dev.FailStop != nil {
		return dev.FailStop
	}
	if dev.mode.State == netdev.StateStopped {
		return netdev.ErrNotStarted
	}
	dev.mode.State = netdev.StateStopped
	dev.mode.MediaPresent = false
	return nil
}

// Mode implements netdev.Device.
func (dev *Device) Mode() netdev.Mode {
	m := dev.mode
	m.MCastFilters = slices.Clone(dev.mode.MCastFilters)
	return m
}
