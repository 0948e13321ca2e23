//go:build linux

package netifdev

import (
	"errors"
	"fmt"
	"math/bits"
	"net"
	"reflect"
	"time"

	"github.com/google/gopacket/afpacket"
	"github.com/pkg/math"
	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/usnistgov/netifc/core/macaddr"
	"github.com/usnistgov/netifc/netdev"
)

const ethHeaderSize = 14

// Device is a netdev.Device backed by an AF_PACKET socket.
type Device struct {
	pf     *Platform
	link   netlink.Link
	logger *zap.Logger

	mode   netdev.Mode
	tp     *afpacket.TPacket
	fd     int
	groups []net.HardwareAddr
	txDone [][]byte
}

var _ netdev.Device = (*Device)(nil)

func newDevice(pf *Platform, link netlink.Link) *Device {
	dev := &Device{pf: pf, fd: -1}
	dev.save(link)
	dev.mode = netdev.Mode{
		State:                 netdev.StateStopped,
		MediaHeaderSize:       ethHeaderSize,
		ReceiveFilterMask:     netdev.ReceiveUnicast | netdev.ReceiveMulticast | netdev.ReceiveBroadcast | netdev.ReceivePromiscuous | netdev.ReceivePromiscuousMulticast,
		MaxMCastFilterCount:   maxMCastFilters,
		MediaPresentSupported: true,
	}
	dev.updateMode()
	return dev
}

func (dev *Device) save(link netlink.Link) {
	dev.link = link
	attrs := link.Attrs()
	dev.logger = logger.With(
		zap.Int("ifindex", attrs.Index),
		zap.String("ifname", attrs.Name),
	)
}

func (dev *Device) refresh() {
	link, e := netlink.LinkByIndex(dev.link.Attrs().Index)
	if e != nil {
		dev.logger.Warn("refresh error", zap.Error(e))
		return
	}
	dev.save(link)
}

func (dev *Device) updateMode() {
	attrs := dev.link.Attrs()
	dev.mode.HardwareAddr = macaddr.Clone(attrs.HardwareAddr)
	dev.mode.MaxFrameSize = attrs.MTU
}

func (dev *Device) name() string {
	return dev.link.Attrs().Name
}

// Start implements netdev.Device.
// It brings up the interface if it is down.
func (dev *Device) Start() error {
	if dev.mode.State != netdev.StateStopped {
		return fmt.Errorf("device is %s", dev.mode.State)
	}
	if dev.link.Attrs().Flags&net.FlagUp == 0 {
		if dev.pf.cfg.SkipBringUp {
			return fmt.Errorf("interface %s is not UP", dev.name())
		}
		if e := netlink.LinkSetUp(dev.link); e != nil {
			dev.logger.Error("netlink.LinkSetUp error", zap.Error(e))
			return fmt.Errorf("netlink.LinkSetUp(%s): %w", dev.name(), e)
		}
		dev.logger.Info("brought up the interface")
		dev.refresh()
	}
	dev.mode.State = netdev.StateStarted
	return nil
}

// Initialize implements netdev.Device.
// It opens the AF_PACKET socket.
func (dev *Device) Initialize(extraRxBuffer, extraTxBuffer int) (e error) {
	if dev.mode.State != netdev.StateStarted {
		return netdev.ErrNotStarted
	}
	dev.refresh()
	dev.updateMode()

	rxSize := dev.mode.RxBufferSize()
	frameSize, blockSize, nBlocks := ringLayout(rxSize, dev.pf.cfg.RingFrames+extraRxBuffer/rxSize, dev.pf.PageSize())
	dev.tp, e = afpacket.NewTPacket(
		afpacket.OptInterface(dev.name()),
		afpacket.OptTPacketVersion(afpacket.TPacketVersion2),
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(nBlocks),
		afpacket.OptPollTimeout(time.Millisecond),
	)
	if e != nil {
		return fmt.Errorf("afpacket.NewTPacket(%s): %w", dev.name(), e)
	}
	dev.fd = tpacketFD(dev.tp)
	dev.mode.State = netdev.StateInitialized
	dev.logger.Debug("socket opened", zap.Int("fd", dev.fd), zap.Int("frame-size", frameSize))
	return nil
}

// ringLayout computes AF_PACKET ring geometry.
// Frame size is the smallest power of two that fits bufSize plus TPACKET2 header.
// Block size is a multiple of both frame size and page size.
func ringLayout(bufSize, nFrames, pageSize int) (frameSize, blockSize, nBlocks int) {
	const tpacket2HeaderRoom = 64
	frameSize = 1 << bits.Len(uint(bufSize+tpacket2HeaderRoom-1))
	blockSize = math.MaxInt(frameSize, pageSize)
	framesPerBlock := blockSize / frameSize
	nBlocks = math.MaxInt(1, (nFrames+framesPerBlock-1)/framesPerBlock)
	return
}

func tpacketFD(tp *afpacket.TPacket) int {
	return int(reflect.ValueOf(tp).Elem().FieldByName("fd").Int())
}

// GetStatus implements netdev.Device.
// Link state is read from ethtool if available, otherwise from netlink operational state.
func (dev *Device) GetStatus() (st netdev.Status, e error) {
	if dev.mode.State != netdev.StateInitialized {
		return st, netdev.ErrNotStarted
	}
	dev.mode.MediaPresent = dev.linkUp()

	if dev.readable() {
		st.Interrupts |= netdev.InterruptReceive
	}
	if len(dev.txDone) > 0 {
		st.TxDone = dev.txDone[0]
		st.Interrupts |= netdev.InterruptTransmit
		dev.txDone = dev.txDone[1:]
	}
	return st, nil
}

func (dev *Device) linkUp() bool {
	if etht := dev.pf.etht; etht != nil {
		if state, e := etht.LinkState(dev.name()); e == nil {
			return state != 0
		}
	}
	dev.refresh()
	return dev.link.Attrs().OperState == netlink.OperUp
}

func (dev *Device) readable() bool {
	fds := []unix.PollFd{{Fd: int32(dev.fd), Events: unix.POLLIN}}
	n, e := unix.Poll(fds, 0)
	return e == nil && n > 0 && fds[0].Revents&unix.POLLIN != 0
}

// Receive implements netdev.Device.
// frameLen may exceed len(buf) if the frame was truncated.
func (dev *Device) Receive(buf []byte) (hdrLen, frameLen int, e error) {
	if dev.mode.State != netdev.StateInitialized {
		return 0, 0, netdev.ErrNotStarted
	}
	if !dev.readable() {
		return 0, 0, netdev.ErrNotReady
	}
	ci, e := dev.tp.ReadPacketDataTo(buf)
	switch {
	case errors.Is(e, afpacket.ErrTimeout), errors.Is(e, afpacket.ErrPoll):
		return 0, 0, netdev.ErrNotReady
	case e != nil:
		return 0, 0, e
	}
	return ethHeaderSize, ci.Length, nil
}

// Transmit implements netdev.Device.
// The socket copies the frame, so transmission is completed immediately.
func (dev *Device) Transmit(frame []byte) error {
	if dev.mode.State != netdev.StateInitialized {
		return netdev.ErrNotStarted
	}
	if e := dev.tp.WritePacketData(frame); e != nil {
		return e
	}
	dev.txDone = append(dev.txDone, frame)
	return nil
}

// Shutdown implements netdev.Device.
// It closes the AF_PACKET socket, which drops its multicast and promiscuous memberships.
func (dev *Device) Shutdown() error {
	if dev.mode.State != netdev.StateInitialized {
		return netdev.ErrNotStarted
	}
	dev.mode.State = netdev.StateStarted
	return dev.closeSocket()
}

func (dev *Device) closeSocket() error {
	if dev.tp != nil {
		dev.tp.Close()
		dev.tp = nil
		dev.logger.Debug("socket closed")
	}
	dev.fd = -1
	dev.groups = nil
	dev.txDone = nil
	dev.mode.ReceiveFilterSetting = 0
	dev.mode.MCastFilters = nil
	return nil
}

// Stop implements netdev.Device.
// The interface is left UP.
func (dev *Device) Stop() error {
	if dev.mode.State != netdev.StateStarted {
		return netdev.ErrNotStarted
	}
	dev.mode.State = netdev.StateStopped
	dev.mode.MediaPresent = false
	return nil
}

// Mode implements netdev.Device.
func (dev *Device) Mode() netdev.Mode {
	m := dev.mode
	m.MCastFilters = append([]net.HardwareAddr(nil), dev.mode.MCastFilters...)
	return m
}
