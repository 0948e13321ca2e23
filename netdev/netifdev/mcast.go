//go:build linux

package netifdev

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/usnistgov/netifc/core/macaddr"
	"github.com/usnistgov/netifc/netdev"
)

const maxMCastFilters = 64

// DevMcastPath is the kernel table of link-layer multicast addresses.
var DevMcastPath = "/proc/net/dev_mcast"

// ParseDevMcast parses link-layer multicast addresses of one interface from /proc/net/dev_mcast format.
func ParseDevMcast(r io.Reader, ifname string) (list []net.HardwareAddr, e error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		// ifindex ifname users global-users address
		fields := strings.Fields(scanner.Text())
		if len(fields) != 5 || fields[1] != ifname {
			continue
		}
		addr, e := hex.DecodeString(fields[4])
		if e != nil {
			return nil, fmt.Errorf("dev_mcast address %q: %w", fields[4], e)
		}
		list = append(list, net.HardwareAddr(addr))
	}
	return list, scanner.Err()
}

func (dev *Device) readDevMcast() ([]net.HardwareAddr, error) {
	f, e := os.Open(DevMcastPath)
	if e != nil {
		return nil, e
	}
	defer f.Close()
	return ParseDevMcast(f, dev.name())
}

func (dev *Device) membership(add bool, typ uint16, addr net.HardwareAddr) error {
	mreq := unix.PacketMreq{
		Ifindex: int32(dev.link.Attrs().Index),
		Type:    typ,
	}
	if addr != nil {
		mreq.Alen = uint16(copy(mreq.Address[:], addr))
	}
	opt := unix.PACKET_DROP_MEMBERSHIP
	if add {
		opt = unix.PACKET_ADD_MEMBERSHIP
	}
	return unix.SetsockoptPacketMreq(dev.fd, unix.SOL_PACKET, opt, &mreq)
}

// ReceiveFilters implements netdev.Device.
//
// An AF_PACKET socket always receives unicast and broadcast frames addressed to the interface.
// Multicast groups and promiscuous modes are socket memberships.
// After the call, Mode().MCastFilters lists requested groups that appear in the kernel multicast table.
func (dev *Device) ReceiveFilters(enable, disable netdev.ReceiveFilter, resetMCast bool, mcast []net.HardwareAddr) (e error) {
	if dev.mode.State != netdev.StateInitialized {
		return netdev.ErrNotStarted
	}
	if enable&^dev.mode.ReceiveFilterMask != 0 {
		return netdev.ErrUnsupported
	}
	if !resetMCast && len(mcast) > dev.mode.MaxMCastFilterCount {
		return fmt.Errorf("%d multicast filters exceed maximum %d", len(mcast), dev.mode.MaxMCastFilterCount)
	}

	setting := (dev.mode.ReceiveFilterSetting | enable) &^ disable
	for _, m := range []struct {
		bit netdev.ReceiveFilter
		typ uint16
	}{
		{netdev.ReceivePromiscuous, unix.PACKET_MR_PROMISC},
		{netdev.ReceivePromiscuousMulticast, unix.PACKET_MR_ALLMULTI},
	} {
		was, want := dev.mode.ReceiveFilterSetting&m.bit != 0, setting&m.bit != 0
		if was == want {
			continue
		}
		if e := dev.membership(want, m.typ, nil); e != nil {
			return fmt.Errorf("membership %v: %w", m.bit, e)
		}
	}
	dev.mode.ReceiveFilterSetting = setting

	var want []net.HardwareAddr
	if !resetMCast {
		want = mcast
	}
	if e = dev.syncGroups(want); e != nil {
		return e
	}
	dev.logger.Debug("receive filters changed",
		zap.Stringer("setting", setting),
		zap.Int("groups", len(dev.groups)),
	)
	return nil
}

func (dev *Device) syncGroups(want []net.HardwareAddr) (e error) {
	var kept []net.HardwareAddr
	for _, addr := range dev.groups {
		if macaddr.Contains(want, addr) {
			kept = append(kept, addr)
			continue
		}
		e = multierr.Append(e, dev.membership(false, unix.PACKET_MR_MULTICAST, addr))
	}
	dev.groups = kept
	for _, addr := range want {
		if macaddr.Contains(dev.groups, addr) {
			continue
		}
		if ae := dev.membership(true, unix.PACKET_MR_MULTICAST, addr); ae != nil {
			e = multierr.Append(e, fmt.Errorf("join %v: %w", addr, ae))
			continue
		}
		dev.groups = append(dev.groups, macaddr.Clone(addr))
	}
	if e != nil {
		return e
	}

	table, re := dev.readDevMcast()
	if re != nil {
		dev.logger.Warn("cannot read multicast table", zap.Error(re))
	}
	dev.mode.MCastFilters = nil
	for _, addr := range dev.groups {
		if macaddr.Contains(table, addr) {
			dev.mode.MCastFilters = append(dev.mode.MCastFilters, addr)
		}
	}
	return nil
}
