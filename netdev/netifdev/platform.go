//go:build linux

// Package netifdev adapts Linux network interfaces to netdev.Platform.
//
// Interfaces are enumerated and brought up through netlink.
// Frames are exchanged over an AF_PACKET socket with a memory-mapped ring.
// Device IDs are interface indices.
package netifdev

import (
	"errors"
	"fmt"
	"net"
	"os"
	"slices"

	"github.com/safchain/ethtool"
	"github.com/vishvananda/netlink"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/usnistgov/netifc/core/logging"
	"github.com/usnistgov/netifc/core/macaddr"
	"github.com/usnistgov/netifc/core/pciaddr"
	"github.com/usnistgov/netifc/netdev"
)

var logger = logging.New("netifdev")

// Config contains Platform configuration.
type Config struct {
	// Names restricts enumeration to these interface names, in the given order.
	// If empty, every non-loopback Ethernet interface is enumerated in ifindex order.
	Names []string `json:"names,omitempty"`

	// SkipBringUp disables bringing up an interface that is administratively down.
	SkipBringUp bool `json:"skipBringUp,omitempty"`

	// RingFrames is the number of frames in each AF_PACKET ring.
	// Default is 128.
	RingFrames int `json:"ringFrames,omitempty"`
}

func (cfg *Config) applyDefaults() {
	if cfg.RingFrames <= 0 {
		cfg.RingFrames = 128
	}
}

// Platform is a netdev.Platform backed by Linux network interfaces.
type Platform struct {
	cfg     Config
	etht    *ethtool.Ethtool
	claimed map[netdev.ID]*Device
	pages   [][]byte
}

var _ netdev.Platform = (*Platform)(nil)

// New creates a Platform.
// If ethtool is unavailable, driver names and carrier detection via ethtool are skipped.
func New(cfg Config) *Platform {
	cfg.applyDefaults()
	pf := &Platform{
		cfg:     cfg,
		claimed: map[netdev.ID]*Device{},
	}
	etht, e := ethtool.NewEthtool()
	if e != nil {
		logger.Warn("ethtool.NewEthtool error", zap.Error(e))
	} else {
		pf.etht = etht
	}
	return pf
}

// Enumerate implements netdev.Platform.
func (pf *Platform) Enumerate() (list []netdev.ID, e error) {
	if len(pf.cfg.Names) > 0 {
		for _, name := range pf.cfg.Names {
			link, e := netlink.LinkByName(name)
			if e != nil {
				logger.Warn("netlink.LinkByName error", zap.String("ifname", name), zap.Error(e))
				continue
			}
			list = append(list, netdev.ID(link.Attrs().Index))
		}
		return list, nil
	}

	links, e := netlink.LinkList()
	if e != nil {
		return nil, fmt.Errorf("netlink.LinkList: %w", e)
	}
	for _, link := range links {
		if attrs := link.Attrs(); isEthernet(attrs) {
			list = append(list, netdev.ID(attrs.Index))
		}
	}
	slices.Sort(list)
	return list, nil
}

func isEthernet(attrs *netlink.LinkAttrs) bool {
	return attrs.EncapType == "ether" && attrs.Flags&net.FlagLoopback == 0 && macaddr.IsUnicast(attrs.HardwareAddr)
}

// Describe implements netdev.Platform.
// It returns interface name, followed by driver name when available.
func (pf *Platform) Describe(id netdev.ID) string {
	link, e := netlink.LinkByIndex(int(id))
	if e != nil {
		return ""
	}
	name := link.Attrs().Name
	if pf.etht == nil {
		return name
	}
	drv, e := pf.etht.DriverName(name)
	if e != nil || drv == "" {
		return name
	}
	if addr, ok := pf.PCIAddr(id); ok {
		return fmt.Sprintf("%s %s@%s", name, drv, addr)
	}
	return fmt.Sprintf("%s %s", name, drv)
}

// PCIAddr determines the PCI address of a physical network interface.
func (pf *Platform) PCIAddr(id netdev.ID) (a pciaddr.PCIAddress, ok bool) {
	link, e := netlink.LinkByIndex(int(id))
	if e != nil || pf.etht == nil {
		return a, false
	}
	busInfo, e := pf.etht.BusInfo(link.Attrs().Name)
	if e != nil {
		return a, false
	}
	return pciaddr.FromBusInfo(busInfo)
}

// OpenExclusive implements netdev.Platform.
// Claims are exclusive within this Platform only; other processes may still use the interface.
func (pf *Platform) OpenExclusive(id netdev.ID) (netdev.Device, error) {
	if pf.claimed[id] != nil {
		return nil, netdev.ErrClaimed
	}
	link, e := netlink.LinkByIndex(int(id))
	if e != nil {
		return nil, fmt.Errorf("netlink.LinkByIndex(%d): %w", id, e)
	}
	if !isEthernet(link.Attrs()) {
		return nil, fmt.Errorf("%s is not an Ethernet interface: %w", link.Attrs().Name, netdev.ErrUnsupported)
	}

	dev := newDevice(pf, link)
	pf.claimed[id] = dev
	return dev, nil
}

// CloseExclusive implements netdev.Platform.
func (pf *Platform) CloseExclusive(id netdev.ID) error {
	dev := pf.claimed[id]
	if dev == nil {
		return errors.New("device is not claimed")
	}
	delete(pf.claimed, id)
	return dev.closeSocket()
}

// PageSize returns the system memory page size.
func (pf *Platform) PageSize() int {
	return os.Getpagesize()
}

// AllocatePages implements netdev.Platform.
// Pages are mapped anonymously and remain mapped until Close.
func (pf *Platform) AllocatePages(nPages int) ([]byte, error) {
	if nPages <= 0 {
		return nil, fmt.Errorf("cannot reserve %d pages", nPages)
	}
	b, e := unix.Mmap(-1, 0, nPages*pf.PageSize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if e != nil {
		return nil, fmt.Errorf("mmap: %w", e)
	}
	pf.pages = append(pf.pages, b)
	return b, nil
}

// NewTimer implements netdev.Platform.
func (pf *Platform) NewTimer() (netdev.Timer, error) {
	return netdev.NewClockTimer(nil), nil
}

// Close releases every claim and unmaps reserved pages.
// Buffers from AllocatePages must not be accessed afterwards.
func (pf *Platform) Close() (e error) {
	for id := range pf.claimed {
		e = multierr.Append(e, pf.CloseExclusive(id))
	}
	for _, b := range pf.pages {
		e = multierr.Append(e, unix.Munmap(b))
	}
	pf.pages = nil
	if pf.etht != nil {
		pf.etht.Close()
		pf.etht = nil
	}
	return e
}
