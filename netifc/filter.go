package netifc

import (
	"fmt"
	"net"
	"strings"

	"github.com/pkg/math"
	"go.uber.org/zap"

	"github.com/usnistgov/netifc/core/macaddr"
	"github.com/usnistgov/netifc/netdev"
)

// MulticastFilterSet is an ordered list of multicast addresses admitted by the device.
type MulticastFilterSet []net.HardwareAddr

// Add appends an address.
// Returns ErrInvalidAddress if addr is not a multicast MAC-48 address,
// or ErrTooManyFilters if the set already has MaxMulticastFilters entries.
// Adding an address already in the set has no effect.
func (set *MulticastFilterSet) Add(addr net.HardwareAddr) error {
	if !macaddr.IsMulticast(addr) {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, addr)
	}
	if set.Contains(addr) {
		return nil
	}
	if len(*set) >= MaxMulticastFilters {
		return ErrTooManyFilters
	}
	*set = append(*set, macaddr.Clone(addr))
	return nil
}

// Contains determines whether addr is in the set.
func (set MulticastFilterSet) Contains(addr net.HardwareAddr) bool {
	return macaddr.Contains(set, addr)
}

func (set MulticastFilterSet) String() string {
	tokens := make([]string, len(set))
	for i, addr := range set {
		tokens[i] = addr.String()
	}
	return strings.Join(tokens, ",")
}

// FilterOutcome indicates how receive filters were configured.
type FilterOutcome int

// FilterOutcome values.
const (
	// FilterTargeted means the device admits unicast plus the requested multicast groups.
	FilterTargeted FilterOutcome = iota
	// FilterPromiscuous means the device admits all frames.
	FilterPromiscuous
)

func (o FilterOutcome) String() string {
	switch o {
	case FilterTargeted:
		return "targeted"
	case FilterPromiscuous:
		return "promiscuous"
	}
	return "invalid"
}

const (
	targetedFilters    = netdev.ReceiveUnicast | netdev.ReceiveMulticast
	promiscuousFilters = netdev.ReceiveUnicast | netdev.ReceivePromiscuous | netdev.ReceivePromiscuousMulticast
)

// ConfigureFilters programs receive filters on an initialized device.
//
// It first requests unicast plus the multicast groups in filters, then reads back the device's
// multicast table. If the table differs in length from filters, or lacks any requested address,
// the device cannot be trusted to admit those groups, and it is switched to promiscuous mode.
// The promiscuous setting is not read back.
//
// Returns an ErrFilterConfig error if the device rejects a programming request.
func ConfigureFilters(dev *netdev.Handle, filters MulticastFilterSet) (outcome FilterOutcome, e error) {
	logEntry := logger.With(dev.ZapField("dev"), zap.Stringer("mcast", filters))
	defer func() {
		if e == nil {
			logEntry.Info("receive filters configured", zap.Stringer("outcome", outcome))
		}
	}()

	limit := math.MinInt(MaxMulticastFilters, dev.Mode().MaxMCastFilterCount)
	if len(filters) > limit {
		logEntry.Info("multicast filter table too small", zap.Int("limit", limit))
		return setPromiscuous(dev)
	}

	if e = dev.SetReceiveFilters(targetedFilters, filters); e != nil {
		logEntry.Error("targeted receive filters rejected", zap.Error(e))
		return FilterTargeted, fmt.Errorf("%w: %w", ErrFilterConfig, e)
	}

	if reason := verifyMCastTable(dev.Mode().MCastFilters, filters); reason != "" {
		logEntry.Info("multicast filter table mismatch", zap.String("reason", reason))
		return setPromiscuous(dev)
	}
	return FilterTargeted, nil
}

func verifyMCastTable(table []net.HardwareAddr, filters MulticastFilterSet) (reason string) {
	if len(table) != len(filters) {
		return fmt.Sprintf("device reports %d entries, %d requested", len(table), len(filters))
	}
	for _, addr := range filters {
		if !macaddr.Contains(table, addr) {
			return fmt.Sprintf("%v missing", addr)
		}
	}
	return ""
}

func setPromiscuous(dev *netdev.Handle) (FilterOutcome, error) {
	if e := dev.SetReceiveFilters(promiscuousFilters, nil); e != nil {
		logger.Error("promiscuous receive filters rejected", dev.ZapField("dev"), zap.Error(e))
		return FilterPromiscuous, fmt.Errorf("%w: %w", ErrFilterConfig, e)
	}
	return FilterPromiscuous, nil
}
