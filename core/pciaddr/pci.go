// Package pciaddr parses PCI addresses reported as network interface bus information.
package pciaddr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrPCIAddress indicates the input PCI address is invalid.
var ErrPCIAddress = errors.New("bad PCI address")

// PCIAddress represents a PCI address in domain:bus:slot.function form.
type PCIAddress struct {
	Domain   uint16
	Bus      uint8
	Slot     uint8
	Function uint8
}

func (a PCIAddress) String() string {
	return fmt.Sprintf("%04x:%02x:%02x.%01x", a.Domain, a.Bus, a.Slot, a.Function)
}

// MarshalText implements encoding.TextMarshaler interface.
func (a PCIAddress) MarshalText() (text []byte, e error) {
	if a.Function > 0x07 || a.Slot > 0x1F {
		return nil, ErrPCIAddress
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler interface.
func (a *PCIAddress) UnmarshalText(text []byte) (e error) {
	*a, e = Parse(string(text))
	return e
}

// Parse parses a PCI address.
// The domain may be omitted, as in "01:00.0".
func Parse(input string) (a PCIAddress, e error) {
	rest, fn, ok := strings.Cut(input, ".")
	if !ok {
		return PCIAddress{}, ErrPCIAddress
	}
	tokens := strings.Split(rest, ":")
	if len(tokens) == 2 {
		tokens = append([]string{"0"}, tokens...)
	}
	if len(tokens) != 3 {
		return PCIAddress{}, ErrPCIAddress
	}

	fields := []struct {
		s     string
		width int
		bits  int
	}{
		{tokens[0], 4, 16},
		{tokens[1], 2, 8},
		{tokens[2], 2, 5},
		{fn, 1, 3},
	}
	var values [4]uint64
	for i, f := range fields {
		if len(f.s) == 0 || len(f.s) > f.width {
			return PCIAddress{}, ErrPCIAddress
		}
		if values[i], e = strconv.ParseUint(f.s, 16, f.bits); e != nil {
			return PCIAddress{}, ErrPCIAddress
		}
	}
	return PCIAddress{
		Domain:   uint16(values[0]),
		Bus:      uint8(values[1]),
		Slot:     uint8(values[2]),
		Function: uint8(values[3]),
	}, nil
}

// FromBusInfo extracts a PCI address from ethtool bus information.
// Non-PCI devices report other formats, such as "usb-0000:00:14.0-1" or "N/A"; these return ok=false.
func FromBusInfo(busInfo string) (a PCIAddress, ok bool) {
	busInfo = strings.TrimPrefix(strings.TrimSpace(busInfo), "pci@")
	a, e := Parse(busInfo)
	return a, e == nil
}
