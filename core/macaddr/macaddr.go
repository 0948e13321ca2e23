// Package macaddr contains helpers for MAC-48 addresses.
package macaddr

import (
	"bytes"
	"errors"
	"net"
)

// Errors.
var (
	ErrAddr      = errors.New("invalid MAC-48 address")
	ErrUnicast   = errors.New("invalid unicast MAC-48 address")
	ErrMulticast = errors.New("invalid multicast MAC-48 address")
)

// Equal determines whether two HardwareAddrs are the same.
func Equal(a, b net.HardwareAddr) bool {
	return bytes.Equal([]byte(a), []byte(b))
}

// IsValid determines whether the HardwareAddr is a MAC-48 address.
func IsValid(a net.HardwareAddr) bool {
	return len(a) == 6
}

// IsUnicast determines whether the HardwareAddr is a non-zero unicast MAC-48 address.
func IsUnicast(a net.HardwareAddr) bool {
	return IsValid(a) && (a[0]&0x01) == 0 && (a[0]|a[1]|a[2]|a[3]|a[4]|a[5]) != 0
}

// IsMulticast determines whether the HardwareAddr is a multicast MAC-48 address.
func IsMulticast(a net.HardwareAddr) bool {
	return IsValid(a) && (a[0]&0x01) != 0
}

// Clone returns a copy of the HardwareAddr that does not share memory with the input.
func Clone(a net.HardwareAddr) net.HardwareAddr {
	if a == nil {
		return nil
	}
	return append(net.HardwareAddr{}, a...)
}

// Contains determines whether list contains a.
func Contains(list []net.HardwareAddr, a net.HardwareAddr) bool {
	for _, b := range list {
		if Equal(a, b) {
			return true
		}
	}
	return false
}
