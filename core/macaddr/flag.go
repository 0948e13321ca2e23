package macaddr

import (
	"encoding"
	"flag"
	"net"
	"strings"
)

// Flag is a wrapper of net.HardwareAddr compatible with flag and json packages.
type Flag struct {
	net.HardwareAddr
}

var (
	_ interface {
		flag.Getter
		encoding.TextMarshaler
	} = &Flag{}
	_ encoding.TextMarshaler = Flag{}
	_ flag.Getter            = &ListFlag{}
)

// Empty returns true if the HardwareAddr is unset.
func (f Flag) Empty() bool {
	return len(f.HardwareAddr) == 0
}

// Get implements flag.Getter.
func (f *Flag) Get() any {
	return f.HardwareAddr
}

// Set implements flag.Value.
// The address must be MAC-48.
func (f *Flag) Set(s string) error {
	a, e := net.ParseMAC(s)
	if e != nil {
		return e
	}
	if !IsValid(a) {
		return ErrAddr
	}
	f.HardwareAddr = a
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f Flag) MarshalText() (text []byte, e error) {
	return []byte(f.HardwareAddr.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Flag) UnmarshalText(text []byte) (e error) {
	return f.Set(string(text))
}

// ListFlag is a repeatable flag that collects multicast MAC-48 addresses.
// Each occurrence may contain several comma-separated addresses.
type ListFlag []net.HardwareAddr

// Get implements flag.Getter.
func (l *ListFlag) Get() any {
	return []net.HardwareAddr(*l)
}

// Set implements flag.Value.
func (l *ListFlag) Set(s string) error {
	for _, token := range strings.Split(s, ",") {
		a, e := net.ParseMAC(strings.TrimSpace(token))
		if e != nil {
			return e
		}
		if !IsMulticast(a) {
			return ErrMulticast
		}
		*l = append(*l, a)
	}
	return nil
}

func (l ListFlag) String() string {
	tokens := make([]string, len(l))
	for i, a := range l {
		tokens[i] = a.String()
	}
	return strings.Join(tokens, ",")
}
