//go:build linux

package netifdev

var RingLayout = ringLayout
