package netifc_test

import (
	"net"

	"github.com/usnistgov/netifc/core/testenv"
)

var (
	makeAR       = testenv.MakeAR
	bytesFromHex = testenv.BytesFromHex
	bytesEqual   = testenv.BytesEqual
)

var (
	group1 = net.HardwareAddr{0x01, 0x00, 0x5E, 0x00, 0x00, 0x01}
	group2 = net.HardwareAddr{0x33, 0x33, 0x00, 0x00, 0x00, 0x01}
	group3 = net.HardwareAddr{0x33, 0x33, 0xFF, 0x00, 0x00, 0x02}
)
