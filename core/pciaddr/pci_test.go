package pciaddr_test

import (
	"testing"

	"github.com/usnistgov/netifc/core/pciaddr"
	"github.com/usnistgov/netifc/core/testenv"
)

var (
	makeAR   = testenv.MakeAR
	fromJSON = testenv.FromJSON
	toJSON   = testenv.ToJSON
)

func TestParse(t *testing.T) {
	assert, _ := makeAR(t)

	a, e := pciaddr.Parse("0000:8F:00.0")
	assert.NoError(e)
	assert.Equal("0000:8f:00.0", a.String())

	a, e = pciaddr.Parse("01:1f.6")
	assert.NoError(e)
	assert.Equal(pciaddr.PCIAddress{Bus: 0x01, Slot: 0x1f, Function: 6}, a)

	for _, bad := range []string{"bad", "", "0000:00:20.0", "00:00.8", "12345:00:00.0", "0000:00:00:00.0", "00:.0"} {
		_, e = pciaddr.Parse(bad)
		assert.ErrorIs(e, pciaddr.ErrPCIAddress, bad)
	}

	a.Bus, a.Slot, a.Function = 0x5e, 0x01, 0x0
	assert.Equal(`"0000:5e:01.0"`, toJSON(a))

	var decoded pciaddr.PCIAddress
	fromJSON(`"0000:5e:01.0"`, &decoded)
	assert.Equal(a, decoded)
}

func TestFromBusInfo(t *testing.T) {
	assert, _ := makeAR(t)

	a, ok := pciaddr.FromBusInfo("0000:00:1f.6")
	assert.True(ok)
	assert.Equal("0000:00:1f.6", a.String())

	_, ok = pciaddr.FromBusInfo("N/A")
	assert.False(ok)
	_, ok = pciaddr.FromBusInfo("usb-0000:00:14.0-1")
	assert.False(ok)
	_, ok = pciaddr.FromBusInfo("")
	assert.False(ok)
}
