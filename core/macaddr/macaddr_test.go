package macaddr_test

import (
	"flag"
	"net"
	"testing"

	"github.com/usnistgov/netifc/core/macaddr"
	"github.com/usnistgov/netifc/core/testenv"
)

var makeAR = testenv.MakeAR

func TestMacAddr(t *testing.T) {
	assert, _ := makeAR(t)

	macZero, _ := net.ParseMAC("00:00:00:00:00:00")
	uA1, _ := net.ParseMAC("02:00:00:00:00:A1")
	uA2, _ := net.ParseMAC("02:00:00:00:00:A2")
	mA1, _ := net.ParseMAC("03:00:00:00:00:A1")
	mac64, _ := net.ParseMAC("02:00:00:00:00:00:00:64")

	assert.True(macaddr.Equal(uA1, uA1))
	assert.False(macaddr.Equal(uA1, uA2))
	assert.False(macaddr.Equal(uA1, mA1))

	assert.True(macaddr.IsValid(macZero))
	assert.True(macaddr.IsValid(uA1))
	assert.True(macaddr.IsValid(mA1))
	assert.False(macaddr.IsValid(mac64))

	assert.False(macaddr.IsUnicast(macZero))
	assert.True(macaddr.IsUnicast(uA1))
	assert.False(macaddr.IsUnicast(mA1))
	assert.False(macaddr.IsUnicast(mac64))

	assert.False(macaddr.IsMulticast(macZero))
	assert.False(macaddr.IsMulticast(uA1))
	assert.True(macaddr.IsMulticast(mA1))
	assert.False(macaddr.IsMulticast(mac64))

	list := []net.HardwareAddr{uA1, mA1}
	assert.True(macaddr.Contains(list, mA1))
	assert.False(macaddr.Contains(list, uA2))

	c := macaddr.Clone(uA1)
	c[5] = 0xFF
	assert.Equal(byte(0xA1), uA1[5])
	assert.Nil(macaddr.Clone(nil))
}

func TestFlag(t *testing.T) {
	assert, _ := makeAR(t)

	var f flag.FlagSet
	var m macaddr.Flag
	f.Var(&m, "m", "")

	assert.True(m.Empty())
	assert.Error(f.Parse([]string{"-m", "x"}))
	assert.NoError(f.Parse([]string{"-m", "33:33:00:00:00:01"}))
	assert.False(m.Empty())
	assert.Equal("33:33:00:00:00:01", m.String())

	assert.ErrorIs(m.Set("02:00:5E:10:00:00:00:01"), macaddr.ErrAddr)
	assert.Equal("33:33:00:00:00:01", m.String())
}

func TestListFlag(t *testing.T) {
	assert, _ := makeAR(t)

	var f flag.FlagSet
	var l macaddr.ListFlag
	f.Var(&l, "mcast", "")

	assert.NoError(f.Parse([]string{"-mcast", "33:33:00:00:00:01,33:33:FF:00:00:02", "-mcast", "01:00:5E:00:00:FB"}))
	assert.Len(l, 3)
	assert.Equal("33:33:00:00:00:01,33:33:ff:00:00:02,01:00:5e:00:00:fb", l.String())

	var l2 macaddr.ListFlag
	assert.ErrorIs(l2.Set("02:00:00:00:00:01"), macaddr.ErrMulticast)
	assert.Error(l2.Set("zz"))
}
