package netifc_test

import (
	"net"
	"testing"

	"github.com/usnistgov/netifc/netdev"
	"github.com/usnistgov/netifc/netdev/fakedev"
	"github.com/usnistgov/netifc/netifc"
)

func TestMulticastFilterSet(t *testing.T) {
	assert, require := makeAR(t)

	var set netifc.MulticastFilterSet
	assert.ErrorIs(set.Add(net.HardwareAddr{0x02, 0, 0, 0, 0, 1}), netifc.ErrInvalidAddress)
	assert.ErrorIs(set.Add(net.HardwareAddr{0x01, 0, 0x5E}), netifc.ErrInvalidAddress)

	require.NoError(set.Add(group1))
	require.NoError(set.Add(group1))
	assert.Len(set, 1)
	assert.True(set.Contains(group1))
	assert.False(set.Contains(group2))

	for i := 1; i < netifc.MaxMulticastFilters; i++ {
		require.NoError(set.Add(net.HardwareAddr{0x33, 0x33, 0, 0, 0, byte(i)}))
	}
	assert.Len(set, netifc.MaxMulticastFilters)
	assert.ErrorIs(set.Add(group3), netifc.ErrTooManyFilters)
	assert.Equal("01:00:5e:00:00:01,33:33:00:00:00:01", set[:2].String())
}

func openForFilters(t *testing.T, dev *fakedev.Device) *netdev.Handle {
	_, require := makeAR(t)
	dev.Link = true
	h, e := netifc.FindDevice(fakedev.New(dev), 0)
	require.NoError(e)
	return h
}

func TestConfigureFilters(t *testing.T) {
	filters := netifc.MulticastFilterSet{group1, group2}
	targeted := netdev.ReceiveUnicast | netdev.ReceiveMulticast
	promiscuous := netdev.ReceiveUnicast | netdev.ReceivePromiscuous | netdev.ReceivePromiscuousMulticast

	t.Run("targeted", func(t *testing.T) {
		assert, require := makeAR(t)
		dev := &fakedev.Device{}
		h := openForFilters(t, dev)

		outcome, e := netifc.ConfigureFilters(h, filters)
		require.NoError(e)
		assert.Equal(netifc.FilterTargeted, outcome)
		require.Len(dev.FilterCalls, 1)
		assert.Equal(targeted, dev.FilterCalls[0].Enable)
		assert.Equal([]net.HardwareAddr(filters), dev.FilterCalls[0].MCast)
		assert.Equal(targeted, h.Mode().ReceiveFilterSetting)
	})

	t.Run("empty", func(t *testing.T) {
		assert, require := makeAR(t)
		dev := &fakedev.Device{}
		h := openForFilters(t, dev)

		outcome, e := netifc.ConfigureFilters(h, nil)
		require.NoError(e)
		assert.Equal(netifc.FilterTargeted, outcome)
		require.Len(dev.FilterCalls, 1)
		assert.True(dev.FilterCalls[0].Reset)
	})

	t.Run("reordered", func(t *testing.T) {
		assert, require := makeAR(t)
		dev := &fakedev.Device{Filter: fakedev.FilterReorder}
		h := openForFilters(t, dev)

		outcome, e := netifc.ConfigureFilters(h, filters)
		require.NoError(e)
		assert.Equal(netifc.FilterTargeted, outcome)
		assert.Len(dev.FilterCalls, 1)
	})

	t.Run("count-mismatch", func(t *testing.T) {
		assert, require := makeAR(t)
		dev := &fakedev.Device{Filter: fakedev.FilterDropLast}
		h := openForFilters(t, dev)

		outcome, e := netifc.ConfigureFilters(h, filters)
		require.NoError(e)
		assert.Equal(netifc.FilterPromiscuous, outcome)
		require.Len(dev.FilterCalls, 2)
		assert.Equal(targeted, dev.FilterCalls[0].Enable)
		assert.Equal(promiscuous, dev.FilterCalls[1].Enable)
		assert.True(dev.FilterCalls[1].Reset)
		assert.Equal(promiscuous, h.Mode().ReceiveFilterSetting)
	})

	t.Run("address-mismatch", func(t *testing.T) {
		assert, require := makeAR(t)
		dev := &fakedev.Device{Filter: fakedev.FilterCorrupt}
		h := openForFilters(t, dev)

		outcome, e := netifc.ConfigureFilters(h, filters)
		require.NoError(e)
		assert.Equal(netifc.FilterPromiscuous, outcome)
		require.Len(dev.FilterCalls, 2)
		assert.Equal(promiscuous, dev.FilterCalls[1].Enable)
	})

	t.Run("table-too-small", func(t *testing.T) {
		assert, require := makeAR(t)
		dev := &fakedev.Device{MaxMCastFilterCount: 1}
		h := openForFilters(t, dev)

		outcome, e := netifc.ConfigureFilters(h, filters)
		require.NoError(e)
		assert.Equal(netifc.FilterPromiscuous, outcome)
		require.Len(dev.FilterCalls, 1)
		assert.Equal(promiscuous, dev.FilterCalls[0].Enable)
	})

	t.Run("targeted-rejected", func(t *testing.T) {
		assert, _ := makeAR(t)
		dev := &fakedev.Device{Filter: fakedev.FilterReject}
		h := openForFilters(t, dev)

		_, e := netifc.ConfigureFilters(h, filters)
		assert.ErrorIs(e, netifc.ErrFilterConfig)
		assert.ErrorIs(e, fakedev.ErrInjected)
		assert.Len(dev.FilterCalls, 1)
	})

	t.Run("promiscuous-rejected", func(t *testing.T) {
		assert, _ := makeAR(t)
		dev := &fakedev.Device{Filter: fakedev.FilterDropLast, RejectPromiscuous: true}
		h := openForFilters(t, dev)

		outcome, e := netifc.ConfigureFilters(h, filters)
		assert.ErrorIs(e, netifc.ErrFilterConfig)
		assert.Equal(netifc.FilterPromiscuous, outcome)
		assert.Len(dev.FilterCalls, 2)
	})
}
