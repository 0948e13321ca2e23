package fakedev_test

import (
	"net"
	"testing"
	"time"

	"github.com/usnistgov/netifc/core/testenv"
	"github.com/usnistgov/netifc/netdev"
	"github.com/usnistgov/netifc/netdev/fakedev"
)

var makeAR = testenv.MakeAR

var (
	group1 = net.HardwareAddr{0x01, 0x00, 0x5E, 0x00, 0x00, 0x01}
	group2 = net.HardwareAddr{0x33, 0x33, 0x00, 0x01, 0x00, 0x02}
)

func openDevice(t *testing.T, dev *fakedev.Device) (*fakedev.Platform, *netdev.Handle) {
	_, require := makeAR(t)
	pf := fakedev.New(dev)
	h, e := netdev.Claim(pf, 0)
	require.NoError(e)
	require.NoError(h.Start())
	require.NoError(h.Initialize())
	return pf, h
}

func TestClaim(t *testing.T) {
	assert, require := makeAR(t)

	pf := fakedev.New(&fakedev.Device{Name: "A"}, &fakedev.Device{FailClaim: fakedev.ErrInjected})
	ids, e := pf.Enumerate()
	require.NoError(e)
	assert.Equal([]netdev.ID{0, 1}, ids)
	assert.Equal("A", pf.Describe(0))
	assert.Equal("fake1", pf.Describe(1))
	assert.Equal("", pf.Describe(2))

	h, e := netdev.Claim(pf, 0)
	require.NoError(e)
	assert.Equal("net0(A)", h.String())
	_, e = netdev.Claim(pf, 0)
	assert.ErrorIs(e, netdev.ErrClaimed)
	_, e = netdev.Claim(pf, 1)
	assert.ErrorIs(e, fakedev.ErrInjected)
	assert.Equal([]netdev.ID{0}, pf.Claimed())

	assert.NoError(h.Close())
	assert.NoError(h.Close())
	assert.Len(pf.Claimed(), 0)
	assert.Equal([]netdev.ID{0}, pf.Ops("release"))
}

func TestLifecycle(t *testing.T) {
	assert, require := makeAR(t)

	dev := &fakedev.Device{Link: true}
	pf, h := openDevice(t, dev)
	assert.Equal(netdev.StateInitialized, h.Mode().State)
	assert.False(h.LinkPresent())

	_, e := h.GetStatus()
	require.NoError(e)
	assert.True(h.LinkPresent())

	dev.Link = false
	assert.True(h.LinkPresent())
	_, e = h.GetStatus()
	require.NoError(e)
	assert.False(h.LinkPresent())

	assert.NoError(h.Shutdown())
	assert.NoError(h.Stop())
	assert.ErrorIs(h.Stop(), netdev.ErrNotStarted)
	assert.NoError(h.Close())

	assert.Equal([]netdev.ID{0}, pf.Ops("start"))
	assert.Equal([]netdev.ID{0}, pf.Ops("initialize"))
	assert.Equal([]netdev.ID{0}, pf.Ops("shutdown"))
}

func TestReceive(t *testing.T) {
	assert, require := makeAR(t)

	dev := &fakedev.Device{}
	_, h := openDevice(t, dev)

	buf := make([]byte, h.Mode().RxBufferSize())
	_, _, e := h.Receive(buf)
	assert.ErrorIs(e, netdev.ErrNotReady)

	dev.Inject(make([]byte, 60))
	st, e := h.GetStatus()
	require.NoError(e)
	assert.NotZero(st.Interrupts & netdev.InterruptReceive)

	hdrLen, frameLen, e := h.Receive(buf)
	require.NoError(e)
	assert.Equal(14, hdrLen)
	assert.Equal(60, frameLen)
	assert.Equal(0, dev.PendingRx())

	long := make([]byte, 100)
	long[49], long[50] = 0xA1, 0xA2
	short := buf[:50]
	short[49] = 0
	dev.Inject(long)
	_, frameLen, e = h.Receive(short)
	require.NoError(e)
	assert.Equal(100, frameLen)
	assert.Equal(byte(0xA1), short[49])
	assert.Equal(0, dev.PendingRx())
}

func TestTransmitCompletion(t *testing.T) {
	assert, require := makeAR(t)

	dev := &fakedev.Device{TxCompletionDelay: 2}
	_, h := openDevice(t, dev)

	frame := make([]byte, 64)
	require.NoError(h.Transmit(frame))
	assert.Len(dev.Transmitted, 1)

	for i := 0; i < 2; i++ {
		st, e := h.GetStatus()
		require.NoError(e)
		assert.Nil(st.TxDone)
	}
	st, e := h.GetStatus()
	require.NoError(e)
	assert.True(&frame[0] == &st.TxDone[0])
	assert.Equal(0, dev.PendingTx())

	dev.FailTransmit = fakedev.ErrInjected
	assert.ErrorIs(h.Transmit(frame), fakedev.ErrInjected)
	assert.Len(dev.Transmitted, 1)
}

func TestFilterBehavior(t *testing.T) {
	list := []net.HardwareAddr{group1, group2}
	unicastMulticast := netdev.ReceiveUnicast | netdev.ReceiveMulticast

	t.Run("apply", func(t *testing.T) {
		assert, require := makeAR(t)
		dev := &fakedev.Device{}
		_, h := openDevice(t, dev)
		require.NoError(h.SetReceiveFilters(unicastMulticast, list))
		mode := h.Mode()
		assert.Equal(unicastMulticast, mode.ReceiveFilterSetting)
		assert.Equal(list, mode.MCastFilters)
		require.Len(dev.FilterCalls, 1)
		assert.False(dev.FilterCalls[0].Reset)
	})

	t.Run("reorder", func(t *testing.T) {
		assert, require := makeAR(t)
		_, h := openDevice(t, &fakedev.Device{Filter: fakedev.FilterReorder})
		require.NoError(h.SetReceiveFilters(unicastMulticast, list))
		assert.Equal([]net.HardwareAddr{group2, group1}, h.Mode().MCastFilters)
	})

	t.Run("drop-last", func(t *testing.T) {
		assert, require := makeAR(t)
		_, h := openDevice(t, &fakedev.Device{Filter: fakedev.FilterDropLast})
		require.NoError(h.SetReceiveFilters(unicastMulticast, list))
		assert.Equal([]net.HardwareAddr{group1}, h.Mode().MCastFilters)
	})

	t.Run("corrupt", func(t *testing.T) {
		assert, require := makeAR(t)
		_, h := openDevice(t, &fakedev.Device{Filter: fakedev.FilterCorrupt})
		require.NoError(h.SetReceiveFilters(unicastMulticast, list))
		table := h.Mode().MCastFilters
		require.Len(table, 2)
		assert.NotEqual(group1, table[0])
		assert.Equal(net.HardwareAddr{0x01, 0x00, 0x5E, 0x00, 0x00, 0x01}, group1)
	})

	t.Run("reject", func(t *testing.T) {
		assert, _ := makeAR(t)
		_, h := openDevice(t, &fakedev.Device{Filter: fakedev.FilterReject})
		assert.ErrorIs(h.SetReceiveFilters(unicastMulticast, list), fakedev.ErrInjected)
	})

	t.Run("promiscuous", func(t *testing.T) {
		assert, require := makeAR(t)
		dev := &fakedev.Device{}
		_, h := openDevice(t, dev)
		require.NoError(h.SetReceiveFilters(unicastMulticast, list))

		promisc := netdev.ReceiveUnicast | netdev.ReceivePromiscuous | netdev.ReceivePromiscuousMulticast
		require.NoError(h.SetReceiveFilters(promisc, nil))
		assert.Equal(promisc, h.Mode().ReceiveFilterSetting)
		assert.Len(h.Mode().MCastFilters, 0)
		require.Len(dev.FilterCalls, 2)
		assert.True(dev.FilterCalls[1].Reset)
		assert.Equal(netdev.ReceiveMulticast, dev.FilterCalls[1].Disable)

		dev.RejectPromiscuous = true
		assert.ErrorIs(h.SetReceiveFilters(promisc, nil), fakedev.ErrInjected)
	})
}

func TestTimer(t *testing.T) {
	assert, require := makeAR(t)

	pf := fakedev.New()
	timer, e := pf.NewTimer()
	require.NoError(e)
	require.Len(pf.Timers, 1)

	require.NoError(timer.Set(netdev.TimerRelative, netdev.DurationToTicks(time.Second)))
	assert.False(timer.Check())
	pf.Clock.Advance(time.Second)
	assert.True(timer.Check())
	assert.False(timer.Check())

	pf.TimerError = fakedev.ErrInjected
	_, e = pf.NewTimer()
	assert.ErrorIs(e, fakedev.ErrInjected)
}
