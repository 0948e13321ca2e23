//go:build linux

package main

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/usnistgov/netifc/core/testenv"
)

func TestSummarize(t *testing.T) {
	assert, require := testenv.MakeAR(t)

	eth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		DstMAC:       net.HardwareAddr{0x33, 0x33, 0x00, 0x00, 0x00, 0x01},
		EthernetType: layers.EthernetTypeIPv6,
	}
	ip6 := layers.IPv6{
		Version:    6,
		NextHeader: layers.IPProtocolUDP,
		HopLimit:   64,
		SrcIP:      net.ParseIP("fe80::1"),
		DstIP:      net.ParseIP("ff02::1"),
	}
	udp := layers.UDP{SrcPort: 33434, DstPort: 33435}
	require.NoError(udp.SetNetworkLayerForChecksum(&ip6))

	buf := gopacket.NewSerializeBuffer()
	require.NoError(gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true},
		&eth, &ip6, &udp, gopacket.Payload([]byte{0xC0, 0xC1})))

	var sum summarizer
	line := sum.Summarize(buf.Bytes())
	assert.Contains(line, "02:00:00:00:00:01>33:33:00:00:00:01")
	assert.Contains(line, "IPv6 fe80::1>ff02::1")
	assert.Contains(line, "UDP 33434>33435")

	line = sum.Summarize([]byte{0x01, 0x02})
	assert.Contains(line, "len=2 decode-error=")
}
