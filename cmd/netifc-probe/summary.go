//go:build linux

package main

import (
	"fmt"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// summarizer prints a one-line description of an Ethernet frame.
type summarizer struct {
	parser  *gopacket.DecodingLayerParser
	decoded []gopacket.LayerType
	eth     layers.Ethernet
	dot1q   layers.Dot1Q
	arp     layers.ARP
	ip4     layers.IPv4
	ip6     layers.IPv6
	icmp6   layers.ICMPv6
	udp     layers.UDP
	tcp     layers.TCP
}

func (sum *summarizer) Summarize(frame []byte) string {
	if sum.parser == nil {
		sum.parser = gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet,
			&sum.eth, &sum.dot1q, &sum.arp, &sum.ip4, &sum.ip6, &sum.icmp6, &sum.udp, &sum.tcp)
		sum.parser.IgnoreUnsupported = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "len=%d", len(frame))
	if e := sum.parser.DecodeLayers(frame, &sum.decoded); e != nil {
		fmt.Fprintf(&b, " decode-error=%v", e)
	}

	for _, layerType := range sum.decoded {
		switch layerType {
		case layers.LayerTypeEthernet:
			fmt.Fprintf(&b, " %s>%s", sum.eth.SrcMAC, sum.eth.DstMAC)
			if len(sum.decoded) == 1 {
				fmt.Fprintf(&b, " %s", sum.eth.EthernetType)
			}
		case layers.LayerTypeDot1Q:
			fmt.Fprintf(&b, " vlan=%d", sum.dot1q.VLANIdentifier)
		case layers.LayerTypeARP:
			fmt.Fprintf(&b, " ARP op=%d", sum.arp.Operation)
		case layers.LayerTypeIPv4:
			fmt.Fprintf(&b, " IPv4 %s>%s", sum.ip4.SrcIP, sum.ip4.DstIP)
		case layers.LayerTypeIPv6:
			fmt.Fprintf(&b, " IPv6 %s>%s", sum.ip6.SrcIP, sum.ip6.DstIP)
		case layers.LayerTypeICMPv6:
			fmt.Fprintf(&b, " ICMPv6 %s", sum.icmp6.TypeCode)
		case layers.LayerTypeUDP:
			fmt.Fprintf(&b, " UDP %d>%d", sum.udp.SrcPort, sum.udp.DstPort)
		case layers.LayerTypeTCP:
			fmt.Fprintf(&b, " TCP %d>%d", sum.tcp.SrcPort, sum.tcp.DstPort)
		}
	}
	return b.String()
}
