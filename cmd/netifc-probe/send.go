//go:build linux

package main

import (
	"errors"
	"fmt"
	"log"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/urfave/cli/v2"

	"github.com/usnistgov/netifc/core/macaddr"
	"github.com/usnistgov/netifc/netifc"
)

func init() {
	var dst macaddr.Flag
	var etherType uint
	var payloadLen, count int
	defineCommand(&cli.Command{
		Name:  "send",
		Usage: "Transmit test frames.",
		Flags: []cli.Flag{
			&cli.GenericFlag{
				Name:     "dst",
				Usage:    "Destination MAC `address`.",
				Value:    &dst,
				Required: true,
			},
			&cli.UintFlag{
				Name:        "ethertype",
				Usage:       "EtherType `value`.",
				Value:       0x88B5,
				Destination: &etherType,
			},
			&cli.IntFlag{
				Name:        "len",
				Usage:       "Payload `length`.",
				Value:       46,
				Destination: &payloadLen,
			},
			&cli.IntFlag{
				Name:        "count",
				Usage:       "Number of `frames`.",
				Value:       1,
				Destination: &count,
			},
		},
		Action: func(c *cli.Context) error {
			s, e := openSession(nil)
			if e != nil {
				return e
			}
			defer s.Close()

			frame, e := makeTestFrame(s.HardwareAddr(), dst.HardwareAddr, layers.EthernetType(etherType), payloadLen)
			if e != nil {
				return e
			}
			if e = checkFrameFits(frame, s.Pool().SlotSize()); e != nil {
				return e
			}

			sent := 0
			runLoop(s, func() bool {
				if sent >= count {
					return s.Pool().CountInUse() == 0
				}
				switch e := s.Send(frame); {
				case e == nil:
					sent++
				case errors.Is(e, netifc.ErrNoBuffer):
				default:
					log.Print(e)
					sent++
				}
				return false
			})
			log.Print(s.Counters())
			return nil
		},
	})
}

func makeTestFrame(src, dst net.HardwareAddr, etherType layers.EthernetType, payloadLen int) ([]byte, error) {
	if !macaddr.IsUnicast(src) {
		return nil, macaddr.ErrUnicast
	}
	if !macaddr.IsValid(dst) {
		return nil, macaddr.ErrAddr
	}
	eth := layers.Ethernet{
		SrcMAC:       src,
		DstMAC:       dst,
		EthernetType: etherType,
	}
	payload := make([]byte, payloadLen)
	for i := range payload {
		payload[i] = byte(i)
	}
	buf := gopacket.NewSerializeBuffer()
	if e := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, &eth, gopacket.Payload(payload)); e != nil {
		return nil, e
	}
	return buf.Bytes(), nil
}

// checkFrameFits rejects a frame that can never be placed in a transmit buffer.
func checkFrameFits(frame []byte, slotSize int) error {
	if len(frame) > slotSize {
		return fmt.Errorf("frame length %d exceeds buffer size %d, reduce --len", len(frame), slotSize)
	}
	return nil
}
