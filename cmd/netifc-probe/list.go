//go:build linux

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/usnistgov/netifc/netifc"
)

func init() {
	defineCommand(&cli.Command{
		Name:  "list",
		Usage: "List candidate network interfaces.",
		Action: func(c *cli.Context) error {
			ids, e := pf.Enumerate()
			if e != nil {
				return e
			}
			for _, id := range ids {
				fmt.Printf("%v\t%s\n", id, pf.Describe(id))
			}
			return nil
		},
	})

	defineCommand(&cli.Command{
		Name:  "find",
		Usage: "Find the first network interface with link.",
		Action: func(c *cli.Context) error {
			h, e := netifc.FindDevice(pf, cfg.Session.MaxCandidates)
			if e != nil {
				return e
			}
			defer func() {
				h.Shutdown()
				h.Stop()
				h.Close()
			}()
			mode := h.Mode()
			fmt.Printf("%v\thwaddr=%s mtu=%d max-mcast=%d\n", h, mode.HardwareAddr, mode.MaxFrameSize, mode.MaxMCastFilterCount)
			return nil
		},
	})
}
