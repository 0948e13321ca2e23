//go:build linux

package main

import (
	"log"

	"github.com/urfave/cli/v2"

	"github.com/usnistgov/netifc/core/macaddr"
)

func init() {
	var mcast macaddr.ListFlag
	var count int
	defineCommand(&cli.Command{
		Name:  "dump",
		Usage: "Print received frames.",
		Flags: []cli.Flag{
			&cli.GenericFlag{
				Name:  "mcast",
				Usage: "Multicast `groups` to receive, comma separated.",
				Value: &mcast,
			},
			&cli.IntFlag{
				Name:        "count",
				Usage:       "Stop after receiving `N` frames (0 means unlimited).",
				Destination: &count,
			},
		},
		Action: func(c *cli.Context) error {
			s, e := openSession(mcast)
			if e != nil {
				return e
			}
			defer s.Close()

			var sum summarizer
			nFrames := 0
			s.OnFrame(func(frame []byte) {
				nFrames++
				log.Print(sum.Summarize(frame))
			})

			runLoop(s, func() bool { return count > 0 && nFrames >= count })
			log.Print(s.Counters())
			return nil
		},
	})
}
