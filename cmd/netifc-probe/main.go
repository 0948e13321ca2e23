//go:build linux

// Command netifc-probe brings up a network interface session and exchanges raw Ethernet frames.
package main

import (
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/usnistgov/netifc/core/logging"
	"github.com/usnistgov/netifc/core/macaddr"
	"github.com/usnistgov/netifc/core/nnduration"
	"github.com/usnistgov/netifc/core/yamlflag"
	"github.com/usnistgov/netifc/mk/version"
	"github.com/usnistgov/netifc/netdev/netifdev"
	"github.com/usnistgov/netifc/netifc"
)

// ProbeConfig is the --config document.
type ProbeConfig struct {
	Platform netifdev.Config `json:"platform,omitempty"`
	Session  netifc.Config   `json:"session,omitempty"`

	// IdleSleep is the pause after a Poll that delivered nothing.
	IdleSleep nnduration.Milliseconds `json:"idleSleep,omitempty"`

	// StatsInterval is the interval of printing session counters.
	StatsInterval nnduration.Milliseconds `json:"statsInterval,omitempty"`
}

var (
	interrupt = make(chan os.Signal, 1)
	cfg       ProbeConfig
	pf        *netifdev.Platform
)

var app = &cli.App{
	Version: version.Get().String(),
	Usage:   "Network interface bootstrap probe.",
	Flags: []cli.Flag{
		&cli.GenericFlag{
			Name:  "config",
			Usage: "Configuration `YAML` document, or @file.yaml.",
			Value: yamlflag.New(&cfg),
		},
		&cli.StringFlag{
			Name:  "log",
			Usage: "Log `level` of every package (V, D, I, W, E, F).",
		},
		&cli.StringSliceFlag{
			Name:    "netif",
			Usage:   "Candidate network `interface` names, in order of preference.",
			EnvVars: []string{"NETIFC_NETIF"},
		},
	},
	Before: func(c *cli.Context) error {
		signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
		if lvl := c.String("log"); lvl != "" {
			logging.SetAll(lvl)
		}
		if names := c.StringSlice("netif"); len(names) > 0 {
			cfg.Platform.Names = names
		}
		pf = netifdev.New(cfg.Platform)
		if cfg.Session.PageSize == 0 {
			cfg.Session.PageSize = pf.PageSize()
		}
		return nil
	},
	After: func(c *cli.Context) error {
		if pf == nil {
			return nil
		}
		return pf.Close()
	},
}

func defineCommand(command *cli.Command) {
	app.Commands = append(app.Commands, command)
}

// openSession opens a session with multicast filters.
func openSession(mcast macaddr.ListFlag) (s *netifc.Session, e error) {
	s = netifc.NewSession(pf, cfg.Session)
	for _, addr := range mcast {
		if e = s.AddMulticastFilter(addr); e != nil {
			return nil, e
		}
	}
	if e = s.Open(); e != nil {
		return nil, e
	}
	log.Printf("opened %s hwaddr=%s filter=%s", s.Device(), s.HardwareAddr(), s.FilterOutcome())
	return s, nil
}

// runLoop polls s until interrupted or until done returns true.
func runLoop(s *netifc.Session, done func() bool) {
	idle := cfg.IdleSleep.DurationOr(1)
	if cfg.StatsInterval > 0 {
		if e := s.SetPeriodicTimer(cfg.StatsInterval.Duration()); e != nil {
			log.Printf("counters will not be printed: %v", e)
		}
	}
	for !done() {
		select {
		case <-interrupt:
			return
		default:
		}
		if s.TimerExpired() {
			log.Print(s.Counters())
		}
		if !s.Poll() {
			time.Sleep(idle)
		}
	}
}

func main() {
	sort.Sort(cli.CommandsByName(app.Commands))
	e := app.Run(os.Args)
	if e != nil {
		log.Fatal(e)
	}
}
