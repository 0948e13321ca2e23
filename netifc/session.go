package netifc

import (
	"fmt"
	"io"
	"net"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/usnistgov/netifc/bufpool"
	"github.com/usnistgov/netifc/core/events"
	"github.com/usnistgov/netifc/core/runningstat"
	"github.com/usnistgov/netifc/netdev"
)

// State is the session state.
type State int

// State values.
const (
	StateClosed State = iota
	StateOpen
)

func (st State) String() string {
	switch st {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	}
	return "invalid"
}

const (
	evtFrame       = "Frame"
	evtStateChange = "StateChange"
)

// Counters contains session counters.
// They are reset when the session is opened.
type Counters struct {
	RxFrames       uint64 `json:"rxFrames"`
	RxErrors       uint64 `json:"rxErrors"`
	TxFrames       uint64 `json:"txFrames"`
	TxErrors       uint64 `json:"txErrors"`
	TxNoBuffer     uint64 `json:"txNoBuffer"`
	TxCompleted    uint64 `json:"txCompleted"`
	StatusErrors   uint64 `json:"statusErrors"`
	ReentrantPolls uint64 `json:"reentrantPolls"`

	RxLength runningstat.Snapshot `json:"rxLength"` // delivered frame length
}

func (cnt Counters) String() string {
	return fmt.Sprintf("rx %dfrm %derr %.0fmeanlen, tx %dfrm %derr %dnobuf %dcompleted, status %derr, reentrant %d",
		cnt.RxFrames, cnt.RxErrors, cnt.RxLength.Mean, cnt.TxFrames, cnt.TxErrors, cnt.TxNoBuffer, cnt.TxCompleted,
		cnt.StatusErrors, cnt.ReentrantPolls)
}

// Session is a network interface session on one platform.
// It is not thread-safe: every method, including Poll, must be called from the same goroutine.
type Session struct {
	fw      netdev.Platform
	cfg     Config
	filters MulticastFilterSet
	emitter *events.Emitter
	logger  *zap.Logger

	state   State
	dev     *netdev.Handle
	pool    *bufpool.Pool
	timer   netdev.Timer
	outcome FilterOutcome
	rxBuf   []byte
	polling bool
	cnt     Counters
	rxLen   runningstat.IntStat
}

// NewSession creates a closed Session.
func NewSession(fw netdev.Platform, cfg Config) *Session {
	cfg.applyDefaults()
	return &Session{
		fw:      fw,
		cfg:     cfg,
		emitter: events.NewEmitter(),
		logger:  logger,
	}
}

// State returns current state.
func (s *Session) State() State {
	return s.state
}

// IsActive returns true if the session is open.
func (s *Session) IsActive() bool {
	return s.state == StateOpen
}

// Config returns the effective configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// AddMulticastFilter adds a multicast group to be admitted by the device.
// It must be called while the session is closed; the list takes effect at the next Open.
func (s *Session) AddMulticastFilter(addr net.HardwareAddr) error {
	if s.state != StateClosed {
		return ErrFiltersFrozen
	}
	return s.filters.Add(addr)
}

// MulticastFilters returns a copy of the multicast filter list.
func (s *Session) MulticastFilters() MulticastFilterSet {
	return append(MulticastFilterSet{}, s.filters...)
}

// OnFrame registers a callback that receives inbound frames.
// The frame slice is valid only during the callback.
// Return value may be closed to cancel the callback registration.
func (s *Session) OnFrame(cb func(frame []byte)) io.Closer {
	return s.emitter.On(evtFrame, cb)
}

// OnStateChange registers a callback that is invoked after each state transition.
// Return value may be closed to cancel the callback registration.
func (s *Session) OnStateChange(cb func(st State)) io.Closer {
	return s.emitter.On(evtStateChange, cb)
}

// Open discovers a device, seeds the buffer pool, and configures receive filters.
// On failure, everything acquired so far is released and the session remains closed.
func (s *Session) Open() (e error) {
	if s.state != StateClosed {
		return ErrActive
	}
	s.cnt = Counters{}
	s.rxLen.Clear()
	defer func() {
		if e != nil {
			if te := s.teardown(); te != nil {
				s.logger.Warn("cleanup after open failure", zap.Error(te))
			}
			s.logger.Error("open failed", zap.Error(e))
			s.logger = logger
		}
	}()

	if s.timer, e = s.fw.NewTimer(); e != nil {
		return fmt.Errorf("%w: %w", ErrTimer, e)
	}

	if s.dev, e = FindDevice(s.fw, s.cfg.MaxCandidates); e != nil {
		return e
	}
	mode := s.dev.Mode()
	s.logger = logger.With(s.dev.ZapField("dev"))
	s.logger.Info("device mode", mode.ZapField("mode"))

	if s.pool, e = bufpool.New(s.cfg.poolConfig(), s.fw.AllocatePages); e != nil {
		return fmt.Errorf("%w: %w", ErrPoolAlloc, e)
	}

	if s.outcome, e = ConfigureFilters(s.dev, s.filters); e != nil {
		return e
	}

	s.rxBuf = make([]byte, mode.RxBufferSize())
	s.setState(StateOpen)
	s.logger.Info("session opened",
		zap.Stringer("hwaddr", mode.HardwareAddr),
		zap.Int("buffers", s.pool.Capacity()),
		zap.Stringer("filter", s.outcome),
	)
	return nil
}

// Close disarms the timer, shuts down and stops the device, and releases the device claim.
// Teardown errors are logged and not returned.
// Closing a closed session has no effect.
func (s *Session) Close() error {
	if s.state != StateOpen {
		return nil
	}
	if e := s.teardown(); e != nil {
		s.logger.Warn("teardown error", zap.Error(e))
	}
	s.logger.Info("session closed", zap.Stringer("cnt", s.cnt))
	s.logger = logger
	s.setState(StateClosed)
	return nil
}

func (s *Session) teardown() (e error) {
	if s.timer != nil {
		e = multierr.Append(e, s.timer.Set(netdev.TimerCancel, 0))
		e = multierr.Append(e, s.timer.Close())
		s.timer = nil
	}
	if s.dev != nil {
		e = multierr.Append(e, s.dev.Shutdown())
		e = multierr.Append(e, s.dev.Stop())
		e = multierr.Append(e, s.dev.Close())
		s.dev = nil
	}
	s.pool, s.rxBuf = nil, nil
	return e
}

func (s *Session) setState(st State) {
	s.state = st
	s.emitter.Emit(evtStateChange, st)
}

// HardwareAddr returns the MAC address of the bound device, or nil if the session is closed.
func (s *Session) HardwareAddr() net.HardwareAddr {
	if s.state != StateOpen {
		return nil
	}
	return s.dev.HardwareAddr()
}

// Device returns a description of the bound device, or empty string if the session is closed.
func (s *Session) Device() string {
	if s.state != StateOpen {
		return ""
	}
	return s.dev.String()
}

// Mode returns the mode of the bound device.
func (s *Session) Mode() (mode netdev.Mode, ok bool) {
	if s.state != StateOpen {
		return mode, false
	}
	return s.dev.Mode(), true
}

// FilterOutcome returns how receive filters were configured at the last successful Open.
func (s *Session) FilterOutcome() FilterOutcome {
	return s.outcome
}

// Pool returns the buffer pool, or nil if the session is closed.
func (s *Session) Pool() *bufpool.Pool {
	return s.pool
}

// Counters returns current counters.
func (s *Session) Counters() (cnt Counters) {
	cnt = s.cnt
	cnt.RxLength = s.rxLen.Read()
	return cnt
}
