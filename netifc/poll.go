package netifc

import (
	"errors"
	"fmt"
	"time"

	"github.com/pkg/math"
	"go.uber.org/zap"

	"github.com/usnistgov/netifc/bufpool"
	"github.com/usnistgov/netifc/netdev"
)

// Poll performs one non-blocking I/O cycle.
//
// It reads device status, returns a completed transmit buffer (if any) to the pool,
// and then receives at most one frame and delivers it to every OnFrame callback.
// Returns true if a frame was delivered.
//
// Poll has no effect if the session is closed, or if it is called from within an OnFrame callback.
func (s *Session) Poll() bool {
	if s.state != StateOpen {
		return false
	}
	if s.polling {
		s.cnt.ReentrantPolls++
		return false
	}
	s.polling = true
	defer func() { s.polling = false }()

	st, e := s.dev.GetStatus()
	if e != nil {
		s.cnt.StatusErrors++
		s.logger.Debug("GetStatus error", zap.Error(e))
		return false
	}
	if st.TxDone != nil {
		s.pool.ReleaseBytes(st.TxDone)
		s.cnt.TxCompleted++
	}

	_, frameLen, e := s.dev.Receive(s.rxBuf)
	switch {
	case errors.Is(e, netdev.ErrNotReady):
		return false
	case e != nil:
		s.cnt.RxErrors++
		s.logger.Debug("Receive error", zap.Error(e))
		return false
	}

	frame := s.rxBuf[:math.MinInt(frameLen, len(s.rxBuf))]
	s.cnt.RxFrames++
	s.rxLen.Push(uint64(len(frame)))
	s.emitter.Emit(evtFrame, frame)
	return true
}

// AcquireBuffer takes a transmit buffer that can hold at least size octets.
// Returns ErrNoBuffer if the pool is exhausted or size exceeds the slot size.
// The buffer must be passed to SendBuffer or ReleaseBuffer.
func (s *Session) AcquireBuffer(size int) (buf bufpool.Buffer, e error) {
	if s.state != StateOpen {
		return buf, ErrClosed
	}
	buf, ok := s.pool.Acquire(size)
	if !ok {
		s.cnt.TxNoBuffer++
		return buf, ErrNoBuffer
	}
	return buf, nil
}

// ReleaseBuffer returns an unsent buffer to the pool.
func (s *Session) ReleaseBuffer(buf bufpool.Buffer) {
	if s.state != StateOpen {
		return
	}
	s.pool.Release(buf)
}

// SendBuffer transmits the first length octets of buf.
// If the device accepts the frame, it owns buf until a later Poll reclaims it.
// Otherwise, buf is returned to the pool and an ErrTransmit error is returned;
// the caller must not release buf again.
// Panics with *bufpool.CorruptionError if buf is not currently held from this session's pool.
func (s *Session) SendBuffer(buf bufpool.Buffer, length int) error {
	if s.state != StateOpen {
		return ErrClosed
	}
	s.pool.Check(buf)
	b := buf.Bytes()
	if length < 0 || length > len(b) {
		s.pool.Release(buf)
		s.cnt.TxErrors++
		return fmt.Errorf("%w: length %d out of range", ErrTransmit, length)
	}
	if e := s.dev.Transmit(b[:length]); e != nil {
		s.pool.Release(buf)
		s.cnt.TxErrors++
		return fmt.Errorf("%w: %w", ErrTransmit, e)
	}
	s.cnt.TxFrames++
	return nil
}

// Send copies frame into a pool buffer and transmits it.
// Returns ErrNoBuffer if the pool is exhausted or frame does not fit in a buffer.
func (s *Session) Send(frame []byte) error {
	if s.state != StateOpen {
		return ErrClosed
	}
	buf, e := s.AcquireBuffer(len(frame))
	if e != nil {
		return e
	}
	copy(buf.Bytes(), frame)
	return s.SendBuffer(buf, len(frame))
}

// SetTimer arms the timer to expire once after d.
func (s *Session) SetTimer(d time.Duration) error {
	return s.setTimer(netdev.TimerRelative, d)
}

// SetPeriodicTimer arms the timer to expire every d.
func (s *Session) SetPeriodicTimer(d time.Duration) error {
	return s.setTimer(netdev.TimerPeriodic, d)
}

// CancelTimer disarms the timer.
func (s *Session) CancelTimer() error {
	return s.setTimer(netdev.TimerCancel, 0)
}

func (s *Session) setTimer(kind netdev.TimerKind, d time.Duration) error {
	if s.state != StateOpen {
		return ErrClosed
	}
	if e := s.timer.Set(kind, netdev.DurationToTicks(d)); e != nil {
		return fmt.Errorf("%w: %w", ErrTimer, e)
	}
	return nil
}

// TimerExpired returns true if the timer has expired since the last call.
// Returns false if the session is closed.
func (s *Session) TimerExpired() bool {
	if s.state != StateOpen {
		return false
	}
	return s.timer.Check()
}
