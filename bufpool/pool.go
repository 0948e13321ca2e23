// Package bufpool provides a fixed-size frame buffer pool carved from reserved memory pages.
//
// The pool never grows, never shrinks, and never falls back to a general allocator.
// Slot metadata is kept apart from the arena, so that frame contents cannot corrupt ownership tracking.
// Every release is checked against the slot's validity tag; a mismatch panics with *CorruptionError.
package bufpool

import (
	"errors"
	"fmt"
	"unsafe"

	"go.uber.org/zap"

	"github.com/usnistgov/netifc/core/logging"
)

var logger = logging.New("bufpool")

// Magic is the base value of slot validity tags.
const Magic uint64 = 0x424201020304A7A7

// ErrShortReservation indicates the reserved memory is smaller than requested.
var ErrShortReservation = errors.New("reserved memory is too small")

// ReserveFunc reserves nPages memory pages.
type ReserveFunc func(nPages int) ([]byte, error)

// ReserveHeap is a ReserveFunc that reserves DefaultPageSize pages from Go heap.
func ReserveHeap(nPages int) ([]byte, error) {
	if nPages <= 0 {
		return nil, fmt.Errorf("cannot reserve %d pages", nPages)
	}
	return make([]byte, nPages*DefaultPageSize), nil
}

type slot struct {
	tag  uint64
	gen  uint32
	busy bool
}

func makeTag(gen uint32) uint64 {
	return Magic ^ uint64(gen)<<16
}

// Pool is a fixed-size buffer pool.
// It is not thread-safe.
type Pool struct {
	cfg   Config
	arena []byte
	base  uintptr
	slots []slot
	free  []int32 // free-index stack, top at the end
}

// New creates a Pool from reserved pages.
// Every slot is pushed onto the free list.
func New(cfg Config, reserve ReserveFunc) (p *Pool, e error) {
	cfg.ApplyDefaults()
	if e = cfg.Validate(); e != nil {
		return nil, e
	}

	arena, e := reserve(cfg.PageCount)
	if e != nil {
		return nil, fmt.Errorf("reserve %d pages: %w", cfg.PageCount, e)
	}
	if len(arena) < cfg.ArenaSize() {
		return nil, fmt.Errorf("%w: %d < %d", ErrShortReservation, len(arena), cfg.ArenaSize())
	}
	arena = arena[:cfg.ArenaSize():cfg.ArenaSize()]

	capacity := cfg.Capacity()
	p = &Pool{
		cfg:   cfg,
		arena: arena,
		base:  uintptr(unsafe.Pointer(unsafe.SliceData(arena))),
		slots: make([]slot, capacity),
		free:  make([]int32, 0, capacity),
	}
	for i := range p.slots {
		p.slots[i].tag = makeTag(0)
		p.free = append(p.free, int32(i))
	}

	logger.Debug("pool seeded",
		zap.Int("pages", cfg.PageCount),
		zap.Int("slot-size", cfg.SlotSize),
		zap.Int("capacity", capacity),
	)
	return p, nil
}

// Config returns the effective configuration.
func (p *Pool) Config() Config {
	return p.cfg
}

// SlotSize returns maximum buffer size.
func (p *Pool) SlotSize() int {
	return p.cfg.SlotSize
}

// Capacity returns number of slots.
func (p *Pool) Capacity() int {
	return len(p.slots)
}

// CountAvailable returns number of free slots.
func (p *Pool) CountAvailable() int {
	return len(p.free)
}

// CountInUse returns number of in-flight slots.
func (p *Pool) CountInUse() int {
	return len(p.slots) - len(p.free)
}

// Acquire takes a free slot that can hold at least minSize octets.
// Returns ok=false if the pool is exhausted or minSize exceeds slot capacity.
// Callers should treat this as backpressure.
func (p *Pool) Acquire(minSize int) (buf Buffer, ok bool) {
	if minSize < 0 || minSize > p.cfg.SlotSize {
		return Buffer{}, false
	}
	n := len(p.free)
	if n == 0 {
		return Buffer{}, false
	}

	idx := p.free[n-1]
	p.free = p.free[:n-1]

	s := &p.slots[idx]
	s.gen++
	s.tag = makeTag(s.gen)
	s.busy = true
	return Buffer{p: p, idx: idx, tag: s.tag}, true
}

// Release returns an in-flight slot to the free list.
// Panics with *CorruptionError if buf does not refer to an in-flight slot of this pool,
// or its validity tag does not match.
func (p *Pool) Release(buf Buffer) {
	p.Check(buf)
	p.slots[buf.idx].busy = false
	p.free = append(p.free, buf.idx)
}

// Check verifies that buf refers to an in-flight slot of this pool and carries the slot's current tag.
// A handle kept after Release fails this check even if the slot has been acquired again.
// Panics with *CorruptionError on failure.
func (p *Pool) Check(buf Buffer) {
	if buf.p != p {
		p.corrupt(int(buf.idx), "buffer belongs to another pool")
	}
	if buf.idx < 0 || int(buf.idx) >= len(p.slots) {
		p.corrupt(int(buf.idx), "slot index out of range")
	}

	s := &p.slots[buf.idx]
	if s.tag != buf.tag {
		p.corrupt(int(buf.idx), fmt.Sprintf("bad tag %016x, expected %016x", buf.tag, s.tag))
	}
	if !s.busy {
		p.corrupt(int(buf.idx), "slot is already free")
	}
}

// Lookup finds the in-flight Buffer whose slot starts at the first octet of b.
// This is used to reclaim a slice that was handed to a device.
func (p *Pool) Lookup(b []byte) (buf Buffer, ok bool) {
	idx, ok := p.indexOf(b)
	if !ok || !p.slots[idx].busy {
		return Buffer{}, false
	}
	return Buffer{p: p, idx: int32(idx), tag: p.slots[idx].tag}, true
}

// ReleaseBytes releases the in-flight slot whose payload starts at the first octet of b.
// Panics with *CorruptionError if b is not the start of an in-flight slot.
func (p *Pool) ReleaseBytes(b []byte) {
	idx, ok := p.indexOf(b)
	if !ok {
		p.corrupt(-1, "slice does not start a slot in this pool")
	}
	if !p.slots[idx].busy {
		p.corrupt(idx, "slot is already free")
	}
	p.Release(Buffer{p: p, idx: int32(idx), tag: p.slots[idx].tag})
}

func (p *Pool) indexOf(b []byte) (idx int, ok bool) {
	if cap(b) == 0 {
		return -1, false
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	if addr < p.base || addr >= p.base+uintptr(len(p.arena)) {
		return -1, false
	}
	off := int(addr - p.base)
	if off%p.cfg.SlotSize != 0 {
		return -1, false
	}
	return off / p.cfg.SlotSize, true
}

func (p *Pool) corrupt(idx int, reason string) {
	e := &CorruptionError{Index: idx, Reason: reason}
	logger.Error("buffer pool corrupted", zap.Int("slot", idx), zap.String("reason", reason))
	panic(e)
}

// CorruptionError indicates a buffer release that would corrupt the free list.
// It is not recoverable: ownership of pool slots can no longer be trusted.
type CorruptionError struct {
	Index  int
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("buffer pool corrupted at slot %d: %s", e.Index, e.Reason)
}
