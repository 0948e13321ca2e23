package bufpool

// Buffer refers to one slot of a Pool.
// The zero value is an invalid Buffer.
type Buffer struct {
	p   *Pool
	idx int32
	tag uint64
}

// Valid returns true if this Buffer was returned by Pool.Acquire.
func (buf Buffer) Valid() bool {
	return buf.p != nil
}

// Index returns slot index.
func (buf Buffer) Index() int {
	return int(buf.idx)
}

// Bytes returns the slot payload.
// Its length equals slot size; its capacity is capped so that appends cannot overflow into the next slot.
func (buf Buffer) Bytes() []byte {
	if buf.p == nil {
		return nil
	}
	size := buf.p.cfg.SlotSize
	off := int(buf.idx) * size
	return buf.p.arena[off : off+size : off+size]
}
