package bufpool

// OverwriteTag replaces the validity tag carried by a Buffer, simulating a wild handle.
func OverwriteTag(buf Buffer, tag uint64) Buffer {
	buf.tag = tag
	return buf
}

// CorruptSlot overwrites the validity tag stored in slot metadata.
func CorruptSlot(p *Pool, idx int) {
	p.slots[idx].tag = 0
}
