package hxformat

// Buffer accumulates payloads across packets without reallocating for
// every read. It replaces repeated grow-and-copy with a single owned
// slice that keeps its capacity across packets.
//
// Contents are only valid until the next Extend or Reset, the caller
// handing Bytes to a consumer must expect the memory to be reused.
type Buffer struct {
	buf []byte
}

// Extend grows the buffer by n bytes and returns the new window for
// the caller to fill. Existing contents are preserved.
func (b *Buffer) Extend(n int) []byte {
	used := len(b.buf)
	if n > cap(b.buf)-used {
		grown := make([]byte, used, growCap(used+n, cap(b.buf)))
		copy(grown, b.buf)
		b.buf = grown
	}
	b.buf = b.buf[:used+n]
	return b.buf[used:]
}

// Bytes returns the accumulated contents.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Len returns the number of accumulated bytes.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Reset empties the buffer but keeps its capacity.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}

func growCap(need, current int) int {
	doubled := 2 * current
	if doubled > need {
		return doubled
	}
	return need
}
