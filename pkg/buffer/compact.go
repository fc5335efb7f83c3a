package buffer

import "fmt"

// Compact is a fixed-capacity byte buffer whose valid bytes always start at
// offset 0. Bytes [0, Len()) are payload in FIFO order; bytes [Len(), Cap())
// are unspecified.
//
// Append adds to the tail. Consume copies out the head and shifts the
// remaining bytes down to offset 0, so a consume costs O(Len()). This keeps
// the layout trivial at the price of throughput, which is acceptable for
// small capacities.
//
// Compact is not safe for concurrent use. Preconditions are programming
// contracts: violating one panics.
type Compact struct {
	buf []byte
	n   int
}

// NewCompact creates a Compact that uses buf as its storage. The capacity is
// len(buf) and the buffer starts empty.
func NewCompact(buf []byte) *Compact {
	if len(buf) == 0 {
		panic("buffer: compact storage must not be empty")
	}
	return &Compact{buf: buf}
}

// CompactN creates a Compact with the given capacity.
func CompactN(capacity int) *Compact {
	if capacity <= 0 {
		panic(fmt.Sprintf("buffer: invalid compact capacity %d", capacity))
	}
	return NewCompact(make([]byte, capacity))
}

// Append copies p to the tail of the buffer. It panics if p does not fit.
func (c *Compact) Append(p []byte) {
	if len(p) > len(c.buf)-c.n {
		panic(fmt.Sprintf("buffer: append %d bytes with %d free", len(p), len(c.buf)-c.n))
	}
	c.n += copy(c.buf[c.n:], p)
}

// Consume fills p with the first len(p) valid bytes and removes them. It
// panics if fewer than len(p) bytes are held.
func (c *Compact) Consume(p []byte) {
	if len(p) > c.n {
		panic(fmt.Sprintf("buffer: consume %d bytes with %d held", len(p), c.n))
	}
	k := copy(p, c.buf[:c.n])
	copy(c.buf, c.buf[k:c.n])
	c.n -= k
}

// Clear discards all held bytes.
func (c *Compact) Clear() {
	c.n = 0
}

// Len returns the number of valid bytes.
func (c *Compact) Len() int {
	return c.n
}

// Cap returns the fixed capacity.
func (c *Compact) Cap() int {
	return len(c.buf)
}

// Free returns the number of bytes that can still be appended.
func (c *Compact) Free() int {
	return len(c.buf) - c.n
}

// Full reports whether no more bytes can be appended.
func (c *Compact) Full() bool {
	return c.n == len(c.buf)
}

// Empty reports whether no bytes are held.
func (c *Compact) Empty() bool {
	return c.n == 0
}

// Bytes returns a copy of the valid bytes.
func (c *Compact) Bytes() []byte {
	return append([]byte(nil), c.buf[:c.n]...)
}
