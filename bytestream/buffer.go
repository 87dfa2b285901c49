// Package bytestream turns byte streams into framed values. Bytes arrive in
// arbitrary chunks and are kept in a Buffer until a Decoder recognizes a
// complete frame.
package bytestream

import "io"

// Buffer is a list of byte chunks read front to back. Chunks are not copied.
type Buffer struct {
	chunks    [][]byte
	offset    int
	remaining int
}

// Push appends a chunk. Empty chunks are ignored.
func (b *Buffer) Push(chunk []byte) {
	if len(chunk) == 0 {
		return
	}

	b.chunks = append(b.chunks, chunk)
	b.remaining += len(chunk)
}

// Remaining returns the number of unread bytes.
func (b *Buffer) Remaining() int {
	return b.remaining
}

// Peek returns the next byte without consuming it.
func (b *Buffer) Peek() (byte, bool) {
	if b.remaining == 0 {
		return 0, false
	}

	return b.chunks[0][b.offset], true
}

// ReadByte consumes the next byte. It returns io.EOF when the buffer is
// empty.
func (b *Buffer) ReadByte() (byte, error) {
	c, ok := b.Peek()
	if !ok {
		return 0, io.EOF
	}

	b.Advance(1)

	return c, nil
}

// Advance skips n bytes, or everything if fewer remain.
func (b *Buffer) Advance(n int) {
	for n > 0 && b.remaining > 0 {
		left := len(b.chunks[0]) - b.offset
		step := min(n, left)

		b.offset += step
		b.remaining -= step
		n -= step

		if b.offset == len(b.chunks[0]) {
			b.chunks[0] = nil
			b.chunks = b.chunks[1:]
			b.offset = 0
		}
	}
}

// Reset drops every unread byte.
func (b *Buffer) Reset() {
	clear(b.chunks)
	b.chunks = b.chunks[:0]
	b.offset = 0
	b.remaining = 0
}
