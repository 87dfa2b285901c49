package iothread

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// DefaultBufferSize is the largest run of bytes a StreamMedium returns from
// one Read.
const DefaultBufferSize = 256

// StreamMedium serves any byte stream descriptor, such as a pipe, a tty or
// a socket. Each Read returns the bytes available at that moment, up to the
// buffer size. Writes may be partial; the remainder is kept until the loop
// flushes it.
type StreamMedium struct {
	name       string
	fd         int
	bufferSize int
	pending    []byte
	closed     bool
}

var (
	_ Medium[[]byte, []byte] = (*StreamMedium)(nil)
	_ Flusher                = (*StreamMedium)(nil)
)

// NewStreamMedium takes ownership of fd and puts it in non-blocking mode.
func NewStreamMedium(name string, fd int, bufferSize int) (*StreamMedium, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, fmt.Errorf("medium %s: set non-blocking: %w", name, err)
	}

	return &StreamMedium{name: name, fd: fd, bufferSize: bufferSize}, nil
}

// Name returns the name of the medium.
func (m *StreamMedium) Name() string {
	return m.name
}

// Fd returns the descriptor.
func (m *StreamMedium) Fd() int {
	return m.fd
}

// Read returns the next run of bytes. A zero-length read means the peer has
// closed and is reported as io.EOF.
func (m *StreamMedium) Read() ([]byte, error) {
	buf := make([]byte, m.bufferSize)

	n, err := unix.Read(m.fd, buf)
	if err != nil {
		return nil, err
	}

	if n == 0 {
		return nil, io.EOF
	}

	return buf[:n], nil
}

// Write writes p. If only part of p is accepted, the rest is kept and
// Pending reports true until Flush has written it.
func (m *StreamMedium) Write(p []byte) error {
	if len(m.pending) > 0 {
		return ErrWouldBlock
	}

	n, err := unix.Write(m.fd, p)
	if err != nil {
		return err
	}

	if n < len(p) {
		m.pending = append([]byte(nil), p[n:]...)
	}

	return nil
}

// Pending tells if part of a payload is still waiting to be written.
func (m *StreamMedium) Pending() bool {
	return len(m.pending) > 0
}

// Flush writes as much of the pending bytes as possible.
func (m *StreamMedium) Flush() error {
	if len(m.pending) == 0 {
		return nil
	}

	n, err := unix.Write(m.fd, m.pending)
	if err != nil {
		return err
	}

	m.pending = m.pending[n:]
	if len(m.pending) == 0 {
		m.pending = nil
	}

	return nil
}

// Close closes the descriptor. Closing twice is a no-op.
func (m *StreamMedium) Close() error {
	if m.closed {
		return nil
	}

	m.closed = true

	return unix.Close(m.fd)
}
