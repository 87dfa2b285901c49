// Package iothread runs the blocking side of a bridge between a simulation
// and real media. A Guard owns one goroutine that waits on the readiness of a
// set of media, moves inbound payloads into a queue the simulation drains,
// and writes the payloads the simulation sends.
package iothread

// A Medium is one OS-level channel served by the loop. Everything except
// Name is only called from the loop goroutine.
type Medium[R, T any] interface {
	Name() string

	// Fd returns a pollable descriptor in non-blocking mode.
	Fd() int

	// Read returns one payload. When nothing is available it returns a
	// transient error such as ErrWouldBlock or EAGAIN.
	Read() (R, error)

	// Write sends one payload. A transient error means the payload was not
	// consumed and will be written again later.
	Write(payload T) error

	Close() error
}

// A Flusher is a Medium that may accept a payload only partially. The loop
// flushes the remainder before writing the next payload.
type Flusher interface {
	Pending() bool
	Flush() error
}
