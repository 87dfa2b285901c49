package ioport

import "github.com/sarchlab/akitaio/iothread"

// A Bridge moves payloads between the simulation and the media it wraps.
// *iothread.Guard is the Bridge used outside of tests.
type Bridge[R, T any] interface {
	Name() string
	Send(payload T) error
	RecvAll() []R
	Stop() error
	Stats() iothread.Stats
}

var _ Bridge[[]byte, []byte] = (*iothread.Guard[[]byte, []byte])(nil)
