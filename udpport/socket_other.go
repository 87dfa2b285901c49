//go:build !linux

package udpport

import (
	"net/netip"

	"github.com/sarchlab/akitaio/iothread"
)

// Socket is only available on Linux.
type Socket struct {
	iothread.Medium[Datagram, Datagram]
}

// Open always fails on this platform.
func Open(cfg Config) (*Socket, error) {
	return nil, iothread.ErrUnsupportedPlatform
}

// LocalAddr returns the zero address.
func (s *Socket) LocalAddr() netip.AddrPort {
	return netip.AddrPort{}
}
