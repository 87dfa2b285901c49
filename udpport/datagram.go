// Package udpport bridges a UDP socket to a simulation. Every datagram is one
// payload, tagged with the peer address it came from or goes to.
package udpport

import (
	"errors"
	"net/netip"
)

// DefaultBufferSize is the largest datagram read in full. Longer datagrams
// are truncated.
const DefaultBufferSize = 256

// A Datagram is a UDP payload together with its peer address.
type Datagram struct {
	Addr  netip.AddrPort
	Bytes []byte
}

// Config describes the local socket.
type Config struct {
	// Bind is the local address, for example "127.0.0.1:9000". Port 0 picks
	// a free port.
	Bind string

	BufferSize int
}

// Check rejects datagrams without a destination.
func Check(d Datagram) error {
	if !d.Addr.IsValid() {
		return errors.New("datagram has no destination address")
	}

	return nil
}
