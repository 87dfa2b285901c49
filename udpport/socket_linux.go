//go:build linux

package udpport

import (
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/sarchlab/akitaio/iothread"
)

// Socket is a bound, non-blocking UDP socket.
type Socket struct {
	fd         int
	local      netip.AddrPort
	bufferSize int
	closed     bool
}

var _ iothread.Medium[Datagram, Datagram] = (*Socket)(nil)

// Open binds a UDP socket to cfg.Bind.
func Open(cfg Config) (*Socket, error) {
	bind, err := netip.ParseAddrPort(cfg.Bind)
	if err != nil {
		return nil, fmt.Errorf("udp: %w", err)
	}

	family := unix.AF_INET6
	if bind.Addr().Is4() {
		family = unix.AF_INET
	}

	fd, err := unix.Socket(family,
		unix.SOCK_DGRAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("udp %s: socket: %w", bind, err)
	}

	if err := unix.Bind(fd, toSockaddr(bind)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("udp %s: bind: %w", bind, err)
	}

	sa, err := unix.Getsockname(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("udp %s: %w", bind, err)
	}

	size := cfg.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}

	return &Socket{fd: fd, local: fromSockaddr(sa), bufferSize: size}, nil
}

// LocalAddr returns the bound address, with the picked port if port 0 was
// requested.
func (s *Socket) LocalAddr() netip.AddrPort {
	return s.local
}

// Name returns the bound address.
func (s *Socket) Name() string {
	return "udp/" + s.local.String()
}

// Fd returns the socket descriptor.
func (s *Socket) Fd() int {
	return s.fd
}

// Read returns the next datagram.
func (s *Socket) Read() (Datagram, error) {
	buf := make([]byte, s.bufferSize)

	n, from, err := unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		return Datagram{}, err
	}

	return Datagram{Addr: fromSockaddr(from), Bytes: buf[:n]}, nil
}

// Write sends one datagram to its address.
func (s *Socket) Write(d Datagram) error {
	return unix.Sendto(s.fd, d.Bytes, 0, toSockaddr(d.Addr))
}

// Close closes the socket. Closing twice is a no-op.
func (s *Socket) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	return unix.Close(s.fd)
}

func toSockaddr(ap netip.AddrPort) unix.Sockaddr {
	addr := ap.Addr()
	if addr.Is4() {
		return &unix.SockaddrInet4{Port: int(ap.Port()), Addr: addr.As4()}
	}

	return &unix.SockaddrInet6{Port: int(ap.Port()), Addr: addr.As16()}
}

func fromSockaddr(sa unix.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(
			netip.AddrFrom16(sa.Addr).Unmap(), uint16(sa.Port))
	default:
		return netip.AddrPort{}
	}
}
