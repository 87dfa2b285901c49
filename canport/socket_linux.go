//go:build linux

package canport

import (
	"fmt"
	"net"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/sarchlab/akitaio/iothread"
)

// Socket is a raw SocketCAN socket bound to one interface.
type Socket struct {
	name      string
	index     int
	fd        int
	closed    bool
	malformed atomic.Uint64
}

var _ iothread.Medium[Data, Data] = (*Socket)(nil)

// Open binds a raw CAN socket to the named interface. Payloads read from it
// carry index as their Interface. Frames sent by other sockets on this host
// are looped back, and so are the socket's own frames.
func Open(ifname string, index int) (*Socket, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, fmt.Errorf("can %s: %w", ifname, err)
	}

	fd, err := unix.Socket(unix.AF_CAN,
		unix.SOCK_RAW|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("can %s: socket: %w", ifname, err)
	}

	err = unix.SetsockoptInt(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_RECV_OWN_MSGS, 1)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("can %s: receive own messages: %w", ifname, err)
	}

	err = unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index})
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("can %s: bind: %w", ifname, err)
	}

	return &Socket{name: ifname, index: index, fd: fd}, nil
}

// Name returns the interface name.
func (s *Socket) Name() string {
	return s.name
}

// Fd returns the socket descriptor.
func (s *Socket) Fd() int {
	return s.fd
}

// Read returns the next frame. Frames that cannot be decoded, such as error
// frames, are counted and skipped.
func (s *Socket) Read() (Data, error) {
	buf := make([]byte, FrameSize)

	for {
		n, err := unix.Read(s.fd, buf)
		if err != nil {
			return Data{}, err
		}

		var f Frame
		if err := f.UnmarshalBinary(buf[:n]); err != nil {
			s.malformed.Add(1)
			continue
		}

		return Data{Interface: s.index, Frame: f}, nil
	}
}

// Write sends one frame.
func (s *Socket) Write(d Data) error {
	buf, err := d.Frame.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = unix.Write(s.fd, buf)

	return err
}

// Malformed returns the number of frames skipped by Read.
func (s *Socket) Malformed() uint64 {
	return s.malformed.Load()
}

// Close closes the socket. Closing twice is a no-op.
func (s *Socket) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	return unix.Close(s.fd)
}
