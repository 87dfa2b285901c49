package iothread

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// wakeToken is the registration token of the eventfd waker.
const wakeToken = -1

// epoller is a level-triggered epoll instance whose events carry a token
// instead of a descriptor.
type epoller struct {
	fd int
}

func newEpoller() (*epoller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}

	return &epoller{fd: fd}, nil
}

func (p *epoller) add(fd, token int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(token)}
	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll_ctl add fd %d: %w", fd, err)
	}

	return nil
}

func (p *epoller) modify(fd, token int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(token)}
	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("epoll_ctl mod fd %d: %w", fd, err)
	}

	return nil
}

func (p *epoller) remove(fd int) error {
	err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil)
	if err != nil && !errors.Is(err, unix.ENOENT) &&
		!errors.Is(err, unix.EBADF) {
		return fmt.Errorf("epoll_ctl del fd %d: %w", fd, err)
	}

	return nil
}

// wait blocks until at least one registration is ready. EINTR is retried.
func (p *epoller) wait(events []unix.EpollEvent) (int, error) {
	for {
		n, err := unix.EpollWait(p.fd, events, -1)
		if errors.Is(err, unix.EINTR) {
			continue
		}

		if err != nil {
			return 0, fmt.Errorf("epoll_wait: %w", err)
		}

		return n, nil
	}
}

func (p *epoller) close() error {
	return unix.Close(p.fd)
}

// waker is an eventfd that any goroutine can write to interrupt wait.
type waker struct {
	fd int
}

func newWaker() (*waker, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("eventfd: %w", err)
	}

	return &waker{fd: fd}, nil
}

func (w *waker) wake() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)

	_, err := unix.Write(w.fd, buf[:])
	if errors.Is(err, unix.EAGAIN) {
		// The counter is saturated, so the loop is already awake.
		return nil
	}

	return err
}

func (w *waker) drain() {
	var buf [8]byte
	_, _ = unix.Read(w.fd, buf[:])
}

func (w *waker) close() error {
	return unix.Close(w.fd)
}
