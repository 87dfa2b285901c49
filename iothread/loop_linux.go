package iothread

import (
	"errors"
	"runtime"

	"golang.org/x/sys/unix"
)

// maxReadsPerWake bounds the payloads read from one medium per wake so that
// a busy medium cannot starve the others.
const maxReadsPerWake = 64

type registration[R, T any] struct {
	token   int
	medium  Medium[R, T]
	backlog []T
	armed   bool
	closed  bool
}

type loop[R, T any] struct {
	g      *Guard[R, T]
	poller *epoller
	waker  *waker
	regs   []*registration[R, T]
}

func newRunner[R, T any](g *Guard[R, T]) (runner, error) {
	poller, err := newEpoller()
	if err != nil {
		return nil, err
	}

	w, err := newWaker()
	if err != nil {
		_ = poller.close()
		return nil, err
	}

	l := &loop[R, T]{g: g, poller: poller, waker: w}

	err = poller.add(w.fd, wakeToken, unix.EPOLLIN)
	if err != nil {
		l.closeFds()
		return nil, err
	}

	for token, m := range g.media {
		err = poller.add(m.Fd(), token, unix.EPOLLIN)
		if err != nil {
			l.closeFds()
			return nil, err
		}

		l.regs = append(l.regs, &registration[R, T]{token: token, medium: m})
	}

	return l, nil
}

func (l *loop[R, T]) wake() error {
	return l.waker.wake()
}

func (l *loop[R, T]) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	events := make([]unix.EpollEvent, len(l.regs)+1)

	for {
		n, err := l.poller.wait(events)
		if err != nil {
			l.g.abort(err)
			l.shutdown()

			return
		}

		if l.g.stopRequested() {
			l.shutdown()
			return
		}

		for _, ev := range events[:n] {
			l.handle(ev)
		}

		l.drainOutbound()
	}
}

func (l *loop[R, T]) handle(ev unix.EpollEvent) {
	token := int(ev.Fd)
	if token == wakeToken {
		l.waker.drain()
		return
	}

	reg := l.regs[token]
	if reg.closed {
		return
	}

	hangup := ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0

	switch {
	case ev.Events&unix.EPOLLIN != 0:
		// A hangup that leaves nothing to read would be reported again on
		// every wait.
		if l.read(reg) && hangup && !reg.closed {
			l.fail(reg, ErrHangup)
		}
	case hangup:
		l.fail(reg, ErrHangup)
	}

	if !reg.closed && ev.Events&unix.EPOLLOUT != 0 {
		l.write(reg)
	}
}

// read reads up to maxReadsPerWake payloads. It returns true if the medium
// had nothing more to read.
func (l *loop[R, T]) read(reg *registration[R, T]) bool {
	for range maxReadsPerWake {
		payload, err := reg.medium.Read()
		if err != nil {
			if !isTransient(err) {
				l.fail(reg, err)
				return false
			}

			return true
		}

		l.g.inbound.Push(payload)
		l.g.received.Add(1)
	}

	return false
}

func (l *loop[R, T]) drainOutbound() {
	l.collectOutbound()

	for _, reg := range l.regs {
		if !reg.closed && !reg.armed && l.hasWork(reg) {
			l.write(reg)
		}
	}
}

func (l *loop[R, T]) hasWork(reg *registration[R, T]) bool {
	if len(reg.backlog) > 0 {
		return true
	}

	f, ok := reg.medium.(Flusher)

	return ok && f.Pending()
}

// write writes as much of the backlog as the medium accepts. When the medium
// would block, the rest waits for write readiness.
func (l *loop[R, T]) write(reg *registration[R, T]) {
	flusher, _ := reg.medium.(Flusher)

	for {
		if flusher != nil && flusher.Pending() {
			if err := flusher.Flush(); err != nil {
				l.writeStalled(reg, err)
				return
			}

			if flusher.Pending() {
				l.arm(reg, true)
				return
			}
		}

		if len(reg.backlog) == 0 {
			l.arm(reg, false)
			return
		}

		if err := reg.medium.Write(reg.backlog[0]); err != nil {
			l.writeStalled(reg, err)
			return
		}

		var zero T
		reg.backlog[0] = zero
		reg.backlog = reg.backlog[1:]
		l.g.transmitted.Add(1)
	}
}

func (l *loop[R, T]) writeStalled(reg *registration[R, T], err error) {
	if isTransient(err) {
		l.arm(reg, true)
		return
	}

	l.fail(reg, err)
}

func (l *loop[R, T]) arm(reg *registration[R, T], on bool) {
	if reg.armed == on {
		return
	}

	events := uint32(unix.EPOLLIN)
	if on {
		events |= unix.EPOLLOUT
	}

	if err := l.poller.modify(reg.medium.Fd(), reg.token, events); err != nil {
		l.fail(reg, err)
		return
	}

	reg.armed = on
}

// fail drops a medium after a fatal error. The other media keep running.
func (l *loop[R, T]) fail(reg *registration[R, T], err error) {
	if reg.closed {
		return
	}

	l.release(reg)
	l.g.reportMediumError(reg.token, err)
}

func (l *loop[R, T]) release(reg *registration[R, T]) {
	if err := l.poller.remove(reg.medium.Fd()); err != nil {
		l.g.logger.Warn("cannot unregister medium",
			"medium", l.g.names[reg.token], "err", err)
	}

	if err := reg.medium.Close(); err != nil {
		l.g.logger.Warn("cannot close medium",
			"medium", l.g.names[reg.token], "err", err)
	}

	reg.closed = true
	l.g.alive[reg.token].Store(false)
	l.g.discarded.Add(uint64(len(reg.backlog)))
	reg.backlog = nil
}

// shutdown writes what is already queued without waiting for readiness, then
// closes every medium and the poller.
func (l *loop[R, T]) shutdown() {
	l.collectOutbound()

	for _, reg := range l.regs {
		if reg.closed {
			continue
		}

		l.flushOnce(reg)
		l.release(reg)
	}

	l.closeFds()
}

// collectOutbound moves queued payloads to the backlog of their medium.
func (l *loop[R, T]) collectOutbound() {
	for _, item := range l.g.outbound.PopAll() {
		reg := l.regs[item.token]
		if reg.closed {
			l.g.discarded.Add(1)
			continue
		}

		reg.backlog = append(reg.backlog, item.payload)
	}
}

func (l *loop[R, T]) flushOnce(reg *registration[R, T]) {
	if f, ok := reg.medium.(Flusher); ok && f.Pending() {
		if f.Flush() != nil || f.Pending() {
			return
		}
	}

	for len(reg.backlog) > 0 {
		if reg.medium.Write(reg.backlog[0]) != nil {
			return
		}

		reg.backlog = reg.backlog[1:]
		l.g.transmitted.Add(1)
	}
}

func (l *loop[R, T]) closeFds() {
	if err := l.waker.close(); err != nil {
		l.g.logger.Warn("cannot close waker", "err", err)
	}

	if err := l.poller.close(); err != nil {
		l.g.logger.Warn("cannot close poller", "err", err)
	}
}

func isTransient(err error) bool {
	return errors.Is(err, ErrWouldBlock) ||
		errors.Is(err, unix.EAGAIN) ||
		errors.Is(err, unix.EWOULDBLOCK) ||
		errors.Is(err, unix.EINTR) ||
		errors.Is(err, unix.ENOBUFS)
}
