package iothread

import (
	"errors"
	"fmt"
)

var (
	// ErrWouldBlock is returned by a Medium when it cannot make progress
	// without blocking. The loop treats it like EAGAIN.
	ErrWouldBlock = errors.New("operation would block")

	// ErrGuardStopped is returned by Send once the guard has begun to stop.
	ErrGuardStopped = errors.New("guard stopped")

	// ErrMediumUnavailable is returned by Send when the routed medium has
	// been dropped after a fatal error.
	ErrMediumUnavailable = errors.New("medium unavailable")

	// ErrUnknownMedium is returned by Send when the router picks a token
	// that does not belong to the guard.
	ErrUnknownMedium = errors.New("unknown medium")

	// ErrQueueFull is returned by Send when the outbound queue rejects the
	// payload.
	ErrQueueFull = errors.New("queue full")

	// ErrJoinTimeout is returned by Stop when the loop goroutine does not
	// exit within the join timeout.
	ErrJoinTimeout = errors.New("join timeout")

	// ErrUnsupportedPlatform is returned by Start where no readiness poller
	// is available.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrNoMedia is returned by Start when no medium is given.
	ErrNoMedia = errors.New("no media")

	// ErrHangup reports that the peer of a medium went away while nothing
	// was left to read.
	ErrHangup = errors.New("hangup")
)

// MediumError reports a fatal error on one medium. The medium is closed and
// no longer served when the error is reported.
type MediumError struct {
	Medium string
	Token  int
	Err    error
}

func (e *MediumError) Error() string {
	return fmt.Sprintf("medium %s (%d): %v", e.Medium, e.Token, e.Err)
}

func (e *MediumError) Unwrap() error {
	return e.Err
}
