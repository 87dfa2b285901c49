package iothread

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tebeka/atexit"
)

// DefaultJoinTimeout bounds how long Stop waits for the loop goroutine.
const DefaultJoinTimeout = 3 * time.Second

const defaultErrorBuffer = 16

// State is the lifecycle state of a Guard.
type State int32

// The states a Guard goes through, in order.
const (
	StateRunning State = iota
	StateStopRequested
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stop-requested"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Config tunes a Guard. The zero value is usable: unbounded queues, every
// payload sent to the first medium, the default join timeout and the default
// slog logger.
type Config[T any] struct {
	InboundPolicy  QueuePolicy
	OutboundPolicy QueuePolicy

	// Router picks the token of the medium an outbound payload is written
	// to. Tokens are indexes into the media given to Start.
	Router func(payload T) int

	// Check rejects a payload before it is queued.
	Check func(payload T) error

	JoinTimeout time.Duration

	// ErrorBuffer is the capacity of the channel returned by Errors.
	// Errors that do not fit are counted and logged only.
	ErrorBuffer int

	Logger *slog.Logger

	// StopAtExit registers Stop with atexit so atexit.Exit and
	// atexit.Fatal also stop the guard.
	StopAtExit bool
}

func (c Config[T]) withDefaults() Config[T] {
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = DefaultJoinTimeout
	}

	if c.ErrorBuffer <= 0 {
		c.ErrorBuffer = defaultErrorBuffer
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	return c
}

// MediumStatus is the liveness of one medium.
type MediumStatus struct {
	Name  string
	Token int
	Alive bool
}

// Stats is a snapshot of the counters of a Guard.
type Stats struct {
	State State

	Received    uint64
	Transmitted uint64

	InboundPending  int
	OutboundPending int
	InboundDropped  uint64
	OutboundDropped uint64

	// Discarded counts outbound payloads accepted by Send but never
	// written because their medium failed or the guard stopped.
	Discarded uint64

	SendErrors    uint64
	MediumErrors  uint64
	ErrorsDropped uint64

	Media []MediumStatus
}

type outboundItem[T any] struct {
	token   int
	payload T
}

// runner is the platform specific loop.
type runner interface {
	run()
	wake() error
}

// A Guard owns the loop goroutine that serves a set of media, and is the
// only way the simulation side talks to it. All methods are safe to call
// from any goroutine and never block on I/O.
type Guard[R, T any] struct {
	name   string
	cfg    Config[T]
	logger *slog.Logger

	media []Medium[R, T]
	names []string
	alive []atomic.Bool

	inbound  *Queue[R]
	outbound *Queue[outboundItem[T]]

	errs chan error

	lifecycle sync.RWMutex
	state     atomic.Int32
	stopFlag  atomic.Bool
	runner    runner
	done      chan struct{}

	received      atomic.Uint64
	transmitted   atomic.Uint64
	discarded     atomic.Uint64
	sendErrors    atomic.Uint64
	mediumErrors  atomic.Uint64
	errorsDropped atomic.Uint64
}

// Start takes ownership of the media and starts serving them. On failure,
// every medium is closed.
func Start[R, T any](
	name string,
	media []Medium[R, T],
	cfg Config[T],
) (*Guard[R, T], error) {
	if len(media) == 0 {
		return nil, fmt.Errorf("guard %s: %w", name, ErrNoMedia)
	}

	cfg = cfg.withDefaults()

	g := &Guard[R, T]{
		name:     name,
		cfg:      cfg,
		logger:   cfg.Logger.With("guard", name),
		media:    media,
		names:    make([]string, len(media)),
		alive:    make([]atomic.Bool, len(media)),
		inbound:  NewQueue[R](cfg.InboundPolicy),
		outbound: NewQueue[outboundItem[T]](cfg.OutboundPolicy),
		errs:     make(chan error, cfg.ErrorBuffer),
		done:     make(chan struct{}),
	}

	for i, m := range media {
		g.names[i] = m.Name()
		g.alive[i].Store(true)
	}

	r, err := newRunner(g)
	if err != nil {
		for _, m := range media {
			_ = m.Close()
		}

		return nil, fmt.Errorf("guard %s: %w", name, err)
	}

	g.runner = r
	g.state.Store(int32(StateRunning))

	go func() {
		defer close(g.done)
		r.run()
	}()

	if cfg.StopAtExit {
		atexit.Register(func() {
			if err := g.Stop(); err != nil {
				g.logger.Error("stop at exit", "err", err)
			}
		})
	}

	g.logger.Debug("guard started", "media", g.names)

	return g, nil
}

// Name returns the name of the guard.
func (g *Guard[R, T]) Name() string {
	return g.name
}

// State returns the lifecycle state.
func (g *Guard[R, T]) State() State {
	return State(g.state.Load())
}

// Send queues a payload for the medium picked by the router. It never
// blocks.
func (g *Guard[R, T]) Send(payload T) error {
	g.lifecycle.RLock()
	defer g.lifecycle.RUnlock()

	if g.State() != StateRunning {
		return g.sendFailed(ErrGuardStopped)
	}

	if g.cfg.Check != nil {
		if err := g.cfg.Check(payload); err != nil {
			return g.sendFailed(err)
		}
	}

	token := 0
	if g.cfg.Router != nil {
		token = g.cfg.Router(payload)
	}

	if token < 0 || token >= len(g.media) {
		return g.sendFailed(fmt.Errorf("%w: token %d", ErrUnknownMedium, token))
	}

	if !g.alive[token].Load() {
		return g.sendFailed(
			fmt.Errorf("%w: %s", ErrMediumUnavailable, g.names[token]))
	}

	if !g.outbound.Push(outboundItem[T]{token: token, payload: payload}) {
		return g.sendFailed(ErrQueueFull)
	}

	if err := g.runner.wake(); err != nil {
		g.logger.Warn("cannot wake loop", "err", err)
	}

	return nil
}

func (g *Guard[R, T]) sendFailed(err error) error {
	g.sendErrors.Add(1)
	return fmt.Errorf("guard %s: %w", g.name, err)
}

// TryRecv takes the oldest inbound payload, if any.
func (g *Guard[R, T]) TryRecv() (R, bool) {
	return g.inbound.Pop()
}

// RecvAll takes every inbound payload in arrival order.
func (g *Guard[R, T]) RecvAll() []R {
	return g.inbound.PopAll()
}

// Errors returns the channel on which fatal medium errors are reported.
func (g *Guard[R, T]) Errors() <-chan error {
	return g.errs
}

// Stop asks the loop to finish and waits for it to exit. It is safe to call
// more than once. If the loop does not exit within the join timeout, Stop
// returns ErrJoinTimeout and the guard stays in StateStopRequested; calling
// Stop again waits again.
func (g *Guard[R, T]) Stop() error {
	g.lifecycle.Lock()
	switch g.State() {
	case StateStopped:
		g.lifecycle.Unlock()
		return nil
	case StateRunning:
		g.state.Store(int32(StateStopRequested))
		g.stopFlag.Store(true)

		if err := g.runner.wake(); err != nil {
			g.logger.Warn("cannot wake loop", "err", err)
		}
	}
	g.lifecycle.Unlock()

	timer := time.NewTimer(g.cfg.JoinTimeout)
	defer timer.Stop()

	select {
	case <-g.done:
	case <-timer.C:
		g.logger.Error("loop did not exit", "timeout", g.cfg.JoinTimeout)
		return fmt.Errorf("guard %s: %w", g.name, ErrJoinTimeout)
	}

	g.lifecycle.Lock()
	defer g.lifecycle.Unlock()

	if g.State() != StateStopped {
		g.state.Store(int32(StateStopped))
		g.inbound.Close()
		g.outbound.Close()
		g.logger.Debug("guard stopped")
	}

	return nil
}

// abort is called by the loop when it can no longer poll. It moves the
// guard to StateStopRequested so that Send stops waking a loop that is
// going away.
func (g *Guard[R, T]) abort(err error) {
	g.lifecycle.Lock()
	defer g.lifecycle.Unlock()

	if g.State() == StateRunning {
		g.state.Store(int32(StateStopRequested))
		g.stopFlag.Store(true)
	}

	g.logger.Error("loop aborted", "err", err)
}

func (g *Guard[R, T]) stopRequested() bool {
	return g.stopFlag.Load()
}

func (g *Guard[R, T]) reportMediumError(token int, err error) {
	g.alive[token].Store(false)
	g.mediumErrors.Add(1)

	merr := &MediumError{Medium: g.names[token], Token: token, Err: err}
	g.logger.Error("medium failed",
		"medium", merr.Medium, "token", token, "err", err)

	select {
	case g.errs <- merr:
	default:
		g.errorsDropped.Add(1)
	}
}

// Stats returns a snapshot of the guard counters.
func (g *Guard[R, T]) Stats() Stats {
	s := Stats{
		State:           g.State(),
		Received:        g.received.Load(),
		Transmitted:     g.transmitted.Load(),
		InboundPending:  g.inbound.Len(),
		OutboundPending: g.outbound.Len(),
		InboundDropped:  g.inbound.Dropped(),
		OutboundDropped: g.outbound.Dropped(),
		Discarded:       g.discarded.Load(),
		SendErrors:      g.sendErrors.Load(),
		MediumErrors:    g.mediumErrors.Load(),
		ErrorsDropped:   g.errorsDropped.Load(),
		Media:           make([]MediumStatus, len(g.media)),
	}

	for i := range g.media {
		s.Media[i] = MediumStatus{
			Name:  g.names[i],
			Token: i,
			Alive: g.alive[i].Load(),
		}
	}

	return s
}

// WithGuard runs fn and stops the guard afterwards, whether fn returns or
// panics. A panic is re-raised once the guard is stopped.
func WithGuard[R, T any](
	g *Guard[R, T],
	fn func(g *Guard[R, T]) error,
) (err error) {
	defer func() {
		r := recover()
		stopErr := g.Stop()

		if r != nil {
			panic(r)
		}

		if err == nil {
			err = stopErr
		}
	}()

	return fn(g)
}
