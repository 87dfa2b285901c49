package sim

import (
	"log"
	"sync"
)

// CycleEvent is the event that activates a cyclic handler. Index counts the
// activations since the scheduler started, starting from 0.
type CycleEvent struct {
	EventBase

	Index uint64
}

// MakeCycleEvent creates a new CycleEvent.
func MakeCycleEvent(handler Handler, time VTimeInSec, index uint64) CycleEvent {
	return CycleEvent{
		EventBase: MakeEventBase(time, handler),
		Index:     index,
	}
}

// CyclicScheduler schedules a self-perpetuating series of CycleEvents, one
// every Period, for a single handler. The handler calls Rearm from its
// handling of each CycleEvent to keep the cycle going.
//
// Activation times are computed as start + index * period so rounding errors
// do not accumulate.
type CyclicScheduler struct {
	lock    sync.Mutex
	handler Handler
	Engine  EventScheduler
	Period  VTimeInSec

	// Horizon, when positive, is the last time at which an activation can
	// be scheduled.
	Horizon VTimeInSec

	started   bool
	stopped   bool
	startTime VTimeInSec
	nextIndex uint64
}

// NewCyclicScheduler creates a scheduler for cycle events.
func NewCyclicScheduler(
	handler Handler,
	engine EventScheduler,
	period VTimeInSec,
) *CyclicScheduler {
	if period <= 0 {
		log.Panicf("cyclic period must be positive, got %.10f", period)
	}

	return &CyclicScheduler{
		handler: handler,
		Engine:  engine,
		Period:  period,
	}
}

// Start schedules the first activation at the given time. Calling Start
// again has no effect.
func (s *CyclicScheduler) Start(at VTimeInSec) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.started {
		return
	}

	s.started = true
	s.startTime = at
	s.nextIndex = 0
	s.scheduleNext()
}

// Rearm schedules the activation that follows the one being handled.
func (s *CyclicScheduler) Rearm() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.started || s.stopped {
		return
	}

	s.scheduleNext()
}

// Stop prevents any further activation from being scheduled. An activation
// already in the event queue is still delivered; handlers check Stopped.
func (s *CyclicScheduler) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.stopped = true
}

// Stopped tells if Stop has been called.
func (s *CyclicScheduler) Stopped() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.stopped
}

// NextActivationTime returns the time of the activation that Rearm would
// schedule next.
func (s *CyclicScheduler) NextActivationTime() VTimeInSec {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.timeOf(s.nextIndex)
}

func (s *CyclicScheduler) timeOf(index uint64) VTimeInSec {
	return s.startTime + VTimeInSec(index)*s.Period
}

func (s *CyclicScheduler) scheduleNext() {
	t := s.timeOf(s.nextIndex)
	if s.Horizon > 0 && t > s.Horizon {
		s.stopped = true
		return
	}

	evt := MakeCycleEvent(s.handler, t, s.nextIndex)
	s.nextIndex++
	s.Engine.Schedule(evt)
}
