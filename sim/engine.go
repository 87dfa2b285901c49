package sim

// TimeTeller reports the current simulated time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler accepts events to be handled at a later simulated time.
type EventScheduler interface {
	TimeTeller

	Schedule(e Event)
}

// SimulationEndHandler is told once that the simulation is over. Port models
// use it to stop their bridges.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// Engine runs the events of a simulation in time order.
//
// Run, Pause and Continue may be called from different goroutines. While
// Pause holds, no event is handled, so another goroutine can change the
// components safely until it calls Continue.
type Engine interface {
	Hookable
	EventScheduler

	// Run handles events until none is left.
	Run() error

	// Pause blocks until the event being handled is done and holds the
	// engine until Continue is called.
	Pause()

	// Continue releases the engine held by Pause.
	Continue()

	// RegisterSimulationEndHandler adds a handler that Finished calls.
	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished calls the simulation end handlers in registration order.
	Finished()
}
