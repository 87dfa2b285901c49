package ioport

import "github.com/sarchlab/akitaio/sim"

// DeliverEvent emits one drained payload on the output port.
type DeliverEvent[R any] struct {
	sim.EventBase

	Payload R
}

// NewDeliverEvent creates a new DeliverEvent.
func NewDeliverEvent[R any](
	t sim.VTimeInSec,
	handler sim.Handler,
	payload R,
) *DeliverEvent[R] {
	return &DeliverEvent[R]{
		EventBase: sim.MakeEventBase(t, handler),
		Payload:   payload,
	}
}
