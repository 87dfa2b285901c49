package ioport

import "github.com/sarchlab/akitaio/sim"

// A Record is one payload received by a Sink.
type Record[P any] struct {
	Time    sim.VTimeInSec
	Payload P
}

// Sink is a component that accepts payload messages and keeps them. It is
// the downstream of a port model when nothing else consumes its output.
type Sink[P any] struct {
	*sim.ComponentBase

	Port sim.Port

	// OnRecv, if set, is called for every payload as it arrives.
	OnRecv func(r Record[P])

	// Keep decides if received payloads are kept in Records.
	Keep bool

	Records []Record[P]

	clock sim.TimeTeller
}

// NewSink creates a Sink that keeps every payload.
func NewSink[P any](name string, clock sim.TimeTeller) *Sink[P] {
	s := &Sink[P]{
		ComponentBase: sim.NewComponentBase(name),
		Keep:          true,
		clock:         clock,
	}

	s.Port = sim.NewPort(s, 64, 64, name+".Port")
	s.AddPort("Port", s.Port)

	return s
}

// Handle does nothing as a sink has no events.
func (s *Sink[P]) Handle(_ sim.Event) error {
	return nil
}

// NotifyRecv takes every message from the port. A message is recorded
// before it is retrieved, as retrieving can deliver the next one right away.
func (s *Sink[P]) NotifyRecv(port sim.Port) {
	for {
		msg := port.PeekIncoming()
		if msg == nil {
			return
		}

		if pm, ok := msg.(*PayloadMsg[P]); ok {
			s.record(pm.Payload)
		}

		port.RetrieveIncoming()
	}
}

func (s *Sink[P]) record(payload P) {
	r := Record[P]{Time: s.clock.CurrentTime(), Payload: payload}
	if s.Keep {
		s.Records = append(s.Records, r)
	}

	if s.OnRecv != nil {
		s.OnRecv(r)
	}
}

// NotifyPortFree does nothing as a sink never sends.
func (s *Sink[P]) NotifyPortFree(_ sim.Port) {}

// Payloads returns the kept payloads in arrival order.
func (s *Sink[P]) Payloads() []P {
	out := make([]P, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Payload
	}

	return out
}
