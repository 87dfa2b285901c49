// Package ioport provides the component that connects a simulation to a
// bridge. It drains inbound payloads once every period and emits them a
// fixed delta later, and hands every message it receives to the bridge.
package ioport

import (
	"errors"
	"log"
	"reflect"
	"sync/atomic"

	"github.com/sarchlab/akitaio/iothread"
	"github.com/sarchlab/akitaio/sim"
)

// HookPosPayloadDrained marks a payload taken from the bridge. Item is the
// payload.
var HookPosPayloadDrained = &sim.HookPos{Name: "Payload Drained"}

// HookPosPayloadEmitted marks a payload sent on the output port. Item is the
// message. For a payload held back by a busy output port, Detail is how long
// after its delivery time it went out.
var HookPosPayloadEmitted = &sim.HookPos{Name: "Payload Emitted"}

// HookPosPayloadTransmitted marks a payload handed to the bridge. Item is
// the payload.
var HookPosPayloadTransmitted = &sim.HookPos{Name: "Payload Transmitted"}

// HookPosSendFailed marks a payload the bridge refused. Item is the payload
// and Detail the error.
var HookPosSendFailed = &sim.HookPos{Name: "Payload Send Failed"}

// State tells if a port model is being activated.
type State int

// The states of a port model.
const (
	StateIdle State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}

	return "idle"
}

// Counters count the payloads that crossed a port model.
type Counters struct {
	Drained     uint64
	Emitted     uint64
	Transmitted uint64
	SendFailed  uint64

	// Deferred counts payloads the output port could not take at their
	// delivery time.
	Deferred uint64
}

// Comp is the port model. It owns one bridge.
type Comp[R, T any] struct {
	*sim.ComponentBase

	Input  sim.Port
	Output sim.Port

	// Downstream is where the output port sends drained payloads.
	Downstream sim.RemotePort

	engine sim.Engine
	bridge Bridge[R, T]
	cycle  *sim.CyclicScheduler
	delta  sim.VTimeInSec

	state    State
	pending  []pendingPayload[R]
	flushing bool

	// The first held pending payloads are already counted as deferred.
	held int
	closed   bool

	drained     atomic.Uint64
	emitted     atomic.Uint64
	transmitted atomic.Uint64
	sendFailed  atomic.Uint64
	deferred    atomic.Uint64
}

type pendingPayload[R any] struct {
	payload R
	due     sim.VTimeInSec
}

// Start schedules the first activation.
func (c *Comp[R, T]) Start(at sim.VTimeInSec) {
	c.cycle.Start(at)
}

// Deactivate stops scheduling activations. Payloads already drained are
// still emitted.
func (c *Comp[R, T]) Deactivate() {
	c.cycle.Stop()
	c.state = StateIdle
}

// State returns whether the port model is being activated.
func (c *Comp[R, T]) State() State {
	return c.state
}

// Bridge returns the bridge owned by the port model.
func (c *Comp[R, T]) Bridge() Bridge[R, T] {
	return c.bridge
}

// Counters returns the payload counters. It is safe to call from any
// goroutine.
func (c *Comp[R, T]) Counters() Counters {
	return Counters{
		Drained:     c.drained.Load(),
		Emitted:     c.emitted.Load(),
		Transmitted: c.transmitted.Load(),
		SendFailed:  c.sendFailed.Load(),
		Deferred:    c.deferred.Load(),
	}
}

// Handle handles the activation and delivery events.
func (c *Comp[R, T]) Handle(e sim.Event) error {
	switch e := e.(type) {
	case sim.CycleEvent:
		c.activate(e)
	case *DeliverEvent[R]:
		c.deliver(e)
	default:
		log.Panicf("cannot handle event of type %s", reflect.TypeOf(e))
	}

	return nil
}

func (c *Comp[R, T]) activate(e sim.CycleEvent) {
	if c.cycle.Stopped() && c.state == StateIdle {
		return
	}

	c.state = StateActive

	emitAt := e.Time() + c.delta
	for _, payload := range c.bridge.RecvAll() {
		c.drained.Add(1)
		c.hook(HookPosPayloadDrained, payload, nil)
		c.engine.Schedule(NewDeliverEvent(emitAt, c, payload))
	}

	c.cycle.Rearm()
}

func (c *Comp[R, T]) deliver(e *DeliverEvent[R]) {
	c.pending = append(c.pending, pendingPayload[R]{
		payload: e.Payload,
		due:     e.Time(),
	})
	c.flushPending()
}

// flushPending sends pending payloads until the output port is full. It can
// be re-entered from the port through NotifyPortFree while sending.
func (c *Comp[R, T]) flushPending() {
	if c.flushing {
		return
	}

	c.flushing = true
	defer func() { c.flushing = false }()

	for len(c.pending) > 0 {
		p := c.pending[0]

		msg := NewPayloadMsg(c.Output.AsRemote(), c.Downstream, p.payload)
		if err := c.Output.Send(msg); err != nil {
			c.deferred.Add(uint64(len(c.pending) - c.held))
			c.held = len(c.pending)

			return
		}

		c.pending[0] = pendingPayload[R]{}
		c.pending = c.pending[1:]

		var delay any
		if c.held > 0 {
			c.held--
			delay = c.engine.CurrentTime() - p.due
		}

		c.emitted.Add(1)
		c.hook(HookPosPayloadEmitted, msg, delay)
	}
}

// NotifyRecv hands every message arriving on the input port to the bridge,
// in arrival order. A message is transmitted before it is retrieved, as
// retrieving can deliver the next one right away.
func (c *Comp[R, T]) NotifyRecv(port sim.Port) {
	if port != c.Input {
		return
	}

	for {
		msg := c.Input.PeekIncoming()
		if msg == nil {
			return
		}

		pm, ok := msg.(*PayloadMsg[T])
		if !ok {
			log.Panicf("%s: cannot transmit message of type %s",
				c.Name(), reflect.TypeOf(msg))
		}

		c.Transmit(pm.Payload)
		c.Input.RetrieveIncoming()
	}
}

// NotifyPortFree resumes emitting payloads held back by a full output port.
func (c *Comp[R, T]) NotifyPortFree(port sim.Port) {
	if port == c.Output {
		c.flushPending()
	}
}

// Transmit hands a payload to the bridge. A refused payload is logged and
// counted.
func (c *Comp[R, T]) Transmit(payload T) {
	err := c.bridge.Send(payload)
	if err != nil {
		c.sendFailed.Add(1)
		c.hook(HookPosSendFailed, payload, err)
		log.Printf("%s: send failed: %v", c.Name(), err)

		return
	}

	c.transmitted.Add(1)
	c.hook(HookPosPayloadTransmitted, payload, nil)
}

func (c *Comp[R, T]) hook(pos *sim.HookPos, item, detail any) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}

// Close stops the activations and the bridge.
func (c *Comp[R, T]) Close() error {
	if c.closed {
		return nil
	}

	c.Deactivate()

	if err := c.bridge.Stop(); err != nil {
		return err
	}

	c.closed = true

	return nil
}

type bridgeStopper[R, T any] struct {
	comp *Comp[R, T]
}

// Handle stops the bridge when the simulation ends. A bridge that cannot be
// joined leaves a goroutine behind, so it is not tolerated.
func (s bridgeStopper[R, T]) Handle(_ sim.VTimeInSec) {
	err := s.comp.Close()

	switch {
	case errors.Is(err, iothread.ErrJoinTimeout):
		log.Panicf("%s: %v", s.comp.Name(), err)
	case err != nil:
		log.Printf("%s: stopping bridge: %v", s.comp.Name(), err)
	}
}
