package bytestream

import (
	"log"
	"reflect"

	"github.com/sarchlab/akitaio/ioport"
	"github.com/sarchlab/akitaio/sim"
)

// HookPosFrameDecoded marks a decoded value. Item is the value.
var HookPosFrameDecoded = &sim.HookPos{Name: "Frame Decoded"}

// Comp is a component that decodes the byte payloads arriving on Input and
// sends every decoded value to Downstream through Output.
type Comp[T any] struct {
	*sim.ComponentBase

	Input  sim.Port
	Output sim.Port

	Downstream sim.RemotePort

	decoder  Decoder[T]
	buf      Buffer
	pending  []T
	flushing bool
}

// NewComp creates a decoding component.
func NewComp[T any](name string, decoder Decoder[T]) *Comp[T] {
	if decoder == nil {
		panic("decoder is not given")
	}

	c := &Comp[T]{
		ComponentBase: sim.NewComponentBase(name),
		decoder:       decoder,
	}

	c.Input = sim.NewPort(c, 64, 64, name+".Input")
	c.AddPort("Input", c.Input)

	c.Output = sim.NewPort(c, 64, 64, name+".Output")
	c.AddPort("Output", c.Output)

	return c
}

// Handle does nothing as decoding happens on message arrival.
func (c *Comp[T]) Handle(_ sim.Event) error {
	return nil
}

// NotifyRecv decodes every byte payload arriving on Input.
func (c *Comp[T]) NotifyRecv(port sim.Port) {
	if port != c.Input {
		return
	}

	for {
		msg := c.Input.PeekIncoming()
		if msg == nil {
			return
		}

		pm, ok := msg.(*ioport.PayloadMsg[[]byte])
		if !ok {
			log.Panicf("%s: cannot decode message of type %s",
				c.Name(), reflect.TypeOf(msg))
		}

		c.buf.Push(pm.Payload)
		for _, v := range DecodeAll(c.decoder, &c.buf) {
			c.pending = append(c.pending, v)

			if c.NumHooks() > 0 {
				c.InvokeHook(sim.HookCtx{
					Domain: c,
					Pos:    HookPosFrameDecoded,
					Item:   v,
				})
			}
		}

		c.flushPending()
		c.Input.RetrieveIncoming()
	}
}

// NotifyPortFree resumes sending decoded values.
func (c *Comp[T]) NotifyPortFree(port sim.Port) {
	if port == c.Output {
		c.flushPending()
	}
}

func (c *Comp[T]) flushPending() {
	if c.flushing {
		return
	}

	c.flushing = true
	defer func() { c.flushing = false }()

	for len(c.pending) > 0 {
		msg := ioport.NewPayloadMsg(c.Output.AsRemote(), c.Downstream,
			c.pending[0])
		if c.Output.Send(msg) != nil {
			return
		}

		var zero T
		c.pending[0] = zero
		c.pending = c.pending[1:]
	}
}
