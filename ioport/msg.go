package ioport

import "github.com/sarchlab/akitaio/sim"

// PayloadMsg carries one payload between a port model and the rest of the
// simulation.
type PayloadMsg[P any] struct {
	sim.MsgMeta

	Payload P
}

// NewPayloadMsg creates a message with a fresh ID.
func NewPayloadMsg[P any](src, dst sim.RemotePort, payload P) *PayloadMsg[P] {
	return &PayloadMsg[P]{
		MsgMeta: sim.MsgMeta{
			ID:  sim.GetIDGenerator().Generate(),
			Src: src,
			Dst: dst,
		},
		Payload: payload,
	}
}

// Meta returns the meta data of the message.
func (m *PayloadMsg[P]) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns a copy of the message with a new ID. The payload is shared.
func (m *PayloadMsg[P]) Clone() sim.Msg {
	c := *m
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// Content returns the payload as an untyped value, for hooks that handle
// messages of any payload type.
func (m *PayloadMsg[P]) Content() any {
	return m.Payload
}
