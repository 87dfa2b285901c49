package sim

import (
	"fmt"
	"sync"
)

// HookPosPortMsgSend marks when a message is sent out from the port.
var HookPosPortMsgSend = &HookPos{Name: "Port Msg Send"}

// HookPosPortMsgRecvd marks when an inbound message arrives at a the given port
var HookPosPortMsgRecvd = &HookPos{Name: "Port Msg Recv"}

// HookPosPortMsgRetrieveIncoming marks when an inbound message is retrieved
// from the incoming buffer.
var HookPosPortMsgRetrieveIncoming = &HookPos{
	Name: "Port Msg Retrieve Incoming",
}

// HookPosPortMsgRetrieveOutgoing marks when an outbound message is retrieved
// from the outgoing buffer.
var HookPosPortMsgRetrieveOutgoing = &HookPos{
	Name: "Port Msg Retrieve Outgoing",
}

// A Port is owned by a component and is used to plugin connections
type Port interface {
	Named
	Hookable

	AsRemote() RemotePort

	SetConnection(conn Connection)
	Component() Component

	// For connection
	Deliver(msg Msg) *SendError
	NotifyAvailable()
	RetrieveOutgoing() Msg
	PeekOutgoing() Msg

	// For component
	CanSend() bool
	Send(msg Msg) *SendError
	RetrieveIncoming() Msg
	PeekIncoming() Msg

	// For monitoring
	Buffers() []Buffer
}

// DefaultPort implements the Port interface with an incoming and an outgoing
// buffer.
type DefaultPort struct {
	*HookableBase

	lock sync.Mutex
	name string
	comp Component
	conn Connection

	incomingBuf Buffer
	outgoingBuf Buffer
}

var _ Port = (*DefaultPort)(nil)

// NewPort creates a new port with default behavior.
func NewPort(
	comp Component,
	incomingBufCap, outgoingBufCap int,
	name string,
) *DefaultPort {
	return &DefaultPort{
		HookableBase: NewHookableBase(),
		comp:         comp,
		incomingBuf:  NewBuffer(name+".IncomingBuf", incomingBufCap),
		outgoingBuf:  NewBuffer(name+".OutgoingBuf", outgoingBufCap),
		name:         name,
	}
}

// AsRemote returns the remote port name.
func (p *DefaultPort) AsRemote() RemotePort {
	return RemotePort(p.name)
}

// SetConnection sets which connection plugged in to this port.
func (p *DefaultPort) SetConnection(conn Connection) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.conn != nil {
		panic(fmt.Sprintf(
			"connection already set to %s, now connecting to %s",
			p.conn.Name(), conn.Name(),
		))
	}

	p.conn = conn
}

// Component returns the owner component of the port.
func (p *DefaultPort) Component() Component {
	return p.comp
}

// Name returns the name of the port.
func (p *DefaultPort) Name() string {
	return p.name
}

// Buffers returns the incoming and the outgoing buffer.
func (p *DefaultPort) Buffers() []Buffer {
	return []Buffer{p.incomingBuf, p.outgoingBuf}
}

// CanSend checks if the port can send a message without error.
func (p *DefaultPort) CanSend() bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.outgoingBuf.CanPush()
}

// Send is used to send a message out from a component
func (p *DefaultPort) Send(msg Msg) *SendError {
	p.lock.Lock()

	p.msgMustBeValid(msg)

	if !p.outgoingBuf.CanPush() {
		p.lock.Unlock()
		return NewSendError()
	}

	wasEmpty := p.outgoingBuf.Size() == 0
	p.outgoingBuf.Push(msg)

	p.InvokeHook(HookCtx{Domain: p, Pos: HookPosPortMsgSend, Item: msg})

	conn := p.conn
	p.lock.Unlock()

	if wasEmpty && conn != nil {
		conn.NotifySend()
	}

	return nil
}

// Deliver is used to deliver a message to a component
func (p *DefaultPort) Deliver(msg Msg) *SendError {
	p.lock.Lock()

	if !p.incomingBuf.CanPush() {
		p.lock.Unlock()
		return NewSendError()
	}

	wasEmpty := p.incomingBuf.Size() == 0

	p.InvokeHook(HookCtx{Domain: p, Pos: HookPosPortMsgRecvd, Item: msg})

	p.incomingBuf.Push(msg)
	p.lock.Unlock()

	if p.comp != nil && wasEmpty {
		p.comp.NotifyRecv(p)
	}

	return nil
}

// RetrieveIncoming is used by the component to take a message from the
// incoming buffer
func (p *DefaultPort) RetrieveIncoming() Msg {
	p.lock.Lock()

	msg := p.incomingBuf.Pop()
	if msg == nil {
		p.lock.Unlock()
		return nil
	}

	wasFull := p.incomingBuf.Size() == p.incomingBuf.Capacity()-1
	conn := p.conn
	p.lock.Unlock()

	p.InvokeHook(HookCtx{
		Domain: p,
		Pos:    HookPosPortMsgRetrieveIncoming,
		Item:   msg,
	})

	if wasFull && conn != nil {
		conn.NotifyAvailable(p)
	}

	return msg
}

// RetrieveOutgoing is used by the connection to take a message from the
// outgoing buffer
func (p *DefaultPort) RetrieveOutgoing() Msg {
	p.lock.Lock()

	msg := p.outgoingBuf.Pop()
	if msg == nil {
		p.lock.Unlock()
		return nil
	}

	notify := p.comp != nil &&
		p.outgoingBuf.Size() == p.outgoingBuf.Capacity()-1
	p.lock.Unlock()

	p.InvokeHook(HookCtx{
		Domain: p,
		Pos:    HookPosPortMsgRetrieveOutgoing,
		Item:   msg,
	})

	if notify {
		p.comp.NotifyPortFree(p)
	}

	return msg
}

// PeekIncoming returns the first message in the incoming buffer without
// removing it.
func (p *DefaultPort) PeekIncoming() Msg {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.incomingBuf.Peek()
}

// PeekOutgoing returns the first message in the outgoing buffer without
// removing it.
func (p *DefaultPort) PeekOutgoing() Msg {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.outgoingBuf.Peek()
}

// NotifyAvailable is called by the connection to notify the port that the
// connection is available again
func (p *DefaultPort) NotifyAvailable() {
	if p.comp != nil {
		p.comp.NotifyPortFree(p)
	}
}

func (p *DefaultPort) msgMustBeValid(msg Msg) {
	if msg == nil {
		panic("sending nil msg")
	}

	if p.name != string(msg.Meta().Src) {
		panic("sending port is not msg src")
	}

	if msg.Meta().Dst == "" {
		panic("dst is not given")
	}

	if msg.Meta().Src == msg.Meta().Dst {
		panic("sending back to src")
	}
}
