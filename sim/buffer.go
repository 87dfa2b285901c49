package sim

import "log"

// HookPosBufPush marks when a message is pushed into the buffer.
var HookPosBufPush = &HookPos{Name: "Buffer Push"}

// HookPosBufPop marks when a message is popped from the buffer.
var HookPosBufPop = &HookPos{Name: "Buffer Pop"}

// A Buffer is a bounded fifo queue of messages.
type Buffer interface {
	Named
	Hookable

	CanPush() bool
	Push(msg Msg)
	Pop() Msg
	Peek() Msg
	Capacity() int
	Size() int

	// Remove all elements in the buffer
	Clear()
}

// NewBuffer creates a default buffer object.
func NewBuffer(name string, capacity int) Buffer {
	if capacity < 0 {
		log.Panicf("buffer %s: capacity must be non-negative", name)
	}

	return &bufferImpl{
		HookableBase: NewHookableBase(),
		name:         name,
		capacity:     capacity,
		elements:     make([]Msg, 0, capacity),
	}
}

type bufferImpl struct {
	*HookableBase

	name     string
	capacity int
	elements []Msg
}

// Name returns the name of the buffer.
func (b *bufferImpl) Name() string {
	return b.name
}

func (b *bufferImpl) CanPush() bool {
	return len(b.elements) < b.capacity
}

func (b *bufferImpl) Push(msg Msg) {
	if len(b.elements) >= b.capacity {
		log.Panicf("buffer %s overflow", b.name)
	}

	b.elements = append(b.elements, msg)

	if b.NumHooks() > 0 {
		b.InvokeHook(HookCtx{Domain: b, Pos: HookPosBufPush, Item: msg})
	}
}

func (b *bufferImpl) Pop() Msg {
	if len(b.elements) == 0 {
		return nil
	}

	msg := b.elements[0]
	b.elements[0] = nil
	b.elements = b.elements[1:]

	if b.NumHooks() > 0 {
		b.InvokeHook(HookCtx{Domain: b, Pos: HookPosBufPop, Item: msg})
	}

	return msg
}

func (b *bufferImpl) Peek() Msg {
	if len(b.elements) == 0 {
		return nil
	}

	return b.elements[0]
}

func (b *bufferImpl) Capacity() int {
	return b.capacity
}

func (b *bufferImpl) Size() int {
	return len(b.elements)
}

func (b *bufferImpl) Clear() {
	b.elements = b.elements[:0]
}
