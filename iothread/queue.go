package iothread

import "sync"

// OverflowMode decides what a bounded queue does when it is full.
type OverflowMode int

const (
	// Unlimited queues never overflow.
	Unlimited OverflowMode = iota

	// DropOldestMode discards the head of a full queue to admit a new item.
	DropOldestMode

	// RejectNewestMode refuses new items while the queue is full.
	RejectNewestMode
)

// QueuePolicy is the backpressure policy of a queue. The zero value is
// unbounded.
type QueuePolicy struct {
	Mode     OverflowMode
	Capacity int
}

// Unbounded returns a policy that never drops.
func Unbounded() QueuePolicy {
	return QueuePolicy{Mode: Unlimited}
}

// DropOldest returns a policy that keeps the newest capacity items.
func DropOldest(capacity int) QueuePolicy {
	return QueuePolicy{Mode: DropOldestMode, Capacity: capacity}
}

// RejectNewest returns a policy that refuses items beyond capacity.
func RejectNewest(capacity int) QueuePolicy {
	return QueuePolicy{Mode: RejectNewestMode, Capacity: capacity}
}

func (p QueuePolicy) bounded() bool {
	return p.Mode != Unlimited && p.Capacity > 0
}

// Queue is a FIFO shared by the loop goroutine and the simulation. All
// operations only hold the queue mutex for a short time and never block on
// I/O.
type Queue[P any] struct {
	lock    sync.Mutex
	policy  QueuePolicy
	items   []P
	head    int
	dropped uint64
	closed  bool
}

// NewQueue creates a queue with the given policy.
func NewQueue[P any](policy QueuePolicy) *Queue[P] {
	return &Queue[P]{policy: policy}
}

// Push appends an item. It returns false if the item was not admitted,
// either because the queue is closed or because it is full under a
// RejectNewest policy. Every item not admitted or discarded is counted.
func (q *Queue[P]) Push(item P) bool {
	q.lock.Lock()
	defer q.lock.Unlock()

	if q.closed {
		q.dropped++
		return false
	}

	if q.policy.bounded() && q.size() >= q.policy.Capacity {
		if q.policy.Mode == RejectNewestMode {
			q.dropped++
			return false
		}

		q.popLocked()
		q.dropped++
	}

	q.items = append(q.items, item)

	return true
}

// Pop removes the head of the queue.
func (q *Queue[P]) Pop() (P, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()

	if q.size() == 0 {
		var zero P
		return zero, false
	}

	return q.popLocked(), true
}

// PopAll removes and returns everything in the queue in FIFO order. It
// returns nil when the queue is empty.
func (q *Queue[P]) PopAll() []P {
	q.lock.Lock()
	defer q.lock.Unlock()

	if q.size() == 0 {
		return nil
	}

	out := make([]P, q.size())
	copy(out, q.items[q.head:])
	q.reset()

	return out
}

// Len returns the number of queued items.
func (q *Queue[P]) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()

	return q.size()
}

// Dropped returns how many items were discarded or refused.
func (q *Queue[P]) Dropped() uint64 {
	q.lock.Lock()
	defer q.lock.Unlock()

	return q.dropped
}

// Close empties the queue and refuses further pushes.
func (q *Queue[P]) Close() {
	q.lock.Lock()
	defer q.lock.Unlock()

	q.closed = true
	q.reset()
}

// Closed tells if Close has been called.
func (q *Queue[P]) Closed() bool {
	q.lock.Lock()
	defer q.lock.Unlock()

	return q.closed
}

func (q *Queue[P]) size() int {
	return len(q.items) - q.head
}

func (q *Queue[P]) popLocked() P {
	var zero P

	item := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	if q.head == len(q.items) {
		q.reset()
	} else if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	return item
}

func (q *Queue[P]) reset() {
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
}
