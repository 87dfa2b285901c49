package sim

import (
	"fmt"
	"sync"
)

// DirectConnection connects multiple ports without latency. Messages are
// forwarded synchronously when a port notifies that it has something to
// send.
type DirectConnection struct {
	*HookableBase

	lock sync.Mutex
	name string

	ports      []Port
	portMap    map[RemotePort]Port
	nextPortID int

	forwarding bool
	again      bool
}

var _ Connection = (*DirectConnection)(nil)

// NewDirectConnection creates a new DirectConnection.
func NewDirectConnection(name string) *DirectConnection {
	return &DirectConnection{
		HookableBase: NewHookableBase(),
		name:         name,
		portMap:      make(map[RemotePort]Port),
	}
}

// Name returns the name of the connection.
func (c *DirectConnection) Name() string {
	return c.name
}

// PlugIn marks the port connects to this DirectConnection.
func (c *DirectConnection) PlugIn(port Port) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if port == nil {
		panic("nil port")
	}

	c.ports = append(c.ports, port)
	c.portMap[port.AsRemote()] = port
	port.SetConnection(c)
}

// NotifyAvailable is called by a port to notify that the connection can
// deliver to the port again.
func (c *DirectConnection) NotifyAvailable(_ Port) {
	c.forward()
}

// NotifySend is called by a port to notify that it has messages to send.
func (c *DirectConnection) NotifySend() {
	c.forward()
}

// forward delivers everything deliverable. A delivery can make the receiver
// send or retrieve, which calls back into the connection; those nested calls
// only mark that another round is needed.
func (c *DirectConnection) forward() {
	c.lock.Lock()
	if c.forwarding {
		c.again = true
		c.lock.Unlock()

		return
	}
	c.forwarding = true
	c.lock.Unlock()

	for {
		c.forwardRound()

		c.lock.Lock()
		if !c.again {
			c.forwarding = false
			c.lock.Unlock()

			return
		}
		c.again = false
		c.lock.Unlock()
	}
}

func (c *DirectConnection) forwardRound() {
	n := len(c.ports)
	if n == 0 {
		return
	}

	madeProgress := false
	for i := 0; i < n; i++ {
		port := c.ports[(i+c.nextPortID)%n]
		if c.forwardMany(port) {
			madeProgress = true
		}
	}

	if madeProgress {
		c.nextPortID = (c.nextPortID + 1) % n
	}
}

func (c *DirectConnection) forwardMany(port Port) bool {
	madeProgress := false

	for {
		head := port.PeekOutgoing()
		if head == nil {
			return madeProgress
		}

		dst, found := c.portMap[head.Meta().Dst]
		if !found {
			panic(fmt.Sprintf("connection %s: port %s is not connected",
				c.name, head.Meta().Dst))
		}

		if dst.Deliver(head) != nil {
			return madeProgress
		}

		madeProgress = true

		port.RetrieveOutgoing()
	}
}
