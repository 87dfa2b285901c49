package sim

import (
	"fmt"
	"sort"
	"strings"
)

// A PortOwner is an element that can communicate with others through ports.
type PortOwner interface {
	AddPort(name string, port Port)
	GetPortByName(name string) Port
	Ports() []Port
}

// PortOwnerBase provides an implementation of the PortOwner interface.
type PortOwnerBase struct {
	ports map[string]Port
}

// NewPortOwnerBase creates a new PortOwnerBase
func NewPortOwnerBase() *PortOwnerBase {
	return &PortOwnerBase{
		ports: make(map[string]Port),
	}
}

// AddPort adds a new port with a given name.
func (po *PortOwnerBase) AddPort(name string, port Port) {
	if _, found := po.ports[name]; found {
		panic("port already exist")
	}

	po.ports[name] = port
}

// GetPortByName returns the port according to the name of the port. This
// function panics when the given name is not found.
func (po *PortOwnerBase) GetPortByName(name string) Port {
	port, found := po.ports[name]
	if !found {
		panic(fmt.Sprintf("port %s not found, available ports: %s",
			name, strings.Join(po.portNames(), ", ")))
	}

	return port
}

// Ports returns a slices of all the ports owned by the PortOwner, sorted by
// port name.
func (po *PortOwnerBase) Ports() []Port {
	names := po.portNames()

	list := make([]Port, 0, len(names))
	for _, name := range names {
		list = append(list, po.ports[name])
	}

	return list
}

func (po *PortOwnerBase) portNames() []string {
	names := make([]string, 0, len(po.ports))
	for k := range po.ports {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}
