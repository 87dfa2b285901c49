// Package simulation assembles a bridged simulation: an engine, the port
// models of every configured medium, the components consuming their output,
// and the optional tracer and monitor.
package simulation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sarchlab/akitaio/datarecording"
	"github.com/sarchlab/akitaio/ioport"
	"github.com/sarchlab/akitaio/iothread"
	"github.com/sarchlab/akitaio/monitoring"
	"github.com/sarchlab/akitaio/sim"
	"github.com/sarchlab/akitaio/tracing"
)

type portModel struct {
	name     string
	start    func(at sim.VTimeInSec)
	stop     func()
	counters func() ioport.Counters
	bridge   monitoring.Bridge
}

// PortSummary is the activity of one port model.
type PortSummary struct {
	Name     string
	Counters ioport.Counters
	Stats    iothread.Stats
}

// A Simulation provides the service requires to define a simulation.
type Simulation struct {
	id      string
	engine  *sim.SerialEngine
	horizon sim.VTimeInSec

	dataRecorder datarecording.DataRecorder
	tracer       *tracing.PayloadTracer
	monitor      *monitoring.Monitor
	monitorURL   string

	components    []sim.Component
	compNameIndex map[string]int
	ports         []sim.Port
	portNameIndex map[string]int
	portModels    []portModel
}

// ID returns the unique ID of the simulation run.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetDataRecorder returns the data recorder, nil when tracing is off.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetTracer returns the payload tracer, nil when tracing is off.
func (s *Simulation) GetTracer() *tracing.PayloadTracer {
	return s.tracer
}

// GetMonitor returns the monitor, nil when monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitoring server, if any.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// RegisterComponent registers a component with the simulation.
func (s *Simulation) RegisterComponent(c sim.Component) {
	compName := c.Name()
	if _, found := s.compNameIndex[compName]; found {
		panic("component " + compName + " already registered")
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1

	for _, p := range c.Ports() {
		s.registerPort(p)
	}

	if s.monitor != nil {
		s.monitor.RegisterComponent(c)
	}
}

func (s *Simulation) registerPort(p sim.Port) {
	portName := p.Name()
	if _, found := s.portNameIndex[portName]; found {
		panic("port " + portName + " already registered")
	}

	s.ports = append(s.ports, p)
	s.portNameIndex[portName] = len(s.ports) - 1
}

// GetComponentByName returns the component with the given name.
func (s *Simulation) GetComponentByName(name string) sim.Component {
	i, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[i]
}

// GetPortByName returns the port with the given name.
func (s *Simulation) GetPortByName(name string) sim.Port {
	i, found := s.portNameIndex[name]
	if !found {
		return nil
	}

	return s.ports[i]
}

// Components returns all registered components.
func (s *Simulation) Components() []sim.Component {
	return s.components
}

// Run starts every port model at time 0 and runs the engine until no event
// is left, which happens once the horizon is reached or Interrupt is called.
// The bridges are stopped before Run returns, also when an event handler
// panics.
func (s *Simulation) Run() error {
	if len(s.portModels) == 0 {
		return errors.New("no port model to run")
	}

	for _, p := range s.portModels {
		p.start(0)
	}

	defer s.engine.Finished()

	err := s.engine.Run()

	if err != nil {
		return fmt.Errorf("simulation %s: %w", s.id, err)
	}

	return nil
}

// Interrupt stops the activations of every port model. It can be called
// from any goroutine while Run is in progress; Run returns once the events
// already scheduled are handled.
func (s *Simulation) Interrupt() {
	s.engine.Pause()
	defer s.engine.Continue()

	for _, p := range s.portModels {
		p.stop()
	}
}

// Summary returns the activity of every port model, sorted by name.
func (s *Simulation) Summary() []PortSummary {
	summary := make([]PortSummary, 0, len(s.portModels))
	for _, p := range s.portModels {
		summary = append(summary, PortSummary{
			Name:     p.name,
			Counters: p.counters(),
			Stats:    p.bridge.Stats(),
		})
	}

	sort.Slice(summary, func(i, j int) bool {
		return summary[i].Name < summary[j].Name
	})

	return summary
}

// Terminate releases the recorder and the monitoring server.
func (s *Simulation) Terminate() error {
	var errs []error

	if s.dataRecorder != nil {
		errs = append(errs, s.dataRecorder.Close())
	}

	if s.monitor != nil {
		errs = append(errs, s.monitor.StopServer())
	}

	return errors.Join(errs...)
}
