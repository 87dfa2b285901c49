package ioport

import (
	"log"

	"github.com/sarchlab/akitaio/sim"
)

// Builder can build port models.
type Builder[R, T any] struct {
	engine        sim.Engine
	bridge        Bridge[R, T]
	period        sim.VTimeInSec
	delta         sim.VTimeInSec
	horizon       sim.VTimeInSec
	strict        bool
	downstream    sim.RemotePort
	inputBufSize  int
	outputBufSize int
}

// MakeBuilder creates a builder with default buffer sizes.
func MakeBuilder[R, T any]() Builder[R, T] {
	return Builder[R, T]{
		inputBufSize:  64,
		outputBufSize: 64,
	}
}

// WithEngine sets the engine that schedules the activations.
func (b Builder[R, T]) WithEngine(engine sim.Engine) Builder[R, T] {
	b.engine = engine
	return b
}

// WithBridge sets the bridge the port model owns.
func (b Builder[R, T]) WithBridge(bridge Bridge[R, T]) Builder[R, T] {
	b.bridge = bridge
	return b
}

// WithPeriod sets the interval between two activations.
func (b Builder[R, T]) WithPeriod(period sim.VTimeInSec) Builder[R, T] {
	b.period = period
	return b
}

// WithDelta sets the latency between an activation and the emission of the
// payloads it drained.
func (b Builder[R, T]) WithDelta(delta sim.VTimeInSec) Builder[R, T] {
	b.delta = delta
	return b
}

// WithConfig sets the period, the delta and the strictness from a config.
func (b Builder[R, T]) WithConfig(cfg Config) Builder[R, T] {
	b.period = cfg.Period
	b.delta = cfg.Delta
	b.strict = cfg.Strict

	return b
}

// WithHorizon sets the last time an activation can happen. Zero means no
// limit.
func (b Builder[R, T]) WithHorizon(horizon sim.VTimeInSec) Builder[R, T] {
	b.horizon = horizon
	return b
}

// WithDownstream sets where drained payloads are sent.
func (b Builder[R, T]) WithDownstream(dst sim.RemotePort) Builder[R, T] {
	b.downstream = dst
	return b
}

// WithInputBufSize sets the size of the input port buffers.
func (b Builder[R, T]) WithInputBufSize(n int) Builder[R, T] {
	b.inputBufSize = n
	return b
}

// WithOutputBufSize sets the size of the output port buffers.
func (b Builder[R, T]) WithOutputBufSize(n int) Builder[R, T] {
	b.outputBufSize = n
	return b
}

// Build creates a port model. The port model stops its bridge when the
// engine reports the end of the simulation.
func (b Builder[R, T]) Build(name string) *Comp[R, T] {
	b.engineMustBeGiven()
	b.bridgeMustBeGiven()
	b.timingMustBeValid(name)

	c := &Comp[R, T]{
		ComponentBase: sim.NewComponentBase(name),
		Downstream:    b.downstream,
		engine:        b.engine,
		bridge:        b.bridge,
		delta:         b.delta,
	}

	c.cycle = sim.NewCyclicScheduler(c, b.engine, b.period)
	c.cycle.Horizon = b.horizon

	c.Input = sim.NewPort(c, b.inputBufSize, b.inputBufSize,
		name+".Input")
	c.AddPort("Input", c.Input)

	c.Output = sim.NewPort(c, b.outputBufSize, b.outputBufSize,
		name+".Output")
	c.AddPort("Output", c.Output)

	b.engine.RegisterSimulationEndHandler(bridgeStopper[R, T]{comp: c})

	return c
}

func (b Builder[R, T]) engineMustBeGiven() {
	if b.engine == nil {
		panic("engine is not given")
	}
}

func (b Builder[R, T]) bridgeMustBeGiven() {
	if b.bridge == nil {
		panic("bridge is not given")
	}
}

func (b Builder[R, T]) timingMustBeValid(name string) {
	if b.period <= 0 {
		log.Panicf("%s: period must be positive, got %v", name, b.period)
	}

	if b.delta <= 0 {
		log.Panicf("%s: delta must be positive, got %v", name, b.delta)
	}

	if b.delta >= b.period {
		if b.strict {
			log.Panicf("%s: delta %v is not shorter than period %v",
				name, b.delta, b.period)
		}

		log.Printf("%s: delta %v is not shorter than period %v, "+
			"payloads of consecutive activations may interleave",
			name, b.delta, b.period)
	}
}
