package simulation

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sarchlab/akitaio/bytestream"
	"github.com/sarchlab/akitaio/canport"
	"github.com/sarchlab/akitaio/config"
	"github.com/sarchlab/akitaio/ioport"
	"github.com/sarchlab/akitaio/iothread"
	"github.com/sarchlab/akitaio/serialport"
	"github.com/sarchlab/akitaio/sim"
	"github.com/sarchlab/akitaio/udpport"
)

// GuardOptions are the settings shared by the guards of every port.
type GuardOptions struct {
	Queue       iothread.QueuePolicy
	JoinTimeout time.Duration
	Logger      *slog.Logger
}

func guardConfig[T any](opts GuardOptions, name string) iothread.Config[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return iothread.Config[T]{
		InboundPolicy:  opts.Queue,
		OutboundPolicy: opts.Queue,
		JoinTimeout:    opts.JoinTimeout,
		Logger:         logger.With("port", name),
		StopAtExit:     true,
	}
}

// AddPorts starts a guard and builds a port model for every port of cfg.
// When a port cannot be opened, the guards already started are stopped.
func (s *Simulation) AddPorts(cfg *config.Config, logger *slog.Logger) error {
	opts := GuardOptions{
		Queue:       cfg.Queue,
		JoinTimeout: cfg.JoinTimeout,
		Logger:      logger,
	}

	err := s.addPorts(cfg, opts)
	if err != nil {
		s.stopBridges()
	}

	return err
}

func (s *Simulation) addPorts(cfg *config.Config, opts GuardOptions) error {
	for _, p := range cfg.Serial {
		if err := s.AddSerialPort(p, opts); err != nil {
			return err
		}
	}

	for _, p := range cfg.CAN {
		if err := s.AddCANPort(p, opts); err != nil {
			return err
		}
	}

	for _, p := range cfg.UDP {
		if err := s.AddUDPPort(p, opts); err != nil {
			return err
		}
	}

	return nil
}

func (s *Simulation) stopBridges() {
	for _, p := range s.portModels {
		p.stop()

		if stopper, ok := p.bridge.(interface{ Stop() error }); ok {
			_ = stopper.Stop()
		}
	}
}

// AddSerialPort opens a serial line and wires its port model to a logging
// sink, through a KISS decoder if requested.
func (s *Simulation) AddSerialPort(p config.SerialPort, opts GuardOptions) error {
	g, err := serialport.StartGuard(p.Line, guardConfig[[]byte](opts, p.Name))
	if err != nil {
		return fmt.Errorf("port %s: %w", p.Name, err)
	}

	comp := addPortModel(s, p.Name, p.Port, g)

	if !p.Kiss {
		attachSink(s, p.Name, comp.Output, &comp.Downstream,
			func(r ioport.Record[[]byte]) {
				slog.Info("received", "port", p.Name, "time", float64(r.Time),
					"size", len(r.Payload), "bytes", fmt.Sprintf("%x", r.Payload))

				if p.Echo {
					comp.Transmit(r.Payload)
				}
			})

		return nil
	}

	decoder := bytestream.NewComp[bytestream.KissFrame](
		p.Name+".Kiss", bytestream.NewKissFrameDecoder())
	s.RegisterComponent(decoder)
	s.traceComponent(decoder)
	comp.Downstream = decoder.Input.AsRemote()
	connect(p.Name+".KissConn", comp.Output, decoder.Input)

	attachSink(s, p.Name, decoder.Output, &decoder.Downstream,
		func(r ioport.Record[bytestream.KissFrame]) {
			slog.Info("frame", "port", p.Name, "time", float64(r.Time),
				"size", len(r.Payload.Data), "aborted", r.Payload.Aborted,
				"bytes", fmt.Sprintf("%x", r.Payload.Data))

			if p.Echo && !r.Payload.Aborted {
				comp.Transmit(bytestream.EncodeKiss(r.Payload.Data))
			}
		})

	return nil
}

// AddCANPort opens the CAN interfaces of a port and wires its port model to
// a logging sink.
func (s *Simulation) AddCANPort(p config.CANPort, opts GuardOptions) error {
	g, err := canport.StartGuard(p.Interfaces,
		guardConfig[canport.Data](opts, p.Name))
	if err != nil {
		return fmt.Errorf("port %s: %w", p.Name, err)
	}

	comp := addPortModel(s, p.Name, p.Port, g)
	attachSink(s, p.Name, comp.Output, &comp.Downstream,
		func(r ioport.Record[canport.Data]) {
			slog.Info("received", "port", p.Name, "time", float64(r.Time),
				"interface", p.Interfaces[r.Payload.Interface],
				"frame", r.Payload.Frame.String())

			if p.Echo {
				comp.Transmit(r.Payload)
			}
		})

	return nil
}

// AddUDPPort binds a UDP socket and wires its port model to a logging sink.
func (s *Simulation) AddUDPPort(p config.UDPPort, opts GuardOptions) error {
	g, _, err := udpport.StartGuard(p.Socket,
		guardConfig[udpport.Datagram](opts, p.Name))
	if err != nil {
		return fmt.Errorf("port %s: %w", p.Name, err)
	}

	comp := addPortModel(s, p.Name, p.Port, g)
	attachSink(s, p.Name, comp.Output, &comp.Downstream,
		func(r ioport.Record[udpport.Datagram]) {
			slog.Info("received", "port", p.Name, "time", float64(r.Time),
				"from", r.Payload.Addr.String(), "size", len(r.Payload.Bytes),
				"bytes", fmt.Sprintf("%x", r.Payload.Bytes))

			if p.Echo {
				comp.Transmit(r.Payload)
			}
		})

	return nil
}

func addPortModel[R, T any](
	s *Simulation,
	name string,
	cfg ioport.Config,
	bridge *iothread.Guard[R, T],
) *ioport.Comp[R, T] {
	comp := ioport.MakeBuilder[R, T]().
		WithEngine(s.engine).
		WithBridge(bridge).
		WithConfig(cfg).
		WithHorizon(s.horizon).
		Build(name)

	s.RegisterComponent(comp)
	s.traceComponent(comp)

	if s.monitor != nil {
		s.monitor.RegisterBridge(bridge)
	}

	s.portModels = append(s.portModels, portModel{
		name:     name,
		start:    comp.Start,
		stop:     comp.Deactivate,
		counters: comp.Counters,
		bridge:   bridge,
	})

	return comp
}

func (s *Simulation) traceComponent(c sim.Hookable) {
	if s.tracer != nil {
		c.AcceptHook(s.tracer)
	}
}

func attachSink[P any](
	s *Simulation,
	portName string,
	src sim.Port,
	downstream *sim.RemotePort,
	onRecv func(ioport.Record[P]),
) *ioport.Sink[P] {
	sink := ioport.NewSink[P](portName+".Sink", s.engine)
	sink.Keep = false
	sink.OnRecv = onRecv
	s.RegisterComponent(sink)

	*downstream = sink.Port.AsRemote()
	connect(portName+".SinkConn", src, sink.Port)

	return sink
}

func connect(name string, ports ...sim.Port) {
	conn := sim.NewDirectConnection(name)
	for _, p := range ports {
		conn.PlugIn(p)
	}
}
