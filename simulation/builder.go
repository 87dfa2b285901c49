package simulation

import (
	"log"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/akitaio/datarecording"
	"github.com/sarchlab/akitaio/monitoring"
	"github.com/sarchlab/akitaio/sim"
	"github.com/sarchlab/akitaio/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn   bool
	monitorPort int
	traceOn     bool
	tracePath   string
	realtime    float64
	duration    time.Duration
	note        string
	eventLogger *slog.Logger
}

// MakeBuilder creates a new builder. By default the simulation runs in real
// time, without limit, monitoring or tracing.
func MakeBuilder() Builder {
	return Builder{realtime: 1}
}

// WithMonitoring turns on the monitoring server. Port 0 picks a free port.
func (b Builder) WithMonitoring(port int) Builder {
	b.monitorOn = true
	b.monitorPort = port

	return b
}

// WithTracing records every payload into a SQLite database at path. An empty
// path picks a unique file name.
func (b Builder) WithTracing(path string) Builder {
	b.traceOn = true
	b.tracePath = path

	return b
}

// WithRealtime sets how many wall seconds one simulated second takes. 0
// runs as fast as possible.
func (b Builder) WithRealtime(scale float64) Builder {
	b.realtime = scale
	return b
}

// WithDuration sets the last simulated time at which the port models are
// activated. 0 runs until interrupted.
func (b Builder) WithDuration(d time.Duration) Builder {
	b.duration = d
	return b
}

// WithNote sets the note stored with the trace session.
func (b Builder) WithNote(note string) Builder {
	b.note = note
	return b
}

// WithEventLogging logs every event the engine handles at debug level.
func (b Builder) WithEventLogging(logger *slog.Logger) Builder {
	b.eventLogger = logger
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.realtime < 0 {
		log.Panicf("realtime scale must not be negative, got %v", b.realtime)
	}

	if b.duration < 0 {
		log.Panicf("duration must not be negative, got %v", b.duration)
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:            xid.New().String(),
		engine:        sim.NewSerialEngine(),
		horizon:       sim.FromDuration(b.duration),
		compNameIndex: make(map[string]int),
		portNameIndex: make(map[string]int),
	}

	if b.realtime > 0 {
		pacer := sim.NewRealTimePacer()
		pacer.Scale = b.realtime
		s.engine.AcceptHook(pacer)
	}

	if b.eventLogger != nil {
		s.engine.AcceptHook(sim.NewEventLogger(b.eventLogger))
	}

	if b.traceOn {
		path := b.tracePath
		if path == "" {
			path = "akitaio_trace_" + s.id
		}

		s.dataRecorder = datarecording.New(path)
		s.tracer = tracing.NewPayloadTracer(s.engine, s.dataRecorder, b.note)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor().WithPortNumber(b.monitorPort)
		s.monitor.RegisterEngine(s.engine)

		url, err := s.monitor.StartServer()
		if err != nil {
			log.Panic(err)
		}

		s.monitorURL = url
	}

	return s
}
