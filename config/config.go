// Package config loads the description of a bridged simulation from a YAML
// file. Values may reference environment variables as ${NAME}; a .env file
// is loaded into the environment first.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Gurux/gxcommon-go"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/akitaio/canport"
	"github.com/sarchlab/akitaio/ioport"
	"github.com/sarchlab/akitaio/iothread"
	"github.com/sarchlab/akitaio/serialport"
	"github.com/sarchlab/akitaio/sim"
	"github.com/sarchlab/akitaio/udpport"
)

// DefaultJoinTimeout is used when join_timeout is not given.
const DefaultJoinTimeout = iothread.DefaultJoinTimeout

// Timing is the activation schedule of a port, in milliseconds. Delta
// defaults to Period.
type Timing struct {
	Period uint64  `yaml:"period"`
	Delta  *uint64 `yaml:"delta"`
}

// Serial is one serial port entry.
type Serial struct {
	Name       string `yaml:"name"`
	Path       string `yaml:"path"`
	BaudRate   int    `yaml:"baud_rate"`
	DataBits   int    `yaml:"data_bits"`
	Parity     string `yaml:"parity"`
	StopBits   string `yaml:"stop_bits"`
	BufferSize *int   `yaml:"buffer_size"`
	Kiss       bool   `yaml:"kiss"`
	Echo       bool   `yaml:"echo"`
	Timing     `yaml:",inline"`
}

// CAN is one CAN port entry, serving several interfaces.
type CAN struct {
	Name       string   `yaml:"name"`
	Interfaces []string `yaml:"interfaces"`
	Echo       bool     `yaml:"echo"`
	Timing     `yaml:",inline"`
}

// UDP is one UDP port entry.
type UDP struct {
	Name       string `yaml:"name"`
	Bind       string `yaml:"bind"`
	BufferSize int    `yaml:"buffer_size"`
	Echo       bool   `yaml:"echo"`
	Timing     `yaml:",inline"`
}

// Queue selects the overflow policy of every guard queue.
type Queue struct {
	Policy   string `yaml:"policy"`
	Capacity int    `yaml:"capacity"`
}

// File is the raw content of a configuration file.
type File struct {
	Serial       []Serial `yaml:"serial"`
	CAN          []CAN    `yaml:"can"`
	UDP          []UDP    `yaml:"udp"`
	Queue        Queue    `yaml:"queue"`
	Duration     string   `yaml:"duration"`
	Realtime     *float64 `yaml:"realtime"`
	StrictTiming bool     `yaml:"strict_timing"`
	JoinTimeout  string   `yaml:"join_timeout"`
}

// SerialPort is a resolved serial port.
type SerialPort struct {
	Name string
	Port ioport.Config
	Line serialport.Config
	Kiss bool
	Echo bool
}

// CANPort is a resolved CAN port.
type CANPort struct {
	Name       string
	Port       ioport.Config
	Interfaces []string
	Echo       bool
}

// UDPPort is a resolved UDP port.
type UDPPort struct {
	Name   string
	Port   ioport.Config
	Socket udpport.Config
	Echo   bool
}

// Config is a validated configuration with every default applied.
type Config struct {
	Serial []SerialPort
	CAN    []CANPort
	UDP    []UDPPort

	Queue iothread.QueuePolicy

	// Duration of 0 runs until interrupted.
	Duration time.Duration

	// Realtime scales simulated time to wall-clock time. 0 runs as fast as
	// possible.
	Realtime    float64
	JoinTimeout time.Duration
}

// NumPorts returns the number of configured ports.
func (c *Config) NumPorts() int {
	return len(c.Serial) + len(c.CAN) + len(c.UDP)
}

// LoadEnv loads an env file into the environment. An empty path loads .env
// from the working directory if there is one.
func LoadEnv(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}

	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

// Load reads, expands and resolves a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes and resolves YAML content. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	var f File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return f.Resolve()
}

// Resolve applies the defaults and reports every problem found.
func (f *File) Resolve() (*Config, error) {
	r := resolver{strict: f.StrictTiming}
	cfg := &Config{
		Queue:       r.queue(f.Queue),
		Duration:    r.duration("duration", f.Duration, 0),
		JoinTimeout: r.duration("join_timeout", f.JoinTimeout, DefaultJoinTimeout),
		Realtime:    1,
	}

	if f.Realtime != nil {
		cfg.Realtime = *f.Realtime
		if cfg.Realtime < 0 {
			r.fail("realtime must not be negative")
		}
	}

	for i, s := range f.Serial {
		cfg.Serial = append(cfg.Serial, r.serial(i, s))
	}

	for i, c := range f.CAN {
		cfg.CAN = append(cfg.CAN, r.can(i, c))
	}

	for i, u := range f.UDP {
		cfg.UDP = append(cfg.UDP, r.udp(i, u))
	}

	if cfg.NumPorts() == 0 {
		r.fail("no port is configured")
	}

	if err := errors.Join(r.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

type resolver struct {
	strict bool
	errs   []error
}

func (r *resolver) fail(format string, args ...any) {
	r.errs = append(r.errs, fmt.Errorf(format, args...))
}

func (r *resolver) check(prefix string, err error) {
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", prefix, err))
	}
}

func (r *resolver) duration(key, v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		r.fail("%s: invalid duration %q", key, v)
		return def
	}

	return d
}

func (r *resolver) queue(q Queue) iothread.QueuePolicy {
	switch q.Policy {
	case "", "unbounded":
		return iothread.Unbounded()
	case "drop_oldest":
		if q.Capacity <= 0 {
			r.fail("queue: drop_oldest needs a positive capacity")
		}

		return iothread.DropOldest(q.Capacity)
	case "reject_newest":
		if q.Capacity <= 0 {
			r.fail("queue: reject_newest needs a positive capacity")
		}

		return iothread.RejectNewest(q.Capacity)
	default:
		r.fail("queue: unknown policy %q", q.Policy)
		return iothread.Unbounded()
	}
}

func (r *resolver) port(
	prefix string,
	t Timing,
	addresses ...string,
) ioport.Config {
	delta := t.Period
	if t.Delta != nil {
		delta = *t.Delta
	}

	c := ioport.Config{
		Addresses: addresses,
		Period:    millis(t.Period),
		Delta:     millis(delta),
		Strict:    r.strict,
	}
	r.check(prefix, c.Validate())

	return c
}

func (r *resolver) serial(i int, s Serial) SerialPort {
	prefix := fmt.Sprintf("serial[%d]", i)
	line := serialport.DefaultConfig(s.Path)
	line.BaudRate = gxcommon.BaudRate(s.BaudRate)

	if s.DataBits != 0 {
		line.DataBits = s.DataBits
	}

	if s.BufferSize != nil {
		line.BufferSize = *s.BufferSize
	}

	var err error
	if s.Parity != "" {
		line.Parity, err = gxcommon.ParityParse(s.Parity)
		r.check(prefix, err)
	}

	if s.StopBits != "" {
		line.StopBits, err = gxcommon.StopBitsParse(s.StopBits)
		r.check(prefix, err)
	}

	if s.BaudRate < 0 {
		r.fail("%s: negative baud rate %d", prefix, s.BaudRate)
	}

	r.check(prefix, line.Validate())

	return SerialPort{
		Name: nameOr(s.Name, prefix),
		Port: r.port(prefix, s.Timing, s.Path),
		Line: line,
		Kiss: s.Kiss,
		Echo: s.Echo,
	}
}

func (r *resolver) can(i int, c CAN) CANPort {
	prefix := fmt.Sprintf("can[%d]", i)

	ifnames := c.Interfaces
	if len(ifnames) == 0 {
		ifnames = append([]string(nil), canport.DefaultInterfaces...)
	}

	return CANPort{
		Name:       nameOr(c.Name, prefix),
		Port:       r.port(prefix, c.Timing, ifnames...),
		Interfaces: ifnames,
		Echo:       c.Echo,
	}
}

func (r *resolver) udp(i int, u UDP) UDPPort {
	prefix := fmt.Sprintf("udp[%d]", i)

	return UDPPort{
		Name:   nameOr(u.Name, prefix),
		Port:   r.port(prefix, u.Timing, u.Bind),
		Socket: udpport.Config{Bind: u.Bind, BufferSize: u.BufferSize},
		Echo:   u.Echo,
	}
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}

	return fallback
}

func millis(ms uint64) sim.VTimeInSec {
	return sim.VTimeInSec(ms) / 1000
}
