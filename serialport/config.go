// Package serialport bridges a serial line to a simulation. A tty is opened
// in raw non-blocking mode and served by an iothread guard, one payload per
// run of received bytes.
package serialport

import (
	"errors"
	"fmt"

	"github.com/Gurux/gxcommon-go"
)

// DefaultBufferSize is the largest payload read from the line at once.
const DefaultBufferSize = 256

// Config describes how to open a serial line.
type Config struct {
	Path string

	// BaudRate of 0 leaves the speed untouched, as needed for software
	// TTYs.
	BaudRate gxcommon.BaudRate
	DataBits int
	Parity   gxcommon.Parity
	StopBits gxcommon.StopBits

	BufferSize int
}

// DefaultConfig returns the 8N1 settings of a software TTY at the given
// path.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		DataBits:   8,
		Parity:     gxcommon.ParityNone,
		StopBits:   gxcommon.StopBitsOne,
		BufferSize: DefaultBufferSize,
	}
}

// Validate reports every problem of the configuration.
func (c Config) Validate() error {
	var errs []error

	if c.Path == "" {
		errs = append(errs, errors.New("serial port path is not given"))
	}

	if c.DataBits < 5 || c.DataBits > 8 {
		errs = append(errs,
			fmt.Errorf("data bits must be 5..8, got %d", c.DataBits))
	}

	if c.StopBits != gxcommon.StopBitsOne && c.StopBits != gxcommon.StopBitsTwo {
		errs = append(errs, fmt.Errorf("unsupported stop bits %v", c.StopBits))
	}

	if c.BufferSize < 0 {
		errs = append(errs,
			fmt.Errorf("buffer size must not be negative, got %d", c.BufferSize))
	}

	return errors.Join(errs...)
}
