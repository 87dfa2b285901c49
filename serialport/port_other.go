//go:build !linux

package serialport

import "github.com/sarchlab/akitaio/iothread"

// Port is a serial line in raw mode.
type Port struct {
	iothread.Medium[[]byte, []byte]
}

// Open is only supported on Linux.
func Open(_ Config) (*Port, error) {
	return nil, iothread.ErrUnsupportedPlatform
}
