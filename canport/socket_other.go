//go:build !linux

package canport

import "github.com/sarchlab/akitaio/iothread"

// Socket is only available on Linux.
type Socket struct {
	iothread.Medium[Data, Data]
}

// Open always fails on this platform.
func Open(ifname string, index int) (*Socket, error) {
	return nil, iothread.ErrUnsupportedPlatform
}
