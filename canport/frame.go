// Package canport bridges SocketCAN interfaces to a simulation. One guard
// serves every configured interface; inbound payloads carry the index of
// the interface they came from and outbound payloads are routed by it.
package canport

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// FrameSize is the size of a classic CAN frame on a raw socket.
const FrameSize = 16

const (
	flagExtended = 0x80000000
	flagRTR      = 0x40000000
	flagError    = 0x20000000

	maskStandard = 0x000007ff
	maskExtended = 0x1fffffff
)

// ErrBadFrame is returned when a frame cannot be encoded or decoded.
var ErrBadFrame = errors.New("bad CAN frame")

// A Frame is a classic CAN 2.0 frame.
type Frame struct {
	ID       uint32
	Extended bool
	RTR      bool
	Len      uint8
	Data     [8]byte
}

// NewFrame creates a data frame with a standard or extended id, depending on
// whether id fits in 11 bits.
func NewFrame(id uint32, data []byte) (Frame, error) {
	f := Frame{ID: id, Extended: id > maskStandard, Len: uint8(len(data))}
	if len(data) > len(f.Data) {
		return Frame{}, fmt.Errorf("%w: %d data bytes", ErrBadFrame, len(data))
	}

	copy(f.Data[:], data)

	return f, f.Validate()
}

// Payload returns the used part of the data field.
func (f Frame) Payload() []byte {
	return f.Data[:f.Len]
}

// Validate checks the id range and the data length.
func (f Frame) Validate() error {
	if f.Len > 8 {
		return fmt.Errorf("%w: length %d", ErrBadFrame, f.Len)
	}

	if f.Extended && f.ID > maskExtended {
		return fmt.Errorf("%w: extended id %#x", ErrBadFrame, f.ID)
	}

	if !f.Extended && f.ID > maskStandard {
		return fmt.Errorf("%w: standard id %#x", ErrBadFrame, f.ID)
	}

	return nil
}

// MarshalBinary encodes the frame in the kernel's can_frame layout.
func (f Frame) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, FrameSize)

	id := f.ID
	if f.Extended {
		id |= flagExtended
	}

	if f.RTR {
		id |= flagRTR
	}

	binary.NativeEndian.PutUint32(buf[0:4], id)
	buf[4] = f.Len
	copy(buf[8:], f.Data[:f.Len])

	return buf, nil
}

// UnmarshalBinary decodes a can_frame. Error frames are rejected.
func (f *Frame) UnmarshalBinary(buf []byte) error {
	if len(buf) != FrameSize {
		return fmt.Errorf("%w: %d bytes", ErrBadFrame, len(buf))
	}

	raw := binary.NativeEndian.Uint32(buf[0:4])
	if raw&flagError != 0 {
		return fmt.Errorf("%w: error frame %#x", ErrBadFrame, raw)
	}

	next := Frame{
		Extended: raw&flagExtended != 0,
		RTR:      raw&flagRTR != 0,
		Len:      buf[4],
	}

	if next.Extended {
		next.ID = raw & maskExtended
	} else {
		next.ID = raw & maskStandard
	}

	if next.Len > 8 {
		return fmt.Errorf("%w: length %d", ErrBadFrame, next.Len)
	}

	copy(next.Data[:], buf[8:8+next.Len])
	*f = next

	return nil
}

// String prints the frame the way candump does.
func (f Frame) String() string {
	id := fmt.Sprintf("%03X", f.ID)
	if f.Extended {
		id = fmt.Sprintf("%08X", f.ID)
	}

	if f.RTR {
		return fmt.Sprintf("%s#R", id)
	}

	return fmt.Sprintf("%s#%X", id, f.Payload())
}

// Data is a frame together with the index of the interface it was received
// on or is to be sent on.
type Data struct {
	Interface int
	Frame     Frame
}
