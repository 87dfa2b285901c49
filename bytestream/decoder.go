package bytestream

// Result tells what a call to Decode did with the buffer.
type Result int

const (
	// Empty means the buffer was consumed and nothing was decoded.
	Empty Result = iota

	// Partial means the buffer was consumed in the middle of a frame.
	Partial

	// Ignored means part of the buffer was skipped and more may follow.
	Ignored

	// Decoded means a value was decoded and more may follow.
	Decoded
)

func (r Result) String() string {
	switch r {
	case Empty:
		return "Empty"
	case Partial:
		return "Partial"
	case Ignored:
		return "Ignored"
	case Decoded:
		return "Decoded"
	default:
		return "Unknown"
	}
}

// A Decoder consumes bytes from a buffer. The value is only meaningful when
// the result is Decoded.
type Decoder[T any] interface {
	Decode(b *Buffer) (T, Result)
}

// DecodeAll calls Decode until the buffer needs more input and returns the
// decoded values in order.
func DecodeAll[T any](d Decoder[T], b *Buffer) []T {
	var out []T

	for {
		v, r := d.Decode(b)
		switch r {
		case Decoded:
			out = append(out, v)
		case Ignored:
		default:
			return out
		}
	}
}

// TransformKind says what a Transformer made of one input byte.
type TransformKind int

// The kinds of transformation.
const (
	TransformNone TransformKind = iota
	TransformOne
	TransformMany
	TransformAbort
)

// Transform is the output of a Transformer for one byte.
type Transform[T any] struct {
	Kind  TransformKind
	Bytes []byte

	// Value is decoded in place of the frame when Kind is TransformAbort.
	Value T
}

// NoByte drops the input byte.
func NoByte[T any]() Transform[T] {
	return Transform[T]{Kind: TransformNone}
}

// OneByte replaces the input byte with c.
func OneByte[T any](c byte) Transform[T] {
	return Transform[T]{Kind: TransformOne, Bytes: []byte{c}}
}

// ManyBytes replaces the input byte with bs.
func ManyBytes[T any](bs []byte) Transform[T] {
	return Transform[T]{Kind: TransformMany, Bytes: bs}
}

// AbortFrame ends the current frame and decodes v instead.
func AbortFrame[T any](v T) Transform[T] {
	return Transform[T]{Kind: TransformAbort, Value: v}
}

// A Transformer rewrites the bytes of a frame one by one, for example to
// undo escaping. previous holds the frame bytes produced so far.
type Transformer[T any] interface {
	Transform(previous []byte, c byte) Transform[T]
}

// PassThrough keeps every byte.
type PassThrough[T any] struct{}

// Transform returns c unchanged.
func (PassThrough[T]) Transform(_ []byte, c byte) Transform[T] {
	return OneByte[T](c)
}

// DelimitedDecoder decodes frames that begin with a start byte and end with
// an end byte. Bytes outside a frame are skipped and empty frames are
// ignored. When start and end are equal, the end byte of an empty frame
// starts the next one.
type DelimitedDecoder[T any] struct {
	start, end  byte
	transformer Transformer[T]
	decode      func(frame []byte) T

	decoding bool
	frame    []byte
}

// NewDelimitedDecoder creates a decoder that keeps frame bytes unchanged.
func NewDelimitedDecoder[T any](
	start, end byte,
	decode func(frame []byte) T,
) *DelimitedDecoder[T] {
	return NewTransformingDecoder[T](start, end, PassThrough[T]{}, decode)
}

// NewTransformingDecoder creates a decoder that passes frame bytes through
// a transformer.
func NewTransformingDecoder[T any](
	start, end byte,
	transformer Transformer[T],
	decode func(frame []byte) T,
) *DelimitedDecoder[T] {
	return &DelimitedDecoder[T]{
		start:       start,
		end:         end,
		transformer: transformer,
		decode:      decode,
		frame:       make([]byte, 0, 1024),
	}
}

// Decode decodes at most one frame.
func (d *DelimitedDecoder[T]) Decode(b *Buffer) (T, Result) {
	var zero T

	for {
		if !d.decoding {
			d.frame = d.frame[:0]
			if !d.skipToStart(b) {
				return zero, Empty
			}

			b.Advance(1)
			d.decoding = true
		}

		for {
			c, ok := b.Peek()
			if !ok {
				return zero, Partial
			}

			if c == d.end {
				break
			}

			b.Advance(1)

			t := d.transformer.Transform(d.frame, c)
			switch t.Kind {
			case TransformOne, TransformMany:
				d.frame = append(d.frame, t.Bytes...)
			case TransformAbort:
				d.decoding = false
				return t.Value, Decoded
			}
		}

		d.decoding = false
		if len(d.frame) > 0 {
			break
		}
	}

	b.Advance(1)

	return d.decode(d.frame), Decoded
}

func (d *DelimitedDecoder[T]) skipToStart(b *Buffer) bool {
	for {
		c, ok := b.Peek()
		if !ok {
			return false
		}

		if c == d.start {
			return true
		}

		b.Advance(1)
	}
}
