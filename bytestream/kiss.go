package bytestream

// KISS framing bytes.
const (
	FEND  byte = 0xC0
	FESC  byte = 0xDB
	TFEND byte = 0xDC
	TFESC byte = 0xDD
)

// KissTransformer undoes KISS escaping. An escape followed by anything but
// TFEND or TFESC aborts the frame.
type KissTransformer[T any] struct {
	abort   func(previous []byte, c byte) T
	escaped bool
}

// NewKissTransformer creates a transformer that decodes abort for a broken
// escape sequence.
func NewKissTransformer[T any](
	abort func(previous []byte, c byte) T,
) *KissTransformer[T] {
	return &KissTransformer[T]{abort: abort}
}

// Transform handles one byte of a KISS frame.
func (t *KissTransformer[T]) Transform(previous []byte, c byte) Transform[T] {
	if t.escaped {
		t.escaped = false

		switch c {
		case TFEND:
			return OneByte[T](FEND)
		case TFESC:
			return OneByte[T](FESC)
		default:
			return AbortFrame(t.abort(previous, c))
		}
	}

	if c == FESC {
		t.escaped = true
		return NoByte[T]()
	}

	return OneByte[T](c)
}

// NewKissDecoder creates a decoder for FEND delimited KISS frames.
func NewKissDecoder[T any](
	decode func(frame []byte) T,
	abort func(previous []byte, c byte) T,
) *DelimitedDecoder[T] {
	return NewTransformingDecoder[T](FEND, FEND,
		NewKissTransformer(abort), decode)
}

// EncodeKiss escapes a frame and wraps it in FEND bytes.
func EncodeKiss(frame []byte) []byte {
	out := make([]byte, 0, len(frame)+2)
	out = append(out, FEND)

	for _, c := range frame {
		switch c {
		case FEND:
			out = append(out, FESC, TFEND)
		case FESC:
			out = append(out, FESC, TFESC)
		default:
			out = append(out, c)
		}
	}

	return append(out, FEND)
}

// KissFrame is a decoded KISS frame. An aborted frame holds the bytes read
// before the broken escape.
type KissFrame struct {
	Data    []byte
	Aborted bool
}

// NewKissFrameDecoder creates a KISS decoder producing KissFrames.
func NewKissFrameDecoder() *DelimitedDecoder[KissFrame] {
	return NewKissDecoder(
		func(frame []byte) KissFrame {
			return KissFrame{Data: append([]byte(nil), frame...)}
		},
		func(previous []byte, _ byte) KissFrame {
			return KissFrame{Data: append([]byte(nil), previous...), Aborted: true}
		},
	)
}
