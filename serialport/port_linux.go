package serialport

import (
	"errors"
	"fmt"

	"github.com/Gurux/gxcommon-go"
	"golang.org/x/sys/unix"

	"github.com/sarchlab/akitaio/iothread"
)

const cmspar = 0x40000000

var baudRates = map[int]uint32{
	50:     unix.B50,
	75:     unix.B75,
	110:    unix.B110,
	134:    unix.B134,
	150:    unix.B150,
	200:    unix.B200,
	300:    unix.B300,
	600:    unix.B600,
	1200:   unix.B1200,
	1800:   unix.B1800,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
	460800: unix.B460800,
	921600: unix.B921600,
}

// Port is a serial line in raw mode.
type Port struct {
	*iothread.StreamMedium
}

// Open opens and configures the serial line.
func Open(cfg Config) (*Port, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fd, err := unix.Open(cfg.Path,
		unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}

	if err := configure(fd, cfg); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("configure %s: %w", cfg.Path, err)
	}

	m, err := iothread.NewStreamMedium(cfg.Path, fd, cfg.BufferSize)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	return &Port{StreamMedium: m}, nil
}

func configure(fd int, cfg Config) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}

	t.Cflag |= unix.CLOCAL | unix.CREAD
	t.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ECHOK |
		unix.ECHONL | unix.ISIG | unix.IEXTEN
	t.Oflag &^= unix.OPOST | unix.ONLCR | unix.OCRNL
	t.Iflag &^= unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IGNBRK |
		unix.IXON | unix.IXOFF | unix.INPCK | unix.ISTRIP
	t.Cflag &^= unix.CRTSCTS
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	if cfg.BaudRate != 0 {
		speed, ok := baudRates[int(cfg.BaudRate)]
		if !ok {
			return fmt.Errorf("unsupported baud rate %d", int(cfg.BaudRate))
		}

		t.Cflag &^= unix.CBAUD
		t.Cflag |= speed
		t.Ispeed = speed
		t.Ospeed = speed
	}

	t.Cflag &^= unix.CSIZE
	switch cfg.DataBits {
	case 5:
		t.Cflag |= unix.CS5
	case 6:
		t.Cflag |= unix.CS6
	case 7:
		t.Cflag |= unix.CS7
	default:
		t.Cflag |= unix.CS8
	}

	if cfg.StopBits == gxcommon.StopBitsTwo {
		t.Cflag |= unix.CSTOPB
	} else {
		t.Cflag &^= unix.CSTOPB
	}

	t.Cflag &^= unix.PARENB | unix.PARODD | cmspar
	switch cfg.Parity {
	case gxcommon.ParityNone:
	case gxcommon.ParityEven:
		t.Cflag |= unix.PARENB
	case gxcommon.ParityOdd:
		t.Cflag |= unix.PARENB | unix.PARODD
	case gxcommon.ParityMark:
		t.Cflag |= unix.PARENB | unix.PARODD | cmspar
	case gxcommon.ParitySpace:
		t.Cflag |= unix.PARENB | cmspar
	default:
		return errors.New("invalid parity")
	}

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return err
	}

	return unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH)
}
