// Package sink implements the real TTY-backed serial ports.ByteSink. The
// in-memory sinks used by embedding code and tests live in pkg/bpu.
package sink

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/latticebyte/bpu/internal/ports"
)

// SerialConfig describes how to open and configure the TTY device backing a
// Serial sink.
type SerialConfig struct {
	Device   string `yaml:"device"`
	BaudRate uint32 `yaml:"baud_rate"`
}

// ApplyDefaults fills unset fields with the link's nominal configuration.
func (c *SerialConfig) ApplyDefaults() {
	if c.Device == "" {
		c.Device = "/dev/ttyUSB0"
	}
	if c.BaudRate == 0 {
		c.BaudRate = 115200
	}
}

// Validate reports whether c is usable.
func (c SerialConfig) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("serial: device path must not be empty")
	}
	return nil
}

// Serial is a ports.ByteSink backed by an open TTY file descriptor, set to
// raw mode so no line discipline interferes with framed bytes. AvailableForWrite
// queries the kernel's output queue via TIOCOUTQ rather than tracking writes
// locally, so it reflects backpressure the driver itself is applying.
type Serial struct {
	f          *os.File
	txBufBytes int
}

// OpenSerial opens cfg.Device, puts it into raw mode at cfg.BaudRate, and
// returns a ready-to-use Serial sink. txBufBytes is the assumed total size of
// the kernel's TTY output buffer, used only to clamp AvailableForWrite's
// return value to a sane upper bound.
func OpenSerial(cfg SerialConfig, txBufBytes int) (*Serial, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(cfg.Device, os.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Device, err)
	}

	if err := setRawMode(f, cfg.BaudRate); err != nil {
		f.Close()
		return nil, fmt.Errorf("serial: configure %s: %w", cfg.Device, err)
	}

	return &Serial{f: f, txBufBytes: txBufBytes}, nil
}

func setRawMode(f *os.File, baud uint32) error {
	fd := int(f.Fd())

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	rate, ok := termiosBaudConst(baud)
	if !ok {
		return fmt.Errorf("unsupported baud rate %d", baud)
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CBAUD
	t.Cflag |= unix.CS8 | rate
	t.Ispeed = rate
	t.Ospeed = rate
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	return nil
}

func termiosBaudConst(baud uint32) (uint32, bool) {
	switch baud {
	case 9600:
		return unix.B9600, true
	case 19200:
		return unix.B19200, true
	case 38400:
		return unix.B38400, true
	case 57600:
		return unix.B57600, true
	case 115200:
		return unix.B115200, true
	case 230400:
		return unix.B230400, true
	default:
		return 0, false
	}
}

// Write writes p to the TTY. The core only calls Write after checking
// AvailableForWrite, so this is expected to succeed without blocking on a
// healthy link.
func (s *Serial) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

// AvailableForWrite queries the kernel's pending-output byte count via
// TIOCOUTQ and returns the remaining headroom against txBufBytes. If the
// ioctl fails (e.g. the fd is not a TTY), it conservatively reports zero
// free space rather than risk an overrun.
func (s *Serial) AvailableForWrite() int {
	pending, err := unix.IoctlGetInt(int(s.f.Fd()), unix.TIOCOUTQ)
	if err != nil {
		return 0
	}
	free := s.txBufBytes - pending
	if free < 0 {
		return 0
	}
	return free
}

// Close drains any pending output for up to a short grace period and closes
// the underlying file descriptor.
func (s *Serial) Close() error {
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		pending, err := unix.IoctlGetInt(int(s.f.Fd()), unix.TIOCOUTQ)
		if err != nil || pending == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	return s.f.Close()
}

var _ ports.ByteSink = (*Serial)(nil)
