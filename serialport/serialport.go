// Package serialport opens GB-LIVE32 controllers over USB CDC serial using
// go.bug.st/serial and finds them by USB vendor and product ID.
package serialport

import (
	"io"
	"os"
	"time"

	"go.bug.st/serial"

	"github.com/moffa90/go-gblive32/device"
)

// DefaultBaudRate is used unless WithBaudRate says otherwise. The device is
// USB CDC, so the value only matters to the host driver.
const DefaultBaudRate = 115200

// rawPort is the part of serial.Port that Port uses.
type rawPort interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// openRaw is replaced in tests.
var openRaw = func(name string, mode *serial.Mode) (rawPort, error) {
	return serial.Open(name, mode)
}

// Config holds the port settings.
type Config struct {
	BaudRate int
}

// Option is a functional option for Open.
type Option func(*Config)

// WithBaudRate sets the line speed.
func WithBaudRate(baud int) Option {
	return func(c *Config) {
		if baud > 0 {
			c.BaudRate = baud
		}
	}
}

// Port is an open serial port. It satisfies device.Conn and io.Closer.
type Port struct {
	name string
	p    rawPort
}

// Open opens the named port at 8N1 and discards anything already waiting
// in the input buffer. Failures are returned as *device.TransportError.
//
// Example:
//
//	port, err := serialport.Open("/dev/ttyACM0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
func Open(name string, opts ...Option) (*Port, error) {
	cfg := Config{BaudRate: DefaultBaudRate}
	for _, opt := range opts {
		opt(&cfg)
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := openRaw(name, mode)
	if err != nil {
		return nil, &device.TransportError{Port: name, Op: "open", Err: err}
	}
	if err := p.ResetInputBuffer(); err != nil {
		_ = p.Close()
		return nil, &device.TransportError{Port: name, Op: "reset input buffer", Err: err}
	}
	return &Port{name: name, p: p}, nil
}

// Name returns the port name passed to Open.
func (p *Port) Name() string { return p.name }

// Read reads from the port. A read that times out with no data returns
// os.ErrDeadlineExceeded; go.bug.st/serial itself reports it as 0, nil.
func (p *Port) Read(b []byte) (int, error) {
	n, err := p.p.Read(b)
	if n == 0 && err == nil && len(b) > 0 {
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}

// Write writes to the port.
func (p *Port) Write(b []byte) (int, error) {
	return p.p.Write(b)
}

// SetReadTimeout sets the per-read timeout.
func (p *Port) SetReadTimeout(timeout time.Duration) error {
	return p.p.SetReadTimeout(timeout)
}

// Close closes the port.
func (p *Port) Close() error {
	return p.p.Close()
}
