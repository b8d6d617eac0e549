// Package simulator provides an in-memory model of the GB-LIVE32 controller
// firmware. It implements device.Conn and io.Closer so sessions, workflows and
// the fleet runner can be exercised without hardware.
//
// The model follows the firmware's rules: block and bulk commands are refused
// with an error message while the device is locked or in passthrough mode,
// and a bulk-write command switches the input into raw mode for exactly
// protocol.ImageSize bytes.
package simulator

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/moffa90/go-gblive32/protocol"
)

// Device simulates one controller. Writes are processed synchronously, so
// every response is already queued by the time Write returns. A Read with
// nothing queued fails immediately with os.ErrDeadlineExceeded, like a
// serial read that hits its timeout.
type Device struct {
	mu sync.Mutex

	version protocol.Version
	state   protocol.Status
	memory  []byte

	in        []byte
	out       bytes.Buffer
	bulkWrite int

	commands    []byte
	pings       int
	readTimeout time.Duration
	closed      bool

	faults faults
}

type faults struct {
	silentPing    bool
	corruptPing   bool
	ignoreUnlock  bool
	flipIndex     int
	replyOpcode   map[byte]byte
	setTimeoutErr error
	writeErr      error
}

// Option configures a simulated Device.
type Option func(*Device)

// New creates a locked device running firmware v2.1 with zeroed memory.
func New(opts ...Option) *Device {
	d := &Device{
		version: protocol.Version{Major: 2, Minor: 1},
		memory:  make([]byte, protocol.ImageSize),
		faults: faults{
			flipIndex:   -1,
			replyOpcode: make(map[byte]byte),
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithVersion sets the firmware version reported by GetVersion.
func WithVersion(major, minor byte) Option {
	return func(d *Device) {
		d.version = protocol.Version{Major: major, Minor: minor}
	}
}

// WithStatus sets the initial state flags.
func WithStatus(s protocol.Status) Option {
	return func(d *Device) {
		d.state = s
	}
}

// WithSilentPing makes the device ignore every ping, so each handshake round
// ends in a read timeout.
func WithSilentPing() Option {
	return func(d *Device) {
		d.faults.silentPing = true
	}
}

// WithCorruptPing makes the device answer pings with a damaged echo.
func WithCorruptPing() Option {
	return func(d *Device) {
		d.faults.corruptPing = true
	}
}

// WithIgnoredUnlock makes SetUnlocked succeed without unlocking the device.
func WithIgnoredUnlock() Option {
	return func(d *Device) {
		d.faults.ignoreUnlock = true
	}
}

// WithFlippedByte inverts the byte at index in every bulk read.
func WithFlippedByte(index int) Option {
	return func(d *Device) {
		d.faults.flipIndex = index
	}
}

// WithOpcodeReply makes the device answer requests for opcode with reply
// as the echoed opcode.
func WithOpcodeReply(opcode, reply byte) Option {
	return func(d *Device) {
		d.faults.replyOpcode[opcode] = reply
	}
}

// WithStaleBytes queues bytes for the host before any request is made, as
// left behind in a USB-serial buffer by a previous session.
func WithStaleBytes(b []byte) Option {
	return func(d *Device) {
		d.out.Write(b)
	}
}

// WithSetTimeoutError makes SetReadTimeout fail with err.
func WithSetTimeoutError(err error) Option {
	return func(d *Device) {
		d.faults.setTimeoutErr = err
	}
}

// WithWriteError makes every Write fail with err.
func WithWriteError(err error) Option {
	return func(d *Device) {
		d.faults.writeErr = err
	}
}

// Read implements io.Reader.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, os.ErrClosed
	}
	if d.out.Len() == 0 {
		return 0, os.ErrDeadlineExceeded
	}
	return d.out.Read(p)
}

// Write implements io.Writer. Complete frames are dispatched as soon as
// their delimiter arrives; bytes following an armed bulk write go straight
// to memory.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, os.ErrClosed
	}
	if d.faults.writeErr != nil {
		return 0, d.faults.writeErr
	}

	for _, b := range p {
		if d.bulkWrite > 0 {
			d.memory[protocol.ImageSize-d.bulkWrite] = b
			d.bulkWrite--
			continue
		}
		if b != protocol.Delimiter {
			d.in = append(d.in, b)
			continue
		}
		frame := append([]byte(nil), d.in...)
		d.in = d.in[:0]
		d.dispatch(frame)
	}
	return len(p), nil
}

// SetReadTimeout records the timeout; reads never block.
func (d *Device) SetReadTimeout(timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.faults.setTimeoutErr != nil {
		return d.faults.setTimeoutErr
	}
	d.readTimeout = timeout
	return nil
}

// Close marks the device closed; further reads and writes fail.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close was called.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// ReadTimeout returns the last timeout set with SetReadTimeout.
func (d *Device) ReadTimeout() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readTimeout
}

// State returns the current state flags.
func (d *Device) State() protocol.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Memory returns a copy of the simulated cartridge memory.
func (d *Device) Memory() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.memory...)
}

// Commands returns the opcodes received so far, in order.
func (d *Device) Commands() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.commands...)
}

// Pings returns the number of ping requests received.
func (d *Device) Pings() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pings
}

func (d *Device) dispatch(frame []byte) {
	opcode, payload, err := protocol.ParseRequest(frame)
	if err != nil {
		// Firmware drops frames it cannot decode
		return
	}
	d.commands = append(d.commands, opcode)

	switch {
	case opcode == protocol.OpPing && len(payload) <= protocol.PingSize:
		d.pings++
		if d.faults.silentPing {
			return
		}
		echo := append([]byte(nil), payload...)
		if d.faults.corruptPing && len(echo) > 0 {
			echo[0] ^= 0xFF
		}
		d.respond(opcode, echo)

	case opcode == protocol.OpGetVersion && len(payload) == 0:
		d.respond(opcode, []byte{d.version.Major, d.version.Minor})

	case opcode == protocol.OpGetStatus && len(payload) == 0:
		d.respond(opcode, protocol.StatusBytes(d.state))

	case opcode == protocol.OpSetUnlocked && len(payload) == 1:
		if !d.faults.ignoreUnlock {
			d.state.Unlocked = payload[0] != 0
		}
		d.respond(opcode, nil)

	case opcode == protocol.OpSetPassthrough && len(payload) == 1:
		d.state.Passthrough = payload[0] != 0
		d.respond(opcode, nil)

	case opcode == protocol.OpSetReset && len(payload) == 1:
		d.state.Reset = payload[0] != 0
		d.respond(opcode, nil)

	case opcode == protocol.OpReadBlock && len(payload) == 1:
		if d.refuse(opcode, "block reads") {
			return
		}
		start := blockStart(payload[0])
		d.respond(opcode, d.memory[start:start+protocol.BlockSize])

	case opcode == protocol.OpWriteBlock && len(payload) == 1+protocol.BlockSize:
		if d.refuse(opcode, "block writes") {
			return
		}
		start := blockStart(payload[0])
		copy(d.memory[start:start+protocol.BlockSize], payload[1:])
		d.respond(opcode, nil)

	case opcode == protocol.OpWriteAll && len(payload) == 0:
		if d.refuse(opcode, "rx stream") {
			return
		}
		d.respond(opcode, nil)
		d.bulkWrite = protocol.ImageSize

	case opcode == protocol.OpReadAll && len(payload) == 0:
		if d.refuse(opcode, "tx stream") {
			return
		}
		d.respond(opcode, nil)
		image := append([]byte(nil), d.memory...)
		if i := d.faults.flipIndex; i >= 0 && i < len(image) {
			image[i] ^= 0xFF
		}
		d.out.Write(image)

	default:
		d.respondError(opcode, fmt.Sprintf("Unsupported command: 0x%02X", opcode))
	}
}

// blockStart maps a block address onto memory. A15 is not wired to the
// cartridge RAM, so addresses 0x80 and up alias the lower half.
func blockStart(addrHigh byte) int {
	return int(addrHigh&0x7F) << 8
}

// refuse answers with the firmware's error message when the device is not
// in a state that allows memory access.
func (d *Device) refuse(opcode byte, what string) bool {
	switch {
	case !d.state.Unlocked:
		d.respondError(opcode, "Locked: "+what+" not allowed")
		return true
	case d.state.Passthrough:
		d.respondError(opcode, "Pass-through mode: "+what+" not allowed")
		return true
	}
	return false
}

func (d *Device) respond(opcode byte, data []byte) {
	d.out.Write(protocol.AppendResponse(nil, d.replyOpcode(opcode), protocol.ResultOK, data))
}

func (d *Device) respondError(opcode byte, msg string) {
	d.out.Write(protocol.AppendResponse(nil, d.replyOpcode(opcode), protocol.ResultError, []byte(msg)))
}

func (d *Device) replyOpcode(opcode byte) byte {
	if reply, ok := d.faults.replyOpcode[opcode]; ok {
		return reply
	}
	return opcode
}
