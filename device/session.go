package device

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-gblive32/protocol"
)

// Conn is the byte stream a Session talks over. A serial port opened with
// package serialport satisfies it. Read must return an error for which
// IsTimeout is true when the read timeout expires.
type Conn interface {
	io.ReadWriter
	SetReadTimeout(timeout time.Duration) error
}

// Session is an established, handshaken link to one GB-LIVE32 controller.
//
// A Session is not safe for concurrent use: the protocol is strictly
// half-duplex and a Session never has more than one request in flight.
type Session struct {
	conn   Conn
	r      *bufio.Reader
	w      *bufio.Writer
	config Config

	raw  []byte // payload||opcode scratch
	wbuf []byte // encoded frame scratch
	rbuf []byte // read accumulation buffer
}

// Open configures conn, performs the ping handshake and returns a ready
// Session.
//
// The handshake sends random 8-byte pings until one is echoed back intact.
// Read timeouts, decode errors and protocol errors (including a wrong echo)
// count as failed rounds; any other error is returned immediately. After
// more than HandshakeRetries failed rounds Open returns a *HandshakeError.
//
// Example:
//
//	port, err := serialport.Open("/dev/ttyACM0")
//	sess, err := device.Open(port, device.WithLogger(golog.Default))
func Open(conn Conn, opts ...Option) (*Session, error) {
	if conn == nil {
		return nil, &TransportError{Op: "open", Err: errors.New("connection cannot be nil")}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := conn.SetReadTimeout(cfg.ReadTimeout); err != nil {
		return nil, &TransportError{Port: cfg.Name, Op: "set read timeout", Err: err}
	}

	s := &Session{
		conn:   conn,
		r:      bufio.NewReader(conn),
		w:      bufio.NewWriter(conn),
		config: cfg,
		raw:    make([]byte, 0, protocol.BlockSize+2),
		wbuf:   make([]byte, 0, protocol.MaxFrameSize),
		rbuf:   make([]byte, 0, 512),
	}

	if err := s.handshake(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) handshake() error {
	challenge := make([]byte, protocol.PingSize)
	failures := 0

	for {
		if _, err := io.ReadFull(s.config.Entropy, challenge); err != nil {
			return fmt.Errorf("generate handshake: %w", err)
		}

		ok, err := s.Ping(challenge)
		switch {
		case err == nil && ok:
			s.logDebug("handshake complete after %d failed attempts", failures)
			return nil
		case err == nil:
			s.logDebug("handshake attempt %d: echo mismatch", failures+1)
		case isRetryable(err):
			s.logDebug("handshake attempt %d: %v", failures+1, err)
		default:
			return err
		}

		failures++
		if failures > s.config.HandshakeRetries {
			return &HandshakeError{Attempts: failures, Last: err}
		}
	}
}

// isRetryable reports whether a handshake round failure may be retried.
// Only timeouts, decode errors and protocol errors qualify; other I/O
// failures are treated as a broken connection.
func isRetryable(err error) bool {
	return errors.Is(err, protocol.ErrDecode) || protocol.IsProtocolError(err) || IsTimeout(err)
}

// RequestResponse sends one framed request and reads back one framed
// response, which must echo opcode, carry ResultOK and exactly expectedLen
// data bytes.
//
// The returned slice aliases the Session's read buffer and is only valid
// until the next request.
func (s *Session) RequestResponse(opcode byte, payload []byte, expectedLen int) ([]byte, error) {
	s.raw = append(append(s.raw[:0], payload...), opcode)
	s.wbuf = protocol.AppendEncode(s.wbuf[:0], s.raw)
	s.wbuf = append(s.wbuf, protocol.Delimiter)

	if _, err := s.w.Write(s.wbuf); err != nil {
		return nil, &IOError{Op: "write", Err: err}
	}
	if err := s.w.Flush(); err != nil {
		return nil, &IOError{Op: "flush", Err: err}
	}

	if err := s.readFrame(); err != nil {
		return nil, err
	}

	return protocol.ParseResponse(opcode, s.rbuf, expectedLen)
}

// readFrame reads up to and including the next delimiter into rbuf and
// strips the delimiter.
func (s *Session) readFrame() error {
	s.rbuf = s.rbuf[:0]
	for {
		chunk, err := s.r.ReadSlice(protocol.Delimiter)
		s.rbuf = append(s.rbuf, chunk...)
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			return &IOError{Op: "read", Err: err}
		}
		s.rbuf = s.rbuf[:len(s.rbuf)-1]
		return nil
	}
}

// Ping sends an 8-byte challenge and reports whether the device echoed it.
func (s *Session) Ping(data []byte) (bool, error) {
	if len(data) != protocol.PingSize {
		return false, protocol.LengthError(protocol.OpPing, "ping", protocol.PingSize, len(data))
	}
	resp, err := s.RequestResponse(protocol.OpPing, data, protocol.PingSize)
	if err != nil {
		return false, err
	}
	return bytes.Equal(resp, data), nil
}

// GetVersion returns the controller firmware version.
func (s *Session) GetVersion() (protocol.Version, error) {
	data, err := s.RequestResponse(protocol.OpGetVersion, nil, protocol.VersionResponseSize)
	if err != nil {
		return protocol.Version{}, err
	}
	return protocol.ParseVersionResponse(data)
}

// GetStatus returns the unlocked, passthrough and reset flags.
func (s *Session) GetStatus() (protocol.Status, error) {
	data, err := s.RequestResponse(protocol.OpGetStatus, nil, protocol.StatusResponseSize)
	if err != nil {
		return protocol.Status{}, err
	}
	return protocol.ParseStatus(data)
}

// SetUnlocked enables or disables write access.
func (s *Session) SetUnlocked(v bool) error {
	_, err := s.RequestResponse(protocol.OpSetUnlocked, protocol.BoolPayload(v), 0)
	return err
}

// SetPassthrough connects or disconnects the target system bus.
func (s *Session) SetPassthrough(v bool) error {
	_, err := s.RequestResponse(protocol.OpSetPassthrough, protocol.BoolPayload(v), 0)
	return err
}

// SetReset asserts or releases the target reset line.
func (s *Session) SetReset(v bool) error {
	_, err := s.RequestResponse(protocol.OpSetReset, protocol.BoolPayload(v), 0)
	return err
}

// ReadBlock reads the 256-byte page at addrHigh<<8. The result aliases the
// read buffer and is only valid until the next request.
func (s *Session) ReadBlock(addrHigh byte) ([]byte, error) {
	return s.RequestResponse(protocol.OpReadBlock, []byte{addrHigh}, protocol.BlockSize)
}

// WriteBlock writes one 256-byte page at addrHigh<<8. The device must be
// unlocked and not in passthrough mode.
func (s *Session) WriteBlock(addrHigh byte, data []byte) error {
	if len(data) != protocol.BlockSize {
		return protocol.LengthError(protocol.OpWriteBlock, "writing", protocol.BlockSize, len(data))
	}
	payload := make([]byte, 0, 1+protocol.BlockSize)
	payload = append(payload, addrHigh)
	payload = append(payload, data...)
	_, err := s.RequestResponse(protocol.OpWriteBlock, payload, 0)
	return err
}

// WriteAll arms bulk-write mode and then writes image as exactly
// protocol.ImageSize raw, unframed bytes, followed by a flush.
//
// len(image) must equal protocol.ImageSize; nothing is sent otherwise.
func (s *Session) WriteAll(image []byte) error {
	if len(image) != protocol.ImageSize {
		return protocol.LengthError(protocol.OpWriteAll, "writing", protocol.ImageSize, len(image))
	}
	if _, err := s.RequestResponse(protocol.OpWriteAll, nil, 0); err != nil {
		return err
	}
	if _, err := s.w.Write(image); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	if err := s.w.Flush(); err != nil {
		return &IOError{Op: "flush", Err: err}
	}
	return nil
}

// ReadAll arms bulk-read mode and then reads exactly protocol.ImageSize raw,
// unframed bytes. A short read is an *IOError.
func (s *Session) ReadAll() ([]byte, error) {
	if _, err := s.RequestResponse(protocol.OpReadAll, nil, 0); err != nil {
		return nil, err
	}
	buf := make([]byte, protocol.ImageSize)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return nil, &IOError{Op: "read", Err: err}
	}
	return buf, nil
}

func (s *Session) logDebug(format string, args ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debugf(s.prefix()+format, args...)
	}
}

func (s *Session) prefix() string {
	if s.config.Name == "" {
		return ""
	}
	return s.config.Name + ": "
}
