package device

import (
	"errors"
	"fmt"
	"os"
)

// ErrHandshake is matched by every HandshakeError via errors.Is.
var ErrHandshake = errors.New("handshake failed")

// HandshakeError indicates that the retry budget was exhausted before the
// device echoed a ping correctly.
type HandshakeError struct {
	// Attempts is the number of failed rounds
	Attempts int

	// Last is the error of the final round, or nil if the final round got a
	// well-formed but wrong echo
	Last error
}

func (e *HandshakeError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("handshake failed after %d attempts: %v", e.Attempts, e.Last)
	}
	return fmt.Sprintf("handshake failed after %d attempts", e.Attempts)
}

func (e *HandshakeError) Unwrap() error { return e.Last }

func (e *HandshakeError) Is(target error) bool { return target == ErrHandshake }

// TransportError indicates a failure opening or configuring the underlying
// connection.
type TransportError struct {
	// Port names the connection, if known
	Port string

	// Op is the operation that failed, e.g. "open" or "set read timeout"
	Op string

	Err error
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("serial error: %s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("serial error: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IOError indicates a read, write or flush failure on an established
// connection.
type IOError struct {
	// Op is "write", "flush" or "read"
	Op string

	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("IO error: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is, or wraps, a read timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
