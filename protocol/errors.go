package protocol

import (
	"errors"
	"fmt"
)

// ErrDecode is returned when a received frame is not valid COBS.
var ErrDecode = errors.New("COBS decode error")

// ProtocolError represents a response that violates the protocol, or an
// error reported by the device itself.
type ProtocolError struct {
	// Operation is the command that failed
	Operation string

	// Detail describes what went wrong
	Detail string

	// Result is the raw result code, when the device answered with one
	Result byte

	// Remote is true when Detail is a message sent by the device (ResultError)
	Remote bool
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s failed: protocol error: %s", e.Operation, e.Detail)
}

// IsProtocolError returns true if the error is, or wraps, a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

func protocolErrorf(op byte, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{
		Operation: OpcodeName(op),
		Detail:    fmt.Sprintf(format, args...),
	}
}

// LengthError reports a caller-supplied payload of the wrong size.
// Nothing is sent to the device when it is returned.
func LengthError(op byte, what string, want, got int) *ProtocolError {
	return protocolErrorf(op, "expected %d bytes for %s, got %d", want, what, got)
}
