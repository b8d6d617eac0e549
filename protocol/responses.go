package protocol

import (
	"fmt"
	"strings"
)

// ParseResponse decodes a response frame (without its delimiter) in place
// and validates it against the request opcode and the expected data length.
//
// Response frame structure before encoding:
//
//	[DATA...][RESULT][OPCODE]
//
// The opcode is checked first, then the result code. On ResultOK the data must
// be exactly expectedLen bytes. The returned slice aliases frame.
func ParseResponse(opcode byte, frame []byte, expectedLen int) ([]byte, error) {
	n, err := DecodeInPlace(frame)
	if err != nil {
		return nil, err
	}
	buf := frame[:n]

	if len(buf) == 0 {
		return nil, protocolErrorf(opcode, "missing command byte")
	}
	respOp := buf[len(buf)-1]
	buf = buf[:len(buf)-1]
	if respOp != opcode {
		return nil, protocolErrorf(opcode, "command byte mismatch 0x%02x vs 0x%02x", respOp, opcode)
	}

	if len(buf) == 0 {
		return nil, protocolErrorf(opcode, "missing result byte")
	}
	result := buf[len(buf)-1]
	buf = buf[:len(buf)-1]

	switch result {
	case ResultOK:
		if len(buf) != expectedLen {
			return nil, protocolErrorf(opcode, "expected %d bytes in response, got %d", expectedLen, len(buf))
		}
		return buf, nil
	case ResultError:
		return nil, &ProtocolError{
			Operation: OpcodeName(opcode),
			Detail:    strings.ToValidUTF8(string(buf), "�"),
			Result:    result,
			Remote:    true,
		}
	default:
		return nil, &ProtocolError{
			Operation: OpcodeName(opcode),
			Detail:    fmt.Sprintf("result %02x", result),
			Result:    result,
		}
	}
}

// ParseVersionResponse parses the GetVersion response data.
//
// Data format (2 bytes):
//
//	[MAJOR][MINOR]
func ParseVersionResponse(data []byte) (Version, error) {
	if len(data) != VersionResponseSize {
		return Version{}, fmt.Errorf("invalid data length for GetVersion response: got %d bytes, expected %d", len(data), VersionResponseSize)
	}
	return Version{Major: data[0], Minor: data[1]}, nil
}

// ParseStatus parses the GetStatus response data. Any non-zero byte is true.
//
// Data format (3 bytes):
//
//	[UNLOCKED][PASSTHROUGH][RESET]
func ParseStatus(data []byte) (Status, error) {
	if len(data) != StatusResponseSize {
		return Status{}, fmt.Errorf("invalid data length for GetStatus response: got %d bytes, expected %d", len(data), StatusResponseSize)
	}
	return Status{
		Unlocked:    data[0] != 0x00,
		Passthrough: data[1] != 0x00,
		Reset:       data[2] != 0x00,
	}, nil
}

// StatusBytes is the device side of ParseStatus.
func StatusBytes(s Status) []byte {
	b := func(v bool) byte {
		if v {
			return 0x01
		}
		return 0x00
	}
	return []byte{b(s.Unlocked), b(s.Passthrough), b(s.Reset)}
}
