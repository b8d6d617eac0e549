// Package protocol implements the GB-LIVE32 cartridge controller wire protocol.
//
// This package provides the framing codec and the functions that build request
// frames and parse response frames. It performs no I/O; see package device for
// a session that drives a real connection.
//
// # Protocol Overview
//
// Every message is a COBS-encoded frame terminated by a single 0x00 byte:
//
//	Request:  COBS([PAYLOAD...][OPCODE]) 0x00
//	Response: COBS([DATA...][RESULT][OPCODE]) 0x00
//
// Where:
//   - OPCODE identifies the command (0x01..0x0A) and is echoed by the device
//   - RESULT is ResultOK (0xFF), ResultError (0xFE, DATA is a UTF-8 message)
//     or any other byte for an unrecognized failure
//
// The two bulk commands (OpWriteAll, OpReadAll) are followed by exactly
// ImageSize raw, unframed bytes in one direction.
//
// # Framing
//
// Use AppendEncode and DecodeInPlace for the consistent-overhead byte stuffing:
//
//	frame := protocol.AppendEncode(nil, payload)
//	n, err := protocol.DecodeInPlace(frame)
//
// # Requests and Responses
//
//	frame := protocol.AppendRequest(nil, protocol.OpGetStatus, nil)
//	data, err := protocol.ParseResponse(protocol.OpGetStatus, frame, protocol.StatusResponseSize)
//	status, err := protocol.ParseStatus(data)
//
// # Error Handling
//
// Malformed frames return ErrDecode. Everything else the device can get wrong
// (opcode mismatch, missing bytes, wrong length, device error messages,
// unknown result codes) is reported as a *ProtocolError.
package protocol
