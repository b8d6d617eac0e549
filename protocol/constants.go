package protocol

import "fmt"

// Delimiter terminates every frame on the wire. It never appears inside an
// encoded frame.
const Delimiter = 0x00

// Command opcodes understood by the GB-LIVE32 firmware.
const (
	// OpPing echoes an 8-byte payload
	OpPing = 0x01

	// OpGetVersion returns the firmware version (major, minor)
	OpGetVersion = 0x02

	// OpGetStatus returns the unlocked, passthrough and reset flags
	OpGetStatus = 0x03

	// OpSetUnlocked enables or disables write access
	OpSetUnlocked = 0x04

	// OpSetPassthrough connects or disconnects the target system bus
	OpSetPassthrough = 0x05

	// OpSetReset asserts or releases the target reset line
	OpSetReset = 0x06

	// OpReadBlock reads one 256-byte page
	OpReadBlock = 0x07

	// OpWriteBlock writes one 256-byte page
	OpWriteBlock = 0x08

	// OpWriteAll arms bulk-write mode for ImageSize raw bytes
	OpWriteAll = 0x09

	// OpReadAll arms bulk-read mode for ImageSize raw bytes
	OpReadAll = 0x0A
)

// Result codes carried in the second-to-last byte of a response.
const (
	// ResultOK means the response data is the command's payload
	ResultOK = 0xFF

	// ResultError means the response data is a UTF-8 diagnostic message
	ResultError = 0xFE
)

// Payload and response sizes.
const (
	// PingSize is the size of the ping payload and its echo
	PingSize = 8

	// VersionResponseSize is the data size of a GetVersion response
	VersionResponseSize = 2

	// StatusResponseSize is the data size of a GetStatus response
	StatusResponseSize = 3

	// BlockSize is the size of one page for ReadBlock/WriteBlock
	BlockSize = 256

	// ImageSize is the size of a full ROM image moved by the bulk commands
	ImageSize = 0x8000

	// MaxRunLength is the longest run of non-zero bytes in one COBS block
	MaxRunLength = 254
)

// MaxFrameSize is the largest encoded request the host ever sends:
// a WriteBlock payload plus opcode, worst-case COBS overhead and delimiter.
const MaxFrameSize = 1 + BlockSize + 1 + (1+BlockSize+1)/MaxRunLength + 1 + 1

// OpcodeName returns a human-readable name for an opcode.
func OpcodeName(op byte) string {
	switch op {
	case OpPing:
		return "ping"
	case OpGetVersion:
		return "get version"
	case OpGetStatus:
		return "get status"
	case OpSetUnlocked:
		return "set unlocked"
	case OpSetPassthrough:
		return "set passthrough"
	case OpSetReset:
		return "set reset"
	case OpReadBlock:
		return "read block"
	case OpWriteBlock:
		return "write block"
	case OpWriteAll:
		return "write all"
	case OpReadAll:
		return "read all"
	default:
		return fmt.Sprintf("opcode 0x%02x", op)
	}
}
