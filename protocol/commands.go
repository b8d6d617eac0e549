package protocol

// AppendRequest appends a complete request frame to dst: the COBS encoding of
// payload followed by the opcode, then the Delimiter.
//
// Frame structure before encoding:
//
//	[PAYLOAD...][OPCODE]
func AppendRequest(dst []byte, opcode byte, payload []byte) []byte {
	raw := make([]byte, 0, len(payload)+1)
	raw = append(raw, payload...)
	raw = append(raw, opcode)

	dst = AppendEncode(dst, raw)
	return append(dst, Delimiter)
}

// AppendResponse appends a complete response frame to dst. It is the device
// side of ParseResponse and is used by simulators and tests.
//
// Frame structure before encoding:
//
//	[DATA...][RESULT][OPCODE]
func AppendResponse(dst []byte, opcode, result byte, data []byte) []byte {
	raw := make([]byte, 0, len(data)+2)
	raw = append(raw, data...)
	raw = append(raw, result, opcode)

	dst = AppendEncode(dst, raw)
	return append(dst, Delimiter)
}

// BoolPayload returns the single-byte payload used by the Set* commands.
func BoolPayload(v bool) []byte {
	if v {
		return []byte{0x01}
	}
	return []byte{0x00}
}

// BuildPingCmd constructs a Ping request frame.
// The data must be exactly PingSize bytes.
func BuildPingCmd(data []byte) ([]byte, error) {
	if len(data) != PingSize {
		return nil, LengthError(OpPing, "ping", PingSize, len(data))
	}
	return AppendRequest(nil, OpPing, data), nil
}

// BuildWriteBlockCmd constructs a WriteBlock request frame for the page at
// addrHigh<<8. The data must be exactly BlockSize bytes.
//
// Payload structure:
//
//	[ADDR_H][DATA(256)]
func BuildWriteBlockCmd(addrHigh byte, data []byte) ([]byte, error) {
	if len(data) != BlockSize {
		return nil, LengthError(OpWriteBlock, "writing", BlockSize, len(data))
	}
	payload := make([]byte, 0, 1+BlockSize)
	payload = append(payload, addrHigh)
	payload = append(payload, data...)
	return AppendRequest(nil, OpWriteBlock, payload), nil
}

// ParseRequest decodes a request frame (without its delimiter) in place and
// splits it into opcode and payload. It is the device side of AppendRequest.
func ParseRequest(frame []byte) (opcode byte, payload []byte, err error) {
	n, err := DecodeInPlace(frame)
	if err != nil {
		return 0, nil, err
	}
	if n == 0 {
		return 0, nil, &ProtocolError{Operation: "request", Detail: "missing command byte"}
	}
	return frame[n-1], frame[:n-1], nil
}
