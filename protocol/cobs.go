package protocol

// AppendEncode appends the COBS encoding of src to dst and returns the
// extended slice. The appended bytes never contain Delimiter; the caller
// terminates the frame.
//
// The encoding splits src into runs of at most MaxRunLength non-zero bytes.
// Each run is prefixed by a code byte: the run length plus one. A code below
// 0xFF implies a zero byte after the run (except at the end of the frame).
func AppendEncode(dst, src []byte) []byte {
	codeIdx := len(dst)
	dst = append(dst, 0)
	code := byte(1)

	for i, b := range src {
		if b != 0 {
			dst = append(dst, b)
			code++
		}
		// Close the block on a zero, or on a full run with more input to come
		if b == 0 || (code == 0xFF && i != len(src)-1) {
			dst[codeIdx] = code
			codeIdx = len(dst)
			dst = append(dst, 0)
			code = 1
		}
	}
	dst[codeIdx] = code

	return dst
}

// Encode returns the COBS encoding of src.
func Encode(src []byte) []byte {
	return AppendEncode(make([]byte, 0, MaxEncodedLen(len(src))), src)
}

// MaxEncodedLen returns the worst-case encoded size of n payload bytes,
// excluding the delimiter.
func MaxEncodedLen(n int) int {
	return n + n/MaxRunLength + 1
}

// DecodeInPlace decodes the COBS frame in buf (without its delimiter) into
// the start of buf and returns the decoded length.
//
// Returns ErrDecode if a code byte is zero or a run extends past the end of
// the frame.
func DecodeInPlace(buf []byte) (int, error) {
	out, i := 0, 0
	for i < len(buf) {
		code := buf[i]
		if code == Delimiter {
			return 0, ErrDecode
		}
		i++

		n := int(code) - 1
		if i+n > len(buf) {
			return 0, ErrDecode
		}
		for _, b := range buf[i : i+n] {
			if b == Delimiter {
				return 0, ErrDecode
			}
		}
		out += copy(buf[out:], buf[i:i+n])
		i += n

		if code != 0xFF && i < len(buf) {
			buf[out] = 0
			out++
		}
	}
	return out, nil
}

// Decode returns the decoded form of a COBS frame without modifying src.
func Decode(src []byte) ([]byte, error) {
	buf := append([]byte(nil), src...)
	n, err := DecodeInPlace(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
