package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// buildTestResponse encodes raw (already in [DATA][RESULT][OPCODE] order)
// and strips the delimiter, as the session does after reading a frame.
func buildTestResponse(raw []byte) []byte {
	return Encode(raw)
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name        string
		opcode      byte
		frame       []byte
		expectedLen int
		wantData    []byte
		wantErr     bool
		errMsg      string
		wantRemote  bool
	}{
		{
			name:        "valid response with no data",
			opcode:      OpSetReset,
			frame:       buildTestResponse([]byte{ResultOK, OpSetReset}),
			expectedLen: 0,
			wantData:    []byte{},
		},
		{
			name:        "valid response with data",
			opcode:      OpGetVersion,
			frame:       buildTestResponse([]byte{0x02, 0x01, ResultOK, OpGetVersion}),
			expectedLen: 2,
			wantData:    []byte{0x02, 0x01},
		},
		{
			name:        "data containing zeros",
			opcode:      OpGetStatus,
			frame:       buildTestResponse([]byte{0x00, 0x01, 0x00, ResultOK, OpGetStatus}),
			expectedLen: 3,
			wantData:    []byte{0x00, 0x01, 0x00},
		},
		{
			name:        "opcode mismatch",
			opcode:      OpGetStatus,
			frame:       buildTestResponse([]byte{0x02, 0x01, ResultOK, OpGetVersion}),
			expectedLen: 3,
			wantErr:     true,
			errMsg:      "0x02 vs 0x03",
		},
		{
			name:        "empty frame",
			opcode:      OpPing,
			frame:       []byte{},
			expectedLen: 8,
			wantErr:     true,
			errMsg:      "missing command byte",
		},
		{
			name:        "missing result byte",
			opcode:      OpPing,
			frame:       buildTestResponse([]byte{OpPing}),
			expectedLen: 8,
			wantErr:     true,
			errMsg:      "missing result byte",
		},
		{
			name:        "wrong length",
			opcode:      OpGetStatus,
			frame:       buildTestResponse([]byte{0x01, ResultOK, OpGetStatus}),
			expectedLen: 3,
			wantErr:     true,
			errMsg:      "expected 3 bytes in response, got 1",
		},
		{
			name:        "device error message",
			opcode:      OpWriteAll,
			frame:       buildTestResponse(append([]byte("Locked: rx stream not allowed"), ResultError, OpWriteAll)),
			expectedLen: 0,
			wantErr:     true,
			errMsg:      "Locked: rx stream not allowed",
			wantRemote:  true,
		},
		{
			name:        "device error message with invalid UTF-8",
			opcode:      OpReadBlock,
			frame:       buildTestResponse([]byte{'b', 'a', 'd', 0xC3, 0x28, ResultError, OpReadBlock}),
			expectedLen: 256,
			wantErr:     true,
			errMsg:      "bad�(",
			wantRemote:  true,
		},
		{
			name:        "unrecognized result code",
			opcode:      OpSetUnlocked,
			frame:       buildTestResponse([]byte{0x12, OpSetUnlocked}),
			expectedLen: 0,
			wantErr:     true,
			errMsg:      "result 12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ParseResponse(tt.opcode, tt.frame, tt.expectedLen)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				var pe *ProtocolError
				if !errors.As(err, &pe) {
					t.Fatalf("error type = %T, want *ProtocolError", err)
				}
				if pe.Remote != tt.wantRemote {
					t.Errorf("Remote = %t, want %t", pe.Remote, tt.wantRemote)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(data, tt.wantData) {
				t.Errorf("data = % 02X, want % 02X", data, tt.wantData)
			}
		})
	}
}

func TestParseResponseDecodeError(t *testing.T) {
	_, err := ParseResponse(OpPing, []byte{0x09, 0x01}, 8)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
	if IsProtocolError(err) {
		t.Error("decode failure should not be a ProtocolError")
	}
}

func TestParseResponseAliasesFrame(t *testing.T) {
	frame := buildTestResponse([]byte{0xAA, 0xBB, ResultOK, OpGetVersion})
	data, err := ParseResponse(OpGetVersion, frame, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frame[0] = 0x77
	if data[0] != 0x77 {
		t.Error("returned data should alias the frame buffer")
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    Status
		wantErr bool
	}{
		{
			name: "passthrough only",
			data: []byte{0x00, 0x01, 0x00},
			want: Status{Unlocked: false, Passthrough: true, Reset: false},
		},
		{
			name: "all set with non-one values",
			data: []byte{0x01, 0x80, 0xFF},
			want: Status{Unlocked: true, Passthrough: true, Reset: true},
		},
		{
			name: "all clear",
			data: []byte{0x00, 0x00, 0x00},
			want: Status{},
		},
		{
			name:    "too short",
			data:    []byte{0x01, 0x00},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseVersionResponse(t *testing.T) {
	v, err := ParseVersionResponse([]byte{0x02, 0x01})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != (Version{Major: 2, Minor: 1}) {
		t.Errorf("version = %v, want v2.1", v)
	}
	if v.String() != "v2.1" {
		t.Errorf("String() = %q, want %q", v.String(), "v2.1")
	}

	if _, err := ParseVersionResponse([]byte{0x02}); err == nil {
		t.Error("expected error for short response")
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{in: "2.1", want: Version{2, 1}},
		{in: "v2.0", want: Version{2, 0}},
		{in: "garbage", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseVersion(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
