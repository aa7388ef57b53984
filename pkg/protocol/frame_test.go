package protocol

import (
	"bytes"
	"io"
	"testing"
)

func TestFrameEncodeDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   Frame
		wantLen int // total length including header
	}{
		{
			name:    "empty_payload",
			frame:   Frame{Type: FrameNav, Payload: []byte{}},
			wantLen: FrameHeaderSize,
		},
		{
			name:    "with_payload",
			frame:   Frame{Type: FrameURL, Payload: []byte{0x01, 0x02, 0x03}},
			wantLen: FrameHeaderSize + 3,
		},
		{
			name:    "hello",
			frame:   Frame{Type: FrameHello, Payload: []byte{0x01, 0x00}},
			wantLen: FrameHeaderSize + 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded := tc.frame.Encode()
			if len(encoded) != tc.wantLen {
				t.Errorf("Encode() length = %d, want %d", len(encoded), tc.wantLen)
			}
			if FrameType(encoded[0]) != tc.frame.Type {
				t.Errorf("Encoded type = %v, want %v", FrameType(encoded[0]), tc.frame.Type)
			}
			if encoded[1] != 0 {
				t.Errorf("Reserved byte = %#x, want 0", encoded[1])
			}

			decoded, err := DecodeFrame(encoded)
			if err != nil {
				t.Fatalf("DecodeFrame() error = %v", err)
			}
			if decoded.Type != tc.frame.Type {
				t.Errorf("Decoded type = %v, want %v", decoded.Type, tc.frame.Type)
			}
			if !bytes.Equal(decoded.Payload, tc.frame.Payload) {
				t.Errorf("Decoded payload = %v, want %v", decoded.Payload, tc.frame.Payload)
			}
		})
	}
}

func TestFrameEncodeToMatchesEncode(t *testing.T) {
	f := NewFrame(FrameControl, []byte{0x01, 0x02, 0x03})

	e := NewEncoder()
	f.EncodeTo(e)

	if !bytes.Equal(e.Bytes(), f.Encode()) {
		t.Errorf("EncodeTo() = %v, want %v", e.Bytes(), f.Encode())
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	// Short header.
	if _, err := DecodeFrame([]byte{0x00, 0x00}); err != io.ErrUnexpectedEOF {
		t.Errorf("short header: got %v, want io.ErrUnexpectedEOF", err)
	}

	// Header claims 16 payload bytes, none present.
	if _, err := DecodeFrame([]byte{0x01, 0x00, 0x00, 0x10}); err != io.ErrUnexpectedEOF {
		t.Errorf("short payload: got %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestDecodeFrameIgnoresReservedByte(t *testing.T) {
	data := []byte{byte(FrameNav), 0xFF, 0x00, 0x01, 0x42}

	f, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if f.Type != FrameNav || !bytes.Equal(f.Payload, []byte{0x42}) {
		t.Errorf("got %+v", f)
	}
}

func TestReadWriteFrame(t *testing.T) {
	var buf bytes.Buffer

	out := NewFrame(FrameURL, []byte("seq-and-query"))
	if err := WriteFrame(&buf, out); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}

	in, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if in.Type != out.Type || !bytes.Equal(in.Payload, out.Payload) {
		t.Errorf("round trip: got %+v", in)
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	f := NewFrame(FrameURL, make([]byte, MaxPayloadSize+1))

	if err := WriteFrame(io.Discard, f); err != ErrFrameTooLarge {
		t.Errorf("got %v, want ErrFrameTooLarge", err)
	}
}

func TestFrameTypeString(t *testing.T) {
	tests := []struct {
		ft   FrameType
		want string
	}{
		{FrameHello, "Hello"},
		{FrameNav, "Nav"},
		{FrameSet, "Set"},
		{FrameURL, "URL"},
		{FrameControl, "Control"},
		{FrameError, "Error"},
		{FrameType(0x7F), "Unknown"},
	}
	for _, tc := range tests {
		if got := tc.ft.String(); got != tc.want {
			t.Errorf("FrameType(%#x).String() = %q, want %q", uint8(tc.ft), got, tc.want)
		}
	}
}
