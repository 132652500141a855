package eventstream

import (
	"bytes"
	"testing"
)

func TestEmptyFrameRoundTrip(t *testing.T) {
	msg := Message{}
	encoded, err := msg.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(encoded) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(encoded))
	}
	if !bytes.Equal(encoded[0:4], []byte{0x00, 0x00, 0x00, 0x10}) {
		t.Fatalf("total_length mismatch: % x", encoded[0:4])
	}
	if !bytes.Equal(encoded[4:8], []byte{0x00, 0x00, 0x00, 0x00}) {
		t.Fatalf("headers_length mismatch: % x", encoded[4:8])
	}
	if !bytes.Equal(encoded[8:12], []byte{0x05, 0xC2, 0x48, 0xEB}) {
		t.Fatalf("prelude crc mismatch: % x", encoded[8:12])
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Headers) != 0 || len(decoded.Payload) != 0 {
		t.Fatalf("expected empty frame, got %+v", decoded)
	}
}

func TestShortHeaderFrameLength(t *testing.T) {
	msg := Message{Headers: Headers{ShortHeader("x", 1)}}
	encoded, err := msg.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(encoded[0:4], []byte{0x00, 0x00, 0x00, 0x15}) {
		t.Fatalf("total_length mismatch: % x", encoded[0:4])
	}
	if !bytes.Equal(encoded[4:8], []byte{0x00, 0x00, 0x00, 0x05}) {
		t.Fatalf("headers_length mismatch: % x", encoded[4:8])
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Headers) != 1 || decoded.Headers[0].ShortValue() != 1 {
		t.Fatalf("unexpected headers: %+v", decoded.Headers)
	}
}

func TestFrameRoundTripWithPayload(t *testing.T) {
	msg := Message{
		Headers: Headers{
			StringHeader(":content-type", "application/octet-stream"),
			StringHeader(":event-type", "AudioEvent"),
			StringHeader(":message-type", "event"),
		},
		Payload: []byte("some raw audio bytes"),
	}
	encoded, err := msg.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded.Payload, msg.Payload) {
		t.Fatalf("payload mismatch: got %q want %q", decoded.Payload, msg.Payload)
	}
	if len(decoded.Headers) != 3 {
		t.Fatalf("expected 3 headers, got %d", len(decoded.Headers))
	}
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	if _, err := Decode(make([]byte, 15)); err != ErrFrameTooShort {
		t.Fatalf("expected ErrFrameTooShort, got %v", err)
	}
}

func TestDecodeRejectsLengthMismatch(t *testing.T) {
	msg := Message{Payload: []byte("hello")}
	encoded, err := msg.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(encoded[:len(encoded)-1]); err != ErrFrameLengthMismatch {
		t.Fatalf("expected ErrFrameLengthMismatch, got %v", err)
	}
}

func TestDecodeDetectsPreludeChecksumMismatch(t *testing.T) {
	msg := Message{Payload: []byte("hello")}
	encoded, err := msg.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	encoded[0] ^= 0x01 // flip a single bit in total_length, inside the prelude
	if _, err := Decode(encoded); err != ErrPreludeChecksumMismatch {
		t.Fatalf("expected ErrPreludeChecksumMismatch, got %v", err)
	}
}

func TestDecodeDetectsMessageChecksumMismatch(t *testing.T) {
	msg := Message{Payload: []byte("hello")}
	encoded, err := msg.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	encoded[len(encoded)-5] ^= 0x01 // flip a payload bit, prelude untouched
	if _, err := Decode(encoded); err != ErrMessageChecksumMismatch {
		t.Fatalf("expected ErrMessageChecksumMismatch, got %v", err)
	}
}

func TestFrameReaderDelimitsMultipleFrames(t *testing.T) {
	first := Message{Payload: []byte("one")}
	second := Message{Headers: Headers{StringHeader("k", "v")}, Payload: []byte("two")}

	encFirst, err := first.Encode()
	if err != nil {
		t.Fatalf("encode first: %v", err)
	}
	encSecond, err := second.Encode()
	if err != nil {
		t.Fatalf("encode second: %v", err)
	}

	stream := append(append([]byte{}, encFirst...), encSecond...)
	fr := NewFrameReader(bytes.NewReader(stream))

	got1, err := fr.Next()
	if err != nil {
		t.Fatalf("next 1: %v", err)
	}
	msg1, err := Decode(got1)
	if err != nil {
		t.Fatalf("decode 1: %v", err)
	}
	if !bytes.Equal(msg1.Payload, first.Payload) {
		t.Fatalf("frame 1 payload mismatch: %q", msg1.Payload)
	}

	got2, err := fr.Next()
	if err != nil {
		t.Fatalf("next 2: %v", err)
	}
	msg2, err := Decode(got2)
	if err != nil {
		t.Fatalf("decode 2: %v", err)
	}
	if !bytes.Equal(msg2.Payload, second.Payload) {
		t.Fatalf("frame 2 payload mismatch: %q", msg2.Payload)
	}

	if _, err := fr.Next(); err == nil {
		t.Fatalf("expected EOF after two frames")
	}
}
