package eventstream

import (
	"bytes"
	"testing"
	"time"
)

func TestHeaderRoundTrip(t *testing.T) {
	ts := time.UnixMilli(1700000000000).UTC()
	uuidHeader, err := UUIDHeader(":id", "01234567-89ab-cdef-0123-456789abcdef")
	if err != nil {
		t.Fatalf("uuid header: %v", err)
	}
	hs := Headers{
		BoolHeader(":flag-true", true),
		BoolHeader(":flag-false", false),
		ByteHeader(":b", -7),
		ShortHeader(":s", 1),
		IntegerHeader(":i", -12345),
		LongHeader(":l", 1 << 40),
		ByteArrayHeader(":ba", []byte{1, 2, 3}),
		StringHeader(":content-type", "application/json"),
		TimestampHeader(":date", ts),
		uuidHeader,
	}

	encoded, err := hs.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeHeaders(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(hs) {
		t.Fatalf("expected %d headers, got %d", len(hs), len(decoded))
	}
	for i := range hs {
		if decoded[i].Name != hs[i].Name || decoded[i].Type != hs[i].Type {
			t.Fatalf("header %d mismatch: got %+v want %+v", i, decoded[i], hs[i])
		}
	}
	gotTS, ok := decoded.GetTimestamp(":date")
	if !ok || !gotTS.Equal(ts) {
		t.Fatalf("timestamp round-trip mismatch: got %v want %v", gotTS, ts)
	}
	gotUUID, err := decoded[len(decoded)-1].UUIDValue()
	if err != nil || gotUUID != "01234567-89ab-cdef-0123-456789abcdef" {
		t.Fatalf("uuid round-trip mismatch: got %q err %v", gotUUID, err)
	}
}

func TestShortHeaderWireBytes(t *testing.T) {
	hs := Headers{ShortHeader("x", 1)}
	encoded, err := hs.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0x01, 'x', 0x03, 0x00, 0x01}
	if !bytes.Equal(encoded, want) {
		t.Fatalf("got % x want % x", encoded, want)
	}
}

func TestStringHeaderWireBytes(t *testing.T) {
	hs := Headers{StringHeader(":content-type", "application/json")}
	encoded, err := hs.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	wantPrefix := []byte{
		0x0D, ':', 'c', 'o', 'n', 't', 'e', 'n', 't', '-', 't', 'y', 'p', 'e',
		0x07, 0x00, 0x10,
	}
	if !bytes.Equal(encoded[:len(wantPrefix)], wantPrefix) {
		t.Fatalf("got % x want prefix % x", encoded[:len(wantPrefix)], wantPrefix)
	}
	if string(encoded[len(wantPrefix):]) != "application/json" {
		t.Fatalf("value bytes mismatch: %q", encoded[len(wantPrefix):])
	}
}

func TestDecodeHeadersDuplicateNamesPreserved(t *testing.T) {
	hs := Headers{StringHeader("k", "a"), StringHeader("k", "b")}
	encoded, err := hs.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeHeaders(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 2 || decoded[0].str != "a" || decoded[1].str != "b" {
		t.Fatalf("duplicate names not preserved in order: %+v", decoded)
	}
	v, _ := decoded.GetString("k")
	if v != "a" {
		t.Fatalf("Get should return first match, got %q", v)
	}
}

func TestDecodeHeadersTruncated(t *testing.T) {
	hs := Headers{StringHeader("k", "value")}
	encoded, err := hs.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, cut := range []int{1, 2, 3, len(encoded) - 1} {
		if _, err := DecodeHeaders(encoded[:cut]); err != ErrHeaderTruncated {
			t.Fatalf("cut=%d: expected ErrHeaderTruncated, got %v", cut, err)
		}
	}
}

func TestDecodeHeadersUnknownTag(t *testing.T) {
	buf := []byte{0x01, 'x', 0x0A} // tag 10 is outside 0..=9
	if _, err := DecodeHeaders(buf); err != ErrHeaderUnknownTag {
		t.Fatalf("expected ErrHeaderUnknownTag, got %v", err)
	}
}

func TestDecodeHeadersInvalidUTF8Name(t *testing.T) {
	buf := []byte{0x01, 0xff, byte(TypeBoolTrue)}
	if _, err := DecodeHeaders(buf); err != ErrHeaderInvalidUTF8 {
		t.Fatalf("expected ErrHeaderInvalidUTF8, got %v", err)
	}
}
