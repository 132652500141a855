package transcribe

import (
	"bytes"
	"testing"

	"github.com/harunnryd/transcribestream/pkg/eventstream"
	"github.com/harunnryd/transcribestream/pkg/sigv4stream"
)

func TestOutboundEmitsSignedAudioFrame(t *testing.T) {
	var buf bytes.Buffer
	signer := sigv4stream.New("secret", "20240115", "us-east-1", "transcribe", "")
	ob := NewOutbound(4, signer, &buf, nil, nil)

	if err := ob.Write([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("write: %v", err)
	}

	outer, rest := readOneFrame(t, buf.Bytes())
	if len(rest) != 0 {
		t.Fatalf("expected exactly one frame so far, got %d trailing bytes", len(rest))
	}

	if _, ok := outer.Headers.Get(":date"); !ok {
		t.Fatalf("expected :date header on signed frame")
	}
	sigHeader, ok := outer.Headers.Get(":chunk-signature")
	if !ok || len(sigHeader.ByteArrayValue()) != 32 {
		t.Fatalf("expected 32-byte :chunk-signature, got %+v", sigHeader)
	}

	inner, err := eventstream.Decode(outer.Payload)
	if err != nil {
		t.Fatalf("decode inner frame: %v", err)
	}
	ct, _ := inner.Headers.GetString(":content-type")
	et, _ := inner.Headers.GetString(":event-type")
	mt, _ := inner.Headers.GetString(":message-type")
	if ct != "application/octet-stream" || et != "AudioEvent" || mt != "event" {
		t.Fatalf("unexpected inner headers: content-type=%q event-type=%q message-type=%q", ct, et, mt)
	}
	if !bytes.Equal(inner.Payload, []byte{1, 2, 3, 4}) {
		t.Fatalf("inner payload mismatch: % x", inner.Payload)
	}
}

func TestOutboundCloseEmitsTerminalFrameWithEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	signer := sigv4stream.New("secret", "20240115", "us-east-1", "transcribe", "")
	ob := NewOutbound(4, signer, &buf, nil, nil)

	if err := ob.Write([]byte{1, 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ob.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	first, rest := readOneFrame(t, buf.Bytes())
	_ = first
	terminal, rest2 := readOneFrame(t, rest)
	if len(rest2) != 0 {
		t.Fatalf("expected exactly two frames, got trailing bytes")
	}
	if len(terminal.Payload) != 0 {
		t.Fatalf("expected terminal frame with empty payload, got %d bytes", len(terminal.Payload))
	}
	if _, ok := terminal.Headers.Get(":chunk-signature"); !ok {
		t.Fatalf("expected terminal frame to still carry :chunk-signature")
	}
}

func readOneFrame(t *testing.T, buf []byte) (eventstream.Message, []byte) {
	t.Helper()
	r := bytes.NewReader(buf)
	fr := eventstream.NewFrameReader(r)
	raw, err := fr.Next()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	msg, err := eventstream.Decode(raw)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return msg, buf[len(raw):]
}
