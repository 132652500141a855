package transcribe

import (
	"io"
	"log/slog"
	"sync"

	"github.com/harunnryd/transcribestream/pkg/audio"
	"github.com/harunnryd/transcribestream/pkg/eventstream"
	"github.com/harunnryd/transcribestream/pkg/metrics"
	"github.com/harunnryd/transcribestream/pkg/sigv4stream"
)

// AudioSink is the proxy the Transport Driver hands to the application
// for feeding raw audio into the Outbound Pipeline. Closing it triggers
// flush-plus-terminal-frame and then closes the outbound half of the
// HTTP/2 stream.
type AudioSink interface {
	Write(p []byte) error
	Close() error
}

// Outbound composes the Chunker -> Audio-Event Framer -> Frame Encoder ->
// Chunk Signer -> Frame Encoder -> HTTP/2 data writer chain. It is
// single-producer: Write must not be called concurrently, matching the
// signer's total-order requirement.
type Outbound struct {
	chunker  *audio.Chunker
	signer   *sigv4stream.Signer
	w        io.Writer
	observer metrics.Observer
	logger   *slog.Logger

	mu       sync.Mutex
	writeErr error
	closed   bool
}

func NewOutbound(chunkSize int, signer *sigv4stream.Signer, w io.Writer, observer metrics.Observer, logger *slog.Logger) *Outbound {
	if observer == nil {
		observer = metrics.NoopObserver{}
	}
	o := &Outbound{signer: signer, w: w, observer: observer, logger: logger}
	o.chunker = audio.NewChunker(chunkSize, audio.SinkFunc(o.emit))
	return o
}

// Write feeds application audio bytes into the chunker. It is the
// implementation behind the AudioSink proxy handed to the application.
func (o *Outbound) Write(p []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.writeErr != nil {
		return o.writeErr
	}
	if err := o.chunker.Write(p); err != nil {
		o.writeErr = err
		return err
	}
	return nil
}

// Close flushes any partial chunk and the terminal sentinel.
func (o *Outbound) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	return o.chunker.Close()
}

// emit is the audio.Sink callback invoked once per chunk, including the
// zero-length terminal sentinel. A non-empty chunk is wrapped by the
// Audio-Event Framer before signing; the terminal sentinel is signed
// with an empty payload directly, with no inner AudioEvent frame.
func (o *Outbound) emit(chunk []byte) error {
	var signPayload []byte
	if len(chunk) > 0 {
		inner := eventstream.Message{
			Headers: eventstream.Headers{
				eventstream.StringHeader(":content-type", "application/octet-stream"),
				eventstream.StringHeader(":event-type", "AudioEvent"),
				eventstream.StringHeader(":message-type", "event"),
			},
			Payload: chunk,
		}
		innerBytes, err := inner.Encode()
		if err != nil {
			return err
		}
		signPayload = innerBytes
	}

	signed, err := o.signer.SignChunk(signPayload)
	if err != nil {
		return err
	}
	outerBytes, err := signed.Encode()
	if err != nil {
		return err
	}

	if _, err := o.w.Write(outerBytes); err != nil {
		return err
	}

	o.observer.RecordEvent(metrics.MetricsEvent{
		Name: "frame_sent",
		Fields: map[string]any{
			"payload_bytes": len(chunk),
			"terminal":      len(chunk) == 0,
		},
	})
	return nil
}
