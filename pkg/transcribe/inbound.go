package transcribe

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/harunnryd/transcribestream/pkg/errorsx"
	"github.com/harunnryd/transcribestream/pkg/eventstream"
	"github.com/harunnryd/transcribestream/pkg/frames"
	"github.com/harunnryd/transcribestream/pkg/metrics"
	"github.com/harunnryd/transcribestream/pkg/redact"
)

// EventSource is the proxy the Transport Driver hands to the application
// for consuming decoded events. Closing it before natural stream end is
// equivalent to closing the HTTP/2 stream abnormally; the underlying
// Close plumbing lives on the Transport.
type EventSource struct {
	events chan frames.Frame
	errs   chan error
	done   chan struct{}
}

func newEventSource() *EventSource {
	return &EventSource{
		events: make(chan frames.Frame, 64),
		errs:   make(chan error, 8),
		done:   make(chan struct{}),
	}
}

func (s *EventSource) Events() <-chan frames.Frame { return s.events }
func (s *EventSource) Errors() <-chan error         { return s.errs }

// Close signals the inbound pipeline to stop delivering. It does not
// itself tear down the HTTP/2 stream; the Transport Driver wires this
// into the shared cancellation.
func (s *EventSource) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return nil
}

// Inbound is the demultiplexer: it reads length-delimited event-stream
// frames off a continuous byte stream (the HTTP/2 response body, already
// past the status-check the Transport Driver performs) and routes each
// one by :message-type.
type Inbound struct {
	streamID string
	observer metrics.Observer
	logger   *slog.Logger
	pts      *frames.PTSGen
}

func NewInbound(streamID string, observer metrics.Observer, logger *slog.Logger) *Inbound {
	if observer == nil {
		observer = metrics.NoopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbound{streamID: streamID, observer: observer, logger: logger, pts: frames.NewPTSGen()}
}

// Run reads frames from body until it errors, the stream ends cleanly,
// or the EventSource is closed. It returns the terminal error, if any
// (nil on a clean end-of-stream). Frame- and header-decode errors are
// pushed to the error channel and the loop continues; protocol errors
// and service exceptions are pushed and the loop ends.
func (ib *Inbound) Run(body io.Reader, source *EventSource) error {
	defer close(source.events)
	defer close(source.errs)

	reader := eventstream.NewFrameReader(body)

	source.events <- frames.NewSystemFrame(ib.streamID, ib.pts.Next(ib.streamID), "stream_opened", nil)

	for {
		select {
		case <-source.done:
			return nil
		default:
		}

		raw, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				source.events <- frames.NewSystemFrame(ib.streamID, ib.pts.Next(ib.streamID), "stream_closed", nil)
				return nil
			}
			terr := &TransportError{Err: err}
			ib.pushErr(source, errorsx.Wrap(terr, errorsx.ReasonTransport))
			return terr
		}

		msg, err := eventstream.Decode(raw)
		if err != nil {
			ib.pushErr(source, errorsx.Wrap(err, decodeReason(err)))
			continue
		}

		out, dispatchErr := Dispatch(msg, ib.streamID, ib.pts.Next(ib.streamID))
		if dispatchErr != nil {
			switch e := dispatchErr.(type) {
			case *ServiceException:
				ib.observer.RecordEvent(metrics.MetricsEvent{Name: "service_exception", Time: time.Now(), Tags: map[string]string{"type": string(e.Type)}})
				ib.pushErr(source, errorsx.Wrap(e, errorsx.ReasonServiceException))
				return e
			case *ProtocolError:
				ib.pushErr(source, errorsx.Wrap(e, errorsx.ReasonProtocol))
				return e
			default:
				ib.pushErr(source, errorsx.Wrap(dispatchErr, errorsx.ReasonHeaderDecode))
				continue
			}
		}

		for _, f := range out {
			if tf, ok := f.(frames.TextFrame); ok {
				ib.logger.Debug("transcript_text", slog.String("text", redact.Text(tf.Text())))
			}
			select {
			case source.events <- f:
			case <-source.done:
				return nil
			}
		}
		ib.observer.RecordEvent(metrics.MetricsEvent{Name: "frame_received", Time: time.Now(), Fields: map[string]any{"payload_bytes": len(msg.Payload)}})
	}
}

// decodeReason distinguishes frame-level malformation (short buffer,
// length mismatch, either checksum) from header-level decode failures,
// so the pushed error carries the reason that actually matches the
// layer that rejected the frame.
func decodeReason(err error) errorsx.ReasonCode {
	switch {
	case errors.Is(err, eventstream.ErrFrameTooShort):
		return errorsx.ReasonFrameTooShort
	case errors.Is(err, eventstream.ErrFrameLengthMismatch):
		return errorsx.ReasonFrameLengthMismatch
	case errors.Is(err, eventstream.ErrPreludeChecksumMismatch):
		return errorsx.ReasonPreludeChecksum
	case errors.Is(err, eventstream.ErrMessageChecksumMismatch):
		return errorsx.ReasonMessageChecksum
	default:
		return errorsx.ReasonHeaderDecode
	}
}

func (ib *Inbound) pushErr(source *EventSource, err error) {
	select {
	case source.errs <- err:
	case <-source.done:
	default:
	}
}
