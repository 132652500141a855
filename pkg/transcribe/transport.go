package transcribe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"golang.org/x/net/http2"

	"github.com/harunnryd/transcribestream/pkg/errorsx"
	"github.com/harunnryd/transcribestream/pkg/logging"
	"github.com/harunnryd/transcribestream/pkg/metrics"
	"github.com/harunnryd/transcribestream/pkg/sigv4stream"
)

const (
	eventStreamContentType = "application/vnd.amazon.eventstream"
	streamingPayloadHash   = "STREAMING-AWS4-HMAC-SHA256-EVENTS"
	transcribeTarget       = "com.amazonaws.transcribe.Transcribe.StartStreamTranscription"
	transcribeService      = "transcribe"
)

// ResponseMetadata is the subset of the initial HTTP/2 response the
// application can inspect: request id and negotiated status, mirroring
// what a thin SDK wrapper would expose.
type ResponseMetadata struct {
	StatusCode int
	RequestID  string
}

// Transport is the Transport Driver: it opens the HTTP/2 connection,
// signs the initial request, and wires the Outbound and Inbound
// pipelines together.
type Transport struct {
	cfg      Config
	observer metrics.Observer
	logger   *slog.Logger
}

func NewTransport(cfg Config, observer metrics.Observer, logger *slog.Logger) *Transport {
	if observer == nil {
		observer = metrics.NoopObserver{}
	}
	if logger == nil {
		logger = logging.InitLogger(slog.LevelInfo)
	}
	return &Transport{cfg: cfg, observer: observer, logger: logging.NewComponentLogger(logger, "transport")}
}

// Start opens the connection and returns the response metadata, the
// Outbound audio sink, and the Inbound event source once the initial
// response headers arrive. Startup failures (TLS, ALPN, status >= 400,
// signing) are returned synchronously here.
func (t *Transport) Start(ctx context.Context, creds aws.Credentials) (ResponseMetadata, *Outbound, *EventSource, error) {
	host := t.cfg.Host()

	rawConn, err := tls.Dial("tcp", net.JoinHostPort(host, "443"), &tls.Config{
		ServerName: host,
		NextProtos: []string{"h2"},
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return ResponseMetadata{}, nil, nil, &TransportError{Err: err}
	}

	h2Transport := &http2.Transport{}
	cc, err := h2Transport.NewClientConn(rawConn)
	if err != nil {
		return ResponseMetadata{}, nil, nil, &TransportError{Err: err}
	}

	pr, pw := io.Pipe()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://"+host+"/stream-transcription", pr)
	if err != nil {
		return ResponseMetadata{}, nil, nil, err
	}
	req.Header.Set("x-amz-target", transcribeTarget)
	req.Header.Set("content-type", eventStreamContentType)
	req.Header.Set("x-amz-content-sha256", streamingPayloadHash)
	for name, value := range t.cfg.TranscribeHeaders() {
		req.Header.Set(name, value)
	}

	signer := v4.NewSigner()
	signingTime := time.Now().UTC()
	if err := signer.SignHTTP(ctx, creds, req, streamingPayloadHash, transcribeService, t.cfg.Region, signingTime); err != nil {
		return ResponseMetadata{}, nil, nil, errorsx.Wrap(&TransportError{Err: err}, errorsx.ReasonSigning)
	}
	initialSignature, err := extractSignature(req.Header.Get("Authorization"))
	if err != nil {
		return ResponseMetadata{}, nil, nil, errorsx.Wrap(err, errorsx.ReasonSigning)
	}

	resp, err := cc.RoundTrip(req)
	if err != nil {
		return ResponseMetadata{}, nil, nil, &TransportError{Err: err}
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return ResponseMetadata{}, nil, nil, &ServiceException{
			Type:       ExceptionType(strings.SplitN(resp.Header.Get("x-amzn-errortype"), ":", 2)[0]),
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	meta := ResponseMetadata{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("x-amzn-requestid"),
	}

	date := signingTime.Format("20060102")
	chunkSigner := sigv4stream.New(creds.SecretAccessKey, date, t.cfg.Region, transcribeService, initialSignature)

	streamID := t.cfg.SessionID
	outbound := NewOutbound(t.cfg.ChunkSizeBytes(), chunkSigner, pw, t.observer, t.logger)
	source := newEventSource()
	inbound := NewInbound(streamID, t.observer, t.logger)

	go func() {
		err := inbound.Run(resp.Body, source)
		resp.Body.Close()
		pw.Close()
		cc.Close()
		if err != nil {
			t.logger.Warn("inbound_pipeline_ended", slog.String("error", err.Error()))
		}
	}()

	return meta, outbound, source, nil
}

// extractSignature pulls the hex signature out of a SigV4 Authorization
// header, since v4.Signer.SignHTTP mutates the request's headers instead
// of returning the signature directly.
func extractSignature(authHeader string) (string, error) {
	const marker = "Signature="
	idx := strings.LastIndex(authHeader, marker)
	if idx < 0 {
		return "", fmt.Errorf("transcribe: could not find %s in Authorization header", marker)
	}
	return authHeader[idx+len(marker):], nil
}
