// Package twilio adapts a Twilio Media Streams websocket connection
// (https://www.twilio.com/docs/voice/media-streams) into an audio
// source: a real phone call's 8kHz mu-law audio is decoded to 16-bit PCM
// and written into whatever transcribe.AudioSink the caller's stream was
// matched to. This is the ingestion half only: no TTS playback, no DTMF
// IVR, no call-control fallback audio, since this module is a one-way
// transcription client rather than a full conversational voice agent.
package twilio

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	twilioclient "github.com/twilio/twilio-go/client"

	"github.com/harunnryd/transcribestream/pkg/errorsx"
	"github.com/harunnryd/transcribestream/pkg/sources"
)

// Config controls the Source's websocket handling.
type Config struct {
	// AuthToken, when set, is used to validate Twilio's request
	// signature on the websocket upgrade request.
	AuthToken string

	// PublicURL, when set, is the externally-visible base URL Twilio
	// signed against. Needed whenever this handler sits behind a proxy
	// or load balancer that rewrites scheme or host.
	PublicURL string
}

// SinkFactory resolves a Twilio streamSid to the transcribe.AudioSink
// that should receive its decoded audio. Implementations typically look
// up (or lazily start) one Transport per call.
type SinkFactory func(streamSid, callSid string) (sources.AudioWriter, error)

// Source implements http.Handler: each accepted websocket connection is
// one Twilio Media Stream, matched via SinkFactory to an audio sink.
type Source struct {
	cfg        Config
	sinkFor    SinkFactory
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	readyOnce  sync.Once
	ready      chan struct{}
}

func NewSource(cfg Config, sinkFor SinkFactory, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		cfg:     cfg,
		sinkFor: sinkFor,
		logger:  logger,
		ready:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Ready reports when the first Media Stream connection has been
// accepted, satisfying sources.ReadyReporter.
func (s *Source) Ready() <-chan struct{} { return s.ready }

type twilioEvent struct {
	Event     string          `json:"event"`
	StreamSid string          `json:"streamSid"`
	Start     *twilioStart    `json:"start,omitempty"`
	Media     *twilioMedia    `json:"media,omitempty"`
	Stop      *twilioStop     `json:"stop,omitempty"`
	Mark      *twilioMark     `json:"mark,omitempty"`
	DTMF      *twilioDTMF     `json:"dtmf,omitempty"`
}

type twilioStart struct {
	StreamSid    string            `json:"streamSid"`
	CallSid      string            `json:"callSid"`
	Tracks       []string          `json:"tracks"`
	MediaFormat  twilioMediaFormat `json:"mediaFormat"`
	CustomParams map[string]string `json:"customParameters"`
}

type twilioMediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

type twilioMedia struct {
	Track     string `json:"track"`
	Chunk     string `json:"chunk"`
	Timestamp string `json:"timestamp"`
	Payload   string `json:"payload"`
}

type twilioStop struct {
	CallSid string `json:"callSid"`
}

type twilioMark struct {
	Name string `json:"name"`
}

type twilioDTMF struct {
	Track string `json:"track"`
	Digit string `json:"digit"`
}

func (s *Source) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AuthToken != "" && !s.validateTwilioRequest(r) {
		s.logger.Warn("twilio_signature_invalid",
			slog.String("remote", r.RemoteAddr),
			slog.String("reason_code", string(errorsx.ReasonTransportInvalidSignature)))
		http.Error(w, "invalid twilio signature", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("twilio_upgrade_failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	s.readyOnce.Do(func() { close(s.ready) })

	var sink sources.AudioWriter
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if sink != nil {
				_ = sink.Close()
			}
			return
		}

		var ev twilioEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			s.logger.Warn("twilio_event_decode_failed", slog.String("error", err.Error()))
			continue
		}

		switch ev.Event {
		case "start":
			if ev.Start == nil {
				continue
			}
			sink, err = s.sinkFor(ev.Start.StreamSid, ev.Start.CallSid)
			if err != nil {
				s.logger.Error("twilio_sink_resolve_failed", slog.String("error", err.Error()))
				return
			}
		case "media":
			if sink == nil || ev.Media == nil {
				continue
			}
			mulaw, err := base64.StdEncoding.DecodeString(ev.Media.Payload)
			if err != nil {
				s.logger.Warn("twilio_media_decode_failed", slog.String("error", err.Error()))
				continue
			}
			pcm := decodeMuLaw(mulaw)
			if err := sink.Write(pcm); err != nil {
				s.logger.Error("twilio_sink_write_failed", slog.String("error", err.Error()))
				return
			}
		case "stop":
			if sink != nil {
				_ = sink.Close()
				sink = nil
			}
			return
		case "dtmf", "mark", "connected":
			// no call-control surface in this adapter; acknowledged and ignored.
		}
	}
}

func (s *Source) validateTwilioRequest(r *http.Request) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return false
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	validator := twilioclient.NewRequestValidator(s.cfg.AuthToken)
	return validator.ValidateBody(s.requestURL(r), body, signature)
}

func (s *Source) requestURL(r *http.Request) string {
	if s.cfg.PublicURL != "" {
		return strings.TrimRight(s.cfg.PublicURL, "/") + r.URL.RequestURI()
	}
	scheme := r.URL.Scheme
	if scheme == "" {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		} else {
			scheme = "https"
		}
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
