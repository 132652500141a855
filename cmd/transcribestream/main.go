package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/harunnryd/transcribestream/pkg/logging"
	"github.com/harunnryd/transcribestream/pkg/metrics"
	"github.com/harunnryd/transcribestream/pkg/runner"
	"github.com/harunnryd/transcribestream/pkg/sources"
	twiliosource "github.com/harunnryd/transcribestream/pkg/sources/twilio"
	"github.com/harunnryd/transcribestream/pkg/transcribe"
)

func parseLevel(v string) slog.Level {
	switch strings.ToUpper(v) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildObserver(cfg MetricsConfig) metrics.Observer {
	var inner metrics.Observer
	switch strings.ToLower(cfg.Sink) {
	case "jsonl":
		inner = metrics.NewJSONLObserver(os.Stdout)
	case "memory":
		inner = metrics.NewMemoryObserver()
	default:
		inner = metrics.NoopObserver{}
	}
	return metrics.NewAsyncObserver(inner, cfg.Buffer)
}

// callRegistry tracks the live Transport sessions opened for each Twilio
// stream, so a graceful shutdown can close every outstanding AWS
// Transcribe connection before the process exits.
type callRegistry struct {
	mu      sync.Mutex
	sources map[string]*transcribe.EventSource
}

func newCallRegistry() *callRegistry {
	return &callRegistry{sources: make(map[string]*transcribe.EventSource)}
}

func (r *callRegistry) add(streamID string, source *transcribe.EventSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[streamID] = source
}

func (r *callRegistry) remove(streamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sources, streamID)
}

func (r *callRegistry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, source := range r.sources {
		_ = source.Close()
	}
}

func main() {
	configPath := flag.String("config", "config.local.yaml", "path to the app config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	logger := logging.InitLogger(parseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	observer := buildObserver(cfg.Metrics)
	registry := newCallRegistry()

	creds := credentials.NewStaticCredentialsProvider(
		cfg.Transcribe.AccessKeyID,
		cfg.Transcribe.SecretAccessKey,
		cfg.Transcribe.SessionToken,
	)

	sinkFor := func(streamSid, callSid string) (sources.AudioWriter, error) {
		ctx := context.Background()
		resolved, err := creds.Retrieve(ctx)
		if err != nil {
			return nil, err
		}
		streamCfg := cfg.Transcribe
		if streamCfg.SessionID == "" {
			streamCfg.SessionID = streamSid
		}
		transport := transcribe.NewTransport(streamCfg, observer, logger)
		_, outbound, source, err := transport.Start(ctx, resolved)
		if err != nil {
			return nil, err
		}
		registry.add(streamSid, source)

		go func() {
			defer registry.remove(streamSid)
			for {
				select {
				case f, ok := <-source.Events():
					if !ok {
						return
					}
					logger.Debug("transcribe_frame", slog.String("kind", string(f.Kind())), slog.Any("meta", f.Meta()))
				case err, ok := <-source.Errors():
					if !ok {
						return
					}
					if err != nil {
						logger.Warn("transcribe_error", slog.String("call_sid", callSid), slog.String("error", err.Error()))
					}
				}
			}
		}()

		return outbound, nil
	}

	src := twiliosource.NewSource(cfg.Twilio, sinkFor, logger)

	mux := http.NewServeMux()
	mux.Handle(cfg.Source.StreamPath, src)
	httpServer := &http.Server{Addr: cfg.Source.Addr, Handler: mux}

	hooks := runner.Hooks{
		OnStart: func() {
			logger.Info("transcribestream_ready", slog.String("addr", cfg.Source.Addr), slog.String("path", cfg.Source.StreamPath))
		},
		OnStop: func() {
			if closer, ok := observer.(interface{ Close() }); ok {
				closer.Close()
			}
			logger.Info("transcribestream_stopped")
		},
	}

	drainer := runner.DrainerFunc(func() error {
		registry.closeAll()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	})

	lifecycle := runner.NewLifecycleRunner(drainer, hooks, 15*time.Second)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http_server_failed", slog.String("error", err.Error()))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-sigCh
		cancel()
	}()

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("lifecycle_run_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
