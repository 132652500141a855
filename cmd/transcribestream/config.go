package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/harunnryd/transcribestream/pkg/sources/twilio"
	"github.com/harunnryd/transcribestream/pkg/transcribe"
)

// AppConfig is the root configuration for the transcribestream process:
// one AWS Transcribe streaming client (pkg/transcribe) fed by either a
// Twilio Media Stream websocket server or a raw-audio stdin source.
type AppConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Transcribe transcribe.Config `mapstructure:"transcribe"`

	Source ServerConfig  `mapstructure:"server"`
	Twilio twilio.Config `mapstructure:"twilio"`

	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	StreamPath string `mapstructure:"stream_path"`
}

type MetricsConfig struct {
	// Sink selects where metrics.Observer events land: "noop", "jsonl"
	// (newline-delimited JSON to stdout), or "memory" (in-process, for
	// tests and short-lived tooling).
	Sink   string `mapstructure:"sink"`
	Buffer int    `mapstructure:"buffer"`
}

func loadConfig(path string) (AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.stream_path", "/twilio/stream")
	v.SetDefault("transcribe.media_encoding", "pcm")
	v.SetDefault("transcribe.media_sample_rate_hertz", 8000)
	v.SetDefault("transcribe.chunk_cadence_ms", 200)
	v.SetDefault("metrics.sink", "noop")
	v.SetDefault("metrics.buffer", 256)

	if err := v.ReadInConfig(); err != nil {
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal: %w", err)
	}
	return cfg, nil
}
