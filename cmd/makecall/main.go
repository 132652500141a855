package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	twiliosource "github.com/harunnryd/transcribestream/pkg/sources/twilio"
)

type twilioSettings struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	PublicURL  string `mapstructure:"public_url"`
	StreamPath string `mapstructure:"stream_path"`
}

type callConfig struct {
	Twilio twilioSettings `mapstructure:"twilio"`
}

func main() {
	configPath := flag.String("config", "config.local.yaml", "")
	from := flag.String("from", "", "caller ID for the outbound call")
	to := flag.String("to", "", "destination number for the outbound call")
	twimlURL := flag.String("twiml_url", "", "override TwiML URL; defaults to public_url + stream_path")
	flag.Parse()

	if *from == "" || *to == "" {
		fmt.Println("usage: makecall -from=+123 -to=+456 [-config=...]")
		os.Exit(1)
	}

	cfg, err := loadCallConfig(*configPath)
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(1)
	}

	url := *twimlURL
	if url == "" {
		if cfg.Twilio.PublicURL == "" {
			fmt.Println("twilio.public_url is empty")
			os.Exit(1)
		}
		path := cfg.Twilio.StreamPath
		if path == "" {
			path = "/twilio/stream"
		}
		url = "https://" + normalizePublicURL(cfg.Twilio.PublicURL) + path
	}

	dialer := twiliosource.NewDialer(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, *from)
	callSID, err := dialer.Dial(*to, url)
	if err != nil {
		fmt.Println("call error:", err)
		os.Exit(1)
	}
	fmt.Println("call_sid:", callSID)
}

func loadCallConfig(path string) (callConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return callConfig{}, err
	}
	var cfg callConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return callConfig{}, err
	}
	return cfg, nil
}

func normalizePublicURL(v string) string {
	v = strings.TrimPrefix(v, "https://")
	v = strings.TrimPrefix(v, "http://")
	return strings.TrimRight(v, "/")
}
