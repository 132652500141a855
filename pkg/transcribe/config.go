// Package transcribe implements the Outbound/Inbound pipelines and the
// Transport Driver that glue the event-stream codec (pkg/eventstream),
// the rolling chunk signer (pkg/sigv4stream) and the audio chunker
// (pkg/audio) into a single duplex client for a real-time
// speech-to-text streaming service reachable over HTTP/2.
package transcribe

import (
	"fmt"
	"strconv"
)

// Config drives the x-amzn-transcribe-* request-shaping headers and the
// connection parameters of the Transport Driver.
type Config struct {
	Region string `mapstructure:"region"`

	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`

	LanguageCode         string `mapstructure:"language_code"`
	MediaSampleRateHertz int    `mapstructure:"media_sample_rate_hertz"`
	MediaEncoding        string `mapstructure:"media_encoding"`

	VocabularyName         string `mapstructure:"vocabulary_name"`
	SessionID              string `mapstructure:"session_id"`
	VocabularyFilterName   string `mapstructure:"vocabulary_filter_name"`
	VocabularyFilterMethod string `mapstructure:"vocabulary_filter_method"`

	ShowSpeakerLabel                  *bool  `mapstructure:"show_speaker_label"`
	EnableChannelIdentification       *bool  `mapstructure:"enable_channel_identification"`
	NumberOfChannels                  *int   `mapstructure:"number_of_channels"`
	EnablePartialResultsStabilization *bool  `mapstructure:"enable_partial_results_stabilization"`
	PartialResultsStability           string `mapstructure:"partial_results_stability"`
	ContentIdentificationType         string `mapstructure:"content_identification_type"`
	ContentRedactionType              string `mapstructure:"content_redaction_type"`
	PIIEntityTypes                    string `mapstructure:"pii_entity_types"`
	LanguageModelName                 string `mapstructure:"language_model_name"`

	IdentifyLanguage          *bool  `mapstructure:"identify_language"`
	LanguageOptions           string `mapstructure:"language_options"`
	PreferredLanguage         string `mapstructure:"preferred_language"`
	IdentifyMultipleLanguages *bool  `mapstructure:"identify_multiple_languages"`
	VocabularyNames           string `mapstructure:"vocabulary_names"`
	VocabularyFilterNames     string `mapstructure:"vocabulary_filter_names"`

	// ChunkCadenceMS overrides the 200ms cadence used to derive the audio
	// chunker's chunk size; zero means use the 200ms default.
	ChunkCadenceMS int `mapstructure:"chunk_cadence_ms"`
}

func (c Config) cadenceMS() int {
	if c.ChunkCadenceMS <= 0 {
		return 200
	}
	return c.ChunkCadenceMS
}

// ChunkSizeBytes computes the Audio Chunker's chunk_size for this
// config's sample rate, assuming 16-bit samples.
func (c Config) ChunkSizeBytes() int {
	return c.MediaSampleRateHertz * 2 * c.cadenceMS() / 1000
}

// Host is the AWS Transcribe Streaming service endpoint for this region.
func (c Config) Host() string {
	return fmt.Sprintf("transcribestreaming.%s.amazonaws.com", c.Region)
}

// TranscribeHeaders maps the request DTO fields to x-amzn-transcribe-*
// header values: bools render as "true"/"false", ints as decimal
// strings. Headers for unset optional fields are omitted.
func (c Config) TranscribeHeaders() map[string]string {
	h := map[string]string{}
	setStr := func(name, v string) {
		if v != "" {
			h[name] = v
		}
	}
	setBool := func(name string, v *bool) {
		if v != nil {
			h[name] = strconv.FormatBool(*v)
		}
	}
	setInt := func(name string, v *int) {
		if v != nil {
			h[name] = strconv.Itoa(*v)
		}
	}

	setStr("x-amzn-transcribe-language-code", c.LanguageCode)
	if c.MediaSampleRateHertz > 0 {
		h["x-amzn-transcribe-sample-rate"] = strconv.Itoa(c.MediaSampleRateHertz)
	}
	setStr("x-amzn-transcribe-media-encoding", c.MediaEncoding)
	setStr("x-amzn-transcribe-vocabulary-name", c.VocabularyName)
	setStr("x-amzn-transcribe-session-id", c.SessionID)
	setStr("x-amzn-transcribe-vocabulary-filter-name", c.VocabularyFilterName)
	setStr("x-amzn-transcribe-vocabulary-filter-method", c.VocabularyFilterMethod)
	setBool("x-amzn-transcribe-show-speaker-label", c.ShowSpeakerLabel)
	setBool("x-amzn-transcribe-enable-channel-identification", c.EnableChannelIdentification)
	setInt("x-amzn-transcribe-number-of-channels", c.NumberOfChannels)
	setBool("x-amzn-transcribe-enable-partial-results-stabilization", c.EnablePartialResultsStabilization)
	setStr("x-amzn-transcribe-partial-results-stability", c.PartialResultsStability)
	setStr("x-amzn-transcribe-content-identification-type", c.ContentIdentificationType)
	setStr("x-amzn-transcribe-content-redaction-type", c.ContentRedactionType)
	setStr("x-amzn-transcribe-pii-entity-types", c.PIIEntityTypes)
	setStr("x-amzn-transcribe-language-model-name", c.LanguageModelName)
	setBool("x-amzn-transcribe-identify-language", c.IdentifyLanguage)
	setStr("x-amzn-transcribe-language-options", c.LanguageOptions)
	setStr("x-amzn-transcribe-preferred-language", c.PreferredLanguage)
	setBool("x-amzn-transcribe-identify-multiple-languages", c.IdentifyMultipleLanguages)
	setStr("x-amzn-transcribe-vocabulary-names", c.VocabularyNames)
	setStr("x-amzn-transcribe-vocabulary-filter-names", c.VocabularyFilterNames)

	return h
}
