// Package openai provides a [recognizer.Recognizer] backed by the OpenAI
// audio transcription API.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/vietspeak-ai/vietspeak/pkg/audio"
	"github.com/vietspeak-ai/vietspeak/pkg/recognizer"
)

// DefaultModel is the default OpenAI transcription model.
const DefaultModel = oai.AudioModelWhisper1

// Compile-time interface check.
var _ recognizer.Recognizer = (*Recognizer)(nil)

// Recognizer implements recognizer.Recognizer using the OpenAI API. Audio is
// uploaded as a 16-bit PCM WAV file per call.
type Recognizer struct {
	client   oai.Client
	model    string
	language string
}

// config holds optional configuration for the recognizer.
type config struct {
	baseURL  string
	language string
	timeout  time.Duration
}

// Option is a functional option for Recognizer.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithLanguage sets the ISO-639-1 language hint sent with each request.
// Default: "en".
func WithLanguage(lang string) Option {
	return func(c *config) { c.language = lang }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a new OpenAI transcription Recognizer. If model is empty,
// [DefaultModel] (whisper-1) is used.
func New(apiKey string, model string, opts ...Option) (*Recognizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai recognizer: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{language: "en"}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &Recognizer{
		client:   oai.NewClient(reqOpts...),
		model:    model,
		language: cfg.language,
	}, nil
}

// Transcribe uploads the samples as WAV and returns the API's transcript.
func (r *Recognizer) Transcribe(ctx context.Context, samples []float32, sampleRate int) (recognizer.Transcript, error) {
	if len(samples) == 0 {
		return recognizer.Transcript{}, fmt.Errorf("openai recognizer: no audio samples")
	}

	wavBlob := audio.EncodeWAV(samples, sampleRate)

	resp, err := r.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		File:     oai.File(bytes.NewReader(wavBlob), "utterance.wav", "audio/wav"),
		Model:    r.model,
		Language: oai.String(r.language),
	})
	if err != nil {
		return recognizer.Transcript{}, fmt.Errorf("openai recognizer: transcription request: %w", err)
	}

	return recognizer.Transcript{
		Text:     resp.Text,
		Language: r.language,
	}, nil
}

// Close is a no-op; the underlying HTTP client needs no teardown.
func (r *Recognizer) Close() error { return nil }
