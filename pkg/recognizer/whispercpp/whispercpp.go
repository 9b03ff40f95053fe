// Package whispercpp provides a [recognizer.Recognizer] backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a) and
// headers (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH.
//
// The model is loaded once at construction and shared across all concurrent
// transcriptions; each call creates its own whisper context.
package whispercpp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/vietspeak-ai/vietspeak/pkg/recognizer"
)

const defaultLanguage = "en"

// Compile-time interface check.
var _ recognizer.Recognizer = (*Recognizer)(nil)

// Recognizer runs local whisper.cpp inference.
type Recognizer struct {
	model    whisperlib.Model
	language string
}

// Option is a functional option for configuring a [Recognizer].
type Option func(*Recognizer)

// WithLanguage sets the transcription language code (e.g. "en", "vi").
// Default: "en".
func WithLanguage(lang string) Option {
	return func(r *Recognizer) { r.language = lang }
}

// New loads the whisper.cpp model from modelPath. The caller must call Close
// when the recognizer is no longer needed.
func New(modelPath string, opts ...Option) (*Recognizer, error) {
	if modelPath == "" {
		return nil, errors.New("whispercpp: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whispercpp: load model %q: %w", modelPath, err)
	}

	r := &Recognizer{model: model, language: defaultLanguage}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Transcribe runs batch inference over the samples. Whisper requires 16 kHz
// mono input; other rates are rejected rather than silently producing garbage.
func (r *Recognizer) Transcribe(ctx context.Context, samples []float32, sampleRate int) (recognizer.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return recognizer.Transcript{}, err
	}
	if sampleRate != whisperlib.SampleRate {
		return recognizer.Transcript{}, fmt.Errorf("whispercpp: sample rate must be %d Hz, got %d", whisperlib.SampleRate, sampleRate)
	}
	if len(samples) == 0 {
		return recognizer.Transcript{}, errors.New("whispercpp: no audio samples")
	}

	wctx, err := r.model.NewContext()
	if err != nil {
		return recognizer.Transcript{}, fmt.Errorf("whispercpp: create context: %w", err)
	}
	if err := wctx.SetLanguage(r.language); err != nil {
		return recognizer.Transcript{}, fmt.Errorf("whispercpp: set language %q: %w", r.language, err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return recognizer.Transcript{}, fmt.Errorf("whispercpp: inference: %w", err)
	}

	var sb strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return recognizer.Transcript{}, fmt.Errorf("whispercpp: read segment: %w", err)
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.TrimSpace(segment.Text))
	}

	return recognizer.Transcript{
		Text:     sb.String(),
		Language: r.language,
	}, nil
}

// Close releases the whisper model. Safe to call more than once.
func (r *Recognizer) Close() error {
	if r.model != nil {
		err := r.model.Close()
		r.model = nil
		return err
	}
	return nil
}
