// Package recognizer defines the batch speech-to-text abstraction used by the
// pronunciation analysis pipeline.
//
// The backend is selected statically at configuration time — whisper.cpp CGO
// bindings for local inference, the OpenAI transcription API for hosted
// inference, or an in-memory mock for tests — never probed at runtime. The
// caller constructs the backend once at startup and passes the handle into
// every analysis call; no backend owns global mutable state.
package recognizer

import "context"

// Transcript is the result of one batch transcription.
type Transcript struct {
	// Text is the transcribed speech.
	Text string

	// Confidence is the overall confidence in [0, 1]. Zero when the backend
	// does not report confidence.
	Confidence float64

	// Language is the detected or configured language code.
	Language string
}

// Recognizer transcribes a complete utterance in one call.
//
// Implementations must be safe for concurrent use: the evaluation engine may
// issue transcriptions for independent utterances in parallel.
type Recognizer interface {
	// Transcribe runs speech-to-text over mono float32 PCM at the given
	// sample rate. Most backends require 16 kHz; see pkg/audio for
	// normalisation helpers.
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (Transcript, error)

	// Close releases backend resources. Safe to call more than once.
	Close() error
}
