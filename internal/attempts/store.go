// Package attempts persists learner pronunciation attempts so that progress
// can be tracked across practice sessions. The MCP compare tool and the HTTP
// API read recent attempts from here; the evaluation core itself never
// touches storage.
package attempts

import (
	"context"
	"errors"
	"time"

	"github.com/vietspeak-ai/vietspeak/internal/score"
)

// ErrNotFound is returned when no attempt matches the query.
var ErrNotFound = errors.New("attempts: not found")

// Attempt is one recorded pronunciation attempt.
type Attempt struct {
	// ID is the store-assigned identifier. Empty until saved.
	ID string `json:"id"`

	// LearnerID identifies the learner; free-form, assigned by the caller.
	LearnerID string `json:"learner_id"`

	// ReferenceText is the prompt the learner read.
	ReferenceText string `json:"reference_text"`

	// Transcription is what the recognizer heard.
	Transcription string `json:"transcription"`

	// Score is the synthesised four-dimensional score.
	Score score.PronunciationScore `json:"score"`

	// AudioDurationSec is the attempt's audio length in seconds.
	AudioDurationSec float64 `json:"audio_duration_sec"`

	// CreatedAt is when the attempt was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// Store persists and queries pronunciation attempts.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Save records an attempt and returns it with ID and CreatedAt set.
	Save(ctx context.Context, a Attempt) (Attempt, error)

	// Recent returns up to limit attempts for the learner, newest first.
	Recent(ctx context.Context, learnerID string, limit int) ([]Attempt, error)

	// LastForReference returns the most recent attempt the learner made at
	// the given reference text, or [ErrNotFound].
	LastForReference(ctx context.Context, learnerID, referenceText string) (Attempt, error)
}
