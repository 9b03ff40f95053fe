// Package mock provides an in-memory [recognizer.Recognizer] for tests and
// offline development.
package mock

import (
	"context"
	"sync"

	"github.com/vietspeak-ai/vietspeak/pkg/recognizer"
)

// Compile-time interface check.
var _ recognizer.Recognizer = (*Recognizer)(nil)

// Recognizer returns canned transcripts. Safe for concurrent use.
type Recognizer struct {
	mu sync.Mutex

	// Transcripts are returned in order; the last entry repeats once the
	// queue is exhausted. When empty, an empty transcript is returned.
	Transcripts []recognizer.Transcript

	// Err, when non-nil, is returned by every Transcribe call.
	Err error

	// Calls records the sample counts of every Transcribe invocation.
	Calls []int

	next int
}

// New returns a mock that yields the given texts in order with confidence 1.
func New(texts ...string) *Recognizer {
	r := &Recognizer{}
	for _, text := range texts {
		r.Transcripts = append(r.Transcripts, recognizer.Transcript{Text: text, Confidence: 1, Language: "en"})
	}
	return r
}

// Transcribe returns the next canned transcript, or the configured error.
func (r *Recognizer) Transcribe(ctx context.Context, samples []float32, _ int) (recognizer.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return recognizer.Transcript{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.Calls = append(r.Calls, len(samples))
	if r.Err != nil {
		return recognizer.Transcript{}, r.Err
	}
	if len(r.Transcripts) == 0 {
		return recognizer.Transcript{}, nil
	}

	t := r.Transcripts[min(r.next, len(r.Transcripts)-1)]
	r.next++
	return t, nil
}

// Close is a no-op.
func (r *Recognizer) Close() error { return nil }
