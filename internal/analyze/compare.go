package analyze

import (
	"context"
	"fmt"
	"math"

	"github.com/vietspeak-ai/vietspeak/internal/feedback"
	"github.com/vietspeak-ai/vietspeak/internal/observe"
	"github.com/vietspeak-ai/vietspeak/internal/score"
	"github.com/vietspeak-ai/vietspeak/pkg/audio"
)

// Improvement holds the per-dimension score deltas between two attempts.
type Improvement struct {
	Overall  float64 `json:"overall"`
	Accuracy float64 `json:"accuracy"`
	Fluency  float64 `json:"fluency"`

	// PercentageImprovement is the relative overall gain, in percent. Zero
	// when the first attempt scored zero.
	PercentageImprovement float64 `json:"percentage_improvement"`
}

// Comparison is the result of comparing two pronunciation attempts of the
// same reference text.
type Comparison struct {
	ReferenceText string                   `json:"reference_text"`
	Before        score.PronunciationScore `json:"before"`
	After         score.PronunciationScore `json:"after"`
	Improvement   Improvement              `json:"improvement"`

	// ImprovedAreas lists words mispronounced in the first attempt but not
	// the second.
	ImprovedAreas []string `json:"improved_areas"`

	// NeedsWork lists words still mispronounced in the second attempt.
	NeedsWork []string `json:"needs_work"`
}

// Baseline is a previously recorded attempt standing in for the "before"
// side of a comparison. Attempt audio is not retained after scoring, so the
// stored transcription and score are all that survives of a past attempt.
type Baseline struct {
	Transcription string
	Score         score.PronunciationScore
}

// Compare analyses both attempts against the same reference text and reports
// the improvement between them. Word-level improved/needs-work areas are
// derived from the phoneme notes of each attempt.
func (a *Analyzer) Compare(ctx context.Context, before, after audio.Clip, referenceText string) (Comparison, error) {
	ctx, span := observe.StartSpan(ctx, "analyze.Compare")
	defer span.End()

	beforeRes, err := a.Analyze(ctx, before, referenceText)
	if err != nil {
		return Comparison{}, fmt.Errorf("analyze: first attempt: %w", err)
	}
	afterRes, err := a.Analyze(ctx, after, referenceText)
	if err != nil {
		return Comparison{}, fmt.Errorf("analyze: second attempt: %w", err)
	}

	return newComparison(referenceText,
		beforeRes.Score, afterRes.Score,
		beforeRes.Feedback.Phonemes, afterRes.Feedback.Phonemes), nil
}

// CompareWithBaseline compares a fresh attempt against a stored one. The
// baseline's phoneme notes are rebuilt from its transcription, so improved
// and needs-work areas come out the same as if its audio had been re-scored.
func (a *Analyzer) CompareWithBaseline(ctx context.Context, base Baseline, after audio.Clip, referenceText string) (Comparison, error) {
	ctx, span := observe.StartSpan(ctx, "analyze.CompareWithBaseline")
	defer span.End()

	afterRes, err := a.Analyze(ctx, after, referenceText)
	if err != nil {
		return Comparison{}, fmt.Errorf("analyze: second attempt: %w", err)
	}
	baseNotes := a.advisor.AdviseTranscript(referenceText, base.Transcription, base.Score).Phonemes

	return newComparison(referenceText,
		base.Score, afterRes.Score,
		baseNotes, afterRes.Feedback.Phonemes), nil
}

func newComparison(referenceText string, before, after score.PronunciationScore, beforeNotes, afterNotes []feedback.PhonemeNote) Comparison {
	c := Comparison{
		ReferenceText: referenceText,
		Before:        before,
		After:         after,
		Improvement: Improvement{
			Overall:  round1(after.Overall - before.Overall),
			Accuracy: round1(after.Accuracy - before.Accuracy),
			Fluency:  round1(after.Fluency - before.Fluency),
		},
	}
	if before.Overall > 0 {
		c.Improvement.PercentageImprovement = round1(
			(after.Overall - before.Overall) / before.Overall * 100)
	}

	stillWrong := make(map[string]bool, len(afterNotes))
	for _, n := range afterNotes {
		stillWrong[n.Expected] = true
		c.NeedsWork = append(c.NeedsWork, n.Expected)
	}
	for _, n := range beforeNotes {
		if !stillWrong[n.Expected] {
			c.ImprovedAreas = append(c.ImprovedAreas, n.Expected)
		}
	}

	return c
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
