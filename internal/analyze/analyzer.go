// Package analyze runs the per-utterance pronunciation pipeline: transcribe
// the learner's audio, measure its similarity to the reference text,
// synthesise the human-facing score, and attach L1-interference feedback.
//
// The Analyzer owns no global state: the recognizer handle is constructed by
// the caller at startup and passed in once, so backend choice is a
// configuration-time decision.
package analyze

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/vietspeak-ai/vietspeak/internal/eval"
	"github.com/vietspeak-ai/vietspeak/internal/feedback"
	"github.com/vietspeak-ai/vietspeak/internal/observe"
	"github.com/vietspeak-ai/vietspeak/internal/score"
	"github.com/vietspeak-ai/vietspeak/pkg/audio"
	"github.com/vietspeak-ai/vietspeak/pkg/recognizer"
)

// Result is the complete per-utterance analysis output.
type Result struct {
	// Transcription is what the recognizer heard.
	Transcription string `json:"transcription"`

	// Score is the four-dimensional pronunciation score.
	Score score.PronunciationScore `json:"score"`

	// Feedback carries phoneme notes, suggestions, and interference tips.
	Feedback feedback.Bundle `json:"feedback"`

	// AudioDurationSec is the analysed clip length in seconds.
	AudioDurationSec float64 `json:"audio_duration_sec"`
}

// Analyzer evaluates single utterances against reference texts. Safe for
// concurrent use; all state is read-only after construction.
type Analyzer struct {
	rec     recognizer.Recognizer
	advisor *feedback.Advisor
	metrics *observe.Metrics
}

// New creates an Analyzer over the given recognizer and advisor. A nil
// advisor falls back to the built-in rule table; a nil metrics uses the
// process-wide default instruments.
func New(rec recognizer.Recognizer, advisor *feedback.Advisor, metrics *observe.Metrics) *Analyzer {
	if advisor == nil {
		advisor = feedback.NewAdvisor(nil)
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Analyzer{rec: rec, advisor: advisor, metrics: metrics}
}

// Advisor returns the analyzer's feedback advisor.
func (a *Analyzer) Advisor() *feedback.Advisor { return a.advisor }

// Transcribe runs the recognizer over the clip.
func (a *Analyzer) Transcribe(ctx context.Context, clip audio.Clip) (recognizer.Transcript, error) {
	ctx, span := observe.StartSpan(ctx, "analyze.Transcribe")
	defer span.End()

	start := time.Now()
	t, err := a.rec.Transcribe(ctx, clip.Samples, clip.SampleRate)
	a.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		a.metrics.RecognizerErrors.Add(ctx, 1)
		return recognizer.Transcript{}, fmt.Errorf("analyze: transcribe: %w", err)
	}
	return t, nil
}

// Analyze evaluates the clip against referenceText and returns the full
// per-utterance result.
func (a *Analyzer) Analyze(ctx context.Context, clip audio.Clip, referenceText string) (Result, error) {
	ctx, span := observe.StartSpan(ctx, "analyze.Analyze")
	defer span.End()

	start := time.Now()
	res, err := a.analyze(ctx, clip, referenceText)

	status := "ok"
	if err != nil {
		status = "error"
	}
	a.metrics.AnalysisDuration.Record(ctx, time.Since(start).Seconds())
	a.metrics.Analyses.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))

	return res, err
}

func (a *Analyzer) analyze(ctx context.Context, clip audio.Clip, referenceText string) (Result, error) {
	transcript, err := a.Transcribe(ctx, clip)
	if err != nil {
		return Result{}, err
	}

	similarity := eval.SimilarityRatio(referenceText, transcript.Text)
	sc := score.Synthesize(similarity)

	return Result{
		Transcription:    transcript.Text,
		Score:            sc,
		Feedback:         a.advisor.AdviseTranscript(referenceText, transcript.Text, sc),
		AudioDurationSec: clip.DurationSec(),
	}, nil
}
