package eval

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Sample is one utterance of an evaluation corpus. All fields are produced by
// the calling layer (ASR, forced aligner, scoring model); the engine consumes
// already-materialised sequences and numbers, never raw audio.
type Sample struct {
	// Reference is the prompt text the speaker was asked to read.
	Reference string `json:"reference"`

	// Hypothesis is the ASR transcript of what was actually said.
	Hypothesis string `json:"hypothesis"`

	// PredictedGOP and GroundTruthGOP are parallel per-unit score arrays.
	// Both may be empty when no scoring model ran for this sample.
	PredictedGOP   []float64 `json:"predicted_gop,omitempty"`
	GroundTruthGOP []float64 `json:"ground_truth_gop,omitempty"`

	// PredictedPhonemes and GroundTruthPhonemes are the phoneme symbol
	// sequences for positional accuracy and confusion mining.
	PredictedPhonemes   []string `json:"predicted_phonemes,omitempty"`
	GroundTruthPhonemes []string `json:"ground_truth_phonemes,omitempty"`

	// AudioDurationSec is the utterance's audio length in seconds.
	AudioDurationSec float64 `json:"audio_duration_sec"`

	// ScoringLatencyMs is the measured wall-clock latency of the scoring
	// call for this sample, in milliseconds.
	ScoringLatencyMs float64 `json:"scoring_latency_ms"`
}

// EvaluationResult is the corpus-level aggregate produced by one evaluation
// run. It is immutable after construction and has no further lifecycle.
type EvaluationResult struct {
	GOPCorrelation           float64 `json:"gop_correlation"`
	GOPMAE                   float64 `json:"gop_mae"`
	PhonemeAccuracy          float64 `json:"phoneme_accuracy"`
	WordErrorRate            float64 `json:"word_error_rate"`
	LatencyP50Ms             float64 `json:"latency_p50_ms"`
	LatencyP99Ms             float64 `json:"latency_p99_ms"`
	ThroughputAudioSecPerSec float64 `json:"throughput_audio_sec_per_sec"`
	NumSamples               int     `json:"num_samples"`
	TotalAudioDurationSec    float64 `json:"total_audio_duration_sec"`
}

// ErrorAnalysis is the corpus-wide error-pattern summary that accompanies an
// [EvaluationResult].
type ErrorAnalysis struct {
	// TopPhonemeErrors are the ten most frequent confusion pairs, ties in
	// first-seen order.
	TopPhonemeErrors []ConfusionCount `json:"top_phoneme_errors"`

	// VietnameseSpecific always carries all four fixed categories, even when
	// their counts are zero.
	VietnameseSpecific CategoryCounts `json:"vietnamese_specific"`
}

// Report bundles everything one evaluation run produces.
type Report struct {
	Result EvaluationResult `json:"result"`
	Errors ErrorAnalysis    `json:"error_analysis"`
}

// utterancePartial is the per-utterance contribution folded into the corpus
// aggregate. The fold is associative and commutative; partials are reduced in
// corpus order only so that confusion first-seen ranking stays reproducible.
type utterancePartial struct {
	editDistance   int
	referenceWords int
	phonemeCorrect int
	phonemeTotal   int
}

// topConfusionLimit is how many confusion pairs an error analysis reports.
const topConfusionLimit = 10

// EngineOption configures an [Engine].
type EngineOption func(*Engine)

// WithParallelism bounds the number of concurrent per-utterance workers.
// Default: [runtime.NumCPU].
func WithParallelism(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// Engine runs corpus-level pronunciation evaluation. Per-utterance work is
// independent, so the engine maps it across a bounded worker group and
// reduces with an associative fold; utterance order never affects the
// aggregate values.
//
// The zero value is not usable; create instances with [NewEngine]. An Engine
// is stateless across runs and safe for concurrent use.
type Engine struct {
	parallelism int
}

// NewEngine returns an Engine configured with the supplied options.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{parallelism: runtime.NumCPU()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate runs the full evaluation over corpus and returns the aggregate
// report. Running it twice on the same corpus yields identical results.
//
// GOP statistics are computed over the pooled score arrays of all samples;
// when any sample carries scores, degenerate pooled input surfaces as
// [ErrDegenerateInput] and unequal per-sample arrays as [ErrLengthMismatch].
// A corpus with no GOP scores at all reports zero correlation and MAE.
func (e *Engine) Evaluate(ctx context.Context, corpus []Sample) (*Report, error) {
	partials := make([]utterancePartial, len(corpus))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i := range corpus {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partials[i] = evaluateUtterance(&corpus[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Sequential fold in corpus order. Sums and pooled arrays are
	// order-independent; only the confusion first-seen tie-break relies on
	// this ordering.
	var (
		totalDistance int
		totalRefWords int
		correct       int
		totalPhonemes int
		audioSec      float64
		latencyMs     float64
	)
	var pooledPred, pooledGT, latencies []float64

	miner := NewMiner()
	for i := range corpus {
		s := &corpus[i]
		p := partials[i]

		totalDistance += p.editDistance
		totalRefWords += p.referenceWords
		correct += p.phonemeCorrect
		totalPhonemes += p.phonemeTotal

		if len(s.PredictedGOP) != len(s.GroundTruthGOP) {
			return nil, fmt.Errorf("eval: sample %d: %w", i, ErrLengthMismatch)
		}
		pooledPred = append(pooledPred, s.PredictedGOP...)
		pooledGT = append(pooledGT, s.GroundTruthGOP...)

		miner.Observe(s.PredictedPhonemes, s.GroundTruthPhonemes)

		audioSec += s.AudioDurationSec
		latencyMs += s.ScoringLatencyMs
		if s.ScoringLatencyMs > 0 {
			latencies = append(latencies, s.ScoringLatencyMs)
		}
	}

	result := EvaluationResult{
		NumSamples:            len(corpus),
		TotalAudioDurationSec: audioSec,
	}

	if totalRefWords > 0 {
		result.WordErrorRate = float64(totalDistance) / float64(totalRefWords)
	}
	if totalPhonemes > 0 {
		result.PhonemeAccuracy = float64(correct) / float64(totalPhonemes)
	}

	if len(pooledPred) > 0 {
		stats, err := GOPMetrics(pooledPred, pooledGT)
		if err != nil {
			return nil, fmt.Errorf("eval: pooled GOP metrics: %w", err)
		}
		result.GOPCorrelation = stats.Correlation
		result.GOPMAE = stats.MAE
	}

	if len(latencies) > 0 {
		result.LatencyP50Ms = Percentile(latencies, 50)
		result.LatencyP99Ms = Percentile(latencies, 99)
	}
	if latencyMs > 0 {
		result.ThroughputAudioSecPerSec = audioSec / (latencyMs / 1000)
	}

	return &Report{
		Result: result,
		Errors: ErrorAnalysis{
			TopPhonemeErrors:   miner.TopConfusions(topConfusionLimit),
			VietnameseSpecific: miner.Categories(),
		},
	}, nil
}

// evaluateUtterance computes the order-independent per-utterance partial.
func evaluateUtterance(s *Sample) utterancePartial {
	ref := Tokenize(s.Reference)
	hyp := Tokenize(s.Hypothesis)

	p := utterancePartial{
		editDistance:   Align(ref, hyp).Distance,
		referenceWords: len(ref),
	}

	matched := min(len(s.PredictedPhonemes), len(s.GroundTruthPhonemes))
	for j := 0; j < matched; j++ {
		if s.PredictedPhonemes[j] == s.GroundTruthPhonemes[j] {
			p.phonemeCorrect++
		}
	}
	p.phonemeTotal = len(s.GroundTruthPhonemes)

	return p
}
