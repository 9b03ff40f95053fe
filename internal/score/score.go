// Package score turns a normalised reference/hypothesis similarity into the
// four-dimensional human-facing pronunciation score and provides the helpers
// the feedback layer keys its suggestions from.
package score

import "math"

// PronunciationScore is the human-facing score on a 0–100 scale.
type PronunciationScore struct {
	Overall      float64 `json:"overall"`
	Accuracy     float64 `json:"accuracy"`
	Fluency      float64 `json:"fluency"`
	Completeness float64 `json:"completeness"`
}

// Synthesize maps a similarity ratio s in [0, 1] onto a [PronunciationScore].
//
// The dimensions are fixed linear derivations of the similarity:
//
//	overall      = round(s*100, 1)
//	accuracy     = round(overall*0.95, 1)
//	fluency      = round(overall*0.90, 1)
//	completeness = round(s*100, 1)
//
// Since s ∈ [0, 1], all four dimensions lie in [0, 100] by construction, with
// accuracy ≤ overall and fluency ≤ overall. Inputs outside [0, 1] are clamped.
func Synthesize(s float64) PronunciationScore {
	s = clamp01(s)

	overall := round1(s * 100)
	return PronunciationScore{
		Overall:      overall,
		Accuracy:     round1(overall * 0.95),
		Fluency:      round1(overall * 0.90),
		Completeness: round1(s * 100),
	}
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
