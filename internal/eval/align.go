// Package eval implements the pronunciation evaluation core: word-level
// alignment, GOP score statistics, phoneme error-pattern mining, latency
// benchmarking, and the corpus evaluation engine that folds per-utterance
// results into an [EvaluationResult].
//
// All functions in this package are pure: they hold no state between calls,
// perform no I/O, and may be invoked concurrently.
package eval

import "strings"

// AlignmentResult holds the minimum edit distance between a reference and a
// hypothesis token sequence together with one operation-count decomposition
// that realises it.
//
// Only Distance is deterministic: several substitution/insertion/deletion
// decompositions can realise the same distance, and the backtrace picks one
// of them (substitution preferred over insertion over deletion on ties).
// Distance == Substitutions + Insertions + Deletions always holds.
type AlignmentResult struct {
	Distance      int
	Substitutions int
	Insertions    int
	Deletions     int
}

// Align computes the unit-cost Levenshtein alignment between the reference
// and hypothesis token sequences. Tokens are compared for exact equality;
// callers normalise case beforehand when case-insensitive comparison is
// wanted.
func Align(reference, hypothesis []string) AlignmentResult {
	m, n := len(reference), len(hypothesis)

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
		dp[i][0] = i
	}
	for j := 0; j <= n; j++ {
		dp[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if reference[i-1] == hypothesis[j-1] {
				dp[i][j] = dp[i-1][j-1]
				continue
			}
			dp[i][j] = 1 + min(dp[i-1][j-1], dp[i-1][j], dp[i][j-1])
		}
	}

	res := AlignmentResult{Distance: dp[m][n]}

	// Backtrace to classify operations. Ties prefer substitution, then
	// insertion, then deletion; the classification is informational only.
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && reference[i-1] == hypothesis[j-1] && dp[i][j] == dp[i-1][j-1]:
			i, j = i-1, j-1
		case i > 0 && j > 0 && dp[i][j] == dp[i-1][j-1]+1:
			res.Substitutions++
			i, j = i-1, j-1
		case j > 0 && dp[i][j] == dp[i][j-1]+1:
			res.Insertions++
			j--
		default:
			res.Deletions++
			i--
		}
	}

	return res
}

// Tokenize lowercases s and splits it on whitespace. It is the shared
// normalisation step for all word-level comparisons.
func Tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// WordErrorRate computes the corpus word error rate over parallel hypothesis
// and reference transcripts:
//
//	WER = total edit distance / total reference words
//
// Each pair is lowercased and tokenized on whitespace, then aligned with
// unit-cost word-level Levenshtein. Distances and reference word counts are
// pooled across all pairs before dividing; per-pair ratios are never
// averaged. An empty corpus (zero reference words) yields 0.0.
//
// Pairs beyond the shorter of the two slices are ignored, matching the
// zip semantics of the evaluation data loader.
func WordErrorRate(hypotheses, references []string) float64 {
	totalDistance := 0
	totalWords := 0

	n := min(len(hypotheses), len(references))
	for i := 0; i < n; i++ {
		ref := Tokenize(references[i])
		hyp := Tokenize(hypotheses[i])
		totalDistance += Align(ref, hyp).Distance
		totalWords += len(ref)
	}

	if totalWords == 0 {
		return 0.0
	}
	return float64(totalDistance) / float64(totalWords)
}

// SimilarityRatio returns a normalised alignment similarity in [0, 1]
// between two texts, computed over lowercased word tokens:
//
//	1 - editDistance / max(|ref|, |hyp|)
//
// Two empty texts are identical (ratio 1). The ratio feeds the score
// synthesiser, which maps it onto the human-facing 0–100 scale.
func SimilarityRatio(reference, hypothesis string) float64 {
	ref := Tokenize(reference)
	hyp := Tokenize(hypothesis)

	longest := max(len(ref), len(hyp))
	if longest == 0 {
		return 1.0
	}

	d := Align(ref, hyp).Distance
	return 1.0 - float64(d)/float64(longest)
}
