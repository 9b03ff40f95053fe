package eval

import "math"

// GOPStats holds correlation and error statistics between predicted and
// ground-truth GOP (Goodness of Pronunciation) score arrays.
type GOPStats struct {
	// Correlation is the Pearson correlation coefficient.
	Correlation float64

	// MAE is the mean absolute error.
	MAE float64

	// RMSE is the root mean square error.
	RMSE float64
}

// GOPMetrics computes Pearson correlation, MAE, and RMSE between two
// parallel score arrays.
//
// The arrays must have equal length ([ErrLengthMismatch] otherwise, with zero
// stats). MAE and RMSE are defined for any pair of equal-length arrays and
// are always computed. The correlation additionally needs at least two points
// and non-zero variance in both arrays; when that does not hold the returned
// stats still carry MAE and RMSE, Correlation stays zero, and the error is
// [ErrDegenerateInput] — an undefined correlation fails loudly instead of
// silently reporting zero.
func GOPMetrics(predicted, groundTruth []float64) (GOPStats, error) {
	if len(predicted) != len(groundTruth) {
		return GOPStats{}, ErrLengthMismatch
	}
	if len(predicted) == 0 {
		return GOPStats{}, ErrDegenerateInput
	}

	n := float64(len(predicted))

	var meanP, meanG float64
	for i := range predicted {
		meanP += predicted[i]
		meanG += groundTruth[i]
	}
	meanP /= n
	meanG /= n

	var cov, varP, varG, absSum, sqSum float64
	for i := range predicted {
		dp := predicted[i] - meanP
		dg := groundTruth[i] - meanG
		cov += dp * dg
		varP += dp * dp
		varG += dg * dg

		diff := predicted[i] - groundTruth[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
	}

	stats := GOPStats{
		MAE:  absSum / n,
		RMSE: math.Sqrt(sqSum / n),
	}

	if len(predicted) < 2 || varP == 0 || varG == 0 {
		return stats, ErrDegenerateInput
	}

	stats.Correlation = cov / math.Sqrt(varP*varG)
	return stats, nil
}

// PhonemeAccuracy computes positional phoneme accuracy over a corpus of
// parallel phoneme sequences.
//
// For each pair only the first min(len(predicted), len(groundTruth))
// positions are compared, but the denominator accumulates the full
// ground-truth length — a predicted sequence that is too short is penalised
// for its missing tail. This is deliberately not an alignment: re-aligning
// would change the metric's meaning (see [WordErrorRate] for the
// alignment-based counterpart at word level).
//
// An empty corpus (zero ground-truth phonemes) yields 0.0.
func PhonemeAccuracy(predicted, groundTruth [][]string) float64 {
	correct := 0
	total := 0

	n := min(len(predicted), len(groundTruth))
	for i := 0; i < n; i++ {
		pred, gt := predicted[i], groundTruth[i]
		for j := 0; j < min(len(pred), len(gt)); j++ {
			if pred[j] == gt[j] {
				correct++
			}
		}
		total += len(gt)
	}

	if total == 0 {
		return 0.0
	}
	return float64(correct) / float64(total)
}
