package eval

import (
	"context"
	"math"
	"slices"
	"time"
)

const (
	defaultWarmupRuns = 10
	defaultTimedRuns  = 100
)

// LatencyStats summarises a latency distribution in milliseconds. Std is the
// population standard deviation.
type LatencyStats struct {
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
	P99  float64 `json:"p99"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// BenchOption configures a [Benchmark] run.
type BenchOption func(*benchConfig)

type benchConfig struct {
	warmup int
	runs   int
}

// WithWarmupRuns sets the number of untimed warmup calls executed before
// measurement begins. Default: 10.
func WithWarmupRuns(n int) BenchOption {
	return func(c *benchConfig) { c.warmup = n }
}

// WithTimedRuns sets the number of timed calls. Default: 100.
func WithTimedRuns(n int) BenchOption {
	return func(c *benchConfig) { c.runs = n }
}

// Benchmark measures the wall-clock latency distribution of fn over the given
// samples.
//
// min(warmup, len(samples)) untimed calls run first to avoid cold-start bias;
// their results are discarded. min(runs, len(samples)) timed calls then run
// strictly sequentially — parallel timed calls would perturb the very
// distribution being measured. Each duration is recorded in milliseconds and
// percentiles are computed by linear interpolation over the full array.
//
// The first error from fn aborts the run immediately and is returned wrapped
// in a [*BenchmarkError]; no partial statistics are synthesised.
func Benchmark[S any](ctx context.Context, fn func(context.Context, S) error, samples []S, opts ...BenchOption) (LatencyStats, error) {
	cfg := benchConfig{warmup: defaultWarmupRuns, runs: defaultTimedRuns}
	for _, o := range opts {
		o(&cfg)
	}

	for i := 0; i < min(cfg.warmup, len(samples)); i++ {
		if err := fn(ctx, samples[i]); err != nil {
			return LatencyStats{}, &BenchmarkError{Run: i - cfg.warmup, Err: err}
		}
	}

	timed := min(cfg.runs, len(samples))
	latencies := make([]float64, 0, timed)
	for i := 0; i < timed; i++ {
		start := time.Now()
		if err := fn(ctx, samples[i]); err != nil {
			return LatencyStats{}, &BenchmarkError{Run: i, Err: err}
		}
		latencies = append(latencies, float64(time.Since(start).Nanoseconds())/1e6)
	}

	return summarise(latencies), nil
}

// summarise computes the full latency statistics for the collected samples.
// An empty slice yields all-zero stats.
func summarise(latencies []float64) LatencyStats {
	if len(latencies) == 0 {
		return LatencyStats{}
	}

	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	var sum float64
	for _, l := range latencies {
		sum += l
	}
	mean := sum / float64(len(latencies))

	var sqDev float64
	for _, l := range latencies {
		d := l - mean
		sqDev += d * d
	}

	return LatencyStats{
		P50:  percentileSorted(sorted, 50),
		P90:  percentileSorted(sorted, 90),
		P99:  percentileSorted(sorted, 99),
		Mean: mean,
		Std:  math.Sqrt(sqDev / float64(len(latencies))),
	}
}

// Percentile returns the p-th percentile (0–100) of samples using linear
// interpolation between the two nearest ranks. Returns 0 for an empty slice.
// The input is not modified.
func Percentile(samples []float64, p float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	return percentileSorted(sorted, p)
}

// percentileSorted is [Percentile] over an already-sorted slice.
func percentileSorted(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
