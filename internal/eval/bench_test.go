package eval_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/vietspeak-ai/vietspeak/internal/eval"
)

func TestPercentile(t *testing.T) {
	t.Parallel()

	samples := []float64{10, 20, 30, 40, 50}

	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{"median", 50, 30},
		{"min", 0, 10},
		{"max", 100, 50},
		{"interpolated p90", 90, 46},
		{"interpolated p25", 25, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := eval.Percentile(samples, tt.p)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPercentileEdgeCases(t *testing.T) {
	t.Parallel()

	if got := eval.Percentile(nil, 50); got != 0 {
		t.Errorf("Percentile(nil) = %v, want 0", got)
	}
	if got := eval.Percentile([]float64{7.5}, 99); got != 7.5 {
		t.Errorf("Percentile(single) = %v, want 7.5", got)
	}
	// Input must not be reordered.
	in := []float64{3, 1, 2}
	eval.Percentile(in, 50)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("Percentile modified its input: %v", in)
	}
}

func TestBenchmarkStatsOrdering(t *testing.T) {
	t.Parallel()

	samples := make([]int, 50)
	stats, err := eval.Benchmark(context.Background(), func(ctx context.Context, s int) error {
		return nil
	}, samples, eval.WithWarmupRuns(2), eval.WithTimedRuns(50))
	if err != nil {
		t.Fatalf("Benchmark: %v", err)
	}

	if stats.P50 > stats.P90 || stats.P90 > stats.P99 {
		t.Errorf("percentiles out of order: p50=%v p90=%v p99=%v", stats.P50, stats.P90, stats.P99)
	}
	if stats.Mean < 0 || stats.Std < 0 {
		t.Errorf("negative mean or std: mean=%v std=%v", stats.Mean, stats.Std)
	}
}

func TestBenchmarkCountsCalls(t *testing.T) {
	t.Parallel()

	samples := make([]int, 10)
	var calls int
	_, err := eval.Benchmark(context.Background(), func(ctx context.Context, s int) error {
		calls++
		return nil
	}, samples, eval.WithWarmupRuns(3), eval.WithTimedRuns(5))
	if err != nil {
		t.Fatalf("Benchmark: %v", err)
	}
	if calls != 8 {
		t.Errorf("calls = %d, want 8 (3 warmup + 5 timed)", calls)
	}
}

func TestBenchmarkRunsCappedBySamples(t *testing.T) {
	t.Parallel()

	samples := make([]int, 4)
	var calls int
	_, err := eval.Benchmark(context.Background(), func(ctx context.Context, s int) error {
		calls++
		return nil
	}, samples, eval.WithWarmupRuns(10), eval.WithTimedRuns(100))
	if err != nil {
		t.Fatalf("Benchmark: %v", err)
	}
	if calls != 8 {
		t.Errorf("calls = %d, want 8 (4 warmup + 4 timed, capped by sample count)", calls)
	}
}

func TestBenchmarkAbortsOnTimedError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	samples := make([]int, 10)
	var calls int
	_, err := eval.Benchmark(context.Background(), func(ctx context.Context, s int) error {
		calls++
		if calls == 5 { // 3rd timed call after 2 warmups
			return boom
		}
		return nil
	}, samples, eval.WithWarmupRuns(2), eval.WithTimedRuns(10))

	var benchErr *eval.BenchmarkError
	if !errors.As(err, &benchErr) {
		t.Fatalf("err = %v, want *BenchmarkError", err)
	}
	if benchErr.Run != 2 {
		t.Errorf("Run = %d, want 2", benchErr.Run)
	}
	if !errors.Is(err, boom) {
		t.Errorf("errors.Is(err, boom) = false, want true")
	}
	if calls != 5 {
		t.Errorf("calls after abort = %d, want 5", calls)
	}
}

func TestBenchmarkAbortsOnWarmupError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	samples := make([]int, 10)
	_, err := eval.Benchmark(context.Background(), func(ctx context.Context, s int) error {
		return boom
	}, samples, eval.WithWarmupRuns(3), eval.WithTimedRuns(10))

	var benchErr *eval.BenchmarkError
	if !errors.As(err, &benchErr) {
		t.Fatalf("err = %v, want *BenchmarkError", err)
	}
	if benchErr.Run >= 0 {
		t.Errorf("warmup failure Run = %d, want negative offset", benchErr.Run)
	}
}
