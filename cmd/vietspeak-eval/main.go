// Command vietspeak-eval runs the offline evaluation pipeline over a corpus
// manifest and writes aggregate metrics plus an optional HTML report.
//
// The corpus is a JSON-lines file with one sample per line:
//
//	{"reference": "...", "hypothesis": "...", "predicted_gop": [...], ...}
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/vietspeak-ai/vietspeak/internal/config"
	"github.com/vietspeak-ai/vietspeak/internal/eval"
	"github.com/vietspeak-ai/vietspeak/internal/observe"
)

func main() {
	os.Exit(run())
}

func run() int {
	corpusPath := flag.String("corpus", "", "path to the JSON-lines corpus manifest (required)")
	configPath := flag.String("config", "", "optional YAML config file for evaluation settings")
	outDir := flag.String("out", "", "output directory (overrides evaluation.output_dir)")
	htmlReport := flag.Bool("report", false, "also write report.html (or set evaluation.html_report)")
	bench := flag.Bool("bench", false, "benchmark scoring latency over the corpus")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *corpusPath == "" {
		fmt.Fprintln(os.Stderr, "vietspeak-eval: -corpus is required")
		flag.Usage()
		return 2
	}

	evalCfg := config.EvaluationConfig{OutputDir: "./eval_results"}
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			return 1
		}
		evalCfg = cfg.Evaluation
		if evalCfg.OutputDir == "" {
			evalCfg.OutputDir = "./eval_results"
		}
	}
	if *outDir != "" {
		evalCfg.OutputDir = *outDir
	}
	if *htmlReport {
		evalCfg.HTMLReport = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	corpus, err := loadCorpus(*corpusPath)
	if err != nil {
		slog.Error("failed to load corpus", "path", *corpusPath, "err", err)
		return 1
	}
	slog.Info("corpus loaded", "path", *corpusPath, "samples", len(corpus))

	engine := eval.NewEngine(eval.WithParallelism(evalCfg.Parallelism))
	done := observe.DefaultMetrics().StartEvaluation(ctx)
	report, err := engine.Evaluate(ctx, corpus)
	done()
	if err != nil {
		slog.Error("evaluation failed", "err", err)
		return 1
	}

	printSummary(report)

	if *bench {
		if err := runBenchmark(ctx, engine, corpus, evalCfg); err != nil {
			slog.Error("benchmark failed", "err", err)
			return 1
		}
	}

	if err := os.MkdirAll(evalCfg.OutputDir, 0o755); err != nil {
		slog.Error("failed to create output directory", "dir", evalCfg.OutputDir, "err", err)
		return 1
	}

	metricsPath := filepath.Join(evalCfg.OutputDir, "metrics.json")
	if err := eval.WriteMetricsJSON(metricsPath, report); err != nil {
		slog.Error("failed to write metrics", "err", err)
		return 1
	}
	slog.Info("metrics written", "path", metricsPath)

	if evalCfg.HTMLReport {
		reportPath := filepath.Join(evalCfg.OutputDir, "report.html")
		if err := eval.WriteHTMLReport(reportPath, report); err != nil {
			slog.Error("failed to write report", "err", err)
			return 1
		}
		slog.Info("report written", "path", reportPath)
	}

	return 0
}

// loadCorpus reads a JSON-lines manifest into evaluation samples. Blank lines
// and lines starting with # are skipped.
func loadCorpus(path string) ([]eval.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var corpus []eval.Sample
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		var s eval.Sample
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		corpus = append(corpus, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(corpus) == 0 {
		return nil, errors.New("corpus is empty")
	}
	return corpus, nil
}

// runBenchmark measures end-to-end scoring latency per sample and logs the
// distribution.
func runBenchmark(ctx context.Context, engine *eval.Engine, corpus []eval.Sample, cfg config.EvaluationConfig) error {
	var opts []eval.BenchOption
	if cfg.WarmupRuns > 0 {
		opts = append(opts, eval.WithWarmupRuns(cfg.WarmupRuns))
	}
	if cfg.TimedRuns > 0 {
		opts = append(opts, eval.WithTimedRuns(cfg.TimedRuns))
	}

	// Single-sample GOP arrays are usually too short for pooled statistics,
	// so the benchmark times alignment, mining and scoring only.
	timed := make([]eval.Sample, len(corpus))
	for i, s := range corpus {
		s.PredictedGOP = nil
		s.GroundTruthGOP = nil
		timed[i] = s
	}

	stats, err := eval.Benchmark(ctx, func(ctx context.Context, s eval.Sample) error {
		_, err := engine.Evaluate(ctx, []eval.Sample{s})
		return err
	}, timed, opts...)
	if err != nil {
		return err
	}

	slog.Info("scoring latency",
		"p50_ms", fmt.Sprintf("%.2f", stats.P50),
		"p90_ms", fmt.Sprintf("%.2f", stats.P90),
		"p99_ms", fmt.Sprintf("%.2f", stats.P99),
		"mean_ms", fmt.Sprintf("%.2f", stats.Mean),
		"std_ms", fmt.Sprintf("%.2f", stats.Std),
	)
	return nil
}

func printSummary(r *eval.Report) {
	res := r.Result
	fmt.Println("──────────── evaluation summary ────────────")
	fmt.Printf("  samples            : %d\n", res.NumSamples)
	fmt.Printf("  word error rate    : %.2f%%\n", res.WordErrorRate*100)
	fmt.Printf("  phoneme accuracy   : %.2f%%\n", res.PhonemeAccuracy*100)
	fmt.Printf("  GOP correlation    : %.4f\n", res.GOPCorrelation)
	fmt.Printf("  GOP MAE            : %.4f\n", res.GOPMAE)
	fmt.Printf("  latency p50 / p99  : %.1f / %.1f ms\n", res.LatencyP50Ms, res.LatencyP99Ms)
	fmt.Printf("  throughput         : %.1fx realtime\n", res.ThroughputAudioSecPerSec)
	fmt.Printf("  audio duration     : %.1f s\n", res.TotalAudioDurationSec)
	if len(r.Errors.TopPhonemeErrors) > 0 {
		fmt.Println("  top phoneme confusions:")
		for _, c := range r.Errors.TopPhonemeErrors {
			fmt.Printf("    %-6s → %-6s %d\n", c.Confusion.Expected, c.Confusion.Observed, c.Count)
		}
	}
	fmt.Println("────────────────────────────────────────────")
}
