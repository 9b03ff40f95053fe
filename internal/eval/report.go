package eval

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
)

// WriteMetricsJSON writes the report as indented JSON to path, creating
// parent directories as needed.
func WriteMetricsJSON(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("eval: marshal metrics: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("eval: create results dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("eval: write metrics: %w", err)
	}
	return nil
}

// WriteHTMLReport renders the human-facing evaluation report to path.
func WriteHTMLReport(path string, r *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("eval: create results dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("eval: create report: %w", err)
	}
	defer f.Close()

	if err := RenderHTMLReport(f, r); err != nil {
		return err
	}
	return f.Close()
}

// RenderHTMLReport writes the HTML report to w.
func RenderHTMLReport(w io.Writer, r *Report) error {
	if err := reportTemplate.Execute(w, reportData{Report: r}); err != nil {
		return fmt.Errorf("eval: render report: %w", err)
	}
	return nil
}

// reportData adapts a Report for the template, adding derived display values.
type reportData struct {
	*Report
}

// PhonemeAccuracyPct returns phoneme accuracy as a percentage.
func (d reportData) PhonemeAccuracyPct() float64 {
	return d.Result.PhonemeAccuracy * 100
}

// WordErrorRatePct returns WER as a percentage.
func (d reportData) WordErrorRatePct() float64 {
	return d.Result.WordErrorRate * 100
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>VietSpeak AI - Evaluation Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        h1 { color: #333; }
        .metric { margin: 20px 0; padding: 15px; background: #f5f5f5; border-radius: 8px; }
        .metric-value { font-size: 24px; font-weight: bold; color: #2196F3; }
        .section { margin: 30px 0; }
        table { border-collapse: collapse; width: 100%; }
        th, td { border: 1px solid #ddd; padding: 12px; text-align: left; }
        th { background: #333; color: white; }
    </style>
</head>
<body>
    <h1>VietSpeak AI - Model Evaluation Report</h1>

    <div class="section">
        <h2>Pronunciation Metrics</h2>
        <div class="metric">
            <div>GOP Correlation</div>
            <div class="metric-value">{{printf "%.4f" .Result.GOPCorrelation}}</div>
        </div>
        <div class="metric">
            <div>Phoneme Accuracy</div>
            <div class="metric-value">{{printf "%.2f" .PhonemeAccuracyPct}}%</div>
        </div>
        <div class="metric">
            <div>Word Error Rate</div>
            <div class="metric-value">{{printf "%.2f" .WordErrorRatePct}}%</div>
        </div>
    </div>

    <div class="section">
        <h2>Performance Metrics</h2>
        <div class="metric">
            <div>Latency (P50)</div>
            <div class="metric-value">{{printf "%.2f" .Result.LatencyP50Ms}} ms</div>
        </div>
        <div class="metric">
            <div>Latency (P99)</div>
            <div class="metric-value">{{printf "%.2f" .Result.LatencyP99Ms}} ms</div>
        </div>
        <div class="metric">
            <div>Throughput</div>
            <div class="metric-value">{{printf "%.2f" .Result.ThroughputAudioSecPerSec}}x realtime</div>
        </div>
    </div>

    <div class="section">
        <h2>Top Phoneme Errors</h2>
        <table>
            <tr><th>Expected</th><th>Observed</th><th>Count</th></tr>
            {{range .Errors.TopPhonemeErrors}}<tr><td>{{.Expected}}</td><td>{{.Observed}}</td><td>{{.Count}}</td></tr>
            {{end}}
        </table>
    </div>

    <div class="section">
        <h2>Vietnamese-Specific Patterns</h2>
        <table>
            <tr><th>Category</th><th>Count</th></tr>
            <tr><td>Final consonant deletion</td><td>{{.Errors.VietnameseSpecific.FinalConsonantDeletion}}</td></tr>
            <tr><td>Interdental fricative substitution</td><td>{{.Errors.VietnameseSpecific.InterdentalSubstitution}}</td></tr>
            <tr><td>Liquid confusion (r/l)</td><td>{{.Errors.VietnameseSpecific.LiquidConfusion}}</td></tr>
            <tr><td>Vowel length confusion</td><td>{{.Errors.VietnameseSpecific.VowelLengthConfusion}}</td></tr>
        </table>
    </div>

    <div class="section">
        <h2>Dataset Statistics</h2>
        <p>Samples: {{.Result.NumSamples}}</p>
        <p>Total Audio: {{printf "%.2f" .Result.TotalAudioDurationSec}} seconds</p>
    </div>
</body>
</html>
`))
