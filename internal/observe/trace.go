package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// scopeName identifies the instrumentation scope on every span this package
// starts. Spans from the recognizer, the scoring pipeline, and the MCP
// transport all share this scope so they group together in trace backends.
const scopeName = "github.com/vietspeak-ai/vietspeak"

// StartSpan opens a span named after the operation, e.g. "analyze.Analyze"
// or "HTTP POST /mcp". The caller owns the span and must End it.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(scopeName).Start(ctx, name, opts...)
}

// CorrelationID returns the hex trace ID of the active span, or "" when ctx
// carries no recording trace. The same value is surfaced to MCP clients in
// the X-Correlation-ID response header, so a learner-reported evaluation can
// be matched back to its trace and log lines.
func CorrelationID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default [slog.Logger], annotated with trace_id and
// span_id when ctx carries an active span. Pipeline code logs through this
// so transcription warnings and scoring errors line up with their trace.
func Logger(ctx context.Context) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return slog.Default()
	}
	return slog.Default().With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}
