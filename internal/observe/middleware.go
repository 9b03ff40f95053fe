package observe

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// traceware wraps one downstream handler with tracing, the correlation ID
// header, request duration metrics, and a completion log line. The MCP mux
// and the health endpoints are both served through it.
type traceware struct {
	next    http.Handler
	metrics *Metrics
	prop    propagation.TraceContext
}

// Middleware returns the instrumentation layer for the HTTP server.
// Incoming W3C trace context is honoured, so an MCP client that already
// carries a traceparent header joins its existing trace.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &traceware{next: next, metrics: m}
	}
}

func (tw *traceware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx := tw.prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := StartSpan(ctx, "HTTP "+r.Method+" "+r.URL.Path,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.URLPath(r.URL.Path),
		),
	)
	defer span.End()

	// Hand the trace ID to the client before the body is written. Learners
	// reporting a bad evaluation can quote it back to us.
	if cid := CorrelationID(ctx); cid != "" {
		w.Header().Set("X-Correlation-ID", cid)
	}
	tw.prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

	sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
	tw.next.ServeHTTP(sw, r.WithContext(ctx))

	elapsed := time.Since(start)
	tw.metrics.HTTPRequestDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("path", r.URL.Path),
		),
	)
	span.SetAttributes(semconv.HTTPResponseStatusCode(sw.code))

	Logger(ctx).Info("http request served",
		"method", r.Method,
		"path", r.URL.Path,
		"status", sw.code,
		"duration", elapsed,
	)
}

// statusWriter remembers the status code the downstream handler wrote so the
// span and log line can report it.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.code = code
	sw.ResponseWriter.WriteHeader(code)
}
