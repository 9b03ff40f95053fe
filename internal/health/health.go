// Package health implements the liveness and readiness endpoints of the
// pronunciation server's HTTP surface.
//
// Liveness (/healthz) only states that the process is up and serving HTTP.
// Readiness (/readyz) runs the registered probes — recognizer backend,
// interference rule file, attempt store — and reports each outcome in
// registration order; any failing probe turns the endpoint 503 so an
// orchestrator stops routing MCP traffic until the dependency recovers.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// probeTimeout bounds a single readiness probe. Probes are cheap (a pool
// ping, a stat, a nil check); anything slower than this is itself a failure.
const probeTimeout = 3 * time.Second

// Checker is one readiness probe.
type Checker struct {
	// Name labels the probe in the readiness response, e.g. "recognizer",
	// "rules_file", "database".
	Name string

	// Check probes the dependency, respecting ctx. Nil means healthy.
	Check func(ctx context.Context) error
}

// probeReport is the per-probe entry in the readiness response. Probes are
// reported as an ordered list, not a map, so the response mirrors the
// registration order and repeated scrapes diff cleanly.
type probeReport struct {
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	Error     string  `json:"error,omitempty"`
	ElapsedMs float64 `json:"elapsed_ms"`
}

type statusBody struct {
	Status string        `json:"status"`
	Probes []probeReport `json:"probes,omitempty"`
}

// Handler serves the liveness and readiness endpoints. The probe list is
// fixed at construction, so a Handler is safe for concurrent use.
type Handler struct {
	probes []Checker
}

// New builds a Handler over the given probes. Probes run sequentially in the
// order given on every /readyz request.
func New(probes ...Checker) *Handler {
	h := &Handler{probes: make([]Checker, len(probes))}
	copy(h.probes, probes)
	return h
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// Healthz answers 200 unconditionally: a process that reaches this handler
// is alive.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, statusBody{Status: "pass"})
}

// Readyz runs every probe and answers 200 only when all pass. Each probe
// gets its own [probeTimeout] deadline derived from the request context, and
// every probe runs even after a failure so the response lists all broken
// dependencies at once.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	body := statusBody{
		Status: "pass",
		Probes: make([]probeReport, 0, len(h.probes)),
	}

	for _, p := range h.probes {
		body.Probes = append(body.Probes, runProbe(r.Context(), p))
	}

	code := http.StatusOK
	for _, pr := range body.Probes {
		if pr.Status != "pass" {
			body.Status = "fail"
			code = http.StatusServiceUnavailable
			break
		}
	}

	respond(w, code, body)
}

// runProbe executes one probe under its deadline and times it.
func runProbe(ctx context.Context, p Checker) probeReport {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := p.Check(ctx)
	report := probeReport{
		Name:      p.Name,
		Status:    "pass",
		ElapsedMs: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		report.Status = "fail"
		report.Error = err.Error()
	}
	return report
}

func respond(w http.ResponseWriter, code int, body statusBody) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, `{"status":"fail"}`, http.StatusInternalServerError)
	}
}
