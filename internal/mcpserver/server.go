// Package mcpserver exposes the pronunciation analysis tools over the Model
// Context Protocol so that MCP-compatible clients (Claude Desktop, Cursor,
// agent frameworks) can assess pronunciation directly.
//
// Five tools are registered: analyze_pronunciation, transcribe_audio,
// get_phoneme_feedback, compare_pronunciation and get_progress. The server
// runs over stdio or as a streamable HTTP handler.
package mcpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vietspeak-ai/vietspeak/internal/analyze"
	"github.com/vietspeak-ai/vietspeak/internal/attempts"
	"github.com/vietspeak-ai/vietspeak/internal/observe"
)

const (
	serverName = "vietspeak-pronunciation"
	// Version of the MCP server implementation reported to clients.
	Version = "1.0.0"
)

// Server wraps an MCP server around a pronunciation [analyze.Analyzer].
type Server struct {
	analyzer *analyze.Analyzer
	store    attempts.Store
	metrics  *observe.Metrics
	mcp      *mcp.Server
}

// New creates a Server with all pronunciation tools registered. If store is
// nil an in-memory attempt store is used; if metrics is nil the process-wide
// default instruments are used.
func New(analyzer *analyze.Analyzer, store attempts.Store, metrics *observe.Metrics) *Server {
	if store == nil {
		store = attempts.NewMemStore()
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	s := &Server{
		analyzer: analyzer,
		store:    store,
		metrics:  metrics,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: Version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns a streamable HTTP handler for the MCP server, suitable
// for mounting on an existing mux.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "analyze_pronunciation",
		Description: "Analyze English pronunciation from audio. Returns overall score, " +
			"accuracy, fluency, and detailed phoneme-level feedback. Optimized for " +
			"Vietnamese English learners with L1 interference detection.",
	}, instrument(s.metrics, "analyze_pronunciation", s.analyzePronunciation))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "transcribe_audio",
		Description: "Transcribe English speech audio to text using ASR. Returns the " +
			"transcribed text with a confidence score.",
	}, instrument(s.metrics, "transcribe_audio", s.transcribeAudio))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_phoneme_feedback",
		Description: "Get detailed phoneme-level pronunciation feedback for a text, " +
			"with specific tips for Vietnamese speakers.",
	}, instrument(s.metrics, "get_phoneme_feedback", s.phonemeFeedback))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "compare_pronunciation",
		Description: "Compare two pronunciation attempts of the same text and report " +
			"per-dimension improvement. Omit the before-audio to compare against the " +
			"learner's last recorded attempt at the text.",
	}, instrument(s.metrics, "compare_pronunciation", s.comparePronunciation))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_progress",
		Description: "Get a learner's recent pronunciation attempts, newest first, " +
			"to track progress over time.",
	}, instrument(s.metrics, "get_progress", s.getProgress))
}

// instrument wraps a typed tool handler with duration and error accounting.
func instrument[In, Out any](
	m *observe.Metrics,
	tool string,
	h func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error),
) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		start := time.Now()
		res, out, err := h(ctx, req, in)
		m.RecordToolCall(ctx, tool, time.Since(start).Seconds(), err)
		return res, out, err
	}
}
