// Command vietspeak is the pronunciation analysis MCP server for Vietnamese
// English learners.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietspeak-ai/vietspeak/internal/analyze"
	"github.com/vietspeak-ai/vietspeak/internal/attempts"
	"github.com/vietspeak-ai/vietspeak/internal/config"
	"github.com/vietspeak-ai/vietspeak/internal/feedback"
	"github.com/vietspeak-ai/vietspeak/internal/health"
	"github.com/vietspeak-ai/vietspeak/internal/mcpserver"
	"github.com/vietspeak-ai/vietspeak/internal/observe"
	"github.com/vietspeak-ai/vietspeak/pkg/recognizer"
	recmock "github.com/vietspeak-ai/vietspeak/pkg/recognizer/mock"
	oairec "github.com/vietspeak-ai/vietspeak/pkg/recognizer/openai"
	"github.com/vietspeak-ai/vietspeak/pkg/recognizer/whispercpp"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Logger ────────────────────────────────────────────────────────────────
	// MCP stdio mode owns stdout, so all logging goes to stderr.
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load configuration (watched for changes) ──────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		applyConfigChange(level, old, new)
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "vietspeak: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "vietspeak: %v\n", err)
		}
		return 1
	}
	defer watcher.Stop()
	cfg := watcher.Current()
	level.Set(slogLevel(cfg.Server.LogLevel))

	slog.Info("vietspeak starting",
		"config", *configPath,
		"recognizer", cfg.Recognizer.Name,
		"mcp_transport", cfg.Server.MCPTransport,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: mcpserver.Version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Recognizer ────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinRecognizers(reg)

	recCfg := cfg.Recognizer
	if recCfg.Name == "" {
		slog.Warn("recognizer.name not set; using the mock backend")
		recCfg.Name = config.RecognizerMock
	}
	rec, err := reg.Create(recCfg)
	if err != nil {
		slog.Error("failed to create recognizer", "name", recCfg.Name, "err", err)
		return 1
	}
	defer func() {
		if err := rec.Close(); err != nil {
			slog.Warn("recognizer close error", "err", err)
		}
	}()
	slog.Info("recognizer created", "name", recCfg.Name)

	// ── Feedback rules ────────────────────────────────────────────────────────
	rules := feedback.DefaultRules()
	if cfg.Feedback.RulesPath != "" {
		rules, err = feedback.LoadRules(cfg.Feedback.RulesPath)
		if err != nil {
			slog.Error("failed to load feedback rules", "path", cfg.Feedback.RulesPath, "err", err)
			return 1
		}
		slog.Info("feedback rules loaded", "path", cfg.Feedback.RulesPath, "rules", len(rules))
	}

	// ── Attempt store ─────────────────────────────────────────────────────────
	var store attempts.Store = attempts.NewMemStore()
	var dbPing func(context.Context) error
	if cfg.Attempts.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Attempts.PostgresDSN)
		if err != nil {
			slog.Error("failed to connect to postgres", "err", err)
			return 1
		}
		defer pool.Close()

		pgStore := attempts.NewPostgresStore(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			slog.Error("failed to migrate attempts schema", "err", err)
			return 1
		}
		store = pgStore
		dbPing = pool.Ping
		slog.Info("attempt store ready", "backend", "postgres")
	} else {
		slog.Info("attempt store ready", "backend", "memory")
	}

	// ── MCP server ────────────────────────────────────────────────────────────
	analyzer := analyze.New(rec, feedback.NewAdvisor(rules), metrics)
	srv := mcpserver.New(analyzer, store, metrics)

	// ── HTTP endpoints (health, metrics, optional MCP transport) ──────────────
	var httpServer *http.Server
	if cfg.Server.ListenAddr != "" {
		mux := http.NewServeMux()
		checkers := []health.Checker{
			health.Recognizer(func() bool { return rec != nil }),
			health.RulesFile(cfg.Feedback.RulesPath),
		}
		if dbPing != nil {
			checkers = append(checkers, health.Database(dbPing))
		}
		health.New(checkers...).Register(mux)
		mux.Handle("GET /metrics", promhttp.Handler())
		if cfg.Server.MCPTransport == config.TransportStreamableHTTP {
			mux.Handle("/mcp", srv.HTTPHandler())
		}

		httpServer = &http.Server{
			Addr:              cfg.Server.ListenAddr,
			Handler:           observe.Middleware(metrics)(mux),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("http server listening", "addr", cfg.Server.ListenAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "err", err)
				stop()
			}
		}()
	}

	// ── Serve MCP ─────────────────────────────────────────────────────────────
	if cfg.Server.MCPTransport == config.TransportStreamableHTTP {
		slog.Info("mcp server ready", "transport", "streamable-http", "endpoint", "/mcp")
		<-ctx.Done()
	} else {
		slog.Info("mcp server ready", "transport", "stdio")
		if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("mcp server error", "err", err)
			return 1
		}
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutting down")
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "err", err)
			return 1
		}
	}
	slog.Info("goodbye")
	return 0
}

// registerBuiltinRecognizers wires the recognizer backends that ship with the
// server into reg.
func registerBuiltinRecognizers(reg *config.Registry) {
	reg.Register(config.RecognizerWhisperNative, func(cfg config.RecognizerConfig) (recognizer.Recognizer, error) {
		var opts []whispercpp.Option
		if cfg.Language != "" {
			opts = append(opts, whispercpp.WithLanguage(cfg.Language))
		}
		return whispercpp.New(cfg.ModelPath, opts...)
	})

	reg.Register(config.RecognizerOpenAI, func(cfg config.RecognizerConfig) (recognizer.Recognizer, error) {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		var opts []oairec.Option
		if cfg.BaseURL != "" {
			opts = append(opts, oairec.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Language != "" {
			opts = append(opts, oairec.WithLanguage(cfg.Language))
		}
		return oairec.New(apiKey, oairec.DefaultModel, opts...)
	})

	reg.Register(config.RecognizerMock, func(config.RecognizerConfig) (recognizer.Recognizer, error) {
		return recmock.New(), nil
	})
}

// applyConfigChange applies hot-reloadable config changes to the running
// server and logs the rest.
func applyConfigChange(level *slog.LevelVar, old, new *config.Config) {
	d := config.Diff(old, new)
	if d.LogLevelChanged {
		level.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.RulesPathChanged {
		slog.Warn("feedback rules path changed; new rules apply after restart", "path", d.NewRulesPath)
	}
	if !d.HotReloadable() {
		slog.Warn("recognizer or attempt store configuration changed; restart required")
	}
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
