package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.MCPTransport != "" && !cfg.Server.MCPTransport.IsValid() {
		errs = append(errs, fmt.Errorf("server.mcp_transport %q is invalid; valid values: stdio, streamable-http", cfg.Server.MCPTransport))
	}
	if cfg.Server.MCPTransport == TransportStreamableHTTP && cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required when mcp_transport is streamable-http"))
	}

	// Recognizer
	if cfg.Recognizer.Name != "" && !cfg.Recognizer.Name.IsValid() {
		errs = append(errs, fmt.Errorf("recognizer.name %q is invalid; valid values: whisper-native, openai, mock", cfg.Recognizer.Name))
	}
	if cfg.Recognizer.Name == RecognizerWhisperNative && cfg.Recognizer.ModelPath == "" {
		errs = append(errs, errors.New("recognizer.model_path is required for the whisper-native backend"))
	}
	if cfg.Recognizer.Name == RecognizerOpenAI && cfg.Recognizer.APIKey == "" && os.Getenv("OPENAI_API_KEY") == "" {
		slog.Warn("recognizer.api_key is empty and OPENAI_API_KEY is not set; hosted transcription will fail")
	}
	if cfg.Recognizer.Name == RecognizerMock {
		slog.Warn("recognizer.name is \"mock\"; transcriptions will be canned responses")
	}

	// Evaluation
	if cfg.Evaluation.WarmupRuns < 0 {
		errs = append(errs, fmt.Errorf("evaluation.warmup_runs %d must not be negative", cfg.Evaluation.WarmupRuns))
	}
	if cfg.Evaluation.TimedRuns < 0 {
		errs = append(errs, fmt.Errorf("evaluation.timed_runs %d must not be negative", cfg.Evaluation.TimedRuns))
	}
	if cfg.Evaluation.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("evaluation.parallelism %d must not be negative", cfg.Evaluation.Parallelism))
	}

	// Attempts
	if cfg.Attempts.PostgresDSN == "" {
		slog.Warn("attempts.postgres_dsn is empty; attempt history will not survive restarts")
	}

	return errors.Join(errs...)
}
