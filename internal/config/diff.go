package config

// ConfigDiff describes what changed between two configs.
// Only fields that matter for a running server are tracked.
type ConfigDiff struct {
	// LogLevelChanged is true when the log level differs. Log level changes
	// are safe to apply without restart.
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RulesPathChanged is true when the feedback rule file path changed.
	// The new rule table applies after restart.
	RulesPathChanged bool
	NewRulesPath     string

	// RecognizerChanged is true when the recognizer backend or its settings
	// changed. Applying it requires a restart.
	RecognizerChanged bool

	// AttemptsChanged is true when the attempt store DSN changed.
	// Applying it requires a restart.
	AttemptsChanged bool
}

// HotReloadable reports whether every detected change can be applied to a
// running server.
func (d ConfigDiff) HotReloadable() bool {
	return !d.RulesPathChanged && !d.RecognizerChanged && !d.AttemptsChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Feedback.RulesPath != new.Feedback.RulesPath {
		d.RulesPathChanged = true
		d.NewRulesPath = new.Feedback.RulesPath
	}

	if old.Recognizer != new.Recognizer {
		d.RecognizerChanged = true
	}

	if old.Attempts != new.Attempts {
		d.AttemptsChanged = true
	}

	return d
}
