package health

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Database returns a checker that pings the attempt store. ping is typically
// (*pgxpool.Pool).Ping.
func Database(ping func(ctx context.Context) error) Checker {
	return Checker{
		Name: "database",
		Check: func(ctx context.Context) error {
			if ping == nil {
				return errors.New("no database configured")
			}
			return ping(ctx)
		},
	}
}

// RulesFile returns a checker that verifies the feedback rule file exists.
// An empty path passes, since the built-in rule table is used then.
func RulesFile(path string) Checker {
	return Checker{
		Name: "rules_file",
		Check: func(context.Context) error {
			if path == "" {
				return nil
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("stat %q: %w", path, err)
			}
			return nil
		},
	}
}

// Recognizer returns a checker that reports whether a speech recognition
// backend has been constructed.
func Recognizer(ready func() bool) Checker {
	return Checker{
		Name: "recognizer",
		Check: func(context.Context) error {
			if ready == nil || !ready() {
				return errors.New("recognizer not initialised")
			}
			return nil
		},
	}
}
