package eval

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch is returned when two score arrays that must be parallel
// have different lengths. Score pairs are never silently truncated; positional
// phoneme accuracy is the only metric that truncates, and it does so by
// documented design.
var ErrLengthMismatch = errors.New("eval: predicted and ground-truth arrays differ in length")

// ErrDegenerateInput is returned when the Pearson correlation is undefined
// for the given inputs: fewer than two points, or an array with zero variance.
var ErrDegenerateInput = errors.New("eval: correlation undefined for degenerate input")

// BenchmarkError wraps the first failure returned by a callable under
// benchmark. No partial statistics are synthesised from a truncated run.
type BenchmarkError struct {
	// Run is the zero-based index of the timed (or warmup, when negative
	// offset from -Warmup) call that failed.
	Run int

	// Err is the underlying failure from the callable.
	Err error
}

func (e *BenchmarkError) Error() string {
	return fmt.Sprintf("eval: benchmark aborted at run %d: %v", e.Run, e.Err)
}

// Unwrap returns the underlying callable error.
func (e *BenchmarkError) Unwrap() error { return e.Err }
