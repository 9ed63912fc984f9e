// Package guardrails holds the wall-clock budgets applied to pipeline stages
package guardrails

import (
	"context"
	"time"
)

// Budgets caps each stage of a run
// Zero values mean no extra timeout at that level; subprocess timeouts
// still apply underneath
type Budgets struct {
	// Run is the overall budget for one pipeline run
	Run time.Duration

	// Download caps the DEM transfer
	Download time.Duration

	// Preprocess caps reprojection plus cleaning
	Preprocess time.Duration

	// Analyze caps session setup and the hydrological analysis
	Analyze time.Duration

	// Export caps writing the products
	Export time.Duration
}

// WithRun returns a context limited by the run budget without extending any parent deadline
func WithRun(parent context.Context, b Budgets) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, b.Run)
}

// ForDownload returns a sub context for the download stage
func ForDownload(parent context.Context, b Budgets) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, b.Download)
}

// ForPreprocess returns a sub context for the preprocessing stage
func ForPreprocess(parent context.Context, b Budgets) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, b.Preprocess)
}

// ForAnalyze returns a sub context for the analysis stage
func ForAnalyze(parent context.Context, b Budgets) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, b.Analyze)
}

// ForExport returns a sub context for the export stage
func ForExport(parent context.Context, b Budgets) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, b.Export)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout chooses the tighter of d and the parent remainder
// When d is zero it returns a cancelable child inheriting the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
