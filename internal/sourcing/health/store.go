// Package health keeps the per-source health record consulted before a
// source is called again: recent rate limits, spent budgets and failure
// streaks, each with a time to live.
package health

import (
	"context"
	"time"

	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// Verdict is the answer to "may this source be called now"
type Verdict struct {
	Allowed bool
	Status  types.Status // why the source is skipped
	Until   time.Time    // when the source becomes available again, zero if unknown
}

// Allow is the verdict of an available source
var Allow = Verdict{Allowed: true}

// Result summarizes one finished call for the health record
type Result struct {
	Status     types.Status
	RetryAfter time.Duration
}

// Store is the per-source health record. Implementations must be safe for
// concurrent use and update each source atomically.
type Store interface {
	// Check reports whether id may be called. An allowed verdict consumes
	// one call from the source's budget.
	Check(ctx context.Context, id types.SourceID) (Verdict, error)

	// Record updates the record of id after a call
	Record(ctx context.Context, id types.SourceID, r Result) error
}
