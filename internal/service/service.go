// Package service composes the scrape, mutate, cache and AI clients into
// the application operations the HTTP layer exposes. Reads are cache-first
// with a background refresh; mutations answer with an applied flag and a
// human-readable reason instead of an error, because a rejected change is
// a normal answer from the LMS, not a fault in this process.
package service

import (
	"errors"

	"github.com/noah-isme/paatshala-go-api/internal/mutate"
	"github.com/noah-isme/paatshala-go-api/internal/session"
)

// MutationResult is the outcome of one LMS mutation. Reason is only set
// when the change was not applied.
type MutationResult struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

// BatchResult counts the per-item outcomes of a batch mutation.
type BatchResult struct {
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
}

// RefreshQueue enqueues a background refresh for one course.
type RefreshQueue interface {
	Enqueue(courseID int) (string, bool)
}

// mutationOutcome folds an operation error into the applied/reason shape.
func mutationOutcome(err error) MutationResult {
	if err == nil {
		return MutationResult{Applied: true}
	}
	return MutationResult{Applied: false, Reason: reasonFor(err)}
}

// reasonFor renders a mutation error for an instructor, not an operator.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, mutate.ErrRejected):
		return "the LMS rejected the change"
	case errors.Is(err, session.ErrNotAuthenticated):
		return "no authenticated LMS session"
	case errors.Is(err, session.ErrAuthFailed):
		return "LMS login was rejected"
	default:
		return err.Error()
	}
}
