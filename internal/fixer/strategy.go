// Package fixer produces and applies minimal file corrections for classified
// failures.
package fixer

import (
	"context"

	"fixplane/internal/repair"
)

// CandidateRequest carries everything a strategy may use to produce a
// corrected file.
type CandidateRequest struct {
	RelPath  string
	Content  string
	Category repair.BugCategory
	Message  string
	Line     *int
}

// Strategy produces a full corrected file for one failure. An empty
// candidate with a nil error means the strategy has nothing to offer; the
// pipeline then moves on to the next strategy in the chain.
type Strategy interface {
	Name() string
	ProduceCandidate(ctx context.Context, req CandidateRequest) (string, error)
}
