package ai

import (
	"context"

	"github.com/jobmatch/jobmatch/internal/jobboard"
	"github.com/jobmatch/jobmatch/internal/matching"
)

// Digest is a recruiter-facing summary of a batch matching run.
// It is advisory text only; scores always come from the backend.
type Digest struct {
	Summary   string
	Shortlist []string
	Concerns  []string
	Raw       string
}

type Summarizer interface {
	Summarize(ctx context.Context, job *jobboard.Job, entries []matching.Entry) (*Digest, error)
}
