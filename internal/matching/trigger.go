package matching

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/jobboard"
	"github.com/jobmatch/jobmatch/internal/logger"
)

// BatchMatcher scores every application of a job in one backend call.
type BatchMatcher interface {
	MatchAllApplications(ctx context.Context, jobID string) (*jobboard.BatchMatchResponse, error)
}

// Trigger issues batch matching requests, one at a time.
// Nothing is retried; calling Fire again is the retry.
type Trigger struct {
	matcher  BatchMatcher
	logger   *zap.Logger
	inFlight atomic.Bool
}

func NewTrigger(matcher BatchMatcher, log *zap.Logger) *Trigger {
	return &Trigger{
		matcher: matcher,
		logger:  logger.WithFields(log),
	}
}

// InFlight reports whether a request is outstanding. Controls use it to disable themselves.
func (t *Trigger) InFlight() bool {
	return t.inFlight.Load()
}

// Fire requests matching for all applications of jobID.
// It returns ErrInFlight without a request while another call is outstanding.
func (t *Trigger) Fire(ctx context.Context, jobID string) (*jobboard.BatchMatchResponse, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, ErrEmptyJobID
	}

	if !t.acquire() {
		return nil, ErrInFlight
	}
	defer t.release()

	return t.fire(ctx, jobID)
}

func (t *Trigger) acquire() bool {
	return t.inFlight.CompareAndSwap(false, true)
}

func (t *Trigger) release() {
	t.inFlight.Store(false)
}

func (t *Trigger) fire(ctx context.Context, jobID string) (*jobboard.BatchMatchResponse, error) {
	log := logger.ForJob(t.logger, jobID)
	log.Info("batch matching started")

	started := time.Now()
	resp, err := t.matcher.MatchAllApplications(ctx, jobID)
	if err == nil && resp == nil {
		err = jobboard.ErrNoData
	}

	took := time.Since(started)
	if err != nil {
		log.Warn("batch matching failed", zap.Error(err), zap.Duration("took", took))
		return nil, fmt.Errorf("%w: %w", ErrBatchFailed, err)
	}

	log.Info("batch matching finished",
		zap.Int("total_applications", resp.TotalApplications),
		zap.Int("processed_applications", resp.ProcessedApplications),
		zap.Int("results", len(resp.Results)),
		zap.Duration("took", took),
	)

	return resp, nil
}
