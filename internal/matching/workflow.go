package matching

import (
	"context"
	"strings"
)

// Workflow runs one batch match: it starts the progress estimate, issues the
// request and settles both the aggregator and the progress reporter when the
// request returns.
type Workflow struct {
	trigger    *Trigger
	progress   *Progress
	aggregator *Aggregator
}

func NewWorkflow(trigger *Trigger, progress *Progress, aggregator *Aggregator) *Workflow {
	return &Workflow{
		trigger:    trigger,
		progress:   progress,
		aggregator: aggregator,
	}
}

// Run blocks until the batch call settles or ctx is cancelled.
// A run while another is outstanding returns ErrInFlight and leaves all state untouched.
func (w *Workflow) Run(ctx context.Context, jobID string) error {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return ErrEmptyJobID
	}

	if !w.trigger.acquire() {
		return ErrInFlight
	}
	defer w.trigger.release()

	w.aggregator.Begin()
	w.progress.Start(ctx)
	defer w.progress.Stop()

	resp, err := w.trigger.fire(ctx, jobID)
	if err != nil {
		w.aggregator.Fail(err)
		w.progress.Finish(err)
		return err
	}

	if err := w.aggregator.Resolve(resp); err != nil {
		w.progress.Finish(err)
		return err
	}

	w.progress.Finish(nil)
	return nil
}

func (w *Workflow) InFlight() bool {
	return w.trigger.InFlight()
}

func (w *Workflow) Aggregator() *Aggregator {
	return w.aggregator
}

func (w *Workflow) Progress() *Progress {
	return w.progress
}
