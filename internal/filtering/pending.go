package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/jobboard"
)

type pendingOnlyFilter struct {
	disabled bool
	reason   string
	logger   *zap.Logger
}

// NewPendingOnly creates a filter that keeps only applications a recruiter can still act on.
func NewPendingOnly(logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &pendingOnlyFilter{logger: logger}
}

func (f *pendingOnlyFilter) Name() string { return "pending_only" }

func (f *pendingOnlyFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *pendingOnlyFilter) IsEnabled() bool { return !f.disabled }

func (f *pendingOnlyFilter) Validate() error { return nil }

func (f *pendingOnlyFilter) Apply(_ context.Context, apps *jobboard.Applications) (*jobboard.Applications, Step, error) {
	initial := apps.Len()

	removed := apps.Retain(func(app *jobboard.Application) bool {
		return app.Status == jobboard.ApplicationPending
	})

	if len(removed) > 0 {
		f.logger.Debug("excluding applications that are already decided",
			zap.Strings("excluded_applications", removed),
			zap.Int("applications_left", apps.Len()),
		)
	}

	return apps, Step{Initial: initial, Dropped: len(removed), Left: apps.Len()}, nil
}

func (f *pendingOnlyFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
