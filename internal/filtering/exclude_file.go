package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/jobboard"
)

type excludeFileFilter struct {
	path   string
	logger *zap.Logger
}

// NewExcludeFile creates a filter that removes applications listed in the exclude file.
func NewExcludeFile(path string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &excludeFileFilter{
		path:   strings.TrimSpace(path),
		logger: logger,
	}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, apps *jobboard.Applications) (*jobboard.Applications, Step, error) {
	initial := apps.Len()
	if f.path == "" {
		return apps, Step{Initial: initial, Dropped: 0, Left: apps.Len()}, nil
	}

	excluded, err := jobboard.GetExcludedApplicationsFromFile(f.path)
	if err != nil {
		return apps, Step{}, fmt.Errorf("getting excluded applications from file: %w", err)
	}

	removed := apps.Exclude(excluded.IDs())
	if len(removed) > 0 {
		f.logger.Info("excluding applications based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_applications", removed),
			zap.Int("applications_left", apps.Len()),
		)
	}

	return apps, Step{Initial: initial, Dropped: len(removed), Left: apps.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
