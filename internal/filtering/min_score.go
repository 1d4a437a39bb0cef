package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/jobboard"
)

// ResultsSource provides stored matching results for a job.
type ResultsSource interface {
	MatchResults(ctx context.Context, jobID string) (*jobboard.MatchingResults, error)
}

type MinScoreConfig struct {
	JobID        string
	MinimumScore float64
}

type MinScoreDeps struct {
	Results ResultsSource
	Logger  *zap.Logger
}

type minScoreFilter struct {
	config *MinScoreConfig
	deps   *MinScoreDeps

	disabled bool
	reason   string
}

// NewMinScore creates a filter that attaches stored match results to applications
// and drops those scoring below the minimum. Applications without a result are kept.
func NewMinScore(cfg *MinScoreConfig, deps *MinScoreDeps) Filter {
	if cfg == nil {
		cfg = &MinScoreConfig{}
	}

	return &minScoreFilter{config: cfg, deps: deps}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minScoreFilter) IsEnabled() bool { return !f.disabled }

func (f *minScoreFilter) Validate() error {
	if f.deps == nil || f.deps.Results == nil {
		return fmt.Errorf("matching results source is required")
	}

	if f.deps.Logger == nil {
		return fmt.Errorf("logger is required")
	}

	if strings.TrimSpace(f.config.JobID) == "" {
		return fmt.Errorf("job id is required")
	}

	if f.config.MinimumScore < 0 || f.config.MinimumScore > 100 {
		return fmt.Errorf("minimum score must be within 0..100, got %.2f", f.config.MinimumScore)
	}

	return nil
}

func (f *minScoreFilter) Apply(ctx context.Context, apps *jobboard.Applications) (*jobboard.Applications, Step, error) {
	initial := apps.Len()

	results, err := f.deps.Results.MatchResults(ctx, f.config.JobID)
	if err != nil {
		return apps, Step{}, fmt.Errorf("get matching results: %w", err)
	}

	index := results.ByApplication()

	var unscored []string
	removed := apps.Retain(func(app *jobboard.Application) bool {
		result, ok := index[app.ID]
		if !ok {
			unscored = append(unscored, app.ID)
			return true
		}

		app.Match = result
		return result.Percent() >= f.config.MinimumScore
	})

	if len(unscored) > 0 {
		f.deps.Logger.Info("applications without matching results are kept",
			zap.Strings("unscored_applications", unscored),
			zap.String("hint", "run batch matching for the job first"),
		)
	}

	if len(removed) > 0 {
		f.deps.Logger.Info("excluding applications below minimum score",
			zap.Float64("minimum_score", f.config.MinimumScore),
			zap.Strings("excluded_applications", removed),
			zap.Int("applications_left", apps.Len()),
		)
	}

	return apps, Step{Initial: initial, Dropped: len(removed), Left: apps.Len()}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{
			"job_id":        f.config.JobID,
			"minimum_score": fmt.Sprintf("%.2f", f.config.MinimumScore),
		},
	}
}
