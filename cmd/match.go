package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/ai"
	"github.com/jobmatch/jobmatch/internal/ai/gemini"
	"github.com/jobmatch/jobmatch/internal/jobboard"
	"github.com/jobmatch/jobmatch/internal/logger"
	"github.com/jobmatch/jobmatch/internal/matching"
	"github.com/jobmatch/jobmatch/internal/report"
	"github.com/jobmatch/jobmatch/internal/secrets"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score applications against a job",
}

var matchAllCmd = &cobra.Command{
	Use:   "all JOB_ID",
	Short: "Match every application of a job in one batch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		matchAll(cmd, args[0])
	},
}

var matchOneCmd = &cobra.Command{
	Use:   "one JOB_ID APPLICATION_ID",
	Short: "Match a single application",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		e := setup()
		e.requireLogin()
		ctx, cancel := commandContext()
		defer cancel()

		log := logger.WithFields(e.logger, logger.MatchFields(args[0], args[1])...)

		result, err := e.client.MatchApplication(ctx, args[0], args[1])
		if err != nil {
			log.Fatal("matching application", zap.Error(err))
		}

		if err := report.Result(os.Stdout, result); err != nil {
			log.Fatal("printing result", zap.Error(err))
		}
	},
}

var matchResultsCmd = &cobra.Command{
	Use:   "results JOB_ID",
	Short: "Show stored matching results of a job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := setup()
		e.requireLogin()
		ctx, cancel := commandContext()
		defer cancel()

		log := logger.ForJob(e.logger, args[0])

		results, err := e.client.MatchResults(ctx, args[0])
		if err != nil {
			log.Fatal("getting matching results", zap.Error(err))
		}

		if err := report.Entries(os.Stdout, report.EntriesFromResults(results.Items)); err != nil {
			log.Fatal("printing results", zap.Error(err))
		}

		if dump, _ := cmd.Flags().GetBool("dump"); dump {
			dumpResults(log, results)
		}
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.AddCommand(matchAllCmd, matchOneCmd, matchResultsCmd)

	matchAllCmd.Flags().Duration("expected-duration", defaultExpectedDuration, "how long a batch is expected to take; the progress bar is scaled to it (0 shows a spinner)")
	matchAllCmd.Flags().Bool("dump", false, "dump results to a temporary json file")
	matchAllCmd.Flags().Bool("ai", false, "summarize results with the configured ai provider")
	matchResultsCmd.Flags().Bool("dump", false, "dump results to a temporary json file")

	viper.BindPFlag("match.expected-duration", matchAllCmd.Flags().Lookup("expected-duration"))
	viper.BindPFlag("ai.enabled", matchAllCmd.Flags().Lookup("ai"))
}

func matchAll(cmd *cobra.Command, jobID string) {
	e := setup()
	e.requireLogin()
	ctx, cancel := commandContext()
	defer cancel()

	log := logger.ForJob(e.logger, jobID)

	progress := matching.NewProgress(e.config.Match.ExpectedDuration, matching.WithObserver(func(s matching.Snapshot) {
		fmt.Fprintf(os.Stderr, "\r%s", report.ProgressLine(s))
	}))

	workflow := matching.NewWorkflow(
		matching.NewTrigger(e.client, log),
		progress,
		matching.NewAggregator(),
	)

	err := workflow.Run(ctx, jobID)
	fmt.Fprintln(os.Stderr)

	switch {
	case errors.Is(err, context.Canceled):
		log.Fatal("batch matching cancelled", zap.String("state", workflow.Aggregator().State().String()))
	case err != nil:
		log.Fatal("batch matching failed",
			zap.Error(err),
			zap.String("state", workflow.Aggregator().State().String()),
			zap.String("hint", "run the command again to retry"),
		)
	}

	aggregator := workflow.Aggregator()
	entries := aggregator.Entries()

	if err := report.Results(os.Stdout, aggregator.Summary(), entries); err != nil {
		log.Fatal("printing results", zap.Error(err))
	}

	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		dumpResults(log, &jobboard.MatchingResults{Items: aggregator.Results()})
	}

	if !e.config.AI.Enabled || len(entries) == 0 {
		return
	}

	// The digest is advisory; failing to build it does not fail the command.
	if err := printDigest(ctx, e, log, jobID, entries); err != nil {
		log.Warn("skipping ai digest", zap.Error(err))
	}
}

func dumpResults(log *zap.Logger, results *jobboard.MatchingResults) {
	filename, err := results.DumpToTmpFile()
	if err != nil {
		log.Fatal("dump results to file", zap.Error(err))
	}
	log.Info("dumping results to file", zap.String("filename", filename), zap.Int("count", results.Len()))
}

func printDigest(ctx context.Context, e *env, log *zap.Logger, jobID string, entries []matching.Entry) error {
	summarizer, err := newSummarizer(ctx, e.config.AI, log)
	if err != nil {
		return fmt.Errorf("building ai summarizer: %w", err)
	}

	job, err := e.client.Job(ctx, jobID)
	if err != nil {
		return fmt.Errorf("getting job: %w", err)
	}

	digest, err := summarizer.Summarize(ctx, job, entries)
	if err != nil {
		return err
	}

	fmt.Println()
	return report.Digest(os.Stdout, digest)
}

func newSummarizer(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Summarizer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	gcfg := cfg.Gemini
	if gcfg == nil {
		gcfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: gcfg.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, gcfg.Model)
	if err != nil {
		return nil, err
	}

	summarizerLogger := log.With(
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
	)

	return gemini.NewSummarizer(generator, summarizerLogger, gcfg.ShortlistSize, gcfg.MaxLogLength), nil
}
