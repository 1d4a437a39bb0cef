package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/filtering"
	"github.com/jobmatch/jobmatch/internal/jobboard"
	"github.com/jobmatch/jobmatch/internal/logger"
	"github.com/jobmatch/jobmatch/internal/report"
)

const (
	PromptAccept              = "Accept"
	PromptReject              = "Reject"
	PromptDetails             = "Show match details"
	PromptBack                = "back"
	PromptAppendToExcludeFile = "Append all listed applications to exclude file"
	PromptResultsToFile       = "Dump matching results to file"
)

var errExit = errors.New("exit requested")

var applicationsCmd = &cobra.Command{
	Use:     "applications",
	Aliases: []string{"apps"},
	Short:   "Work with job applications",
}

var applicationsListCmd = &cobra.Command{
	Use:   "list JOB_ID",
	Short: "List applications for a job",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		e := setup()
		e.requireLogin()
		ctx, cancel := commandContext()
		defer cancel()

		apps, err := e.client.JobApplications(ctx, args[0])
		if err != nil {
			logger.ForJob(e.logger, args[0]).Fatal("listing applications", zap.Error(err))
		}

		if err := report.Applications(os.Stdout, apps); err != nil {
			e.logger.Fatal("printing applications", zap.Error(err))
		}
	},
}

var applicationsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List applications submitted by the logged in applicant",
	Run: func(_ *cobra.Command, _ []string) {
		e := setup()
		e.requireLogin()
		ctx, cancel := commandContext()
		defer cancel()

		apps, err := e.client.MyApplications(ctx)
		if err != nil {
			e.logger.Fatal("listing my applications", zap.Error(err))
		}

		if err := report.Applications(os.Stdout, apps); err != nil {
			e.logger.Fatal("printing applications", zap.Error(err))
		}
	},
}

var applicationsAcceptCmd = &cobra.Command{
	Use:   "accept JOB_ID APPLICATION_ID",
	Short: "Accept a pending application",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		decide(args[0], args[1], jobboard.ApplicationAccepted)
	},
}

var applicationsRejectCmd = &cobra.Command{
	Use:   "reject JOB_ID APPLICATION_ID",
	Short: "Reject a pending application",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		decide(args[0], args[1], jobboard.ApplicationRejected)
	},
}

var applicationsWithdrawCmd = &cobra.Command{
	Use:   "withdraw APPLICATION_ID",
	Short: "Withdraw one of my pending applications",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		e := setup()
		e.requireLogin()
		ctx, cancel := commandContext()
		defer cancel()

		log := logger.WithFields(e.logger, logger.MatchFields("", args[0])...)

		apps, err := e.client.MyApplications(ctx)
		if err != nil {
			log.Fatal("listing my applications", zap.Error(err))
		}

		app := apps.FindByID(args[0])
		if app == nil {
			log.Fatal("application not found among my applications")
		}

		if _, err := e.client.Withdraw(ctx, app); err != nil {
			log.Fatal("withdrawing application", zap.Error(err))
		}

		log.Info("application withdrawn")
	},
}

var applicationsReviewCmd = &cobra.Command{
	Use:   "review JOB_ID",
	Short: "Review pending applications of a job interactively",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		review(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(applicationsCmd)
	applicationsCmd.AddCommand(
		applicationsListCmd,
		applicationsMineCmd,
		applicationsAcceptCmd,
		applicationsRejectCmd,
		applicationsWithdrawCmd,
		applicationsReviewCmd,
	)

	applicationsReviewCmd.Flags().BoolP("all", "a", false, "include applications that are already decided")
	applicationsReviewCmd.Flags().Float64P("minimum-score", "m", 0, "hide applications scored below this match percentage")
	applicationsReviewCmd.Flags().StringP("exclude-file", "e", "", "special file with applications to exclude. Default is unset.")

	viper.BindPFlag("exclude-file", applicationsReviewCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("review.minimum-score", applicationsReviewCmd.Flags().Lookup("minimum-score"))
}

// decide applies a recruiter decision to one application of a job.
func decide(jobID, applicationID string, to jobboard.ApplicationStatus) {
	e := setup()
	e.requireLogin()
	ctx, cancel := commandContext()
	defer cancel()

	log := logger.WithFields(e.logger, logger.MatchFields(jobID, applicationID)...)

	apps, err := e.client.JobApplications(ctx, jobID)
	if err != nil {
		log.Fatal("listing applications", zap.Error(err))
	}

	app := apps.FindByID(applicationID)
	if app == nil {
		log.Fatal("application not found for the job")
	}

	if err := applyDecision(ctx, e.client, app, to); err != nil {
		log.Fatal("changing application status", zap.Error(err))
	}

	log.Info("application status changed", zap.String("status", string(to)))
}

func applyDecision(ctx context.Context, client *jobboard.Client, app *jobboard.Application, to jobboard.ApplicationStatus) error {
	var (
		updated *jobboard.Application
		err     error
	)

	switch to {
	case jobboard.ApplicationAccepted:
		updated, err = client.Accept(ctx, app)
	case jobboard.ApplicationRejected:
		updated, err = client.Reject(ctx, app)
	default:
		return fmt.Errorf("%w: %q is not a recruiter decision", jobboard.ErrInvalidTransition, to)
	}
	if err != nil {
		return err
	}

	app.Status = updated.Status
	return nil
}

func review(cmd *cobra.Command, jobID string) {
	e := setup()
	e.requireLogin()
	ctx, cancel := commandContext()
	defer cancel()

	log := logger.ForJob(e.logger, jobID)

	apps, err := e.client.JobApplications(ctx, jobID)
	if err != nil {
		log.Fatal("listing applications", zap.Error(err))
	}

	log.Info("getting applications", zap.Int("count", apps.Len()))
	if apps.Len() == 0 {
		log.Info("exiting", zap.String("reason", "no applications found"))
		return
	}

	filters := prepareReviewFilters(cmd, e, jobID, log)
	for _, status := range filters.Describe() {
		log.Debug("filter", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.Any("details", status.Details))
	}

	apps, err = filters.RunFilters(ctx, apps)
	if err != nil {
		log.Fatal("filtering failed", zap.Error(err))
	}

	if apps.Len() == 0 {
		log.Info("exiting", zap.String("reason", "no applications left after filters"))
		return
	}

	if err := report.Applications(os.Stdout, apps); err != nil {
		log.Fatal("printing applications", zap.Error(err))
	}

	if err := reviewLoop(ctx, e, log, apps); err != nil && !errors.Is(err, errExit) {
		log.Fatal("exiting", zap.Error(err))
	}
}

func prepareReviewFilters(cmd *cobra.Command, e *env, jobID string, log *zap.Logger) *filtering.Filtering {
	pending := filtering.NewPendingOnly(log)
	if all, _ := cmd.Flags().GetBool("all"); all {
		pending.Disable("--all flag is set")
	}

	minScore := filtering.NewMinScore(
		&filtering.MinScoreConfig{JobID: jobID, MinimumScore: viper.GetFloat64("review.minimum-score")},
		&filtering.MinScoreDeps{Results: e.client, Logger: log},
	)

	return filtering.New([]filtering.Filter{
		pending,
		filtering.NewExcludeFile(viper.GetString("exclude-file"), log),
		minScore,
	}, log)
}

func reviewLoop(ctx context.Context, e *env, log *zap.Logger, apps *jobboard.Applications) error {
	excludeFile := strings.TrimSpace(viper.GetString("exclude-file"))

	for {
		items := make([]string, 0, apps.Len()+3)
		for _, app := range apps.Items {
			items = append(items, applicationItem(app))
		}

		if excludeFile != "" && apps.Len() != 0 {
			items = append(items, PromptAppendToExcludeFile)
		}
		items = append(items, PromptResultsToFile, PromptBack)

		appPrompt := promptui.Select{
			Label: "Choose an application and press ENTER",
			Items: items,
			Size:  15,
		}

		_, selected, err := appPrompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptBack:
			return errExit
		case PromptResultsToFile:
			if err := dumpAttachedResults(log, apps); err != nil {
				return err
			}
		case PromptAppendToExcludeFile:
			excluded, err := jobboard.GetExcludedApplicationsFromFile(excludeFile)
			if err != nil {
				return err
			}

			excluded.Append(apps.ToExcluded())

			if err = excluded.ToFile(excludeFile); err != nil {
				return err
			}

			log.Info("appended to exclude file", zap.String("filename", excludeFile))

			apps.Exclude(excluded.IDs())
		default:
			applicationID := strings.Split(selected, " ")[0]

			app := apps.FindByID(applicationID)
			if app == nil {
				return fmt.Errorf("there is no such application id %s", applicationID)
			}

			decided, err := reviewApplication(ctx, e, log, app)
			if err != nil {
				return err
			}
			if decided {
				apps.Exclude([]string{applicationID})
			}
		}

		if apps.Len() == 0 {
			log.Info("exiting", zap.String("reason", "all applications reviewed"))
			return errExit
		}
	}
}

// reviewApplication asks what to do with one application and reports whether it was decided.
func reviewApplication(ctx context.Context, e *env, log *zap.Logger, app *jobboard.Application) (bool, error) {
	log = logger.WithFields(log, logger.MatchFields("", app.ID)...)

	for {
		items := []string{PromptAccept, PromptReject}
		if app.Match != nil {
			items = append(items, PromptDetails)
		}
		items = append(items, PromptBack)

		action := promptui.Select{
			Label: fmt.Sprintf("Application %s: %s", app.ID, report.ApplicationLabel(app)),
			Items: items,
		}

		_, selected, err := action.Run()
		if err != nil {
			return false, err
		}

		switch selected {
		case PromptBack:
			return false, nil
		case PromptDetails:
			if err := report.Result(os.Stdout, app.Match); err != nil {
				return false, err
			}
		case PromptAccept, PromptReject:
			to := jobboard.ApplicationAccepted
			if selected == PromptReject {
				to = jobboard.ApplicationRejected
			}

			if err := applyDecision(ctx, e.client, app, to); err != nil {
				if errors.Is(err, jobboard.ErrInvalidTransition) {
					log.Warn("skipping application", zap.Error(err))
					return true, nil
				}
				return false, err
			}

			log.Info("application status changed", zap.String("status", string(to)))
			return true, nil
		}
	}
}

func applicationItem(app *jobboard.Application) string {
	label := fmt.Sprintf("%s %s [%s]", app.ID, report.ApplicationLabel(app), app.Status)
	if app.Match != nil {
		label += fmt.Sprintf(" %.0f%%", app.Match.Percent())
	}
	return label
}

func dumpAttachedResults(log *zap.Logger, apps *jobboard.Applications) error {
	results := &jobboard.MatchingResults{}
	for _, app := range apps.Items {
		if app.Match != nil {
			results.Items = append(results.Items, app.Match)
		}
	}

	if results.Len() == 0 {
		log.Info("nothing to dump", zap.String("reason", "no matching results attached"))
		return nil
	}

	filename, err := results.DumpToTmpFile()
	if err != nil {
		return fmt.Errorf("dump results to file: %w", err)
	}
	log.Info("dumping results to file", zap.String("filename", filename), zap.Int("count", results.Len()))
	return nil
}
