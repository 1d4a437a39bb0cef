package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/jobboard"
	"github.com/jobmatch/jobmatch/internal/logger"
	"github.com/jobmatch/jobmatch/internal/report"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Browse and manage job postings",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List job postings",
	Run: func(cmd *cobra.Command, _ []string) {
		e := setup()
		ctx, cancel := commandContext()
		defer cancel()

		search, _ := cmd.Flags().GetString("search")
		status, _ := cmd.Flags().GetString("status")
		company, _ := cmd.Flags().GetString("company")

		jobs, err := e.client.Jobs(ctx, &jobboard.JobQuery{
			Search:  search,
			Status:  jobboard.JobStatus(status),
			Company: company,
		})
		if err != nil {
			e.logger.Fatal("listing jobs", zap.Error(err))
		}

		e.logger.Debug("got jobs", zap.Int("count", jobs.Len()))

		if err := report.Jobs(os.Stdout, jobs); err != nil {
			e.logger.Fatal("printing jobs", zap.Error(err))
		}
	},
}

var jobsShowCmd = &cobra.Command{
	Use:   "show JOB_ID",
	Short: "Show a job posting",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		e := setup()
		ctx, cancel := commandContext()
		defer cancel()

		job, err := e.client.Job(ctx, args[0])
		if err != nil {
			e.logger.Fatal("getting job", append(logger.MatchFields(args[0], ""), zap.Error(err))...)
		}

		if err := report.Job(os.Stdout, job); err != nil {
			e.logger.Fatal("printing job", zap.Error(err))
		}
	},
}

var jobsPublishCmd = &cobra.Command{
	Use:   "publish JOB_ID",
	Short: "Publish a draft job posting",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		transitionJob(args[0], jobboard.JobStatusPublished)
	},
}

var jobsCloseCmd = &cobra.Command{
	Use:   "close JOB_ID",
	Short: "Close a job posting",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		transitionJob(args[0], jobboard.JobStatusClosed)
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd, jobsShowCmd, jobsPublishCmd, jobsCloseCmd)

	jobsListCmd.Flags().StringP("search", "s", "", "search text")
	jobsListCmd.Flags().String("status", "", "filter by status: draft, published or closed")
	jobsListCmd.Flags().String("company", "", "filter by company id")
}

func transitionJob(jobID string, to jobboard.JobStatus) {
	e := setup()
	e.requireLogin()
	ctx, cancel := commandContext()
	defer cancel()

	log := logger.ForJob(e.logger, jobID)

	job, err := e.client.Job(ctx, jobID)
	if err != nil {
		log.Fatal("getting job", zap.Error(err))
	}

	var updated *jobboard.Job
	switch to {
	case jobboard.JobStatusPublished:
		updated, err = e.client.PublishJob(ctx, job)
	case jobboard.JobStatusClosed:
		updated, err = e.client.CloseJob(ctx, job)
	}
	if err != nil {
		log.Fatal("changing job status", zap.Error(err), zap.String("from", string(job.Status)), zap.String("to", string(to)))
	}

	log.Info("job status changed", zap.String("title", updated.Title), zap.String("status", string(updated.Status)))
}
