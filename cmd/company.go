package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/report"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Company profiles",
}

var companyShowCmd = &cobra.Command{
	Use:   "show COMPANY_ID",
	Short: "Show a company profile",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		e := setup()
		ctx, cancel := commandContext()
		defer cancel()

		company, err := e.client.Company(ctx, args[0])
		if err != nil {
			e.logger.Fatal("getting company", zap.String("company_id", args[0]), zap.Error(err))
		}

		if err := report.Company(os.Stdout, company); err != nil {
			e.logger.Fatal("printing company", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(companyCmd)
	companyCmd.AddCommand(companyShowCmd)
}
