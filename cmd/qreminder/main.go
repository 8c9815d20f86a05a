package main

import (
	"fmt"
	"os"

	"qualification_reminder/internal/infra/config"
	"qualification_reminder/internal/infra/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	appConfig *config.AppConfig
	rules     *config.Rules

	dryRun bool
)

var rootCmd = &cobra.Command{
	Use:   "qreminder",
	Short: "Staff qualification enquiry, reporting and renewal reminders",
	Long: `qreminder enquires staff qualifications on the internal portal, consolidates them
into reports and emails renewal reminders to staff and team administrators.

Run "qreminder serve" to run the daily routines on schedule.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		appConfig, err = config.Load()
		if err != nil {
			return fmt.Errorf("could not load application configuration: %w", err)
		}
		logger.Init(appConfig.LogLevel, appConfig.Environment)

		rules, err = config.LoadRules(appConfig.RulesPath)
		if err != nil {
			return fmt.Errorf("could not load rules from %s: %w", appConfig.RulesPath, err)
		}
		logger.Component("main").WithFields(logrus.Fields{
			"rules_path":  appConfig.RulesPath,
			"environment": appConfig.Environment,
		}).Info("Configuration loaded")
		return nil
	},
}

func init() {
	remindCmd.Flags().StringVar(&remindDate, "date", "", "Reference date YYYY-MM-DD (default: today)")
	remindCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write emails to the outbox directory instead of sending them")

	quarterlyCmd.Flags().IntVar(&quarterNumber, "quarter", 0, "Quarter number 1-4 (required)")
	quarterlyCmd.Flags().IntVar(&quarterYear, "year", 0, "Year of the quarter (default: current year)")
	quarterlyCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write emails to the outbox directory instead of sending them")
	_ = quarterlyCmd.MarkFlagRequired("quarter")

	fetchCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write the enquiry report to the outbox directory instead of sending it")

	historyCmd.Flags().StringVar(&historyKind, "kind", "", "Filter by routine: enquiry, daily or quarterly")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(quarterlyCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
