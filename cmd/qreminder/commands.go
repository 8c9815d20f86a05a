package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"qualification_reminder/internal/domain/qualification"
	"qualification_reminder/internal/domain/run"
	"qualification_reminder/internal/infra/logger"
	"qualification_reminder/internal/infra/scheduler"
	"qualification_reminder/internal/infra/telegram"

	"github.com/spf13/cobra"
)

var (
	remindDate    string
	quarterNumber int
	quarterYear   int
	historyKind   string
	historyLimit  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the enquiry and reminder routines on schedule",
	Long: `Run the enquiry routine daily at fetch_time and the reminder routine daily at
reminder_time. The Telegram admin commands are served when TELEGRAM_TOKEN is set.`,
	RunE: runServe,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Enquire every staff member on the portal once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(func(ctx context.Context, a *application) error {
			return a.routines.RunEnquiry(ctx, today())
		})
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Rebuild the qualification and training reports once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(func(ctx context.Context, a *application) error {
			return a.routines.GenerateReports(ctx)
		})
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send the daily reminders against the current report",
	RunE: func(cmd *cobra.Command, args []string) error {
		day := today()
		if remindDate != "" {
			var err error
			if day, err = qualification.ParseISODate(remindDate); err != nil {
				return err
			}
		}
		return runOnce(func(ctx context.Context, a *application) error {
			return a.routines.SendDaily(ctx, day)
		})
	},
}

var quarterlyCmd = &cobra.Command{
	Use:   "quarterly",
	Short: "Send the quarterly reminders of one quarter",
	RunE: func(cmd *cobra.Command, args []string) error {
		day := today()
		year := quarterYear
		if year == 0 {
			year = day.Year()
		}
		q, err := qualification.NewQuarter(year, quarterNumber)
		if err != nil {
			return err
		}
		return runOnce(func(ctx context.Context, a *application) error {
			return a.routines.SendQuarterly(ctx, day, q)
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent routine runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDatabase(appConfig.DatabaseURL); err != nil {
			return err
		}
		kind, err := parseKind(historyKind)
		if err != nil {
			return err
		}
		return runOnce(func(ctx context.Context, a *application) error {
			runs, err := a.routines.History(ctx, kind, historyLimit)
			if err != nil {
				return err
			}
			printHistory(cmd, runs)
			return nil
		})
	},
}

// requireDatabase rejects commands that read run history when it only lives in
// the memory of a running serve process.
func requireDatabase(databaseURL string) error {
	if databaseURL == "" {
		return errors.New("DATABASE_URL is not set: run history is only kept in memory by serve, use the Telegram /history command instead")
	}
	return nil
}

func today() qualification.Date {
	return qualification.DateOf(time.Now())
}

// runOnce wires the application, runs fn and closes everything. SIGINT cancels fn.
func runOnce(fn func(ctx context.Context, a *application) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApplication(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApplication(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.NewRoutineScheduler(a.routines, rules.FetchTime, rules.ReminderTime, logger.Component("scheduler"))
	if err := sched.Start(); err != nil {
		return err
	}

	if a.bot != nil {
		botLogger := logger.Component("telegram")
		telegram.RegisterBotCommands(a.bot, appConfig.AdminTelegramID, botLogger)
		telegram.RegisterAdminHandlers(ctx, a.bot, a.routines, appConfig.AdminTelegramID, botLogger)
		a.logger.Info("Admin command handlers registered.")
		go a.bot.Start()
	}

	a.logger.Info("Application setup complete. Scheduler is running.")
	<-ctx.Done()

	a.logger.Info("Shutting down application...")
	if a.bot != nil {
		a.bot.Stop()
	}
	sched.Stop()
	a.logger.Info("Application shut down gracefully.")
	return nil
}

func parseKind(value string) (run.Kind, error) {
	switch strings.ToLower(value) {
	case "":
		return "", nil
	case "enquiry", "fetch":
		return run.KindEnquiry, nil
	case "daily":
		return run.KindDailyReminder, nil
	case "quarterly":
		return run.KindQuarterlyReminder, nil
	default:
		return "", fmt.Errorf("unknown routine kind %q: expected enquiry, daily or quarterly", value)
	}
}

func printHistory(cmd *cobra.Command, runs []*run.Run) {
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No routine runs recorded.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tKIND\tDATE\tSTATUS\tPROCESSED\tSENT\tFAILED\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Kind,
			qualification.DateOf(r.ReferenceDate),
			r.Status,
			r.Processed,
			r.Sent,
			strings.Join(r.Failures, ","),
			r.Error,
		)
	}
	w.Flush()
}
