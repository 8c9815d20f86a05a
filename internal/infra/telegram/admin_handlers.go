package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"qualification_reminder/internal/app"
	"qualification_reminder/internal/domain/qualification"
	"qualification_reminder/internal/domain/run"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50
)

// Routines is the part of app.Routines the admin commands drive.
type Routines interface {
	RunEnquiry(ctx context.Context, today qualification.Date) error
	RunReminder(ctx context.Context, today qualification.Date) error
	GenerateReports(ctx context.Context) error
	History(ctx context.Context, kind run.Kind, limit int) ([]*run.Run, error)
}

// RegisterAdminHandlers registers the commands only the administrator may use.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, routines Routines, adminTelegramID int64, baseLogger *logrus.Entry) {
	today := func() qualification.Date { return qualification.DateOf(time.Now()) }

	b.Handle("/history", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/history",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not allowed to use this command.")
		}

		kind, limit, err := parseHistoryArgs(c.Args())
		if err != nil {
			handlerLogger.WithError(err).Warn("Invalid command format")
			return c.Send("Usage: /history [enquiry|daily|quarterly] [limit]")
		}

		runs, err := routines.History(ctx, kind, limit)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to list routine runs")
			return c.Send(fmt.Sprintf("Could not load run history: %s", err.Error()))
		}
		handlerLogger.WithField("runs_count", len(runs)).Info("Run history listed")
		return c.Send(formatHistory(runs))
	})

	b.Handle("/fetch", routineHandler(baseLogger, adminTelegramID, "/fetch", "Enquiry", func() error {
		return routines.RunEnquiry(ctx, today())
	}))

	b.Handle("/remind", routineHandler(baseLogger, adminTelegramID, "/remind", "Reminder", func() error {
		return routines.RunReminder(ctx, today())
	}))

	b.Handle("/report", routineHandler(baseLogger, adminTelegramID, "/report", "Report generation", func() error {
		return routines.GenerateReports(ctx)
	}))
}

// routineHandler runs fn for the admin and replies with its outcome.
func routineHandler(baseLogger *logrus.Entry, adminTelegramID int64, command, title string, fn func() error) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   command,
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not allowed to use this command.")
		}

		if err := c.Send(title + " started."); err != nil {
			return err
		}
		if err := fn(); err != nil {
			if errors.Is(err, app.ErrRoutineBusy) {
				handlerLogger.Warn("Routine already running")
				return c.Send("Another routine is running, try again later.")
			}
			handlerLogger.WithError(err).Error("Routine failed")
			return c.Send(fmt.Sprintf("%s failed: %s", title, err.Error()))
		}
		handlerLogger.Info("Routine completed")
		return c.Send(title + " completed.")
	}
}

func parseHistoryArgs(args []string) (run.Kind, int, error) {
	var kind run.Kind
	limit := defaultHistoryLimit

	for _, arg := range args {
		switch strings.ToLower(arg) {
		case "enquiry", "fetch":
			kind = run.KindEnquiry
		case "daily":
			kind = run.KindDailyReminder
		case "quarterly":
			kind = run.KindQuarterlyReminder
		default:
			n, err := strconv.Atoi(arg)
			if err != nil || n <= 0 {
				return "", 0, fmt.Errorf("invalid argument %q", arg)
			}
			limit = min(n, maxHistoryLimit)
		}
	}
	return kind, limit, nil
}

func formatHistory(runs []*run.Run) string {
	if len(runs) == 0 {
		return "No routine runs recorded."
	}

	var response strings.Builder
	response.WriteString("--- Routine runs ---\n")
	for _, r := range runs {
		response.WriteString(fmt.Sprintf("%s %s (%s): %s, processed %d, sent %d",
			r.StartedAt.Format("02/01/2006 15:04"),
			r.Kind,
			qualification.DateOf(r.ReferenceDate),
			r.Status,
			r.Processed,
			r.Sent,
		))
		if len(r.Failures) > 0 {
			response.WriteString(fmt.Sprintf(", failed: %s", strings.Join(r.Failures, ", ")))
		}
		if r.Error != "" {
			response.WriteString(fmt.Sprintf("\n  error: %s", r.Error))
		}
		response.WriteString("\n")
	}
	return response.String()
}
