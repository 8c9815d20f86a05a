package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"qualification_reminder/internal/app"
	"qualification_reminder/internal/domain/qualification"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Routines is the part of app.Routines the scheduler triggers.
type Routines interface {
	RunEnquiry(ctx context.Context, today qualification.Date) error
	RunReminder(ctx context.Context, today qualification.Date) error
}

type RoutineScheduler struct {
	cronEngine   *cron.Cron
	routines     Routines
	logger       *logrus.Entry
	fetchTime    string
	reminderTime string
	now          func() time.Time
}

// NewRoutineScheduler schedules the enquiry at fetchTime and the reminders at
// reminderTime, both "HH:MM" in the server's local time.
func NewRoutineScheduler(routines Routines, fetchTime, reminderTime string, logger *logrus.Entry) *RoutineScheduler {
	return &RoutineScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.Local),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		routines:     routines,
		logger:       logger,
		fetchTime:    fetchTime,
		reminderTime: reminderTime,
		now:          time.Now,
	}
}

func (s *RoutineScheduler) Start() error {
	s.logger.Info("Starting routine scheduler...")

	fetchSpec, err := dailySpec(s.fetchTime)
	if err != nil {
		return fmt.Errorf("fetch_time: %w", err)
	}
	reminderSpec, err := dailySpec(s.reminderTime)
	if err != nil {
		return fmt.Errorf("reminder_time: %w", err)
	}

	if _, err := s.cronEngine.AddFunc(fetchSpec, func() {
		s.logger.Info("Cron job triggered for the enquiry routine.")
		s.execute("enquiry", s.routines.RunEnquiry)
	}); err != nil {
		return fmt.Errorf("could not add enquiry cron job: %w", err)
	}

	if _, err := s.cronEngine.AddFunc(reminderSpec, func() {
		s.logger.Info("Cron job triggered for the reminder routine.")
		s.execute("reminder", s.routines.RunReminder)
	}); err != nil {
		return fmt.Errorf("could not add reminder cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"fetch_spec":    fetchSpec,
		"reminder_spec": reminderSpec,
	}).Info("Routine scheduler started with jobs.")
	return nil
}

func (s *RoutineScheduler) execute(name string, fn func(context.Context, qualification.Date) error) {
	today := qualification.DateOf(s.now())
	logCtx := s.logger.WithFields(logrus.Fields{"routine": name, "date": today.String()})

	err := fn(context.Background(), today)
	switch {
	case errors.Is(err, app.ErrRoutineBusy):
		logCtx.Warn("Another routine is running. Skipping.")
	case err != nil:
		logCtx.WithError(err).Error("Scheduled routine failed")
	default:
		logCtx.Info("Scheduled routine completed")
	}
}

func (s *RoutineScheduler) Stop() {
	s.logger.Info("Stopping routine scheduler...")
	ctx := s.cronEngine.Stop() // waits for running jobs
	<-ctx.Done()
	s.logger.Info("Routine scheduler gracefully stopped.")
}

// dailySpec turns "HH:MM" into a cron spec firing once a day.
func dailySpec(hhmm string) (string, error) {
	hour, minute, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", hhmm)
	}
	h, err := strconv.Atoi(hour)
	if err != nil || h < 0 || h > 23 {
		return "", fmt.Errorf("invalid hour in %q", hhmm)
	}
	m, err := strconv.Atoi(minute)
	if err != nil || m < 0 || m > 59 {
		return "", fmt.Errorf("invalid minute in %q", hhmm)
	}
	return fmt.Sprintf("%d %d * * *", m, h), nil
}
