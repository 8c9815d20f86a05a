package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"qualification_reminder/internal/domain/qualification"
	"qualification_reminder/internal/domain/run"

	"github.com/sirupsen/logrus"
)

// ErrRoutineBusy is returned when a routine is started while another one is running.
var ErrRoutineBusy = errors.New("another routine is running")

// RoutineDestinations are the report destinations used by the routines.
type RoutineDestinations struct {
	Qualification ReportDestinations
	Training      ReportDestinations
}

// Routines runs the scheduled workflows, one at a time, recording each run.
type Routines struct {
	enquiry   *EnquiryService
	reports   *ReportService
	reminders *ReminderService
	runs      run.Repository
	dest      RoutineDestinations
	logger    *logrus.Entry

	guard sync.Mutex
}

func NewRoutines(
	enquiry *EnquiryService,
	reports *ReportService,
	reminders *ReminderService,
	runs run.Repository,
	dest RoutineDestinations,
	logger *logrus.Entry,
) *Routines {
	return &Routines{
		enquiry:   enquiry,
		reports:   reports,
		reminders: reminders,
		runs:      runs,
		dest:      dest,
		logger:    logger,
	}
}

func (r *Routines) lock() error {
	if !r.guard.TryLock() {
		return ErrRoutineBusy
	}
	return nil
}

// RunEnquiry refreshes every staff snapshot, alerts the admin and rebuilds the training report.
func (r *Routines) RunEnquiry(ctx context.Context, today qualification.Date) error {
	if err := r.lock(); err != nil {
		return err
	}
	defer r.guard.Unlock()

	return r.record(ctx, run.KindEnquiry, today, func(rn *run.Run) error {
		batch, err := r.enquiry.FetchAll(ctx)
		if err != nil {
			return err
		}
		rn.Processed = batch.Total()
		for _, f := range batch.Failures() {
			rn.Failures = append(rn.Failures, f.Member.Number)
		}

		if err := r.enquiry.SendAlert(ctx, batch); err != nil {
			return err
		}
		rn.Sent = 1
		return r.reports.GenerateTrainingReport(ctx, r.dest.Training)
	})
}

// RunReminder rebuilds the qualification report, sends the daily reminders and,
// on a quarterly trigger day, the quarterly reminders.
func (r *Routines) RunReminder(ctx context.Context, today qualification.Date) error {
	if err := r.lock(); err != nil {
		return err
	}
	defer r.guard.Unlock()

	if err := r.generateReport(ctx); err != nil {
		return err
	}
	if err := r.daily(ctx, today); err != nil {
		return err
	}
	if q, ok := qualification.ScheduledQuarter(today); ok {
		return r.quarterly(ctx, today, q)
	}
	return nil
}

// GenerateReports rebuilds both consolidated reports.
func (r *Routines) GenerateReports(ctx context.Context) error {
	if err := r.lock(); err != nil {
		return err
	}
	defer r.guard.Unlock()

	if err := r.generateReport(ctx); err != nil {
		return err
	}
	return r.reports.GenerateTrainingReport(ctx, r.dest.Training)
}

// SendDaily sends the daily reminders for today against the current report.
func (r *Routines) SendDaily(ctx context.Context, today qualification.Date) error {
	if err := r.lock(); err != nil {
		return err
	}
	defer r.guard.Unlock()
	return r.daily(ctx, today)
}

// SendQuarterly sends the quarterly reminders of q against the current report.
func (r *Routines) SendQuarterly(ctx context.Context, today qualification.Date, q qualification.Quarter) error {
	if err := r.lock(); err != nil {
		return err
	}
	defer r.guard.Unlock()
	return r.quarterly(ctx, today, q)
}

// History lists recent runs, newest first. An empty kind lists every kind.
func (r *Routines) History(ctx context.Context, kind run.Kind, limit int) ([]*run.Run, error) {
	return r.runs.ListRecent(ctx, kind, limit)
}

func (r *Routines) generateReport(ctx context.Context) error {
	_, err := r.reports.GenerateQualificationReport(ctx, r.dest.Qualification)
	return err
}

func (r *Routines) daily(ctx context.Context, today qualification.Date) error {
	return r.record(ctx, run.KindDailyReminder, today, func(rn *run.Run) error {
		summary, err := r.reminders.SendDaily(ctx, today)
		if err != nil {
			return err
		}
		summarize(rn, summary)
		return nil
	})
}

func (r *Routines) quarterly(ctx context.Context, today qualification.Date, q qualification.Quarter) error {
	return r.record(ctx, run.KindQuarterlyReminder, today, func(rn *run.Run) error {
		r.logger.WithField("quarter", q.String()).Info("Sending quarterly reminders")
		summary, err := r.reminders.SendQuarterly(ctx, q)
		if err != nil {
			return err
		}
		summarize(rn, summary)
		return nil
	})
}

func summarize(rn *run.Run, summary *ReminderSummary) {
	rn.Processed = summary.Selected
	rn.Sent = summary.Sent
	rn.Failures = append(rn.Failures, summary.Failures...)
}

// record wraps fn in a run history entry. History failures are logged, never fatal.
func (r *Routines) record(ctx context.Context, kind run.Kind, today qualification.Date, fn func(*run.Run) error) error {
	rn := run.New(kind, today.Time())
	logCtx := r.logger.WithFields(logrus.Fields{"run_id": rn.ID, "kind": kind})
	if err := r.runs.Create(ctx, rn); err != nil {
		logCtx.WithError(err).Warn("Failed to record run start")
	}

	err := fn(rn)
	rn.Finish(err)
	if uerr := r.runs.Update(ctx, rn); uerr != nil {
		logCtx.WithError(uerr).Warn("Failed to record run result")
	}
	if err != nil {
		logCtx.WithError(err).Error("Routine failed")
		return fmt.Errorf("%s routine: %w", kind, err)
	}
	logCtx.WithFields(logrus.Fields{
		"processed": rn.Processed,
		"sent":      rn.Sent,
		"failed":    len(rn.Failures),
	}).Info("Routine completed")
	return nil
}
