package main

import (
	"context"
	"fmt"

	"qualification_reminder/internal/app"
	"qualification_reminder/internal/domain/mail"
	"qualification_reminder/internal/domain/run"
	"qualification_reminder/internal/infra/csvstore"
	idb "qualification_reminder/internal/infra/database"
	"qualification_reminder/internal/infra/logger"
	"qualification_reminder/internal/infra/mailer"
	"qualification_reminder/internal/infra/portal"
	"qualification_reminder/internal/infra/storage"
	"qualification_reminder/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// application holds the wired routines and everything that must be closed on exit.
type application struct {
	routines *app.Routines
	bot      *telebot.Bot // nil without TELEGRAM_TOKEN
	logger   *logrus.Entry

	closers []func() error
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.WithError(err).Warn("Error during shutdown")
		}
	}
}

// newApplication wires the routines from appConfig and rules. A polling bot is
// only created for the serve command, one-shot commands use an offline bot to
// send alerts.
func newApplication(ctx context.Context, poll bool) (*application, error) {
	a := &application{logger: logger.Component("main")}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	runs, err := a.runRepository(ctx)
	if err != nil {
		return nil, err
	}

	if appConfig.TelegramToken != "" {
		a.bot, err = telegram.NewBot(appConfig.TelegramToken, !poll, logger.Component("telegram"))
		if err != nil {
			return nil, fmt.Errorf("could not create Telegram bot: %w", err)
		}
		a.logger.Info("Telegram bot initialized.")
	}
	var notifier mail.Notifier
	if a.bot != nil {
		notifier = telegram.NewAdminNotifier(a.bot, appConfig.AdminTelegramID)
	}

	sender, err := newSender()
	if err != nil {
		return nil, err
	}

	browser := portal.NewBrowser(portal.Config{
		QualificationURL: rules.EnquiryQualificationLink,
		PracticeURL:      rules.EnquiryPracticeLink,
		Headless:         appConfig.BrowserHeadless,
		Timeout:          appConfig.BrowserTimeout,
	}, logger.Component("portal"))
	a.closers = append(a.closers, browser.Close)

	dest, err := resolveDestinations()
	if err != nil {
		return nil, err
	}

	store := csvstore.NewStore(rules.ReportsDir)
	roster := csvstore.NewRosterFile(rules.StaffListPath)
	formatter := mailer.NewFormatter(rules.EmailSender, rules.RemainingDaysRed, rules.PracticeRed)
	domainRules := rules.Qualification()

	enquiry := app.NewEnquiryService(browser, store, roster, formatter, sender, notifier,
		rules.EmailSender.AdminEmail, logger.Component("enquiry"))
	reports := app.NewReportService(store, roster, domainRules, logger.Component("report"))
	reminders := app.NewReminderService(
		app.NewAnalyzer(domainRules, logger.Component("analyzer")),
		store, roster, browser, formatter, sender,
		app.ReminderSettings{
			ReportPath:     rules.QReportPath,
			HasPractice:    rules.HasPractice,
			EmailCC:        rules.EmailCC,
			EmailCCExpiry:  rules.EmailCCExpiry,
			AdminEmail:     rules.EmailSender.AdminEmail,
			EscalationDays: rules.Escalation(),
			TeamAdmin:      rules.TeamAdmin,
		},
		logger.Component("reminder"),
	)

	a.routines = app.NewRoutines(enquiry, reports, reminders, runs, dest, logger.Component("routines"))
	ok = true
	return a, nil
}

func (a *application) runRepository(ctx context.Context) (run.Repository, error) {
	if appConfig.DatabaseURL == "" {
		a.logger.Info("DATABASE_URL not set, run history is kept in memory.")
		return idb.NewMemoryRunRepository(), nil
	}

	db, err := idb.NewPostgresConnection(ctx, appConfig.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	if err := idb.EnsureSchema(ctx, db); err != nil {
		return nil, err
	}
	a.logger.Info("Database connection established successfully.")
	return idb.NewPostgresRunRepository(db), nil
}

func newSender() (mail.Sender, error) {
	if dryRun {
		return mailer.NewOutbox(appConfig.OutboxDir, logger.Component("outbox")), nil
	}
	if appConfig.SMTPHost == "" {
		logger.Component("main").WithField("outbox", appConfig.OutboxDir).Warn("SMTP_HOST not set, emails are written to the outbox.")
		return mailer.NewOutbox(appConfig.OutboxDir, logger.Component("outbox")), nil
	}
	sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:      appConfig.SMTPHost,
		Port:      appConfig.SMTPPort,
		Username:  appConfig.SMTPUsername,
		Password:  appConfig.SMTPPassword,
		FromName:  rules.EmailSender.Name,
		FromEmail: rules.EmailSender.Email,
		LogoPath:  rules.EmailSender.CorpLogo,
	}, logger.Component("smtp"))
	if err != nil {
		return nil, fmt.Errorf("could not create SMTP sender: %w", err)
	}
	return sender, nil
}

func resolveDestinations() (app.RoutineDestinations, error) {
	s3cfg := storage.S3Config{
		Region:    appConfig.AWSRegion,
		Endpoint:  appConfig.AWSEndpoint,
		AccessKey: appConfig.AWSAccessKey,
		SecretKey: appConfig.AWSSecretKey,
	}

	resolve := func(primary, secondary string) (app.ReportDestinations, error) {
		var d app.ReportDestinations
		var err error
		if d.Primary, err = storage.Resolve(primary, s3cfg); err != nil {
			return d, err
		}
		if secondary != "" {
			t, err := storage.Resolve(secondary, s3cfg)
			if err != nil {
				return d, err
			}
			d.Secondary = &t
		}
		return d, nil
	}

	q, err := resolve(rules.QReportPath, rules.QReportAbsPath)
	if err != nil {
		return app.RoutineDestinations{}, fmt.Errorf("qualification report destination: %w", err)
	}
	t, err := resolve(rules.TReportPath, rules.TReportAbsPath)
	if err != nil {
		return app.RoutineDestinations{}, fmt.Errorf("training report destination: %w", err)
	}
	return app.RoutineDestinations{Qualification: q, Training: t}, nil
}
