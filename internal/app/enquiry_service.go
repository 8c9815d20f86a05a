package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"qualification_reminder/internal/domain/mail"
	"qualification_reminder/internal/domain/portal"
	"qualification_reminder/internal/domain/qualification"
	"qualification_reminder/internal/domain/staff"

	"github.com/sirupsen/logrus"
)

// EnquiryResult is the outcome of the enquiry of one staff member.
type EnquiryResult struct {
	Member staff.Member
	Path   string // snapshot written on success
	Err    error  // reason of failure
}

func (r EnquiryResult) Failed() bool {
	return r.Err != nil
}

// BatchResult collects the enquiry results of one run, in roster order.
type BatchResult struct {
	Results []EnquiryResult
}

func (b *BatchResult) Total() int {
	return len(b.Results)
}

func (b *BatchResult) Failures() []EnquiryResult {
	var failed []EnquiryResult
	for _, r := range b.Results {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}

// AlertKind classifies the batch for the administrator alert.
func (b *BatchResult) AlertKind() mail.AlertKind {
	return mail.AlertKindFor(len(b.Failures()), b.Total())
}

// AlertFormatter renders the administrator alert.
type AlertFormatter interface {
	AlertBody(kind mail.AlertKind, failedNames []string) (string, error)
}

// EnquiryService refreshes per-staff qualification snapshots from the portal.
type EnquiryService struct {
	portal     portal.Client
	store      qualification.RecordStore
	staff      staff.Repository
	formatter  AlertFormatter
	sender     mail.Sender
	notifier   mail.Notifier // optional
	adminEmail string
	logger     *logrus.Entry
	now        func() time.Time
}

func NewEnquiryService(
	client portal.Client,
	store qualification.RecordStore,
	staffRepo staff.Repository,
	formatter AlertFormatter,
	sender mail.Sender,
	notifier mail.Notifier,
	adminEmail string,
	logger *logrus.Entry,
) *EnquiryService {
	return &EnquiryService{
		portal:     client,
		store:      store,
		staff:      staffRepo,
		formatter:  formatter,
		sender:     sender,
		notifier:   notifier,
		adminEmail: adminEmail,
		logger:     logger,
		now:        time.Now,
	}
}

// FetchAll enquires every staff member on the roster. Individual failures are
// recorded in the batch; only a roster problem fails the whole call.
func (s *EnquiryService) FetchAll(ctx context.Context) (*BatchResult, error) {
	roster, err := s.staff.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading staff list: %w", err)
	}

	s.logger.WithField("staff", roster.Len()).Info("Fetching staff qualification record...")
	batch := &BatchResult{}
	for _, m := range roster.Members() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch.Results = append(batch.Results, s.fetchOne(ctx, m))
	}

	s.logger.Infof("Completed with %d failed case(s).", len(batch.Failures()))
	return batch, nil
}

func (s *EnquiryService) fetchOne(ctx context.Context, m staff.Member) EnquiryResult {
	logCtx := s.logger.WithFields(logrus.Fields{"staff_id": m.Number, "name": m.Name})

	record, err := retry(ctx, logCtx, func(ctx context.Context) (*qualification.StaffRecord, error) {
		return s.portal.FetchQualifications(ctx, m.Number)
	})
	if err != nil {
		logCtx.WithError(err).Error("Failed to fetch qualification record")
		return EnquiryResult{Member: m, Err: err}
	}

	path, err := s.store.SaveQualificationRecord(ctx, record)
	if err != nil {
		logCtx.WithError(err).Error("Failed to save qualification record")
		return EnquiryResult{Member: m, Err: err}
	}
	logCtx.WithField("path", path).Debug("Qualification record saved")
	return EnquiryResult{Member: m, Path: path}
}

// SendAlert emails the batch outcome to the administrator and mirrors a summary to the notifier.
func (s *EnquiryService) SendAlert(ctx context.Context, batch *BatchResult) error {
	kind := batch.AlertKind()

	var names []string
	if kind == mail.AlertPartialSuccess {
		for _, r := range batch.Failures() {
			names = append(names, r.Member.Name)
		}
	}
	body, err := s.formatter.AlertBody(kind, names)
	if err != nil {
		return err
	}

	today := qualification.DateOf(s.now())
	msg := &mail.Message{
		To:       []string{s.adminEmail},
		Subject:  "Daily Qualification Enquiry Report on " + today.String(),
		HTMLBody: body,
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("error sending enquiry alert: %w", err)
	}
	s.logger.WithField("kind", kind).Info("Sent alert email to admin.")

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, alertText(kind, today, batch)); err != nil {
			s.logger.WithError(err).Warn("Failed to notify admin channel")
		}
	}
	return nil
}

func alertText(kind mail.AlertKind, today qualification.Date, batch *BatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Qualification enquiry %s: %s", today, kind)
	failures := batch.Failures()
	fmt.Fprintf(&b, " (%d/%d failed)", len(failures), batch.Total())
	for _, r := range failures {
		fmt.Fprintf(&b, "\n - %s (%s)", r.Member.Name, r.Member.Number)
	}
	return b.String()
}
