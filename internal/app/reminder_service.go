package app

import (
	"context"
	"fmt"
	"strings"

	"qualification_reminder/internal/domain/mail"
	"qualification_reminder/internal/domain/portal"
	"qualification_reminder/internal/domain/qualification"
	"qualification_reminder/internal/domain/staff"
	"qualification_reminder/internal/infra/config"
	"qualification_reminder/internal/infra/export"

	"github.com/sirupsen/logrus"
)

// ReminderFormatter renders reminder tables into HTML bodies.
type ReminderFormatter interface {
	DailyBody(greeting string, rows []qualification.ReminderRow) (string, error)
	QuarterlyBody(greeting, team string, q qualification.Quarter, rows []qualification.ReminderRow) (string, error)
}

// ReminderSettings are the recipient rules of the reminder emails.
type ReminderSettings struct {
	ReportPath     string // consolidated qualification report
	HasPractice    []string
	EmailCC        []string
	EmailCCExpiry  []string
	AdminEmail     string
	EscalationDays int
	TeamAdmin      config.TeamAdmins
}

// ReminderSummary reports what a reminder run did.
type ReminderSummary struct {
	Mode     qualification.Mode
	Selected int      // reminder rows
	Sent     int      // messages delivered
	Failures []string // recipients whose message could not be delivered
}

// ReminderService selects due qualifications and emails the reminders.
type ReminderService struct {
	analyzer  *Analyzer
	store     qualification.RecordStore
	staff     staff.Repository
	portal    portal.Client
	formatter ReminderFormatter
	sender    mail.Sender
	settings  ReminderSettings
	logger    *logrus.Entry
}

func NewReminderService(
	analyzer *Analyzer,
	store qualification.RecordStore,
	staffRepo staff.Repository,
	client portal.Client,
	formatter ReminderFormatter,
	sender mail.Sender,
	settings ReminderSettings,
	logger *logrus.Entry,
) *ReminderService {
	return &ReminderService{
		analyzer:  analyzer,
		store:     store,
		staff:     staffRepo,
		portal:    client,
		formatter: formatter,
		sender:    sender,
		settings:  settings,
		logger:    logger,
	}
}

// SendDaily emails each staff member whose qualifications reach a reminder offset today.
// Every message is composed before the first one is sent.
func (s *ReminderService) SendDaily(ctx context.Context, today qualification.Date) (*ReminderSummary, error) {
	summary := &ReminderSummary{Mode: qualification.ModeDaily}

	rows, err := s.store.ReadQualificationReport(ctx, s.settings.ReportPath)
	if err != nil {
		return nil, err
	}
	selected, err := s.analyzer.AnalyseDaily(rows, today)
	if err != nil {
		return nil, err
	}
	summary.Selected = len(selected)
	if len(selected) == 0 {
		s.logger.Info("No staff requires reminder email.")
		return summary, nil
	}

	roster, err := s.staff.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading staff list: %w", err)
	}
	s.fillPractice(ctx, selected)

	var messages []*mail.Message
	for _, group := range groupByStaff(selected) {
		member, ok := roster.Get(group[0].StaffID)
		if !ok {
			return nil, fmt.Errorf("staff %s: %w", group[0].StaffID, staff.ErrStaffNotFound)
		}
		body, err := s.formatter.DailyBody(member.EmailName, group)
		if err != nil {
			return nil, err
		}
		messages = append(messages, &mail.Message{
			To:       []string{member.Email},
			Cc:       s.dailyCC(roster, member, group),
			Subject:  "Reminder of Qualification Renewal on " + today.String(),
			HTMLBody: body,
		})
	}

	s.send(ctx, messages, summary)
	return summary, nil
}

// SendQuarterly emails the admins of every team with members whose qualifications expire in q.
func (s *ReminderService) SendQuarterly(ctx context.Context, q qualification.Quarter) (*ReminderSummary, error) {
	summary := &ReminderSummary{Mode: qualification.ModeQuarterly}

	rows, err := s.store.ReadQualificationReport(ctx, s.settings.ReportPath)
	if err != nil {
		return nil, err
	}
	selected, err := s.analyzer.AnalyseQuarterly(rows, q.Dates())
	if err != nil {
		return nil, err
	}
	summary.Selected = len(selected)
	if len(selected) == 0 {
		s.logger.Info("No staff requires reminder email.")
		return summary, nil
	}

	roster, err := s.staff.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading staff list: %w", err)
	}
	s.fillPractice(ctx, selected)

	var messages []*mail.Message
	for _, team := range s.settings.TeamAdmin {
		teamRows := rowsOfMembers(selected, roster.TeamMembers(team.Team))
		if len(teamRows) == 0 {
			continue
		}
		admins := roster.Lookup(team.Members)
		if len(admins) == 0 {
			return nil, fmt.Errorf("team %s has no admin on the staff list: %w", team.Team, staff.ErrStaffNotFound)
		}

		body, err := s.formatter.QuarterlyBody(adminGreeting(admins), team.Team, q, teamRows)
		if err != nil {
			return nil, err
		}
		workbook, err := export.QuarterlyWorkbook(teamRows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, &mail.Message{
			To:       emails(admins),
			Cc:       dedupe(s.settings.EmailCC, nil),
			Subject:  "Quarterly Reminder of Qualification Renewal in " + q.String(),
			HTMLBody: body,
			Attachments: []mail.Attachment{{
				Name: fmt.Sprintf("Qualification Renewal %s %s.xlsx", team.Team, q),
				Data: workbook,
			}},
		})
	}

	s.send(ctx, messages, summary)
	return summary, nil
}

func (s *ReminderService) send(ctx context.Context, messages []*mail.Message, summary *ReminderSummary) {
	for _, msg := range messages {
		logCtx := s.logger.WithFields(logrus.Fields{"to": msg.To, "mode": summary.Mode})
		if err := s.sender.Send(ctx, msg); err != nil {
			logCtx.WithError(err).Error("Failed to send reminder email")
			summary.Failures = append(summary.Failures, strings.Join(msg.To, "; "))
			continue
		}
		summary.Sent++
		logCtx.Debug("Sent reminder email")
	}
	s.logger.Infof("Sent %d reminder email(s) (mode=%s).", summary.Sent, summary.Mode)
}

// dailyCC copies team admins when a row is within the escalation window, and the
// expiry list when a row expires today. The recipient never appears in CC.
func (s *ReminderService) dailyCC(roster *staff.Roster, member staff.Member, rows []qualification.ReminderRow) []string {
	cc := append([]string(nil), s.settings.EmailCC...)

	escalate, expiresToday := false, false
	for _, r := range rows {
		if r.DaysRemaining <= s.settings.EscalationDays {
			escalate = true
		}
		if r.DaysRemaining == 0 {
			expiresToday = true
		}
	}

	if escalate {
		var admins []string
		for _, email := range emails(roster.Lookup(s.settings.TeamAdmin.Admins(member.Team))) {
			if email != s.settings.AdminEmail {
				admins = append(admins, email)
			}
		}
		if !contains(admins, member.Email) {
			cc = append(cc, admins...)
		}
	}
	if expiresToday {
		cc = append(cc, s.settings.EmailCCExpiry...)
	}
	return dedupe(cc, []string{member.Email})
}

// fillPractice looks up practice counts for codes that track practice and sets
// the display value of every row.
func (s *ReminderService) fillPractice(ctx context.Context, rows []qualification.ReminderRow) {
	for i := range rows {
		r := &rows[i]
		if contains(s.settings.HasPractice, r.Code) {
			since := r.LastRefresh
			if since.IsZero() {
				since = r.FirstObtain
			}
			logCtx := s.logger.WithFields(logrus.Fields{"staff_id": r.StaffID, "qualification_code": r.Code})
			count, err := retry(ctx, logCtx, func(ctx context.Context) (string, error) {
				return s.portal.FetchPracticeCount(ctx, r.StaffID, r.Code, since)
			})
			if err != nil {
				logCtx.WithError(err).Error("Failed to fetch practice record")
				count = "?"
			}
			r.Practice = count
		}
		r.PracticeDone = practiceDisplay(r.Practice)
	}
}

// practiceDisplay hides blanks and attachment dates, which are not counts.
func practiceDisplay(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.Contains(value, "/") {
		return "-"
	}
	return value
}

// groupByStaff splits rows sorted by staff into consecutive per-staff groups.
func groupByStaff(rows []qualification.ReminderRow) [][]qualification.ReminderRow {
	var groups [][]qualification.ReminderRow
	for _, r := range rows {
		n := len(groups)
		if n > 0 && groups[n-1][0].StaffID == r.StaffID {
			groups[n-1] = append(groups[n-1], r)
			continue
		}
		groups = append(groups, []qualification.ReminderRow{r})
	}
	return groups
}

func rowsOfMembers(rows []qualification.ReminderRow, members []staff.Member) []qualification.ReminderRow {
	numbers := make(map[string]bool, len(members))
	for _, m := range members {
		numbers[m.Number] = true
	}
	var out []qualification.ReminderRow
	for _, r := range rows {
		if numbers[r.StaffID] {
			out = append(out, r)
		}
	}
	return out
}

// adminGreeting names up to two admins, otherwise greets them all.
func adminGreeting(admins []staff.Member) string {
	if len(admins) > 2 {
		return "all"
	}
	names := make([]string, 0, len(admins))
	for _, a := range admins {
		names = append(names, a.EmailName)
	}
	return strings.Join(names, " and ")
}

func emails(members []staff.Member) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m.Email != "" {
			out = append(out, m.Email)
		}
	}
	return out
}

// dedupe drops blanks, repeats and anything in exclude, keeping first occurrences in order.
func dedupe(values, exclude []string) []string {
	seen := make(map[string]bool, len(values)+len(exclude))
	for _, e := range exclude {
		seen[e] = true
	}
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
