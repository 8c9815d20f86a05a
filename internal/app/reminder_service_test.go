package app

import (
	"context"
	"testing"

	"qualification_reminder/internal/domain/qualification"
	"qualification_reminder/internal/domain/staff"
	"qualification_reminder/internal/infra/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dan = staff.Member{Number: "4", Name: "Dan Ho", EmailName: "Dan", Email: "dan@example.com", Team: "Ops"}
	eve = staff.Member{Number: "5", Name: "Eve Ng", EmailName: "Eve", Email: "admin@example.com", Team: "Ops"}
)

type reminderFixture struct {
	svc       *ReminderService
	store     *fakeStore
	portal    *fakePortal
	sender    *fakeSender
	formatter *fakeFormatter
}

func newReminderFixture(rules qualification.Rules, settings ReminderSettings, members ...staff.Member) *reminderFixture {
	f := &reminderFixture{
		store:     newFakeStore(),
		portal:    newFakePortal(),
		sender:    &fakeSender{},
		formatter: &fakeFormatter{},
	}
	f.svc = NewReminderService(NewAnalyzer(rules, testLogger()), f.store, &fakeRoster{members: members},
		f.portal, f.formatter, f.sender, settings, testLogger())
	return f
}

func defaultSettings() ReminderSettings {
	return ReminderSettings{
		ReportPath:     "q_report.csv",
		EmailCC:        []string{"cc@example.com"},
		EmailCCExpiry:  []string{"expiry@example.com"},
		AdminEmail:     "admin@example.com",
		EscalationDays: 30,
		TeamAdmin: config.TeamAdmins{
			{Team: "Ops", Members: []string{"4", "5"}},
			{Team: "Eng", Members: []string{"1"}},
		},
	}
}

func TestSendDaily_EmptyReportNeverSends(t *testing.T) {
	f := newReminderFixture(testRules(), defaultSettings(), ann)

	summary, err := f.svc.SendDaily(context.Background(), date(2025, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Selected)
	assert.Empty(t, f.sender.sent)
	assert.Empty(t, f.formatter.dailyGreetings)
}

func TestSendDaily_NothingDueNeverSends(t *testing.T) {
	f := newReminderFixture(testRules(), defaultSettings(), ann)
	f.store.report = []qualification.Row{row("1", "A", date(2025, 6, 9))}

	summary, err := f.svc.SendDaily(context.Background(), date(2025, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Sent)
	assert.Empty(t, f.sender.sent)
}

func TestSendDaily_RecipientsAndCC(t *testing.T) {
	f := newReminderFixture(testRules(), defaultSettings(), ann, bob, cat, dan, eve)
	f.store.report = []qualification.Row{
		row("2", "A", date(2025, 6, 1)),  // expires today
		row("1", "A", date(2025, 6, 8)),  // 7 days
		row("3", "A", date(2025, 8, 30)), // 90 days, no escalation
	}

	summary, err := f.svc.SendDaily(context.Background(), date(2025, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Selected)
	assert.Equal(t, 3, summary.Sent)
	require.Len(t, f.sender.sent, 3)

	annMsg, bobMsg, catMsg := f.sender.sent[0], f.sender.sent[1], f.sender.sent[2]

	assert.Equal(t, []string{"ann@example.com"}, annMsg.To)
	assert.Equal(t, []string{"cc@example.com", "dan@example.com"}, annMsg.Cc, "team admins copied, sender admin removed")
	assert.Equal(t, "Reminder of Qualification Renewal on 01/06/2025", annMsg.Subject)

	assert.Equal(t, []string{"bob@example.com"}, bobMsg.To)
	assert.Equal(t, []string{"cc@example.com", "dan@example.com", "expiry@example.com"}, bobMsg.Cc)

	assert.Equal(t, []string{"cat@example.com"}, catMsg.To)
	assert.Equal(t, []string{"cc@example.com"}, catMsg.Cc)

	assert.Equal(t, []string{"Ann", "Bob", "Cat"}, f.formatter.dailyGreetings)
}

func TestSendDaily_TeamAdminRecipientNotEscalated(t *testing.T) {
	f := newReminderFixture(testRules(), defaultSettings(), dan, eve)
	f.store.report = []qualification.Row{row("4", "A", date(2025, 6, 8))}

	_, err := f.svc.SendDaily(context.Background(), date(2025, 6, 1))
	require.NoError(t, err)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, []string{"cc@example.com"}, f.sender.sent[0].Cc)
}

func TestSendDaily_RecipientRemovedFromCC(t *testing.T) {
	settings := defaultSettings()
	settings.EmailCC = []string{"ann@example.com", "cc@example.com", "cc@example.com"}
	f := newReminderFixture(testRules(), settings, ann)
	f.store.report = []qualification.Row{row("1", "A", date(2025, 8, 30))}

	_, err := f.svc.SendDaily(context.Background(), date(2025, 6, 1))
	require.NoError(t, err)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, []string{"cc@example.com"}, f.sender.sent[0].Cc)
}

func TestSendDaily_ConfigErrorSendsNothing(t *testing.T) {
	rules := qualification.Rules{RemainingDaysTable: map[string][]int{"A": {7}}}
	f := newReminderFixture(rules, defaultSettings(), ann, bob)
	f.store.report = []qualification.Row{
		row("1", "A", date(2025, 6, 8)),
		row("2", "Z", date(2025, 6, 8)),
	}

	_, err := f.svc.SendDaily(context.Background(), date(2025, 6, 1))
	assert.ErrorIs(t, err, qualification.ErrMissingOffsets)
	assert.Empty(t, f.sender.sent)
}

func TestSendDaily_FormatterErrorSendsNothing(t *testing.T) {
	f := newReminderFixture(testRules(), defaultSettings(), ann, bob)
	f.formatter.err = errFake
	f.store.report = []qualification.Row{
		row("1", "A", date(2025, 6, 8)),
		row("2", "A", date(2025, 6, 8)),
	}

	_, err := f.svc.SendDaily(context.Background(), date(2025, 6, 1))
	assert.ErrorIs(t, err, errFake)
	assert.Empty(t, f.sender.sent)
}

func TestSendDaily_UnknownStaffSendsNothing(t *testing.T) {
	f := newReminderFixture(testRules(), defaultSettings(), ann)
	f.store.report = []qualification.Row{
		row("1", "A", date(2025, 6, 8)),
		row("8", "A", date(2025, 6, 8)),
	}

	_, err := f.svc.SendDaily(context.Background(), date(2025, 6, 1))
	assert.ErrorIs(t, err, staff.ErrStaffNotFound)
	assert.Empty(t, f.sender.sent)
}

func TestSendDaily_ReportErrorIsFatal(t *testing.T) {
	f := newReminderFixture(testRules(), defaultSettings(), ann)
	f.store.reportErr = errFake

	_, err := f.svc.SendDaily(context.Background(), date(2025, 6, 1))
	assert.ErrorIs(t, err, errFake)
}

func TestSendDaily_SendFailureRecorded(t *testing.T) {
	f := newReminderFixture(testRules(), defaultSettings(), ann, bob)
	f.sender.failTo = map[string]bool{"ann@example.com": true}
	f.store.report = []qualification.Row{
		row("1", "A", date(2025, 6, 8)),
		row("2", "A", date(2025, 6, 8)),
	}

	summary, err := f.svc.SendDaily(context.Background(), date(2025, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, []string{"ann@example.com"}, summary.Failures)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, []string{"bob@example.com"}, f.sender.sent[0].To)
}

func TestFillPractice(t *testing.T) {
	settings := defaultSettings()
	settings.HasPractice = []string{"P"}
	f := newReminderFixture(testRules(), settings)
	f.portal.practice["1/P"] = "0"

	rows := []qualification.ReminderRow{
		{Row: qualification.Row{StaffID: "1", Code: "P", FirstObtain: date(2020, 1, 1)}},
		{Row: qualification.Row{StaffID: "1", Code: "P", FirstObtain: date(2020, 1, 1), LastRefresh: date(2024, 1, 1)}},
		{Row: qualification.Row{StaffID: "1", Code: "A", Practice: "12/03/2024"}},
		{Row: qualification.Row{StaffID: "1", Code: "B", Practice: "5"}},
		{Row: qualification.Row{StaffID: "1", Code: "C"}},
	}
	f.svc.fillPractice(context.Background(), rows)

	assert.Equal(t, []qualification.Date{date(2020, 1, 1), date(2024, 1, 1)}, f.portal.practiceArgs)
	assert.Equal(t, "0", rows[0].PracticeDone)
	assert.Equal(t, "0", rows[1].PracticeDone)
	assert.Equal(t, "-", rows[2].PracticeDone, "dates are not counts")
	assert.Equal(t, "5", rows[3].PracticeDone)
	assert.Equal(t, "-", rows[4].PracticeDone)
}

func TestFillPractice_FailureMarksUnknown(t *testing.T) {
	settings := defaultSettings()
	settings.HasPractice = []string{"P"}
	f := newReminderFixture(testRules(), settings)
	f.portal.practiceErr = errFake

	rows := []qualification.ReminderRow{{Row: qualification.Row{StaffID: "1", Code: "P"}}}
	f.svc.fillPractice(context.Background(), rows)

	assert.Len(t, f.portal.practiceArgs, maxAttempts)
	assert.Equal(t, "?", rows[0].PracticeDone)
}

func TestSendQuarterly_PerTeamMessages(t *testing.T) {
	f := newReminderFixture(testRules(), defaultSettings(), ann, bob, cat, dan, eve)
	f.store.report = []qualification.Row{
		row("1", "A", date(2025, 5, 15)),
		row("3", "B", date(2025, 4, 1)),
		row("2", "A", date(2025, 7, 1)), // outside Q2
	}
	q, err := qualification.NewQuarter(2025, 2)
	require.NoError(t, err)

	summary, err := f.svc.SendQuarterly(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Selected)
	require.Len(t, f.sender.sent, 2)

	ops, eng := f.sender.sent[0], f.sender.sent[1]
	assert.Equal(t, []string{"dan@example.com", "admin@example.com"}, ops.To)
	assert.Equal(t, []string{"cc@example.com"}, ops.Cc)
	assert.Equal(t, "Quarterly Reminder of Qualification Renewal in 2025 Q2", ops.Subject)
	assert.Equal(t, "quarterly Dan and Eve Ops 2025 Q2 1", ops.HTMLBody)
	require.Len(t, ops.Attachments, 1)
	assert.Equal(t, "Qualification Renewal Ops 2025 Q2.xlsx", ops.Attachments[0].Name)
	assert.NotEmpty(t, ops.Attachments[0].Data)

	assert.Equal(t, []string{"ann@example.com"}, eng.To)
	assert.Equal(t, "quarterly Ann Eng 2025 Q2 1", eng.HTMLBody)
}

func TestSendQuarterly_EmptyNeverSends(t *testing.T) {
	f := newReminderFixture(testRules(), defaultSettings(), ann)
	q, _ := qualification.NewQuarter(2025, 1)

	summary, err := f.svc.SendQuarterly(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Selected)
	assert.Empty(t, f.sender.sent)
}

func TestAdminGreeting(t *testing.T) {
	assert.Equal(t, "Ann", adminGreeting([]staff.Member{ann}))
	assert.Equal(t, "Ann and Bob", adminGreeting([]staff.Member{ann, bob}))
	assert.Equal(t, "all", adminGreeting([]staff.Member{ann, bob, cat}))
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, dedupe([]string{"a", "", "b", "a", "c"}, []string{"b"}))
	assert.Nil(t, dedupe(nil, nil))
}
