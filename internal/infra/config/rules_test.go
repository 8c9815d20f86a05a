package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRules = `
staff_list_path: staff.csv
reports_dir: reports
q_report_path: q_report.csv
q_report_abs_path: s3://shared/q_report.csv
t_report_path: t_report.csv
enquiry_qualification_link: https://portal.example.com/qual
enquiry_practice_link: https://portal.example.com/practice
implied_qualification:
  - [A1, A2]
bypass_qualification: [BYP]
remaining_days_table:
  A: [90, 30, 7, 0]
  DEFAULT: [60, 14]
has_refresher:
  - codes: [R1, R2]
    repeat_years: 4
has_practice: [P1]
remaining_days_red: [7, 0]
practice_red: ["0", "?"]
email_sender:
  sender_name: Training Office
  sender_email: training@example.com
  admin_email: admin@example.com
  corp_logo: logo.png
  sender_phone: "1234 5678"
email_cc: [cc@example.com]
team_admin:
  Zulu: [100]
  Alpha: [200, 201]
fetch_time: "07:30"
reminder_time: "09:00"
`

func TestParseRules_Valid(t *testing.T) {
	r, err := ParseRules([]byte(validRules))
	require.NoError(t, err)

	assert.Equal(t, 30, r.Escalation())
	assert.Equal(t, "admin@example.com", r.EmailSender.AdminEmail)
	assert.Equal(t, "1234 5678", r.EmailSender.Fields["sender_phone"])

	require.Len(t, r.TeamAdmin, 2)
	assert.Equal(t, "Zulu", r.TeamAdmin[0].Team)
	assert.Equal(t, []string{"100"}, r.TeamAdmin.Admins("Zulu"))
	assert.Equal(t, []string{"200", "201"}, r.TeamAdmin.Admins("Alpha"))
	assert.Nil(t, r.TeamAdmin.Admins("Missing"))

	q := r.Qualification()
	assert.Equal(t, []int{90, 30, 7, 0}, q.RemainingDaysTable["A"])
	require.Len(t, q.HasRefresher, 1)
	assert.Equal(t, 4, q.HasRefresher[0].RepeatYears)
	assert.True(t, q.IsBypassed("BYP"))
}

func TestParseRules_EscalationOverride(t *testing.T) {
	r, err := ParseRules([]byte(validRules + "escalation_days: 45\n"))
	require.NoError(t, err)
	assert.Equal(t, 45, r.Escalation())
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantKey string
	}{
		{
			name:    "missing staff list",
			mutate:  func(s string) string { return strings.Replace(s, "staff_list_path: staff.csv", "", 1) },
			wantKey: "staff_list_path",
		},
		{
			name:    "missing DEFAULT offsets",
			mutate:  func(s string) string { return strings.Replace(s, "  DEFAULT: [60, 14]\n", "", 1) },
			wantKey: "remaining_days_table",
		},
		{
			name:    "zero refresher cycle",
			mutate:  func(s string) string { return strings.Replace(s, "repeat_years: 4", "repeat_years: 0", 1) },
			wantKey: "has_refresher[0].repeat_years",
		},
		{
			name:    "bad reminder time",
			mutate:  func(s string) string { return strings.Replace(s, `reminder_time: "09:00"`, `reminder_time: "9am"`, 1) },
			wantKey: "reminder_time",
		},
		{
			name:    "practice without link",
			mutate:  func(s string) string { return strings.Replace(s, "enquiry_practice_link: https://portal.example.com/practice", "", 1) },
			wantKey: "enquiry_practice_link",
		},
		{
			name:    "missing bypass list",
			mutate:  func(s string) string { return strings.Replace(s, "bypass_qualification: [BYP]\n", "", 1) },
			wantKey: "bypass_qualification",
		},
		{
			name: "missing refresher groups",
			mutate: func(s string) string {
				return strings.Replace(s, "has_refresher:\n  - codes: [R1, R2]\n    repeat_years: 4\n", "", 1)
			},
			wantKey: "has_refresher",
		},
		{
			name:    "missing implied qualifications",
			mutate:  func(s string) string { return strings.Replace(s, "implied_qualification:\n  - [A1, A2]\n", "", 1) },
			wantKey: "implied_qualification",
		},
		{
			name:    "null bypass list",
			mutate:  func(s string) string { return strings.Replace(s, "bypass_qualification: [BYP]", "bypass_qualification:", 1) },
			wantKey: "bypass_qualification",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.mutate(validRules)))
			var cfgErr ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantKey, cfgErr.Key)
		})
	}
}

func TestParseRules_EmptyListsAllowed(t *testing.T) {
	data := strings.NewReplacer(
		"bypass_qualification: [BYP]", "bypass_qualification: []",
		"implied_qualification:\n  - [A1, A2]", "implied_qualification: []",
		"has_refresher:\n  - codes: [R1, R2]\n    repeat_years: 4", "has_refresher: []",
	).Replace(validRules)

	r, err := ParseRules([]byte(data))
	require.NoError(t, err)
	assert.Empty(t, r.BypassQualification)
	assert.Empty(t, r.HasRefresher)
	assert.Empty(t, r.ImpliedQualification)
}

func TestParseRules_UnknownKey(t *testing.T) {
	data := strings.Replace(validRules, "bypass_qualification:", "bypass_qualifications:", 1)

	_, err := ParseRules([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bypass_qualifications")
}

func TestParseRules_Empty(t *testing.T) {
	_, err := ParseRules(nil)
	var cfgErr ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "staff_list_path", cfgErr.Key)
}

func TestLoadRules_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validRules), 0o644))

	r, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, "09:00", r.ReminderTime)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
