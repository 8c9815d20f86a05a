package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"qualification_reminder/internal/domain/qualification"

	"gopkg.in/yaml.v3"
)

const defaultEscalationDays = 30

// ConfigError reports a missing or invalid key of the rules file.
type ConfigError struct {
	Key     string
	Message string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("config key '%s': %s", e.Key, e.Message)
}

// Rules is the YAML rules file shared by every routine.
type Rules struct {
	StaffListPath  string `yaml:"staff_list_path"`
	ReportsDir     string `yaml:"reports_dir"`
	QReportPath    string `yaml:"q_report_path"`
	QReportAbsPath string `yaml:"q_report_abs_path"`
	TReportPath    string `yaml:"t_report_path"`
	TReportAbsPath string `yaml:"t_report_abs_path"`

	EnquiryQualificationLink string `yaml:"enquiry_qualification_link"`
	EnquiryPracticeLink      string `yaml:"enquiry_practice_link"`

	ImpliedQualification [][]string       `yaml:"implied_qualification"`
	BypassQualification  []string         `yaml:"bypass_qualification"`
	RemainingDaysTable   map[string][]int `yaml:"remaining_days_table"`
	HasRefresher         []RefresherRule  `yaml:"has_refresher"`
	HasPractice          []string         `yaml:"has_practice"`

	RemainingDaysRed []int    `yaml:"remaining_days_red"`
	PracticeRed      []string `yaml:"practice_red"`
	EscalationDays   *int     `yaml:"escalation_days"`

	EmailSender   EmailSender `yaml:"email_sender"`
	EmailCC       []string    `yaml:"email_cc"`
	EmailCCExpiry []string    `yaml:"email_cc_expiry"`
	TeamAdmin     TeamAdmins  `yaml:"team_admin"`

	FetchTime    string `yaml:"fetch_time"`
	ReminderTime string `yaml:"reminder_time"`
}

type RefresherRule struct {
	Codes       []string `yaml:"codes"`
	RepeatYears int      `yaml:"repeat_years"`
}

// EmailSender holds the sender identity. Keys other than the named ones are
// kept in Fields and are available to the email signature.
type EmailSender struct {
	Name       string            `yaml:"sender_name"`
	Email      string            `yaml:"sender_email"`
	AdminEmail string            `yaml:"admin_email"`
	CorpLogo   string            `yaml:"corp_logo"`
	Fields     map[string]string `yaml:",inline"`
}

// TeamAdmin lists the staff numbers administering one team.
type TeamAdmin struct {
	Team    string
	Members []string
}

// TeamAdmins keeps the team_admin mapping in file order.
type TeamAdmins []TeamAdmin

func (t *TeamAdmins) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: team_admin must be a mapping", value.Line)
	}
	var out TeamAdmins
	for i := 0; i+1 < len(value.Content); i += 2 {
		var members []string
		if err := value.Content[i+1].Decode(&members); err != nil {
			return fmt.Errorf("team %s: %w", value.Content[i].Value, err)
		}
		out = append(out, TeamAdmin{Team: value.Content[i].Value, Members: members})
	}
	*t = out
	return nil
}

// Admins returns the staff numbers administering team.
func (t TeamAdmins) Admins(team string) []string {
	for _, a := range t {
		if a.Team == team {
			return a.Members
		}
	}
	return nil
}

// LoadRules reads and validates the rules file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (*Rules, error) {
	r := &Rules{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(r); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if r.EscalationDays == nil {
		days := defaultEscalationDays
		r.EscalationDays = &days
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks every key the routines depend on.
func (r *Rules) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"staff_list_path", r.StaffListPath},
		{"reports_dir", r.ReportsDir},
		{"q_report_path", r.QReportPath},
		{"t_report_path", r.TReportPath},
		{"enquiry_qualification_link", r.EnquiryQualificationLink},
		{"email_sender.admin_email", r.EmailSender.AdminEmail},
	}
	for _, f := range required {
		if f.value == "" {
			return ConfigError{Key: f.key, Message: "is required"}
		}
	}

	// An explicit empty list is allowed, an absent key is not.
	for _, f := range []struct {
		key     string
		present bool
	}{
		{"implied_qualification", r.ImpliedQualification != nil},
		{"bypass_qualification", r.BypassQualification != nil},
		{"has_refresher", r.HasRefresher != nil},
	} {
		if !f.present {
			return ConfigError{Key: f.key, Message: "is required"}
		}
	}

	if _, ok := r.RemainingDaysTable[qualification.DefaultOffsetsKey]; !ok {
		return ConfigError{Key: "remaining_days_table", Message: "must contain a DEFAULT entry"}
	}
	for i, g := range r.HasRefresher {
		if g.RepeatYears <= 0 {
			return ConfigError{Key: fmt.Sprintf("has_refresher[%d].repeat_years", i), Message: "must be positive"}
		}
		if len(g.Codes) == 0 {
			return ConfigError{Key: fmt.Sprintf("has_refresher[%d].codes", i), Message: "must not be empty"}
		}
	}
	if len(r.HasPractice) > 0 && r.EnquiryPracticeLink == "" {
		return ConfigError{Key: "enquiry_practice_link", Message: "is required when has_practice is set"}
	}
	if r.Escalation() < 0 {
		return ConfigError{Key: "escalation_days", Message: "must not be negative"}
	}

	for _, t := range []struct {
		key   string
		value string
	}{{"fetch_time", r.FetchTime}, {"reminder_time", r.ReminderTime}} {
		if _, err := time.Parse("15:04", t.value); err != nil {
			return ConfigError{Key: t.key, Message: fmt.Sprintf("expected HH:MM, got '%s'", t.value)}
		}
	}
	return nil
}

// Qualification converts the analysis related keys to the domain rules.
func (r *Rules) Qualification() qualification.Rules {
	groups := make([]qualification.RefresherGroup, 0, len(r.HasRefresher))
	for _, g := range r.HasRefresher {
		groups = append(groups, qualification.RefresherGroup{Codes: g.Codes, RepeatYears: g.RepeatYears})
	}
	return qualification.Rules{
		BypassQualification:  r.BypassQualification,
		RemainingDaysTable:   r.RemainingDaysTable,
		HasRefresher:         groups,
		ImpliedQualification: r.ImpliedQualification,
	}
}

// Escalation returns the days-remaining threshold at which team admins are copied.
func (r *Rules) Escalation() int {
	if r.EscalationDays == nil {
		return defaultEscalationDays
	}
	return *r.EscalationDays
}
