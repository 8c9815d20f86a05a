package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"qualification_reminder/internal/domain/mail"
	"qualification_reminder/internal/domain/qualification"
	"qualification_reminder/internal/infra/config"
)

// LogoName is the content id under which the corporate logo is embedded.
const LogoName = "logo.png"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var (
	dailyColumns     = []string{"Qualification", "First Obtain", "Last Refresh", "Expiry", "Practice Done", "Days Remaining", "Refresher"}
	quarterlyColumns = []string{"Name", "Qualification", "First Obtain", "Last Refresh", "Expiry", "Practice Done", "Refresher"}
)

type cell struct {
	Value string
	Red   bool
}

type table struct {
	Columns []string
	Rows    [][]cell
}

type page struct {
	Greeting string
	Team     string
	Quarter  string
	Table    table
	Failed   []string
	Sender   config.EmailSender
	Logo     string
}

// Formatter renders reminder tables and alerts into HTML email bodies.
type Formatter struct {
	sender           config.EmailSender
	remainingDaysRed map[int]bool
	practiceRed      map[string]bool
}

func NewFormatter(sender config.EmailSender, remainingDaysRed []int, practiceRed []string) *Formatter {
	f := &Formatter{
		sender:           sender,
		remainingDaysRed: make(map[int]bool, len(remainingDaysRed)),
		practiceRed:      make(map[string]bool, len(practiceRed)),
	}
	for _, d := range remainingDaysRed {
		f.remainingDaysRed[d] = true
	}
	for _, p := range practiceRed {
		f.practiceRed[p] = true
	}
	return f
}

// DailyBody renders the reminder sent to one staff member.
func (f *Formatter) DailyBody(greeting string, rows []qualification.ReminderRow) (string, error) {
	t := table{Columns: dailyColumns}
	for _, r := range rows {
		days := strconv.Itoa(r.DaysRemaining)
		t.Rows = append(t.Rows, []cell{
			{Value: r.Title},
			{Value: dateCell(r.FirstObtain)},
			{Value: dateCell(r.LastRefresh)},
			{Value: r.ExpiryDate.String(), Red: true},
			{Value: r.PracticeDone, Red: f.practiceRed[r.PracticeDone]},
			{Value: days, Red: f.remainingDaysRed[r.DaysRemaining]},
			{Value: string(r.Refresher)},
		})
	}
	return f.render("daily.html", page{Greeting: greeting, Table: t})
}

// QuarterlyBody renders the reminder sent to the admins of one team.
func (f *Formatter) QuarterlyBody(greeting, team string, q qualification.Quarter, rows []qualification.ReminderRow) (string, error) {
	t := table{Columns: quarterlyColumns}
	for _, r := range rows {
		t.Rows = append(t.Rows, []cell{
			{Value: r.StaffName},
			{Value: r.Title},
			{Value: dateCell(r.FirstObtain)},
			{Value: dateCell(r.LastRefresh)},
			{Value: r.ExpiryDate.String(), Red: true},
			{Value: r.PracticeDone, Red: f.practiceRed[r.PracticeDone]},
			{Value: string(r.Refresher)},
		})
	}
	return f.render("quarterly.html", page{Greeting: greeting, Team: team, Quarter: q.String(), Table: t})
}

// AlertBody renders the enquiry outcome sent to the administrator.
func (f *Formatter) AlertBody(kind mail.AlertKind, failedNames []string) (string, error) {
	return f.render("alert_"+string(kind)+".html", page{Failed: failedNames})
}

func (f *Formatter) render(name string, p page) (string, error) {
	p.Sender = f.sender
	if f.sender.CorpLogo != "" {
		p.Logo = LogoName
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, p); err != nil {
		return "", fmt.Errorf("error rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

func dateCell(d qualification.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.String()
}
