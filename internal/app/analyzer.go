package app

import (
	"cmp"
	"sort"
	"strconv"
	"strings"

	"qualification_reminder/internal/domain/qualification"

	"github.com/sirupsen/logrus"
)

// Analyzer selects the qualification rows that need a reminder.
// It never mutates its input; every call returns a new table.
type Analyzer struct {
	rules  qualification.Rules
	logger *logrus.Entry
}

func NewAnalyzer(rules qualification.Rules, logger *logrus.Entry) *Analyzer {
	return &Analyzer{rules: rules, logger: logger}
}

// AnalyseDaily keeps rows whose effective expiry is exactly one of the configured
// day offsets away from today. A row matching the same offset listed twice is kept twice.
func (a *Analyzer) AnalyseDaily(rows []qualification.Row, today qualification.Date) ([]qualification.ReminderRow, error) {
	var selected []qualification.ReminderRow
	for _, code := range codesInOrder(rows) {
		candidates := a.expiring(rows, code)
		if len(candidates) == 0 {
			continue
		}
		offsets, err := a.rules.OffsetsFor(code)
		if err != nil {
			return nil, err
		}
		for _, offset := range offsets {
			for _, c := range candidates {
				days := today.DaysUntil(c.ExpiryDate)
				if days != offset {
					continue
				}
				c.DaysRemaining = days
				selected = append(selected, c)
			}
		}
	}

	result := a.finish(selected)
	sort.SliceStable(result, func(i, j int) bool {
		x, y := result[i], result[j]
		if c := compareStaffIDs(x.StaffID, y.StaffID); c != 0 {
			return c < 0
		}
		if x.DaysRemaining != y.DaysRemaining {
			return x.DaysRemaining < y.DaysRemaining
		}
		return x.Code < y.Code
	})
	a.logger.WithFields(logrus.Fields{
		"mode":      qualification.ModeDaily,
		"reference": today.ISO(),
		"selected":  len(result),
	}).Debug("Daily analysis completed")
	return result, nil
}

// AnalyseQuarterly keeps rows whose effective expiry falls on one of dates.
// Day offsets are not consulted in this mode.
func (a *Analyzer) AnalyseQuarterly(rows []qualification.Row, dates []qualification.Date) ([]qualification.ReminderRow, error) {
	inRange := make(map[qualification.Date]bool, len(dates))
	for _, d := range dates {
		inRange[d] = true
	}

	var selected []qualification.ReminderRow
	for _, code := range codesInOrder(rows) {
		for _, c := range a.expiring(rows, code) {
			if inRange[c.ExpiryDate] {
				selected = append(selected, c)
			}
		}
	}

	result := a.finish(selected)
	sort.SliceStable(result, func(i, j int) bool {
		x, y := result[i], result[j]
		if x.ExpiryDate != y.ExpiryDate {
			return x.ExpiryDate.Before(y.ExpiryDate)
		}
		if c := compareStaffIDs(x.StaffID, y.StaffID); c != 0 {
			return c < 0
		}
		return x.Code < y.Code
	})
	a.logger.WithFields(logrus.Fields{
		"mode":     qualification.ModeQuarterly,
		"days":     len(dates),
		"selected": len(result),
	}).Debug("Quarterly analysis completed")
	return result, nil
}

// expiring returns the rows for code that carry an effective expiry, unless code is bypassed.
func (a *Analyzer) expiring(rows []qualification.Row, code string) []qualification.ReminderRow {
	if a.rules.IsBypassed(code) {
		return nil
	}
	var out []qualification.ReminderRow
	for _, r := range rows {
		if r.Code != code {
			continue
		}
		expiry := r.EffectiveExpiry()
		if expiry.IsZero() {
			continue
		}
		out = append(out, qualification.ReminderRow{
			Row:        r,
			ExpiryDate: expiry,
			Refresher:  qualification.RefresherNotApplicable,
		})
	}
	return out
}

// finish drops implied rows and fills in refresher eligibility.
func (a *Analyzer) finish(selected []qualification.ReminderRow) []qualification.ReminderRow {
	result := make([]qualification.ReminderRow, 0, len(selected))
	for _, r := range selected {
		if r.IsImplied() {
			continue
		}
		r.Refresher = a.refresher(r)
		result = append(result, r)
	}
	return result
}

// refresher applies the last matching group: (expiry year - first obtain year) mod cycle.
func (a *Analyzer) refresher(r qualification.ReminderRow) qualification.Refresher {
	result := qualification.RefresherNotApplicable
	for _, g := range a.rules.HasRefresher {
		if g.RepeatYears <= 0 || !contains(g.Codes, r.Code) {
			continue
		}
		if r.FirstObtain.IsZero() {
			result = qualification.RefresherNotApplicable
			continue
		}
		elapsed := r.ExpiryDate.Year() - r.FirstObtain.Year()
		if ((elapsed%g.RepeatYears)+g.RepeatYears)%g.RepeatYears == 0 {
			result = qualification.RefresherRequired
		} else {
			result = qualification.RefresherNotRequired
		}
	}
	return result
}

func codesInOrder(rows []qualification.Row) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, r := range rows {
		if !seen[r.Code] {
			seen[r.Code] = true
			codes = append(codes, r.Code)
		}
	}
	return codes
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// compareStaffIDs orders numeric staff numbers numerically and before every
// non-numeric one, which are ordered lexically.
func compareStaffIDs(a, b string) int {
	x, errA := strconv.ParseInt(a, 10, 64)
	y, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(x, y)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}
