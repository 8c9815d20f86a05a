package portal

import (
	"fmt"
	"strings"

	"qualification_reminder/internal/domain/qualification"
)

const cellsPerRow = 8

// parseQualificationCells turns the flattened qualification table into rows.
// The first cell of each row holds "<code> <title>"; a trailing partial row is ignored.
func parseQualificationCells(cells []string) ([]qualification.Row, error) {
	var rows []qualification.Row
	for start := 0; start+cellsPerRow <= len(cells); start += cellsPerRow {
		c := cells[start : start+cellsPerRow]
		for i := range c {
			c[i] = strings.TrimSpace(c[i])
		}

		code, title, found := strings.Cut(c[0], " ")
		if !found {
			code, title = "", c[0]
		}
		r := qualification.Row{
			Code:     code,
			Title:    strings.TrimSpace(title),
			Practice: c[5],
			Status:   c[6],
			Note:     c[7],
		}

		dates := []*qualification.Date{&r.FirstObtain, &r.LastRefresh, &r.Expiry, &r.DueDate}
		for i, target := range dates {
			d, err := qualification.ParseDate(c[i+1])
			if err != nil {
				return nil, fmt.Errorf("qualification table row %d: %w", start/cellsPerRow+1, err)
			}
			*target = d
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// parseRecordCount extracts the count from a label such as "Record(s) Found: 12".
func parseRecordCount(label string) (string, error) {
	_, count, found := strings.Cut(label, ":")
	if !found {
		return "", fmt.Errorf("unexpected record count label %q", label)
	}
	return strings.TrimSpace(count), nil
}

// staffName strips the staff number from the "<name> <number>" label.
func staffName(label, staffID string) string {
	return strings.TrimSpace(strings.Replace(strings.TrimSpace(label), staffID, "", 1))
}
