package csvstore

import (
	"context"
	"fmt"
	"os"

	"qualification_reminder/internal/domain/staff"
)

// RosterFile reads the staff list CSV. It implements staff.Repository.
type RosterFile struct {
	path string
}

func NewRosterFile(path string) *RosterFile {
	return &RosterFile{path: path}
}

func (r *RosterFile) Load(ctx context.Context) (*staff.Roster, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("error reading staff list: %w", err)
	}
	names, records, err := readAll(r.path, data)
	if err != nil {
		return nil, err
	}
	h, err := rosterSchema.bind(r.path, names)
	if err != nil {
		return nil, err
	}

	members := make([]staff.Member, 0, len(records))
	for i, rec := range records {
		m := staff.Member{
			Number:    h.get(rec, ColStaffNumber),
			Name:      h.get(rec, ColName),
			EmailName: h.get(rec, ColEmailName),
			Email:     h.get(rec, ColEmail),
			Team:      h.get(rec, ColTeam),
		}
		if m.Number == "" {
			return nil, SchemaError{File: r.path, Row: i + 2, Column: ColStaffNumber, Message: "staff number is required"}
		}
		if m.EmailName == "" {
			m.EmailName = m.Name
		}
		members = append(members, m)
	}
	return staff.NewRoster(members), nil
}
