package csvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"qualification_reminder/internal/domain/qualification"
)

// Store keeps per-staff snapshots as CSV files named <kind>_<name>_<staff id>_<yyyymmdd>.csv.
type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

func (s *Store) ListFiles(ctx context.Context, kind qualification.RecordKind) ([]qualification.RecordFile, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, string(kind)+"_*.csv"))
	if err != nil {
		return nil, fmt.Errorf("error listing %s records: %w", kind, err)
	}
	sort.Strings(matches)

	files := make([]qualification.RecordFile, 0, len(matches))
	for _, path := range matches {
		f, ok := parseRecordFileName(path)
		if !ok {
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

// parseRecordFileName splits Q_<name>_<id>_<date>.csv. Names may themselves contain underscores.
func parseRecordFileName(path string) (qualification.RecordFile, bool) {
	base := strings.TrimSuffix(filepath.Base(path), ".csv")
	parts := strings.Split(base, "_")
	if len(parts) < 4 {
		return qualification.RecordFile{}, false
	}
	return qualification.RecordFile{
		Path:      path,
		Kind:      qualification.RecordKind(parts[0]),
		StaffName: strings.Join(parts[1:len(parts)-2], "_"),
		StaffID:   parts[len(parts)-2],
	}, true
}

func (s *Store) ReadQualificationFile(ctx context.Context, f qualification.RecordFile) ([]qualification.Row, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("error reading record file: %w", err)
	}
	names, records, err := readAll(f.Path, data)
	if err != nil {
		return nil, err
	}
	h, err := recordSchema.bind(f.Path, names)
	if err != nil {
		return nil, err
	}

	rows := make([]qualification.Row, 0, len(records))
	for i, rec := range records {
		r, err := decodeRow(f.Path, i+2, h, rec)
		if err != nil {
			return nil, err
		}
		r.StaffID = f.StaffID
		r.StaffName = f.StaffName
		rows = append(rows, r)
	}
	return rows, nil
}

func (s *Store) ReadQualificationReport(ctx context.Context, path string) ([]qualification.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading qualification report: %w", err)
	}
	names, records, err := readAll(path, data)
	if err != nil {
		return nil, err
	}
	h, err := reportSchema.bind(path, names)
	if err != nil {
		return nil, err
	}

	rows := make([]qualification.Row, 0, len(records))
	for i, rec := range records {
		r, err := decodeRow(path, i+2, h, rec)
		if err != nil {
			return nil, err
		}
		r.StaffID = h.get(rec, ColStaffID)
		r.StaffName = h.get(rec, ColName)
		if r.StaffID == "" {
			return nil, SchemaError{File: path, Row: i + 2, Column: ColStaffID, Message: "staff id is required"}
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func decodeRow(file string, line int, h header, rec []string) (qualification.Row, error) {
	r := qualification.Row{
		Code:        h.get(rec, ColCode),
		Title:       h.get(rec, ColTitle),
		Practice:    h.get(rec, ColPractice),
		Status:      h.get(rec, ColStatus),
		Note:        h.get(rec, ColNote),
		OrgUnit:     h.get(rec, ColOrgUnit),
		OrgUnitDesc: h.get(rec, ColOrgUnitDesc),
	}
	dates := []struct {
		column string
		target *qualification.Date
	}{
		{ColFirstObtain, &r.FirstObtain},
		{ColLastRefresh, &r.LastRefresh},
		{ColExpiry, &r.Expiry},
		{ColDueDate, &r.DueDate},
	}
	for _, d := range dates {
		value := h.get(rec, d.column)
		parsed, err := qualification.ParseDate(value)
		if err != nil {
			return qualification.Row{}, SchemaError{File: file, Row: line, Column: d.column, Value: value, Message: "expected dd/mm/yyyy"}
		}
		*d.target = parsed
	}
	return r, nil
}

func encodeRecordFields(r qualification.Row) []string {
	return []string{
		r.Code, r.Title, r.FirstObtain.String(), r.LastRefresh.String(), r.Expiry.String(), r.DueDate.String(),
		r.Practice, r.Status, r.Note, r.OrgUnit, r.OrgUnitDesc,
	}
}

func (s *Store) EncodeQualificationReport(rows []qualification.Row) ([]byte, error) {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, append([]string{r.StaffID, r.StaffName}, encodeRecordFields(r)...))
	}
	return writeAll(reportColumns, records)
}

// SaveQualificationRecord writes a fresh snapshot and removes older ones for the same staff member.
func (s *Store) SaveQualificationRecord(ctx context.Context, rec *qualification.StaffRecord) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating reports directory: %w", err)
	}

	existing, err := s.ListFiles(ctx, qualification.RecordKindQualification)
	if err != nil {
		return "", err
	}
	for _, f := range existing {
		if f.StaffID == rec.StaffID {
			if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
				return "", fmt.Errorf("error removing previous record %s: %w", f.Path, err)
			}
		}
	}

	records := make([][]string, 0, len(rec.Rows))
	for _, r := range rec.Rows {
		r.OrgUnit = rec.OrgUnit
		r.OrgUnitDesc = rec.OrgUnitDesc
		records = append(records, encodeRecordFields(r))
	}
	data, err := writeAll(recordColumns, records)
	if err != nil {
		return "", fmt.Errorf("error encoding record for staff %s: %w", rec.StaffID, err)
	}

	name := fmt.Sprintf("%s_%s_%s_%s.csv", qualification.RecordKindQualification, rec.Name, rec.StaffID, s.now().Format("20060102"))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("error writing record for staff %s: %w", rec.StaffID, err)
	}
	return path, nil
}

func (s *Store) ReadTable(ctx context.Context, f qualification.RecordFile) (*qualification.Table, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("error reading record file: %w", err)
	}
	names, records, err := readAll(f.Path, data)
	if err != nil {
		return nil, err
	}
	return &qualification.Table{Header: names, Records: records}, nil
}

// EncodeTables concatenates tables, aligning columns by name in order of first appearance.
func (s *Store) EncodeTables(tables []*qualification.Table) ([]byte, error) {
	var names []string
	index := make(map[string]int)
	for _, t := range tables {
		for _, n := range t.Header {
			if _, ok := index[n]; !ok {
				index[n] = len(names)
				names = append(names, n)
			}
		}
	}

	var records [][]string
	for _, t := range tables {
		for _, rec := range t.Records {
			out := make([]string, len(names))
			for i, n := range t.Header {
				if i < len(rec) {
					out[index[n]] = rec[i]
				}
			}
			records = append(records, out)
		}
	}
	return writeAll(names, records)
}
