package csvstore

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Column names shared by the portal export, the per-staff snapshots and the consolidated report.
const (
	ColStaffID     = "Staff ID"
	ColName        = "Name"
	ColCode        = "Qualification Code"
	ColTitle       = "Qualification"
	ColFirstObtain = "First Obtain"
	ColLastRefresh = "Last Refresh"
	ColExpiry      = "Expiry"
	ColDueDate     = "Due for Refresh/Examination"
	ColPractice    = "Last Practice/Attachment"
	ColStatus      = "Status"
	ColNote        = "Note"
	ColOrgUnit     = "Organization Unit"
	ColOrgUnitDesc = "Organization Unit Desc"

	ColStaffNumber = "Staff Number"
	ColEmailName   = "Email Name"
	ColEmail       = "Corporate Email"
	ColTeam        = "Team"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// recordColumns is the layout of a per-staff qualification snapshot.
var recordColumns = []string{
	ColCode, ColTitle, ColFirstObtain, ColLastRefresh, ColExpiry, ColDueDate,
	ColPractice, ColStatus, ColNote, ColOrgUnit, ColOrgUnitDesc,
}

// reportColumns is the layout of the consolidated qualification report.
var reportColumns = append([]string{ColStaffID, ColName}, recordColumns...)

var (
	recordSchema = schema{
		required: []string{ColCode, ColTitle, ColFirstObtain, ColLastRefresh, ColExpiry, ColDueDate, ColPractice, ColStatus},
	}
	reportSchema = schema{
		required: append([]string{ColStaffID, ColName}, recordSchema.required...),
	}
	rosterSchema = schema{
		required: []string{ColStaffNumber, ColName, ColEmail},
	}
)

// SchemaError describes a CSV file or row that does not match the expected layout.
type SchemaError struct {
	File    string
	Row     int // 1-based line number, 0 for header problems
	Column  string
	Value   string
	Message string
}

func (e SchemaError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("%s: column '%s': %s", e.File, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: row %d, column '%s' with value '%s': %s", e.File, e.Row, e.Column, e.Value, e.Message)
}

type schema struct {
	required []string
}

// header maps column names to their position, after checking required columns exist.
type header map[string]int

func (s schema) bind(file string, names []string) (header, error) {
	h := make(header, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if _, exists := h[name]; !exists {
			h[name] = i
		}
	}
	for _, col := range s.required {
		if _, ok := h[col]; !ok {
			return nil, SchemaError{File: file, Column: col, Message: "missing required column"}
		}
	}
	return h, nil
}

func (h header) get(record []string, column string) string {
	idx, ok := h[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// readAll decodes a whole CSV document, tolerating a leading UTF-8 BOM.
func readAll(file string, data []byte) ([]string, [][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	reader := csv.NewReader(bytes.NewReader(data))

	names, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, SchemaError{File: file, Column: "*", Message: "header row required"}
		}
		return nil, nil, fmt.Errorf("unable to read header of %s: %w", file, err)
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read %s: %w", file, err)
	}
	return names, records, nil
}

// writeAll encodes a CSV document with a UTF-8 BOM, matching what spreadsheet tools expect.
func writeAll(names []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	writer := csv.NewWriter(&buf)
	if err := writer.Write(names); err != nil {
		return nil, err
	}
	if err := writer.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
