package qualification

import "context"

// RecordKind distinguishes the per-staff snapshot families kept in the reports directory.
type RecordKind string

const (
	RecordKindQualification RecordKind = "Q"
	RecordKindTraining      RecordKind = "T"
)

// RecordFile is one per-staff snapshot written by the enquiry routine.
type RecordFile struct {
	Path      string
	Kind      RecordKind
	StaffID   string
	StaffName string
}

// RecordStore persists per-staff snapshots and encodes consolidated reports.
type RecordStore interface {
	ListFiles(ctx context.Context, kind RecordKind) ([]RecordFile, error)
	ReadQualificationFile(ctx context.Context, f RecordFile) ([]Row, error)
	ReadTable(ctx context.Context, f RecordFile) (*Table, error)
	SaveQualificationRecord(ctx context.Context, rec *StaffRecord) (string, error)

	EncodeQualificationReport(rows []Row) ([]byte, error)
	EncodeTables(tables []*Table) ([]byte, error)
	ReadQualificationReport(ctx context.Context, path string) ([]Row, error)
}
