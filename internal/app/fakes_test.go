package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"qualification_reminder/internal/domain/mail"
	"qualification_reminder/internal/domain/qualification"
	"qualification_reminder/internal/domain/staff"
	"qualification_reminder/internal/infra/storage"
)

var errFake = errors.New("fake failure")

type fakeRoster struct {
	members []staff.Member
	err     error
}

func (f *fakeRoster) Load(ctx context.Context) (*staff.Roster, error) {
	if f.err != nil {
		return nil, f.err
	}
	return staff.NewRoster(f.members), nil
}

// fakeStore keeps snapshots and the consolidated report in memory.
type fakeStore struct {
	files  []qualification.RecordFile
	rows   map[string][]qualification.Row // by file path
	tables map[string]*qualification.Table
	report []qualification.Row
	saved  []*qualification.StaffRecord

	reportErr error
	saveErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:   make(map[string][]qualification.Row),
		tables: make(map[string]*qualification.Table),
	}
}

func (f *fakeStore) addQualificationFile(staffID, name string, rows ...qualification.Row) {
	path := fmt.Sprintf("Q_%s_%s.csv", name, staffID)
	f.files = append(f.files, qualification.RecordFile{Path: path, Kind: qualification.RecordKindQualification, StaffID: staffID, StaffName: name})
	f.rows[path] = rows
}

func (f *fakeStore) addTrainingFile(staffID string, t *qualification.Table) {
	path := fmt.Sprintf("T_%s.csv", staffID)
	f.files = append(f.files, qualification.RecordFile{Path: path, Kind: qualification.RecordKindTraining, StaffID: staffID})
	f.tables[path] = t
}

func (f *fakeStore) ListFiles(ctx context.Context, kind qualification.RecordKind) ([]qualification.RecordFile, error) {
	var out []qualification.RecordFile
	for _, file := range f.files {
		if file.Kind == kind {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakeStore) ReadQualificationFile(ctx context.Context, file qualification.RecordFile) ([]qualification.Row, error) {
	return f.rows[file.Path], nil
}

func (f *fakeStore) ReadTable(ctx context.Context, file qualification.RecordFile) (*qualification.Table, error) {
	return f.tables[file.Path], nil
}

func (f *fakeStore) SaveQualificationRecord(ctx context.Context, rec *qualification.StaffRecord) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved = append(f.saved, rec)
	return "Q_" + rec.StaffID + ".csv", nil
}

func (f *fakeStore) EncodeQualificationReport(rows []qualification.Row) ([]byte, error) {
	return []byte(fmt.Sprintf("%d rows", len(rows))), nil
}

func (f *fakeStore) EncodeTables(tables []*qualification.Table) ([]byte, error) {
	return []byte(fmt.Sprintf("%d tables", len(tables))), nil
}

func (f *fakeStore) ReadQualificationReport(ctx context.Context, path string) ([]qualification.Row, error) {
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	return f.report, nil
}

// fakeStorage records uploads and fails for the listed keys.
type fakeStorage struct {
	mu       sync.Mutex
	uploads  map[string]string
	failKeys map[string]bool
	failAll  bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string]string), failKeys: make(map[string]bool)}
}

func (f *fakeStorage) Upload(ctx context.Context, key string, data io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll || f.failKeys[key] {
		return errFake
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.uploads[key] = string(b)
	return nil
}

func target(s storage.Storage, key string) storage.Target {
	return storage.Target{Storage: s, Key: key}
}

type fakePortal struct {
	records      map[string]*qualification.StaffRecord
	failures     map[string]int // staff id -> failing attempts before success, -1 always fails
	calls        map[string]int
	practice     map[string]string // staff id + code
	practiceErr  error
	practiceArgs []qualification.Date
}

func newFakePortal() *fakePortal {
	return &fakePortal{
		records:  make(map[string]*qualification.StaffRecord),
		failures: make(map[string]int),
		calls:    make(map[string]int),
		practice: make(map[string]string),
	}
}

func (f *fakePortal) FetchQualifications(ctx context.Context, staffID string) (*qualification.StaffRecord, error) {
	f.calls[staffID]++
	if n := f.failures[staffID]; n < 0 || f.calls[staffID] <= n {
		return nil, errFake
	}
	rec, ok := f.records[staffID]
	if !ok {
		return &qualification.StaffRecord{StaffID: staffID}, nil
	}
	return rec, nil
}

func (f *fakePortal) FetchPracticeCount(ctx context.Context, staffID, code string, since qualification.Date) (string, error) {
	f.practiceArgs = append(f.practiceArgs, since)
	if f.practiceErr != nil {
		return "", f.practiceErr
	}
	return f.practice[staffID+"/"+code], nil
}

type fakeSender struct {
	sent   []*mail.Message
	failTo map[string]bool
}

func (f *fakeSender) Send(ctx context.Context, msg *mail.Message) error {
	for _, to := range msg.To {
		if f.failTo[to] {
			return errFake
		}
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeNotifier struct {
	texts []string
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) error {
	f.texts = append(f.texts, text)
	return f.err
}

// fakeFormatter renders bodies as short, inspectable strings.
type fakeFormatter struct {
	dailyGreetings     []string
	quarterlyGreetings []string
	alerts             []mail.AlertKind
	alertNames         [][]string
	err                error
}

func (f *fakeFormatter) DailyBody(greeting string, rows []qualification.ReminderRow) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.dailyGreetings = append(f.dailyGreetings, greeting)
	return fmt.Sprintf("daily %s %d", greeting, len(rows)), nil
}

func (f *fakeFormatter) QuarterlyBody(greeting, team string, q qualification.Quarter, rows []qualification.ReminderRow) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.quarterlyGreetings = append(f.quarterlyGreetings, greeting)
	return fmt.Sprintf("quarterly %s %s %s %d", greeting, team, q, len(rows)), nil
}

func (f *fakeFormatter) AlertBody(kind mail.AlertKind, failedNames []string) (string, error) {
	f.alerts = append(f.alerts, kind)
	f.alertNames = append(f.alertNames, failedNames)
	return string(kind), nil
}
