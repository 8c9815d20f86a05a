package app

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"qualification_reminder/internal/domain/qualification"
	"qualification_reminder/internal/domain/staff"
	"qualification_reminder/internal/infra/storage"

	"github.com/sirupsen/logrus"
)

// ReportDestinations are the two places a consolidated report is written to.
// Primary failures are fatal. Secondary failures fall back to a timestamped key.
type ReportDestinations struct {
	Primary   storage.Target
	Secondary *storage.Target // optional
}

// ReportService merges per-staff snapshots into consolidated reports.
type ReportService struct {
	store  qualification.RecordStore
	staff  staff.Repository
	rules  qualification.Rules
	logger *logrus.Entry
	now    func() time.Time
}

func NewReportService(store qualification.RecordStore, staffRepo staff.Repository, rules qualification.Rules, logger *logrus.Entry) *ReportService {
	return &ReportService{
		store:  store,
		staff:  staffRepo,
		rules:  rules,
		logger: logger,
		now:    time.Now,
	}
}

// GenerateQualificationReport consolidates Q snapshots of current staff, tags implied rows
// and writes the result to dest.
func (s *ReportService) GenerateQualificationReport(ctx context.Context, dest ReportDestinations) ([]qualification.Row, error) {
	files, err := s.currentFiles(ctx, qualification.RecordKindQualification)
	if err != nil {
		return nil, err
	}

	var all []qualification.Row
	for _, f := range files {
		rows, err := s.store.ReadQualificationFile(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("error reading qualification record of staff %s: %w", f.StaffID, err)
		}
		all = append(all, TagImplied(rows, s.rules.ImpliedQualification)...)
	}

	data, err := s.store.EncodeQualificationReport(all)
	if err != nil {
		return nil, fmt.Errorf("error encoding qualification report: %w", err)
	}
	if err := s.write(ctx, dest, data); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"files": len(files),
		"rows":  len(all),
		"path":  dest.Primary.Key,
	}).Info("Qualification report generated")
	return all, nil
}

// GenerateTrainingReport consolidates T snapshots of current staff as they are.
func (s *ReportService) GenerateTrainingReport(ctx context.Context, dest ReportDestinations) error {
	files, err := s.currentFiles(ctx, qualification.RecordKindTraining)
	if err != nil {
		return err
	}

	tables := make([]*qualification.Table, 0, len(files))
	for _, f := range files {
		t, err := s.store.ReadTable(ctx, f)
		if err != nil {
			return fmt.Errorf("error reading training record of staff %s: %w", f.StaffID, err)
		}
		tables = append(tables, t)
	}

	data, err := s.store.EncodeTables(tables)
	if err != nil {
		return fmt.Errorf("error encoding training report: %w", err)
	}
	if err := s.write(ctx, dest, data); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"files": len(files),
		"path":  dest.Primary.Key,
	}).Info("Training report generated")
	return nil
}

// currentFiles lists the snapshots of kind whose staff member is still on the roster.
func (s *ReportService) currentFiles(ctx context.Context, kind qualification.RecordKind) ([]qualification.RecordFile, error) {
	roster, err := s.staff.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading staff list: %w", err)
	}
	files, err := s.store.ListFiles(ctx, kind)
	if err != nil {
		return nil, err
	}

	current := make([]qualification.RecordFile, 0, len(files))
	for _, f := range files {
		if !roster.Contains(f.StaffID) {
			s.logger.WithField("staff_id", f.StaffID).Debug("Skipping record of departed staff")
			continue
		}
		current = append(current, f)
	}
	return current, nil
}

func (s *ReportService) write(ctx context.Context, dest ReportDestinations, data []byte) error {
	if err := dest.Primary.Storage.Upload(ctx, dest.Primary.Key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("error writing report to %s: %w", dest.Primary.Key, err)
	}
	if dest.Secondary == nil {
		return nil
	}

	err := dest.Secondary.Storage.Upload(ctx, dest.Secondary.Key, bytes.NewReader(data))
	if err == nil {
		return nil
	}
	fallback := storage.TimestampedKey(dest.Secondary.Key, s.now())
	s.logger.WithError(err).WithField("fallback", fallback).Warn("Secondary report destination unwritable, using fallback name")
	if err := dest.Secondary.Storage.Upload(ctx, fallback, bytes.NewReader(data)); err != nil {
		s.logger.WithError(err).WithField("fallback", fallback).Error("Failed to write report to fallback destination")
	}
	return nil
}

// TagImplied marks rows of one staff member whose code is covered by an earlier code
// of the same implication group. Group order decides which held code is primary.
func TagImplied(rows []qualification.Row, groups [][]string) []qualification.Row {
	held := make(map[string]bool, len(rows))
	for _, r := range rows {
		held[r.Code] = true
	}

	implied := make(map[string]bool)
	for _, group := range groups {
		seen := make(map[string]bool, len(group))
		var present []string
		for _, code := range group {
			if held[code] && !seen[code] {
				seen[code] = true
				present = append(present, code)
			}
		}
		if len(present) < 2 {
			continue
		}
		for _, code := range present[1:] {
			implied[code] = true
		}
	}

	out := make([]qualification.Row, len(rows))
	for i, r := range rows {
		if implied[r.Code] {
			r.Note = qualification.NoteImplied
		}
		out[i] = r
	}
	return out
}
