package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vulekamali/internal/amqp"
	"vulekamali/internal/core"
	"vulekamali/internal/log"
	"vulekamali/internal/sheets"
)

// ImportStore is the storage an import writes to.
type ImportStore interface {
	sheets.ProjectWriter
	sheets.SnapshotWriter
	sheets.ImportRunRecorder
}

// ImportPublisher queues import requests for the worker.
type ImportPublisher interface {
	PublishImportRequest(ctx context.Context, msg *amqp.SnapshotImportMessage) error
}

// ChartInvalidator drops cached charts after a project's reports change.
type ChartInvalidator interface {
	Invalidate(projectID int64)
}

// ImportService persists quarterly reports, one at a time from the API or in
// bulk from a workbook import.
type ImportService struct {
	store     ImportStore
	publisher ImportPublisher
	charts    ChartInvalidator
	logger    *log.Logger
	events    *log.Events
	now       func() time.Time
}

// NewImportService wires the service. publisher and charts may be nil.
func NewImportService(store ImportStore, publisher ImportPublisher, charts ChartInvalidator, logger *log.Logger) *ImportService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentImport)
	return &ImportService{
		store:     store,
		publisher: publisher,
		charts:    charts,
		logger:    logger,
		events:    log.NewEvents(logger),
		now:       time.Now,
	}
}

// SaveSnapshot validates and stores one report for an existing project.
func (s *ImportService) SaveSnapshot(ctx context.Context, projectID int64, snap core.Snapshot) (string, error) {
	if err := snap.Validate(); err != nil {
		return "", err
	}

	ref, err := s.store.SaveSnapshot(ctx, projectID, snap)
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}

	if s.charts != nil {
		s.charts.Invalidate(projectID)
	}
	s.events.SnapshotSaved(ctx, projectID, snap.FinancialYear.Slug(), snap.Quarter, ref)

	return ref, nil
}

// CanQueue reports whether RequestImport has a queue to publish to.
func (s *ImportService) CanQueue() bool {
	return s.publisher != nil
}

// RequestImport queues a workbook import and returns its job id. projectID
// is an external id narrowing the import to one project, or empty for all.
func (s *ImportService) RequestImport(ctx context.Context, source, projectID string) (string, error) {
	if s.publisher == nil {
		return "", fmt.Errorf("import queue not configured: %w", core.ErrUnavailable)
	}

	msg := amqp.NewSnapshotImportMessage(source, projectID)
	if err := s.publisher.PublishImportRequest(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish import request",
			log.FieldJobID, msg.JobID,
			log.FieldError, err)
		return "", fmt.Errorf("queue import: %w", errors.Join(core.ErrUnavailable, err))
	}
	return msg.JobID, nil
}

// ImportRows upserts a batch of workbook rows and records the run. Rows with
// invalid data or no project id are skipped and counted; storage failures
// abort the run. An empty runID gets a fresh one, and reusing a runID restarts
// that run.
func (s *ImportService) ImportRows(ctx context.Context, runID, source string, rows []sheets.ImportRow) (core.ImportRun, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	run := core.ImportRun{
		ID:        runID,
		Source:    source,
		Status:    core.ImportRunning,
		StartedAt: s.now().UTC(),
	}
	if err := s.store.RecordImportRun(ctx, run); err != nil {
		return run, fmt.Errorf("import %s: %w", run.ID, err)
	}

	s.logger.InfoContext(ctx, "Import started",
		log.FieldJobID, run.ID,
		log.FieldSource, source,
		log.FieldRows, len(rows))

	touched := make(map[int64]struct{})
	projectIDs := make(map[string]int64)
	err := s.importRows(ctx, rows, &run, touched, projectIDs)

	if s.charts != nil {
		for id := range touched {
			s.charts.Invalidate(id)
		}
	}

	run.Finish(s.now().UTC(), err)
	if ferr := s.store.FinishImportRun(context.WithoutCancel(ctx), run); ferr != nil {
		s.logger.ErrorContext(ctx, "Failed to record import run result",
			log.FieldJobID, run.ID,
			log.FieldError, ferr)
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "Import failed",
			log.FieldJobID, run.ID,
			log.FieldRows, run.Rows,
			log.FieldError, err)
		return run, err
	}

	s.logger.InfoContext(ctx, "Import finished",
		log.FieldJobID, run.ID,
		log.FieldRows, run.Rows,
		"skipped", run.Skipped,
		"projects", len(touched))
	return run, nil
}

func (s *ImportService) importRows(ctx context.Context, rows []sheets.ImportRow, run *core.ImportRun, touched map[int64]struct{}, projectIDs map[string]int64) error {
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		if row.Project.ExternalID == "" {
			s.skip(ctx, run, row, sheets.ErrNoProjectID)
			continue
		}

		projectID, ok := projectIDs[row.Project.ExternalID]
		if !ok {
			p, err := s.store.UpsertProject(ctx, row.Project)
			if errors.Is(err, core.ErrInvalidInput) {
				s.skip(ctx, run, row, err)
				continue
			}
			if err != nil {
				return fmt.Errorf("%s: %w", row.Ref, err)
			}
			projectID = p.ID
			projectIDs[row.Project.ExternalID] = projectID
		}

		_, err := s.store.SaveSnapshot(ctx, projectID, row.Snapshot)
		if errors.Is(err, core.ErrInvalidInput) {
			s.skip(ctx, run, row, err)
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", row.Ref, err)
		}
		touched[projectID] = struct{}{}
		run.Rows++
	}
	return nil
}

func (s *ImportService) skip(ctx context.Context, run *core.ImportRun, row sheets.ImportRow, err error) {
	run.Skipped++
	s.logger.WarnContext(ctx, "Skipping import row",
		log.FieldJobID, run.ID,
		"ref", row.Ref,
		log.FieldError, err)
}
