package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vulekamali/internal/amqp"
	"vulekamali/internal/core"
	"vulekamali/internal/log"
	"vulekamali/internal/sheets"
)

// SourcePeriodic tags imports started by the worker's own schedule.
const SourcePeriodic = "schedule"

// RowImporter persists fetched rows as one import run.
type RowImporter interface {
	ImportRows(ctx context.Context, runID, source string, rows []sheets.ImportRow) (core.ImportRun, error)
}

// ImportWorker pulls quarterly reports from the workbook into storage, either
// on request from the queue or on a fixed schedule.
type ImportWorker struct {
	source   sheets.SnapshotSource
	importer RowImporter
	logger   *log.Logger
}

func NewImportWorker(source sheets.SnapshotSource, importer RowImporter, logger *log.Logger) *ImportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ImportWorker{
		source:   source,
		importer: importer,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleImportMessage runs the import a queued request asks for. A request
// naming a project imports only that project's rows.
func (w *ImportWorker) HandleImportMessage(ctx context.Context, msg *amqp.SnapshotImportMessage) error {
	w.logger.InfoContext(ctx, "Processing import request",
		log.FieldJobID, msg.JobID,
		log.FieldProjectID, msg.ProjectID,
		log.FieldSource, msg.Source)

	_, err := w.run(ctx, msg.JobID, msg.Source, msg.ProjectID)
	return err
}

// RunOnce imports every row now and returns the finished run.
func (w *ImportWorker) RunOnce(ctx context.Context, source string) (core.ImportRun, error) {
	return w.run(ctx, uuid.NewString(), source, "")
}

func (w *ImportWorker) run(ctx context.Context, jobID, source, projectID string) (core.ImportRun, error) {
	start := time.Now()

	rows, err := w.source.FetchSnapshotRows(ctx)
	if err != nil {
		return core.ImportRun{}, fmt.Errorf("fetch snapshot rows: %w", err)
	}
	if projectID != "" {
		rows = filterProject(rows, projectID)
	}

	run, err := w.importer.ImportRows(ctx, jobID, source, rows)
	if err != nil {
		return run, fmt.Errorf("import rows: %w", err)
	}

	w.logger.InfoContext(ctx, "Import completed",
		log.FieldJobID, run.ID,
		log.FieldRows, run.Rows,
		"skipped", run.Skipped,
		log.FieldDuration, time.Since(start).Milliseconds())
	return run, nil
}

// RunPeriodic imports immediately and then every interval until ctx is
// cancelled. A failed pass is logged and retried on the next tick.
func (w *ImportWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid import interval %v", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "Periodic import started", "interval", interval)

	for {
		if _, err := w.RunOnce(ctx, SourcePeriodic); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Periodic import failed", log.FieldError, err)
		}

		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Periodic import stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func filterProject(rows []sheets.ImportRow, externalID string) []sheets.ImportRow {
	out := rows[:0:0]
	for _, r := range rows {
		if r.Project.ExternalID == externalID {
			out = append(out, r)
		}
	}
	return out
}
