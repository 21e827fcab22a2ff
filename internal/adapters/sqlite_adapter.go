package adapters

import (
	"context"
	"fmt"

	"vulekamali/internal/core"
	"vulekamali/internal/storage"
)

// SQLiteAdapter exposes SQLiteRepository through the sheets.* ports so the
// HTTP handlers and services work the same against SQLite and memory storage.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
}

func NewSQLiteAdapter(storage *storage.SQLiteRepository) *SQLiteAdapter {
	return &SQLiteAdapter{storage: storage}
}

// GetProject implements sheets.ProjectReader
func (a *SQLiteAdapter) GetProject(ctx context.Context, id int64) (core.Project, error) {
	return a.storage.GetProject(ctx, id)
}

// ListProjects implements sheets.ProjectReader
func (a *SQLiteAdapter) ListProjects(ctx context.Context, filter core.ProjectFilter) ([]core.Project, error) {
	return a.storage.ListProjects(ctx, filter)
}

// UpsertProject implements sheets.ProjectWriter
func (a *SQLiteAdapter) UpsertProject(ctx context.Context, p core.Project) (core.Project, error) {
	return a.storage.UpsertProject(ctx, p)
}

// ListSnapshots implements sheets.SnapshotReader
func (a *SQLiteAdapter) ListSnapshots(ctx context.Context, projectID int64) ([]core.Snapshot, error) {
	return a.storage.ListSnapshots(ctx, projectID)
}

// SaveSnapshot implements sheets.SnapshotWriter
func (a *SQLiteAdapter) SaveSnapshot(ctx context.Context, projectID int64, s core.Snapshot) (string, error) {
	return a.storage.SaveSnapshot(ctx, projectID, s)
}

// RecordImportRun implements sheets.ImportRunRecorder
func (a *SQLiteAdapter) RecordImportRun(ctx context.Context, run core.ImportRun) error {
	return a.storage.RecordImportRun(ctx, run)
}

// FinishImportRun implements sheets.ImportRunRecorder
func (a *SQLiteAdapter) FinishImportRun(ctx context.Context, run core.ImportRun) error {
	return a.storage.FinishImportRun(ctx, run)
}

// ListImportRuns implements sheets.ImportRunLister
func (a *SQLiteAdapter) ListImportRuns(ctx context.Context, limit int) ([]core.ImportRun, error) {
	return a.storage.ListImportRuns(ctx, limit)
}

// Ready checks the database connection.
func (a *SQLiteAdapter) Ready(ctx context.Context) error {
	if err := a.storage.Ping(ctx); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	return nil
}
