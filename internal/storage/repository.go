package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"vulekamali/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is how timestamps are stored in TEXT columns.
const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateProject inserts a new project. A duplicate external id is an
// invalid-input error.
func (r *SQLiteRepository) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	if err := p.Validate(); err != nil {
		return core.Project{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	row, err := r.queries.CreateProject(ctx, projectParams(p))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Project{}, fmt.Errorf("%w: project %q already exists", core.ErrInvalidInput, p.ExternalID)
		}
		return core.Project{}, fmt.Errorf("create project: %w", err)
	}
	return toCoreProject(row), nil
}

// UpsertProject implements sheets.ProjectWriter
func (r *SQLiteRepository) UpsertProject(ctx context.Context, p core.Project) (core.Project, error) {
	if err := p.Validate(); err != nil {
		return core.Project{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	row, err := r.queries.UpsertProject(ctx, projectParams(p))
	if err != nil {
		return core.Project{}, fmt.Errorf("upsert project: %w", err)
	}
	return toCoreProject(row), nil
}

// GetProject implements sheets.ProjectReader
func (r *SQLiteRepository) GetProject(ctx context.Context, id int64) (core.Project, error) {
	row, err := r.queries.GetProject(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, fmt.Errorf("project %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("get project by id: %w", err)
	}
	return toCoreProject(row), nil
}

// ListProjects implements sheets.ProjectReader
func (r *SQLiteRepository) ListProjects(ctx context.Context, f core.ProjectFilter) ([]core.Project, error) {
	limit := int64(f.Limit)
	if limit <= 0 {
		limit = -1
	}
	offset := int64(f.Offset)
	if offset < 0 {
		offset = 0
	}
	rows, err := r.queries.ListProjects(ctx, ListProjectsParams{
		Sphere:     string(f.Sphere),
		Province:   strings.TrimSpace(f.Province),
		Department: strings.TrimSpace(f.Department),
		Query:      strings.TrimSpace(f.Query),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := make([]core.Project, len(rows))
	for i, row := range rows {
		projects[i] = toCoreProject(row)
	}
	return projects, nil
}

// SaveSnapshot implements sheets.SnapshotWriter
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, projectID int64, s core.Snapshot) (string, error) {
	id, err := r.UpsertSnapshot(ctx, projectID, s)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// UpsertSnapshot stores a quarterly report, replacing the project's earlier
// report for the same financial year and quarter.
func (r *SQLiteRepository) UpsertSnapshot(ctx context.Context, projectID int64, s core.Snapshot) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	if _, err := r.GetProject(ctx, projectID); err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	fyID, err := q.GetOrCreateFinancialYear(ctx, s.FinancialYear.Slug(), int64(s.FinancialYear.StartYear))
	if err != nil {
		return 0, fmt.Errorf("financial year %s: %w", s.FinancialYear, err)
	}

	id, err := q.UpsertSnapshot(ctx, UpsertSnapshotParams{
		ProjectID:                         projectID,
		FinancialYearID:                   fyID,
		Quarter:                           int64(s.Quarter),
		Status:                            s.Status,
		EstimatedTotalProjectCost:         s.EstimatedTotalProjectCost,
		ExpenditureFromPreviousYearsTotal: s.ExpenditureFromPreviousYearsTotal,
		ActualExpenditureQ1:               s.ActualExpenditureQ1,
		ActualExpenditureQ2:               s.ActualExpenditureQ2,
		ActualExpenditureQ3:               s.ActualExpenditureQ3,
		ActualExpenditureQ4:               s.ActualExpenditureQ4,
		StartDate:                         nullDate(s.StartDate),
		EstimatedConstructionStartDate:    nullDate(s.EstimatedConstructionStartDate),
		EstimatedCompletionDate:           nullDate(s.EstimatedCompletionDate),
		ContractedConstructionEndDate:     nullDate(s.ContractedConstructionEndDate),
		EstimatedConstructionEndDate:      nullDate(s.EstimatedConstructionEndDate),
	})
	if err != nil {
		return 0, fmt.Errorf("upsert snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved to SQLite",
		"id", id,
		"project_id", projectID,
		"financial_year", s.FinancialYear.Slug(),
		"quarter", s.Quarter)

	return id, nil
}

// ListSnapshots implements sheets.SnapshotReader
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, projectID int64) ([]core.Snapshot, error) {
	if _, err := r.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	rows, err := r.queries.ListSnapshotsByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	snapshots := make([]core.Snapshot, len(rows))
	for i, row := range rows {
		s, err := toCoreSnapshot(row)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", row.ID, err)
		}
		snapshots[i] = s
	}
	return snapshots, nil
}

// RecordImportRun implements sheets.ImportRunRecorder. Recording an id again
// restarts that run.
func (r *SQLiteRepository) RecordImportRun(ctx context.Context, run core.ImportRun) error {
	err := r.queries.UpsertImportRun(ctx, ImportRun{
		ID:           run.ID,
		Source:       run.Source,
		Status:       run.Status,
		RowCount:     int64(run.Rows),
		SkippedCount: int64(run.Skipped),
		Error:        run.Error,
		StartedAt:    run.StartedAt.UTC().Format(timeLayout),
	})
	if err != nil {
		return fmt.Errorf("record import run: %w", err)
	}
	return nil
}

// FinishImportRun implements sheets.ImportRunRecorder
func (r *SQLiteRepository) FinishImportRun(ctx context.Context, run core.ImportRun) error {
	var finished sql.NullString
	if run.FinishedAt != nil {
		finished = sql.NullString{String: run.FinishedAt.UTC().Format(timeLayout), Valid: true}
	}
	n, err := r.queries.FinishImportRun(ctx, ImportRun{
		ID:           run.ID,
		Status:       run.Status,
		RowCount:     int64(run.Rows),
		SkippedCount: int64(run.Skipped),
		Error:        run.Error,
		FinishedAt:   finished,
	})
	if err != nil {
		return fmt.Errorf("finish import run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("import run %s: %w", run.ID, core.ErrNotFound)
	}
	return nil
}

// ListImportRuns returns the most recent import runs, newest first.
func (r *SQLiteRepository) ListImportRuns(ctx context.Context, limit int) ([]core.ImportRun, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := r.queries.ListImportRuns(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	runs := make([]core.ImportRun, 0, len(rows))
	for _, row := range rows {
		started, err := time.Parse(timeLayout, row.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("import run %s started_at: %w", row.ID, err)
		}
		run := core.ImportRun{
			ID:        row.ID,
			Source:    row.Source,
			Status:    row.Status,
			Rows:      int(row.RowCount),
			Skipped:   int(row.SkippedCount),
			Error:     row.Error,
			StartedAt: started,
		}
		if row.FinishedAt.Valid {
			finished, err := time.Parse(timeLayout, row.FinishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("import run %s finished_at: %w", row.ID, err)
			}
			run.FinishedAt = &finished
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func projectParams(p core.Project) CreateProjectParams {
	return CreateProjectParams{
		ExternalID: sql.NullString{String: p.ExternalID, Valid: p.ExternalID != ""},
		Name:       strings.TrimSpace(p.Name),
		Sphere:     string(p.Sphere),
		Department: p.Department,
		Sector:     p.Sector,
		Province:   p.Province,
	}
}

func toCoreProject(p Project) core.Project {
	return core.Project{
		ID:         p.ID,
		ExternalID: p.ExternalID.String,
		Name:       p.Name,
		Sphere:     core.Sphere(p.Sphere),
		Department: p.Department,
		Sector:     p.Sector,
		Province:   p.Province,
	}
}

func toCoreSnapshot(row IrmSnapshot) (core.Snapshot, error) {
	s := core.Snapshot{
		FinancialYear:                     core.NewFinancialYear(int(row.StartYear)),
		Quarter:                           int(row.Quarter),
		Status:                            row.Status,
		EstimatedTotalProjectCost:         row.EstimatedTotalProjectCost,
		ExpenditureFromPreviousYearsTotal: row.ExpenditureFromPreviousYearsTotal,
		ActualExpenditureQ1:               row.ActualExpenditureQ1,
		ActualExpenditureQ2:               row.ActualExpenditureQ2,
		ActualExpenditureQ3:               row.ActualExpenditureQ3,
		ActualExpenditureQ4:               row.ActualExpenditureQ4,
	}
	dates := []struct {
		src sql.NullString
		dst **core.Date
	}{
		{row.StartDate, &s.StartDate},
		{row.EstimatedConstructionStartDate, &s.EstimatedConstructionStartDate},
		{row.EstimatedCompletionDate, &s.EstimatedCompletionDate},
		{row.ContractedConstructionEndDate, &s.ContractedConstructionEndDate},
		{row.EstimatedConstructionEndDate, &s.EstimatedConstructionEndDate},
	}
	for _, d := range dates {
		if !d.src.Valid {
			continue
		}
		v, err := core.ParseOptionalDate(d.src.String)
		if err != nil {
			return core.Snapshot{}, err
		}
		*d.dst = v
	}
	return s, nil
}

func nullDate(d *core.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
