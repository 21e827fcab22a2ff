package storage

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Project struct {
	ID         int64
	ExternalID sql.NullString
	Name       string
	Sphere     string
	Department string
	Sector     string
	Province   string
	CreatedAt  string
	UpdatedAt  string
}

type IrmSnapshot struct {
	ID                                int64
	ProjectID                         int64
	FinancialYearSlug                 string
	StartYear                         int64
	Quarter                           int64
	Status                            string
	EstimatedTotalProjectCost         decimal.NullDecimal
	ExpenditureFromPreviousYearsTotal decimal.NullDecimal
	ActualExpenditureQ1               decimal.NullDecimal
	ActualExpenditureQ2               decimal.NullDecimal
	ActualExpenditureQ3               decimal.NullDecimal
	ActualExpenditureQ4               decimal.NullDecimal
	StartDate                         sql.NullString
	EstimatedConstructionStartDate    sql.NullString
	EstimatedCompletionDate           sql.NullString
	ContractedConstructionEndDate     sql.NullString
	EstimatedConstructionEndDate      sql.NullString
}

type ImportRun struct {
	ID           string
	Source       string
	Status       string
	RowCount     int64
	SkippedCount int64
	Error        string
	StartedAt    string
	FinishedAt   sql.NullString
}

const projectColumns = `id, external_id, name, sphere, department, sector, province, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var p Project
	err := row.Scan(
		&p.ID,
		&p.ExternalID,
		&p.Name,
		&p.Sphere,
		&p.Department,
		&p.Sector,
		&p.Province,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

const getOrCreateFinancialYear = `-- name: GetOrCreateFinancialYear :one
INSERT INTO financial_years (slug, start_year) VALUES (?, ?)
ON CONFLICT(slug) DO UPDATE SET start_year = excluded.start_year
RETURNING id
`

func (q *Queries) GetOrCreateFinancialYear(ctx context.Context, slug string, startYear int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, getOrCreateFinancialYear, slug, startYear)
	var id int64
	err := row.Scan(&id)
	return id, err
}

type CreateProjectParams struct {
	ExternalID sql.NullString
	Name       string
	Sphere     string
	Department string
	Sector     string
	Province   string
}

const createProject = `-- name: CreateProject :one
INSERT INTO projects (external_id, name, sphere, department, sector, province)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + projectColumns

func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	row := q.db.QueryRowContext(ctx, createProject,
		arg.ExternalID,
		arg.Name,
		arg.Sphere,
		arg.Department,
		arg.Sector,
		arg.Province,
	)
	return scanProject(row)
}

const upsertProject = `-- name: UpsertProject :one
INSERT INTO projects (external_id, name, sphere, department, sector, province)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(external_id) DO UPDATE SET
    name = excluded.name,
    sphere = excluded.sphere,
    department = excluded.department,
    sector = excluded.sector,
    province = excluded.province,
    updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
RETURNING ` + projectColumns

func (q *Queries) UpsertProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	row := q.db.QueryRowContext(ctx, upsertProject,
		arg.ExternalID,
		arg.Name,
		arg.Sphere,
		arg.Department,
		arg.Sector,
		arg.Province,
	)
	return scanProject(row)
}

const getProject = `-- name: GetProject :one
SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

func (q *Queries) GetProject(ctx context.Context, id int64) (Project, error) {
	return scanProject(q.db.QueryRowContext(ctx, getProject, id))
}

type ListProjectsParams struct {
	Sphere     string
	Province   string
	Department string
	Query      string
	Limit      int64
	Offset     int64
}

const listProjects = `-- name: ListProjects :many
SELECT ` + projectColumns + ` FROM projects
WHERE (?1 = '' OR sphere = ?1)
  AND (?2 = '' OR lower(province) = lower(?2))
  AND (?3 = '' OR lower(department) = lower(?3))
  AND (?4 = '' OR instr(lower(name), lower(?4)) > 0)
ORDER BY name, id
LIMIT ?5 OFFSET ?6
`

func (q *Queries) ListProjects(ctx context.Context, arg ListProjectsParams) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx, listProjects,
		arg.Sphere,
		arg.Province,
		arg.Department,
		arg.Query,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type UpsertSnapshotParams struct {
	ProjectID                         int64
	FinancialYearID                   int64
	Quarter                           int64
	Status                            string
	EstimatedTotalProjectCost         decimal.NullDecimal
	ExpenditureFromPreviousYearsTotal decimal.NullDecimal
	ActualExpenditureQ1               decimal.NullDecimal
	ActualExpenditureQ2               decimal.NullDecimal
	ActualExpenditureQ3               decimal.NullDecimal
	ActualExpenditureQ4               decimal.NullDecimal
	StartDate                         sql.NullString
	EstimatedConstructionStartDate    sql.NullString
	EstimatedCompletionDate           sql.NullString
	ContractedConstructionEndDate     sql.NullString
	EstimatedConstructionEndDate      sql.NullString
}

const upsertSnapshot = `-- name: UpsertSnapshot :one
INSERT INTO irm_snapshots (
    project_id, financial_year_id, quarter, status,
    estimated_total_project_cost, expenditure_from_previous_years_total,
    actual_expenditure_q1, actual_expenditure_q2, actual_expenditure_q3, actual_expenditure_q4,
    start_date, estimated_construction_start_date, estimated_completion_date,
    contracted_construction_end_date, estimated_construction_end_date
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project_id, financial_year_id, quarter) DO UPDATE SET
    status = excluded.status,
    estimated_total_project_cost = excluded.estimated_total_project_cost,
    expenditure_from_previous_years_total = excluded.expenditure_from_previous_years_total,
    actual_expenditure_q1 = excluded.actual_expenditure_q1,
    actual_expenditure_q2 = excluded.actual_expenditure_q2,
    actual_expenditure_q3 = excluded.actual_expenditure_q3,
    actual_expenditure_q4 = excluded.actual_expenditure_q4,
    start_date = excluded.start_date,
    estimated_construction_start_date = excluded.estimated_construction_start_date,
    estimated_completion_date = excluded.estimated_completion_date,
    contracted_construction_end_date = excluded.contracted_construction_end_date,
    estimated_construction_end_date = excluded.estimated_construction_end_date,
    updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
RETURNING id
`

func (q *Queries) UpsertSnapshot(ctx context.Context, arg UpsertSnapshotParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertSnapshot,
		arg.ProjectID,
		arg.FinancialYearID,
		arg.Quarter,
		arg.Status,
		arg.EstimatedTotalProjectCost,
		arg.ExpenditureFromPreviousYearsTotal,
		arg.ActualExpenditureQ1,
		arg.ActualExpenditureQ2,
		arg.ActualExpenditureQ3,
		arg.ActualExpenditureQ4,
		arg.StartDate,
		arg.EstimatedConstructionStartDate,
		arg.EstimatedCompletionDate,
		arg.ContractedConstructionEndDate,
		arg.EstimatedConstructionEndDate,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listSnapshotsByProject = `-- name: ListSnapshotsByProject :many
SELECT s.id, s.project_id, fy.slug, fy.start_year, s.quarter, s.status,
    s.estimated_total_project_cost, s.expenditure_from_previous_years_total,
    s.actual_expenditure_q1, s.actual_expenditure_q2, s.actual_expenditure_q3, s.actual_expenditure_q4,
    s.start_date, s.estimated_construction_start_date, s.estimated_completion_date,
    s.contracted_construction_end_date, s.estimated_construction_end_date
FROM irm_snapshots s
JOIN financial_years fy ON fy.id = s.financial_year_id
WHERE s.project_id = ?
ORDER BY fy.start_year, s.quarter
`

func (q *Queries) ListSnapshotsByProject(ctx context.Context, projectID int64) ([]IrmSnapshot, error) {
	rows, err := q.db.QueryContext(ctx, listSnapshotsByProject, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []IrmSnapshot
	for rows.Next() {
		var i IrmSnapshot
		if err := rows.Scan(
			&i.ID,
			&i.ProjectID,
			&i.FinancialYearSlug,
			&i.StartYear,
			&i.Quarter,
			&i.Status,
			&i.EstimatedTotalProjectCost,
			&i.ExpenditureFromPreviousYearsTotal,
			&i.ActualExpenditureQ1,
			&i.ActualExpenditureQ2,
			&i.ActualExpenditureQ3,
			&i.ActualExpenditureQ4,
			&i.StartDate,
			&i.EstimatedConstructionStartDate,
			&i.EstimatedCompletionDate,
			&i.ContractedConstructionEndDate,
			&i.EstimatedConstructionEndDate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertImportRun = `-- name: UpsertImportRun :exec
INSERT INTO import_runs (id, source, status, row_count, skipped_count, error, started_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    source = excluded.source,
    status = excluded.status,
    row_count = excluded.row_count,
    skipped_count = excluded.skipped_count,
    error = excluded.error,
    started_at = excluded.started_at,
    finished_at = NULL
`

// UpsertImportRun starts a run, resetting an earlier attempt with the same id.
func (q *Queries) UpsertImportRun(ctx context.Context, arg ImportRun) error {
	_, err := q.db.ExecContext(ctx, upsertImportRun,
		arg.ID,
		arg.Source,
		arg.Status,
		arg.RowCount,
		arg.SkippedCount,
		arg.Error,
		arg.StartedAt,
	)
	return err
}

const finishImportRun = `-- name: FinishImportRun :execrows
UPDATE import_runs
SET status = ?, row_count = ?, skipped_count = ?, error = ?, finished_at = ?
WHERE id = ?
`

func (q *Queries) FinishImportRun(ctx context.Context, arg ImportRun) (int64, error) {
	result, err := q.db.ExecContext(ctx, finishImportRun,
		arg.Status,
		arg.RowCount,
		arg.SkippedCount,
		arg.Error,
		arg.FinishedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listImportRuns = `-- name: ListImportRuns :many
SELECT id, source, status, row_count, skipped_count, error, started_at, finished_at
FROM import_runs
ORDER BY started_at DESC
LIMIT ?
`

func (q *Queries) ListImportRuns(ctx context.Context, limit int64) ([]ImportRun, error) {
	rows, err := q.db.QueryContext(ctx, listImportRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ImportRun
	for rows.Next() {
		var i ImportRun
		if err := rows.Scan(
			&i.ID,
			&i.Source,
			&i.Status,
			&i.RowCount,
			&i.SkippedCount,
			&i.Error,
			&i.StartedAt,
			&i.FinishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
