package sheets

import (
	"context"

	"vulekamali/internal/core"
)

// Ports for outbound adapters.
type (
	ProjectReader interface {
		// GetProject returns core.ErrNotFound when no project has the id.
		GetProject(ctx context.Context, id int64) (core.Project, error)
		ListProjects(ctx context.Context, filter core.ProjectFilter) ([]core.Project, error)
	}

	// ProjectWriter stores projects. Projects with an external id are matched
	// on it so repeated imports update rather than duplicate.
	ProjectWriter interface {
		UpsertProject(ctx context.Context, p core.Project) (core.Project, error)
	}

	// SnapshotReader provides a project's quarterly reports ordered by
	// (financial year, quarter).
	SnapshotReader interface {
		ListSnapshots(ctx context.Context, projectID int64) ([]core.Snapshot, error)
	}

	// SnapshotWriter stores one quarterly report, replacing any earlier report
	// for the same project, financial year and quarter.
	SnapshotWriter interface {
		SaveSnapshot(ctx context.Context, projectID int64, s core.Snapshot) (ref string, err error)
	}

	// ImportRunRecorder keeps the history of import passes.
	ImportRunRecorder interface {
		RecordImportRun(ctx context.Context, run core.ImportRun) error
		FinishImportRun(ctx context.Context, run core.ImportRun) error
	}

	// ImportRunLister returns recent import runs, newest first. A limit of
	// zero or less returns every run.
	ImportRunLister interface {
		ListImportRuns(ctx context.Context, limit int) ([]core.ImportRun, error)
	}

	// SnapshotSource yields rows from an external workbook for import.
	SnapshotSource interface {
		FetchSnapshotRows(ctx context.Context) ([]ImportRow, error)
	}
)

// ImportRow is one parsed spreadsheet row: the project it describes and the
// quarterly report it carries.
type ImportRow struct {
	Project  core.Project
	Snapshot core.Snapshot
	// Ref locates the row in its source, e.g. "IRM 2019-20!12".
	Ref string
}
