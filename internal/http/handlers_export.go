package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"vulekamali/internal/core"
	"vulekamali/internal/log"
	"vulekamali/internal/sheets"
)

var projectColumns = []string{"id", "external_id", "name", "sphere", "department", "sector", "province"}

// handleSnapshotsCSV exports a project's quarterly reports, one row per
// report, in the workbook column layout.
func (s *Server) handleSnapshotsCSV(w http.ResponseWriter, r *http.Request) {
	id, err := ParseProjectID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpExport)
		return
	}
	detail, err := s.charts.ProjectDetail(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, log.OpExport)
		return
	}

	rows := make([][]string, 0, len(detail.Snapshots))
	for _, snap := range detail.Snapshots {
		fields := sheets.Fields(detail.Project, snap)
		row := make([]string, len(sheets.SnapshotColumns))
		for i, col := range sheets.SnapshotColumns {
			row[i] = fields[col]
		}
		rows = append(rows, row)
	}

	s.writeCSV(w, r, fmt.Sprintf("project-%d-snapshots.csv", id), sheets.SnapshotColumns, rows)
}

// handleProjectsCSV exports the filtered project list. Paging applies as in
// the JSON listing.
func (s *Server) handleProjectsCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseProjectFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err, log.OpExport)
		return
	}
	projects, err := s.projects.ListProjects(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err, log.OpExport)
		return
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, projectRecord(p))
	}
	s.writeCSV(w, r, "projects.csv", projectColumns, rows)
}

func projectRecord(p core.Project) []string {
	return []string{
		strconv.FormatInt(p.ID, 10),
		p.ExternalID,
		p.Name,
		string(p.Sphere),
		p.Department,
		p.Sector,
		p.Province,
	}
}

func (s *Server) writeCSV(w http.ResponseWriter, r *http.Request, filename string, header []string, rows [][]string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		s.logger.ErrorContext(r.Context(), "CSV write failed", log.FieldError, err)
		return
	}
	if err := cw.WriteAll(rows); err != nil {
		s.logger.ErrorContext(r.Context(), "CSV write failed", log.FieldError, err)
	}
}
