package http

import (
	"net/http"

	"vulekamali/internal/core"
	"vulekamali/internal/log"
)

const (
	defaultImportRuns = 20
	maxImportRuns     = 100

	// sourceAPI tags imports and reports that arrived over the HTTP API.
	sourceAPI = "api"
)

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := ParseProjectID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}
	if s.imports == nil {
		s.writeError(w, r, core.ErrUnavailable, log.OpCreate)
		return
	}

	var snap core.Snapshot
	if err := DecodeJSONBody(w, r, &snap); err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}
	snap.Status = sanitizeInput(snap.Status)

	ref, err := s.imports.SaveSnapshot(r.Context(), id, snap)
	if err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Body(map[string]any{
		"ref":            ref,
		"project_id":     id,
		"financial_year": snap.FinancialYear,
		"quarter":        snap.Quarter,
	}).Write(w)
}

func (s *Server) handleRequestImport(w http.ResponseWriter, r *http.Request) {
	if s.imports == nil {
		s.writeError(w, r, core.ErrUnavailable, log.OpImport)
		return
	}
	req, err := ParseImportRequest(w, r)
	if err != nil {
		s.writeError(w, r, err, log.OpImport)
		return
	}

	jobID, err := s.imports.RequestImport(r.Context(), sourceAPI, req.ProjectID)
	if err != nil {
		s.writeError(w, r, err, log.OpImport)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Import requested",
		log.FieldJobID, jobID,
		log.FieldProjectID, req.ProjectID)

	NewJSONResponse().Status(http.StatusAccepted).Body(map[string]string{
		"job_id": jobID,
		"status": "queued",
	}).Write(w)
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, r, core.ErrUnavailable, log.OpList)
		return
	}
	limit, err := intParam(r.URL.Query(), "limit", defaultImportRuns)
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	limit = min(max(limit, 1), maxImportRuns)

	runs, err := s.runs.ListImportRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	if runs == nil {
		runs = []core.ImportRun{}
	}
	NewJSONResponse().Body(map[string]any{"imports": runs}).Write(w)
}
