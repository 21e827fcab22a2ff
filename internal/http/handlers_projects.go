package http

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"vulekamali/internal/charts"
	"vulekamali/internal/core"
	"vulekamali/internal/log"
	"vulekamali/internal/services"
)

type indexPage struct {
	Filter   core.ProjectFilter
	Projects []core.Project
	PrevURL  string
	NextURL  string
	Error    string
}

type projectPage struct {
	services.ProjectDetail
	Latest      *core.Snapshot
	SpentToDate decimal.NullDecimal
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := indexPage{Projects: []core.Project{}}
	status := http.StatusOK

	filter, err := ParseProjectFilter(r.URL.Query())
	if err != nil {
		page.Error = err.Error()
		status = StatusForError(err)
	} else {
		page.Filter = filter
		projects, err := s.projects.ListProjects(r.Context(), filter)
		if err != nil {
			s.writeError(w, r, err, log.OpList)
			return
		}
		page.Projects = projects
		if filter.Offset > 0 {
			page.PrevURL = pageURL(r.URL.Query(), max(filter.Offset-filter.Limit, 0))
		}
		if len(projects) == filter.Limit {
			page.NextURL = pageURL(r.URL.Query(), filter.Offset+filter.Limit)
		}
	}

	s.render(w, r, status, "index.html", page)
}

func (s *Server) handleProjectPage(w http.ResponseWriter, r *http.Request) {
	id, err := ParseProjectID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	detail, err := s.charts.ProjectDetail(r.Context(), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	page := projectPage{ProjectDetail: detail}
	if n := len(detail.Snapshots); n > 0 {
		page.Latest = &detail.Snapshots[n-1]
		page.SpentToDate = charts.SpentToDate(*page.Latest, page.Latest.Quarter)
	}
	s.render(w, r, http.StatusOK, "project.html", page)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseProjectFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	projects, err := s.projects.ListProjects(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	if projects == nil {
		projects = []core.Project{}
	}

	NewJSONResponse().Body(map[string]any{
		"projects": projects,
		"count":    len(projects),
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	}).Write(w)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := ParseProjectID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	detail, err := s.charts.ProjectDetail(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Body(detail).Write(w)
}

func (s *Server) handleProjectChart(w http.ResponseWriter, r *http.Request) {
	id, err := ParseProjectID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	chart, err := s.charts.ProjectChart(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Body(chart).Write(w)
}

// render executes a page template into a buffer first so a failed render
// never sends a partial page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	message := http.StatusText(status)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Page failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	} else {
		message = err.Error()
	}
	s.render(w, r, status, "error.html", map[string]any{"Status": status, "Message": message})
}

func pageURL(query url.Values, offset int) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("offset", strconv.Itoa(offset))
	return "/?" + q.Encode()
}
