package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"vulekamali/internal/core"
	ports "vulekamali/internal/sheets"
)

// Ensure interface conformance
var (
	_ ports.ProjectReader     = (*Store)(nil)
	_ ports.ProjectWriter     = (*Store)(nil)
	_ ports.SnapshotReader    = (*Store)(nil)
	_ ports.SnapshotWriter    = (*Store)(nil)
	_ ports.ImportRunRecorder = (*Store)(nil)
)

type snapshotKey struct {
	startYear int
	quarter   int
}

type Store struct {
	mu        sync.Mutex
	nextID    int64
	projects  map[int64]core.Project
	byExtID   map[string]int64
	snapshots map[int64]map[snapshotKey]core.Snapshot
	runs      []core.ImportRun
}

func New() *Store {
	return &Store{
		projects:  make(map[int64]core.Project),
		byExtID:   make(map[string]int64),
		snapshots: make(map[int64]map[snapshotKey]core.Snapshot),
	}
}

// fixture is the YAML layout of a seed file. Snapshot entries use the same
// column keys as the import workbook.
type fixture struct {
	Projects []struct {
		ExternalID string              `yaml:"external_id"`
		Name       string              `yaml:"name"`
		Sphere     string              `yaml:"sphere"`
		Department string              `yaml:"department"`
		Sector     string              `yaml:"sector"`
		Province   string              `yaml:"province"`
		Snapshots  []map[string]string `yaml:"snapshots"`
	} `yaml:"projects"`
}

// NewFromFile seeds a store from a YAML fixture. A missing file yields an
// empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}

	ctx := context.Background()
	for i, fp := range fx.Projects {
		p, err := s.UpsertProject(ctx, core.Project{
			ExternalID: fp.ExternalID,
			Name:       fp.Name,
			Sphere:     core.Sphere(fp.Sphere),
			Department: fp.Department,
			Sector:     fp.Sector,
			Province:   fp.Province,
		})
		if err != nil {
			return nil, fmt.Errorf("fixture project %d: %w", i, err)
		}
		for j, fields := range fp.Snapshots {
			merged := ports.Fields(p, core.Snapshot{})
			for k, v := range fields {
				merged[ports.NormalizeHeader(k)] = v
			}
			row, err := ports.ParseRow(merged)
			if err != nil {
				return nil, fmt.Errorf("fixture project %d snapshot %d: %w", i, j, err)
			}
			if _, err := s.SaveSnapshot(ctx, p.ID, row.Snapshot); err != nil {
				return nil, fmt.Errorf("fixture project %d snapshot %d: %w", i, j, err)
			}
		}
	}
	return s, nil
}

// UpsertProject stores p, matching an existing project on external id.
func (s *Store) UpsertProject(_ context.Context, p core.Project) (core.Project, error) {
	if err := p.Validate(); err != nil {
		return core.Project{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ExternalID != "" {
		if id, ok := s.byExtID[p.ExternalID]; ok {
			p.ID = id
			s.projects[id] = p
			return p, nil
		}
	}
	s.nextID++
	p.ID = s.nextID
	s.projects[p.ID] = p
	if p.ExternalID != "" {
		s.byExtID[p.ExternalID] = p.ID
	}
	return p, nil
}

func (s *Store) GetProject(_ context.Context, id int64) (core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return core.Project{}, fmt.Errorf("project %d: %w", id, core.ErrNotFound)
	}
	return p, nil
}

// ListProjects returns matching projects ordered by name.
func (s *Store) ListProjects(_ context.Context, f core.ProjectFilter) ([]core.Project, error) {
	s.mu.Lock()
	out := make([]core.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if matches(p, f) {
			out = append(out, p)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []core.Project{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(p core.Project, f core.ProjectFilter) bool {
	if f.Sphere != "" && p.Sphere != f.Sphere {
		return false
	}
	if f.Province != "" && !strings.EqualFold(p.Province, f.Province) {
		return false
	}
	if f.Department != "" && !strings.EqualFold(p.Department, f.Department) {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		return strings.Contains(strings.ToLower(p.Name), strings.ToLower(q))
	}
	return true
}

// SaveSnapshot stores the report and returns a synthetic reference.
func (s *Store) SaveSnapshot(_ context.Context, projectID int64, snap core.Snapshot) (string, error) {
	if err := snap.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID]; !ok {
		return "", fmt.Errorf("project %d: %w", projectID, core.ErrNotFound)
	}
	if s.snapshots[projectID] == nil {
		s.snapshots[projectID] = make(map[snapshotKey]core.Snapshot)
	}
	s.snapshots[projectID][snapshotKey{snap.FinancialYear.StartYear, snap.Quarter}] = snap
	return fmt.Sprintf("mem:%d:%s:Q%d", projectID, snap.FinancialYear.Slug(), snap.Quarter), nil
}

func (s *Store) ListSnapshots(_ context.Context, projectID int64) ([]core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID]; !ok {
		return nil, fmt.Errorf("project %d: %w", projectID, core.ErrNotFound)
	}
	out := make([]core.Snapshot, 0, len(s.snapshots[projectID]))
	for _, snap := range s.snapshots[projectID] {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FinancialYear.StartYear != out[j].FinancialYear.StartYear {
			return out[i].FinancialYear.StartYear < out[j].FinancialYear.StartYear
		}
		return out[i].Quarter < out[j].Quarter
	})
	return out, nil
}

// RecordImportRun starts a run. Recording an id again restarts that run and
// makes it the most recent.
func (s *Store) RecordImportRun(_ context.Context, run core.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = slices.DeleteFunc(s.runs, func(r core.ImportRun) bool { return r.ID == run.ID })
	s.runs = append(s.runs, run)
	return nil
}

func (s *Store) FinishImportRun(_ context.Context, run core.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID == run.ID {
			s.runs[i] = run
			return nil
		}
	}
	return fmt.Errorf("import run %s: %w", run.ID, core.ErrNotFound)
}

// ImportRuns returns recorded runs, oldest first.
func (s *Store) ImportRuns() []core.ImportRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ImportRun(nil), s.runs...)
}

func (s *Store) ListImportRuns(_ context.Context, limit int) ([]core.ImportRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ImportRun, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.runs[i])
	}
	return out, nil
}

// Ready always succeeds; the store has no external dependencies.
func (s *Store) Ready(context.Context) error { return nil }
