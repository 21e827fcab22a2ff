package services

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"vulekamali/internal/cache"
	"vulekamali/internal/charts"
	"vulekamali/internal/core"
	"vulekamali/internal/log"
	"vulekamali/internal/sheets"
)

// ProjectDetail is everything the project page shows.
type ProjectDetail struct {
	Project   core.Project    `json:"project"`
	Snapshots []core.Snapshot `json:"snapshots"`
	Chart     core.ChartData  `json:"chart"`
}

// ChartService builds project expenditure charts and caches them per project.
type ChartService struct {
	projects  sheets.ProjectReader
	snapshots sheets.SnapshotReader
	cache     *cache.LRUCache[core.ChartData]
	logger    *log.Logger
}

func NewChartService(projects sheets.ProjectReader, snapshots sheets.SnapshotReader, chartCache *cache.LRUCache[core.ChartData], logger *log.Logger) *ChartService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ChartService{
		projects:  projects,
		snapshots: snapshots,
		cache:     chartCache,
		logger:    logger.WithComponent(log.ComponentChart),
	}
}

// ProjectChart returns the chart for a project. A project without reports
// gets an empty chart; an unknown project is core.ErrNotFound.
func (s *ChartService) ProjectChart(ctx context.Context, projectID int64) (core.ChartData, error) {
	key := cacheKey(projectID)
	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			return data, nil
		}
	}

	detail, err := s.load(ctx, projectID)
	if err != nil {
		return core.ChartData{}, err
	}
	return detail.Chart, nil
}

// ProjectDetail loads the project, its reports and its chart.
func (s *ChartService) ProjectDetail(ctx context.Context, projectID int64) (ProjectDetail, error) {
	return s.load(ctx, projectID)
}

func (s *ChartService) load(ctx context.Context, projectID int64) (ProjectDetail, error) {
	var detail ProjectDetail

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.projects.GetProject(gctx, projectID)
		detail.Project = p
		return err
	})
	g.Go(func() error {
		snaps, err := s.snapshots.ListSnapshots(gctx, projectID)
		if snaps == nil {
			snaps = []core.Snapshot{}
		}
		detail.Snapshots = snaps
		return err
	})
	if err := g.Wait(); err != nil {
		return ProjectDetail{}, err
	}

	chart, err := s.buildChart(ctx, projectID, detail.Snapshots)
	if err != nil {
		return ProjectDetail{}, err
	}
	detail.Chart = chart
	return detail, nil
}

func (s *ChartService) buildChart(ctx context.Context, projectID int64, snapshots []core.Snapshot) (core.ChartData, error) {
	key := cacheKey(projectID)
	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			return data, nil
		}
	}

	data := core.ChartData{DataPoints: []core.ChartDataPoint{}, Events: []core.Event{}}
	if len(snapshots) > 0 {
		var err error
		data, err = charts.TimeSeries(snapshots)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to build project chart",
				log.FieldProjectID, projectID,
				log.FieldError, err)
			return core.ChartData{}, err
		}
	}

	s.logger.DebugContext(ctx, "Project chart built",
		log.FieldProjectID, projectID,
		"data_points", len(data.DataPoints),
		"events", len(data.Events))

	if s.cache != nil {
		s.cache.Set(key, data)
	}
	return data, nil
}

// Invalidate drops a project's cached chart.
func (s *ChartService) Invalidate(projectID int64) {
	if s.cache != nil {
		s.cache.Delete(cacheKey(projectID))
	}
}

// CacheStats reports chart cache usage.
func (s *ChartService) CacheStats() cache.Stats {
	if s.cache == nil {
		return cache.Stats{}
	}
	return s.cache.Stats()
}

func cacheKey(projectID int64) string {
	return "chart:" + strconv.FormatInt(projectID, 10)
}
