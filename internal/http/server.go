package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"vulekamali/internal/log"
	"vulekamali/internal/middleware/ratelimit"
	"vulekamali/internal/middleware/security"
	"vulekamali/internal/middleware/trace"
	"vulekamali/internal/services"
	"vulekamali/internal/sheets"
	appweb "vulekamali/web"
)

// Deps are the collaborators the handlers read from and write to.
type Deps struct {
	Projects sheets.ProjectReader
	Runs     sheets.ImportRunLister
	Charts   *services.ChartService
	Imports  *services.ImportService
	// Ready reports backend readiness; nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *log.Logger
}

// Options tune the server.
type Options struct {
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	templates *template.Template

	projects sheets.ProjectReader
	runs     sheets.ImportRunLister
	charts   *services.ChartService
	imports  *services.ImportService
	ready    func(ctx context.Context) error

	logger           *log.Logger
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		projects: deps.Projects,
		runs:     deps.Runs,
		charts:   deps.Charts,
		imports:  deps.Imports,
		ready:    deps.Ready,
		logger:   logger.WithComponent(log.ComponentHTTP),
		started:  time.Now(),
	}

	s.securityDetector = security.NewDetector(logger)
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)
	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}
	s.rateLimiter = ratelimit.NewLimiter(rlConfig)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Error("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.traceMiddleware.Middleware(
		s.securityDetector.Middleware(
			headers.Middleware(mux)))

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /projects/{id}", s.handleProjectPage)

	// API handlers log under their own component.
	api := func(h http.Handler) http.Handler { return log.ComponentMiddleware(log.ComponentAPI)(h) }
	hf := func(f http.HandlerFunc) http.Handler { return f }

	mux.Handle("GET /api/v1/projects", api(hf(s.handleListProjects)))
	mux.Handle("GET /api/v1/projects.csv", api(hf(s.handleProjectsCSV)))
	mux.Handle("GET /api/v1/projects/{id}", api(hf(s.handleGetProject)))
	mux.Handle("GET /api/v1/projects/{id}/chart", api(hf(s.handleProjectChart)))
	mux.Handle("GET /api/v1/projects/{id}/snapshots.csv", api(hf(s.handleSnapshotsCSV)))
	mux.Handle("POST /api/v1/projects/{id}/snapshots", api(limited(hf(s.handleCreateSnapshot))))
	mux.Handle("POST /api/v1/imports", api(limited(hf(s.handleRequestImport))))
	mux.Handle("GET /api/v1/imports", api(hf(s.handleListImports)))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
