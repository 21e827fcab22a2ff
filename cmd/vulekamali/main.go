package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"vulekamali/internal/cache"
	"vulekamali/internal/cli"
	"vulekamali/internal/core"
	apphttp "vulekamali/internal/http"
	"vulekamali/internal/log"
	"vulekamali/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), log.ComponentApp)
	cfg := cli.MustLoadConfig(logger)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	result := cli.MustOpenBackend(ctx, logger, cfg)
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	chartCache := cache.NewLRUCache[core.ChartData](cfg.ChartCacheSize, cfg.ChartCacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register("charts", chartCache)
	cacheManager.StartCleanup(cfg.ChartCacheTTL)
	defer cacheManager.Stop()

	charts := services.NewChartService(result.Backend, result.Backend, chartCache, logger)
	imports := services.NewImportService(result.Backend, result.Publisher, charts, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Projects: result.Backend,
		Runs:     result.Backend,
		Charts:   charts,
		Imports:  imports,
		Ready:    result.Backend.Ready,
		Logger:   logger,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting vulekamali server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"import_queue", imports.CanQueue())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-stopped
	logger.Info("Server stopped gracefully")
}
