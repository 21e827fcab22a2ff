package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"vulekamali/internal/amqp"
	"vulekamali/internal/cli"
	"vulekamali/internal/log"
	"vulekamali/internal/services"
	gsheet "vulekamali/internal/sheets/google"
	"vulekamali/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), log.ComponentWorker)
	logger.Info("Starting vulekamali-worker")

	cfg := cli.MustLoadConfig(logger)
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("No import source configured: set GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	result := cli.MustOpenBackend(ctx, logger, cfg)
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	source, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetPrefix:        cfg.GoogleSheetPrefix,
		FinancialYears:     cfg.GoogleFinancialYears,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		Concurrency:        cfg.ImportConcurrency,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets source initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"financial_years", cfg.GoogleFinancialYears)

	// Charts are cached by the web process; its TTL bounds how long they lag
	// behind an import made here.
	imports := services.NewImportService(result.Backend, nil, nil, logger)
	importWorker := worker.NewImportWorker(source, imports, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return importWorker.RunPeriodic(gctx, cfg.ImportInterval)
	})

	if cfg.AMQPURL != "" {
		consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer consumer.Close()

		g.Go(func() error {
			return consumer.ConsumeImportRequests(gctx, importWorker.HandleImportMessage)
		})
	} else {
		logger.Info("AMQP disabled - only scheduled imports will run")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
