package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vulekamali/internal/backend"
	"vulekamali/internal/cli"
	"vulekamali/internal/core"
	"vulekamali/internal/log"
	"vulekamali/internal/services"
	"vulekamali/internal/sheets/csvfile"
	"vulekamali/internal/worker"
)

// sourceCLI tags imports run from this tool.
const sourceCLI = "cli"

func newImportCmd(a *app) *cobra.Command {
	var financialYear string

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import quarterly reports from a CSV file",
		Long: "Reads one CSV file whose header uses the workbook column names and upserts " +
			"every project and quarterly report it holds. Rows that fail to parse are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var fy core.FinancialYear
			if financialYear != "" {
				parsed, err := core.ParseFinancialYear(financialYear)
				if err != nil {
					return err
				}
				fy = parsed
			}

			result, err := cli.OpenBackend(ctx, a.logger, a.cfg)
			if err != nil {
				return err
			}
			defer closeBackend(a.logger, result)

			imports := services.NewImportService(result.Backend, nil, nil, a.logger)
			w := worker.NewImportWorker(csvfile.New(args[0], fy, a.logger), imports, a.logger)
			run, err := w.RunOnce(ctx, sourceCLI)
			if err != nil {
				return err
			}
			return printJSON(cmd, run)
		},
	}
	cmd.Flags().StringVar(&financialYear, "financial-year", "", `financial year for rows without one, e.g. "2019-20"`)
	return cmd
}

func newRequestImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "request-import [external-project-id]",
		Short: "Queue a workbook import for the worker",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			result, err := cli.OpenBackend(ctx, a.logger, a.cfg)
			if err != nil {
				return err
			}
			defer closeBackend(a.logger, result)
			if result.Publisher == nil {
				return errors.New("import queue unavailable: set AMQP_URL to a reachable broker")
			}

			var projectID string
			if len(args) == 1 {
				projectID = args[0]
			}
			imports := services.NewImportService(result.Backend, result.Publisher, nil, a.logger)
			jobID, err := imports.RequestImport(ctx, sourceCLI, projectID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), jobID)
			return nil
		},
	}
}

func closeBackend(logger *log.Logger, result *backend.BackendResult) {
	if err := result.Close(); err != nil {
		logger.Error("Backend cleanup failed", log.FieldError, err)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
