package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vulekamali/internal/cli"
	"vulekamali/internal/config"
	"vulekamali/internal/log"
)

// app carries what every subcommand needs once the root command has loaded
// configuration.
type app struct {
	cfg    *config.Config
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "vulekamalictl",
		Short:         "Manage the vulekamali infrastructure project store",
		Long:          "Runs schema migrations, imports quarterly reports from CSV files and prints project charts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			a.logger = cli.SetupLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat, "ctl")
			return nil
		},
	}

	root.AddCommand(
		newMigrateCmd(a),
		newImportCmd(a),
		newRequestImportCmd(a),
		newChartCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
