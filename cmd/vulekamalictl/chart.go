package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vulekamali/internal/cli"
	"vulekamali/internal/services"
)

func newChartCmd(a *app) *cobra.Command {
	var detail bool

	cmd := &cobra.Command{
		Use:   "chart <project-id>",
		Short: "Print a project's expenditure chart as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid project id %q", args[0])
			}

			result, err := cli.OpenBackend(ctx, a.logger, a.cfg)
			if err != nil {
				return err
			}
			defer closeBackend(a.logger, result)

			charts := services.NewChartService(result.Backend, result.Backend, nil, a.logger)
			if detail {
				d, err := charts.ProjectDetail(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd, d)
			}
			chart, err := charts.ProjectChart(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(cmd, chart)
		},
	}
	cmd.Flags().BoolVar(&detail, "detail", false, "include the project and its quarterly reports")
	return cmd
}
