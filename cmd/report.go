package cmd

import (
	"github.com/spf13/cobra"

	"github.com/prime3679/bishop-bench/internal/report"
	"github.com/prime3679/bishop-bench/internal/result"
)

var flagReportFormat string

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <comparison.json>",
		Short: "Render a saved comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := report.CheckFormat(flagReportFormat); err != nil {
				return err
			}
			path, err := result.ResolveResultsPath(cfg.ResultsDir, args[0])
			if err != nil {
				return err
			}
			c, err := report.ReadComparison(path)
			if err != nil {
				return err
			}
			return report.Generate(c, flagReportFormat, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&flagReportFormat, "format", "table", "output format (table, markdown, json)")
	return cmd
}
