package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prime3679/bishop-bench/internal/catalog"
	"github.com/prime3679/bishop-bench/internal/task"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available tasks and models",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cat, err := catalog.Load(cfg.ModelsFile)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Models:")
			for _, id := range cat.IDs() {
				m, _ := cat.Get(id)
				fmt.Fprintf(out, "  - %s (%s, %s) $%.2f/$%.2f per 1M tokens\n",
					m.ID, m.Name, m.Provider, m.Pricing.Input, m.Pricing.Output)
			}

			tasks, err := task.LoadDir(cfg.TasksDir, logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "\nTasks:")
			for _, t := range tasks {
				fmt.Fprintf(out, "  - %s [%s]\n", t.Name, t.Filename)
			}
			return nil
		},
	}
}
