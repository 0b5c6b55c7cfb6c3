package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/prime3679/bishop-bench/internal/catalog"
	"github.com/prime3679/bishop-bench/internal/config"
	"github.com/prime3679/bishop-bench/internal/engine"
	"github.com/prime3679/bishop-bench/internal/history"
	"github.com/prime3679/bishop-bench/internal/provider"
	"github.com/prime3679/bishop-bench/internal/result"
	"github.com/prime3679/bishop-bench/internal/runner"
	"github.com/prime3679/bishop-bench/internal/task"
	"github.com/prime3679/bishop-bench/internal/telemetry"
)

var (
	flagTask      string
	flagModels    string
	flagRuns      int
	flagDryRun    bool
	flagTimeoutMs int
	flagParallel  int
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute tasks against models and save the results",
		RunE:  runEvaluation,
	}
	cmd.Flags().StringVar(&flagTask, "task", "", "run a single task by name")
	cmd.Flags().StringVar(&flagModels, "models", "", "comma separated model ids (default: all)")
	cmd.Flags().IntVar(&flagRuns, "runs", 0, "override runs per task and model")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "record placeholder results without calling providers")
	cmd.Flags().IntVar(&flagTimeoutMs, "timeout", 0, "override request timeout in milliseconds")
	cmd.Flags().IntVar(&flagParallel, "parallel", 0, "max concurrent requests")
	return cmd
}

func runEvaluation(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if flagRuns > 0 {
		cfg.Runs = flagRuns
	}
	if flagTimeoutMs > 0 {
		cfg.TimeoutMs = flagTimeoutMs
	}
	if flagParallel > 0 {
		cfg.Parallel = flagParallel
	}

	cat, err := catalog.Load(cfg.ModelsFile)
	if err != nil {
		return err
	}
	tasks, err := task.LoadDir(cfg.TasksDir, logger)
	if err != nil {
		return err
	}
	tasks = task.Filter(tasks, flagTask)
	if len(tasks) == 0 {
		return fmt.Errorf("no tasks to run in %s", cfg.TasksDir)
	}
	models := cat.Select(parseModels(flagModels), logger)
	if len(models) == 0 {
		return fmt.Errorf("no known models selected")
	}

	metrics := telemetry.New()
	eng := engine.New(buildProviders(cfg), logger,
		engine.WithRateLimit(cfg.RateLimitRPS),
		engine.WithMetrics(metrics),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if flagDryRun {
		fmt.Fprintln(out, "[DRY RUN] No provider calls will be made.")
	}
	run := runner.New(eng, logger, out).Run(ctx, runner.Plan{
		Tasks:    tasks,
		Models:   models,
		Runs:     cfg.Runs,
		Parallel: cfg.Parallel,
		DryRun:   flagDryRun,
		Timeout:  time.Duration(cfg.TimeoutMs) * time.Millisecond,
	})

	path, err := result.Save(cfg.ResultsDir, run.Results, run.FinishedAt)
	if err != nil {
		return err
	}
	completed, failed, cost := run.Summary()
	fmt.Fprintf(out, "\nCompleted: %d, Failed: %d, Total cost: $%.6f\n", completed, failed, cost)
	fmt.Fprintf(out, "Results saved to %s\n", path)

	if cfg.HistoryDB != "" {
		if err := recordHistory(ctx, run, path); err != nil {
			logger.Warn("Failed to record run history", "error", err.Error())
		}
	}
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("Failed to write metrics file", "path", cfg.MetricsFile, "error", err.Error())
		}
	}
	return nil
}

func buildProviders(c *config.Config) []provider.Provider {
	return []provider.Provider{
		provider.NewAnthropic(c.Credentials.AnthropicAPIKey, c.Providers.Anthropic.BaseURL),
		provider.NewOpenAI(c.Credentials.OpenAIAPIKey, c.Providers.OpenAI.BaseURL, nil),
	}
}

func recordHistory(ctx context.Context, run *runner.Run, artifact string) error {
	store, err := history.Open(cfg.HistoryDB, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.RecordRun(ctx, run, artifact)
}

// parseModels splits a comma separated id list, dropping blanks.
func parseModels(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
