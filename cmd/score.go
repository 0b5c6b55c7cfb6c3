package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prime3679/bishop-bench/internal/judge"
	"github.com/prime3679/bishop-bench/internal/report"
	"github.com/prime3679/bishop-bench/internal/result"
	"github.com/prime3679/bishop-bench/internal/scoring"
	"github.com/prime3679/bishop-bench/internal/task"
	"github.com/prime3679/bishop-bench/internal/telemetry"
)

var (
	flagResults string
	flagNoJudge bool
	flagFormat  string
)

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a results file and print the comparison",
		RunE:  runScore,
	}
	cmd.Flags().StringVar(&flagResults, "results", "", "results file inside the results dir (default: latest)")
	cmd.Flags().BoolVar(&flagNoJudge, "no-judge", false, "skip LLM judge scoring")
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format (table, markdown, json)")
	return cmd
}

func runScore(cmd *cobra.Command, args []string) error {
	if err := report.CheckFormat(flagFormat); err != nil {
		return err
	}
	path, err := resolveResults(cfg.ResultsDir, flagResults)
	switch {
	case errors.Is(err, result.ErrNoResults):
		fmt.Fprintln(cmd.ErrOrStderr(), "No evaluation results found. Run an evaluation first.")
		return err
	case errors.Is(err, result.ErrInvalidPath):
		fmt.Fprintln(cmd.ErrOrStderr(), "Invalid results file path")
		return err
	case err != nil:
		return err
	}

	results, err := result.Load(path)
	if err != nil {
		return err
	}
	logger.Info("Scoring results", "path", path, "results", len(results))

	tasks, err := task.LoadDir(cfg.TasksDir, logger)
	if err != nil {
		logger.Warn("Scoring without task definitions", "tasks_dir", cfg.TasksDir, "error", err.Error())
	}

	metrics := telemetry.New()
	var j judge.Judge
	if cfg.Judge.Enabled && !flagNoJudge {
		j = judge.NewOpenAIJudge(judge.Options{
			Model:   cfg.Judge.Model,
			BaseURL: cfg.Judge.BaseURL,
			APIKey:  cfg.Judge.APIKey,
			Samples: cfg.Judge.Samples,
			Metrics: metrics,
		}, logger)
	}

	comparison := scoring.New(j, logger, cfg.Judge.BatchSize).Compare(cmd.Context(), results, task.ByName(tasks))
	saved, err := result.SaveComparison(cfg.ResultsDir, comparison, time.Now())
	if err != nil {
		return err
	}
	if err := report.Generate(comparison, flagFormat, cmd.OutOrStdout()); err != nil {
		return err
	}
	if flagFormat != "json" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nComparison saved to %s\n", saved)
	}
	if cfg.MetricsFile != "" && j != nil {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("Failed to write metrics file", "path", cfg.MetricsFile, "error", err.Error())
		}
	}
	return nil
}

// resolveResults validates a user supplied results path, or picks the latest
// eval file when none is given.
func resolveResults(resultsDir, userPath string) (string, error) {
	if userPath == "" {
		return result.Latest(resultsDir)
	}
	return result.ResolveResultsPath(resultsDir, userPath)
}
