package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/prime3679/bishop-bench/internal/scoring"
)

// ModelSummary is one row of the model performance table.
type ModelSummary struct {
	Model           string  `json:"model"`
	SuccessRate     float64 `json:"success_rate"`
	AvgCostUSD      float64 `json:"avg_cost_usd"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
	TokensPerSecond float64 `json:"tokens_per_second"`
	QualityScore    float64 `json:"quality_score"`
}

// TaskSummary is one row of the task difficulty table.
type TaskSummary struct {
	Task        string  `json:"task"`
	SuccessRate float64 `json:"success_rate"`
	AvgCostUSD  float64 `json:"avg_cost_usd"`
}

var ErrUnknownFormat = errors.New("unknown report format")

// CheckFormat accepts table, markdown, json and "" (table).
func CheckFormat(format string) error {
	switch format {
	case "", "table", "markdown", "json":
		return nil
	}
	return fmt.Errorf("%w %q (want table, markdown or json)", ErrUnknownFormat, format)
}

// Generate renders c in the given format: table (default), markdown or json.
func Generate(c *scoring.Comparison, format string, w io.Writer) error {
	if err := CheckFormat(format); err != nil {
		return err
	}
	models, tasks := summarize(c)
	switch format {
	case "markdown":
		return writeMarkdown(models, tasks, w)
	case "json":
		return writeJSON(c, w)
	default:
		return writeTable(models, tasks, w)
	}
}

// ReadComparison loads a comparison file written by the score command.
func ReadComparison(path string) (*scoring.Comparison, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading comparison: %w", err)
	}
	var c scoring.Comparison
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing comparison %s: %w", path, err)
	}
	return &c, nil
}

func summarize(c *scoring.Comparison) ([]ModelSummary, []TaskSummary) {
	var models []ModelSummary
	for _, id := range orderedKeys(c.ByModel, c.ModelOrder) {
		m := c.ByModel[id]
		models = append(models, ModelSummary{
			Model:           id,
			SuccessRate:     m["completion_rate_avg"],
			AvgCostUSD:      m["cost_usd_avg"],
			AvgLatencyMs:    m["latency_ms_avg"],
			TokensPerSecond: m["tokens_per_second_avg"],
			QualityScore:    m["quality_score_avg"],
		})
	}
	var tasks []TaskSummary
	for _, name := range orderedKeys(c.ByTask, c.TaskOrder) {
		m := c.ByTask[name]
		tasks = append(tasks, TaskSummary{
			Task:        name,
			SuccessRate: m["completion_rate_avg"],
			AvgCostUSD:  m["cost_usd_avg"],
		})
	}
	return models, tasks
}

// orderedKeys returns order when it covers groups, otherwise the sorted keys.
func orderedKeys(groups map[string]scoring.AggregatedMetrics, order []string) []string {
	if len(order) == len(groups) {
		return order
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cell(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, ""), width)
}

func writeTable(models []ModelSummary, tasks []TaskSummary, w io.Writer) error {
	title := color.New(color.Bold, color.FgCyan)
	heading := color.New(color.Bold)

	fmt.Fprintln(w)
	title.Fprintln(w, "BISHOP BENCHMARK RESULTS")
	fmt.Fprintln(w, strings.Repeat("=", 51))
	fmt.Fprintln(w)

	heading.Fprintln(w, "MODEL PERFORMANCE SUMMARY")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "%s %8s %8s %10s %8s\n", cell("Model", 25), "Success%", "AvgCost", "AvgLatency", "Tokens/s")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, m := range models {
		fmt.Fprintf(w, "%s %7.1f%% $%7.4f %8.0fms %8.1f\n",
			cell(m.Model, 25), m.SuccessRate*100, m.AvgCostUSD, m.AvgLatencyMs, m.TokensPerSecond)
	}
	fmt.Fprintln(w)

	heading.Fprintln(w, "TASK DIFFICULTY ANALYSIS")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "%s %12s %12s\n", cell("Task", 20), "Avg Success%", "Avg Cost")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, t := range tasks {
		fmt.Fprintf(w, "%s %11.1f%% $%10.4f\n", cell(t.Task, 20), t.SuccessRate*100, t.AvgCostUSD)
	}
	return nil
}

func writeMarkdown(models []ModelSummary, tasks []TaskSummary, w io.Writer) error {
	fmt.Fprintln(w, "## Model performance")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Model | Success | Avg Cost | Avg Latency | Tokens/s | Quality |")
	fmt.Fprintln(w, "|---|---|---|---|---|---|")
	for _, m := range models {
		fmt.Fprintf(w, "| %s | %.1f%% | $%.4f | %.0fms | %.1f | %.2f |\n",
			m.Model, m.SuccessRate*100, m.AvgCostUSD, m.AvgLatencyMs, m.TokensPerSecond, m.QualityScore)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "## Task difficulty")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Task | Avg Success | Avg Cost |")
	fmt.Fprintln(w, "|---|---|---|")
	for _, t := range tasks {
		fmt.Fprintf(w, "| %s | %.1f%% | $%.4f |\n", t.Task, t.SuccessRate*100, t.AvgCostUSD)
	}
	return nil
}

func writeJSON(c *scoring.Comparison, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
