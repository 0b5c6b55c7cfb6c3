package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prime3679/bishop-bench/internal/catalog"
	"github.com/prime3679/bishop-bench/internal/engine"
	"github.com/prime3679/bishop-bench/internal/result"
	"github.com/prime3679/bishop-bench/internal/task"
)

// Executor runs one task against one model.
type Executor interface {
	Execute(ctx context.Context, t task.Task, model catalog.ModelConfig, opts engine.Options) *result.Result
}

type Plan struct {
	Tasks  []task.Task
	Models []catalog.ModelConfig
	Runs   int
	// Parallel > 1 runs cells concurrently; results keep matrix order.
	Parallel int
	DryRun   bool
	Timeout  time.Duration
}

// Run is one pass over a plan.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []*result.Result
}

type Runner struct {
	exec   Executor
	logger *slog.Logger

	mu       sync.Mutex // guards progress
	progress io.Writer
}

func New(exec Executor, logger *slog.Logger, progress io.Writer) *Runner {
	if progress == nil {
		progress = io.Discard
	}
	return &Runner{exec: exec, logger: logger, progress: progress}
}

type cell struct {
	task  task.Task
	model catalog.ModelConfig
	run   int
}

func (p Plan) cells() []cell {
	runs := p.Runs
	if runs < 1 {
		runs = 1
	}
	var cells []cell
	for _, t := range p.Tasks {
		for _, m := range p.Models {
			for i := 1; i <= runs; i++ {
				cells = append(cells, cell{task: t, model: m, run: i})
			}
		}
	}
	return cells
}

func (r *Runner) Run(ctx context.Context, plan Plan) *Run {
	run := &Run{ID: uuid.NewString(), StartedAt: time.Now().UTC()}
	cells := plan.cells()
	runs := max(plan.Runs, 1)
	results := make([]*result.Result, len(cells))

	r.logger.Info("Starting run", "run_id", run.ID, "tasks", len(plan.Tasks), "models", len(plan.Models), "runs", runs, "parallel", plan.Parallel)

	if plan.Parallel > 1 {
		jobs := make([]Job, len(cells))
		for i, c := range cells {
			jobs[i] = func(ctx context.Context) error {
				results[i] = r.execute(ctx, c, plan, runs)
				if !results[i].Completed {
					return fmt.Errorf("%s × %s (run %d): %s", c.model.ID, c.task.Name, c.run, results[i].ErrorMessage())
				}
				return nil
			}
		}
		for i, err := range RunPool(ctx, plan.Parallel, jobs) {
			if err == nil {
				continue
			}
			r.logger.Debug("Cell failed", "error", err.Error())
			if results[i] == nil {
				results[i] = degenerate(cells[i], err.Error())
			}
		}
	} else {
		for i, c := range cells {
			results[i] = r.execute(ctx, c, plan, runs)
		}
	}

	run.Results = results
	run.FinishedAt = time.Now().UTC()
	return run
}

// execute runs one cell. A panic becomes a failed result for that cell only.
func (r *Runner) execute(ctx context.Context, c cell, plan Plan, runs int) (res *result.Result) {
	r.printf("Running %s × %s (run %d/%d)...\n", c.model.Name, c.task.Name, c.run, runs)
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Execution panicked", "task", c.task.Name, "model_id", c.model.ID, "panic", fmt.Sprint(p))
			res = degenerate(c, fmt.Sprint(p))
		}
		if res == nil {
			res = degenerate(c, "no result produced")
		}
		if res.Completed {
			r.printf("  ok (%dms, %d tokens, $%.6f)\n", res.LatencyMs, res.TotalTokens, res.CostUSD)
		} else {
			r.printf("  ERROR: %s\n", res.ErrorMessage())
		}
	}()
	return r.exec.Execute(ctx, c.task, c.model, engine.Options{
		DryRun:   plan.DryRun,
		RunIndex: c.run,
		Timeout:  plan.Timeout,
	})
}

// printf writes one progress line; parallel cells share the writer.
func (r *Runner) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.progress, format, args...)
}

// degenerate is the result recorded for a cell that produced none.
func degenerate(c cell, msg string) *result.Result {
	res := &result.Result{
		TaskName:             c.task.Name,
		ModelID:              c.model.ID,
		ModelName:            c.model.Name,
		RunIndex:             c.run,
		Timestamp:            time.Now().UTC().Format(time.RFC3339Nano),
		Prompt:               c.task.Prompt,
		ExpectedCapabilities: []string{},
		ToolsCalled:          []string{},
	}
	if msg == "" {
		msg = "unknown error"
	}
	res.Fail(msg)
	return res
}

// Summary counts completed and failed results and sums their cost.
func (run *Run) Summary() (completed, failed int, costUSD float64) {
	for _, res := range run.Results {
		if res.Completed {
			completed++
		} else {
			failed++
		}
		costUSD += res.CostUSD
	}
	return completed, failed, costUSD
}
