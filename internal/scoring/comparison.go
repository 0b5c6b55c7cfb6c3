package scoring

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/prime3679/bishop-bench/internal/result"
	"github.com/prime3679/bishop-bench/internal/task"
)

type Comparison struct {
	Summary  AggregatedMetrics            `json:"summary"`
	ByTask   map[string]AggregatedMetrics `json:"by_task"`
	ByModel  map[string]AggregatedMetrics `json:"by_model"`
	Detailed []*result.Result             `json:"detailed"`
	// TaskOrder and ModelOrder list group keys in first-seen order.
	TaskOrder  []string `json:"-"`
	ModelOrder []string `json:"-"`
}

// included reports whether r took part in the run: it either completed or
// recorded a non-empty error.
func included(r *result.Result) bool {
	return r != nil && (r.Completed || r.HasError())
}

// Compare scores each included result once and aggregates the vectors
// overall, per task and per model. Scoring runs in sequential batches whose
// members are scored concurrently. Tasks supply judge context; results for
// unknown tasks are scored without a judge.
func (s *Scorer) Compare(ctx context.Context, results []*result.Result, tasks map[string]task.Task) *Comparison {
	var scored []*result.Result
	for _, r := range results {
		if included(r) {
			scored = append(scored, r)
		}
	}

	vectors := s.scoreBatches(ctx, scored, tasks)

	c := &Comparison{
		ByTask:   map[string]AggregatedMetrics{},
		ByModel:  map[string]AggregatedMetrics{},
		Detailed: results,
	}
	if c.Detailed == nil {
		c.Detailed = []*result.Result{}
	}
	byTask := map[string][]MetricVector{}
	byModel := map[string][]MetricVector{}
	for i, r := range scored {
		if _, ok := byTask[r.TaskName]; !ok {
			c.TaskOrder = append(c.TaskOrder, r.TaskName)
		}
		if _, ok := byModel[r.ModelID]; !ok {
			c.ModelOrder = append(c.ModelOrder, r.ModelID)
		}
		byTask[r.TaskName] = append(byTask[r.TaskName], vectors[i])
		byModel[r.ModelID] = append(byModel[r.ModelID], vectors[i])
	}
	for name, vs := range byTask {
		c.ByTask[name] = Aggregate(vs)
	}
	for id, vs := range byModel {
		c.ByModel[id] = Aggregate(vs)
	}
	c.Summary = Aggregate(vectors)
	return c
}

// scoreBatches returns one vector per result, indexed like results. Each
// goroutine writes only its own slot.
func (s *Scorer) scoreBatches(ctx context.Context, results []*result.Result, tasks map[string]task.Task) []MetricVector {
	vectors := make([]MetricVector, len(results))
	for start := 0; start < len(results); start += s.batchSize {
		end := min(start+s.batchSize, len(results))
		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				var t *task.Task
				if def, ok := tasks[results[i].TaskName]; ok {
					t = &def
				}
				vectors[i] = s.Score(ctx, results[i], t)
				return nil
			})
		}
		g.Wait()
	}
	return vectors
}
