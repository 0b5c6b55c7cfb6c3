// Package scoring turns results into metric vectors and grouped summaries.
package scoring

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/prime3679/bishop-bench/internal/judge"
	"github.com/prime3679/bishop-bench/internal/result"
	"github.com/prime3679/bishop-bench/internal/task"
)

// MetricVector maps metric names to values for a single result.
type MetricVector map[string]float64

const (
	CompletionRate     = "completion_rate"
	ErrorRate          = "error_rate"
	TimeoutRate        = "timeout_rate"
	ToolSuccessRate    = "tool_success_rate"
	LatencyMs          = "latency_ms"
	CostUSD            = "cost_usd"
	TokensPerSecond    = "tokens_per_second"
	CostPerToken       = "cost_per_token"
	QualityScore       = "quality_score"
	HallucinationScore = "hallucination_score"
	AccuracyScore      = "accuracy_score"
)

const (
	defaultQuality       = 0.5
	defaultAccuracy      = 0.0
	defaultHallucination = 0.0
	DefaultBatchSize     = 5
)

var dimensionKeys = map[judge.Dimension]string{
	judge.Quality:       QualityScore,
	judge.Accuracy:      AccuracyScore,
	judge.Hallucination: HallucinationScore,
}

type Scorer struct {
	judge     judge.Judge
	logger    *slog.Logger
	batchSize int
}

// New returns a scorer. A nil judge keeps the default judged scores.
func New(j judge.Judge, logger *slog.Logger, batchSize int) *Scorer {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Scorer{judge: j, logger: logger, batchSize: batchSize}
}

// Deterministic computes the metrics derivable from r alone, with judged
// scores at their defaults.
func Deterministic(r *result.Result) MetricVector {
	v := MetricVector{
		CompletionRate:     boolRate(r.Completed),
		ErrorRate:          boolRate(r.HasError()),
		TimeoutRate:        boolRate(r.TimeoutExceeded),
		ToolSuccessRate:    0,
		LatencyMs:          float64(max(r.LatencyMs, 0)),
		CostUSD:            r.CostUSD,
		TokensPerSecond:    0,
		CostPerToken:       0,
		QualityScore:       defaultQuality,
		HallucinationScore: defaultHallucination,
		AccuracyScore:      defaultAccuracy,
	}
	if n := len(r.ToolsCalled); n > 0 {
		v[ToolSuccessRate] = float64(r.ToolsSuccessful) / float64(n)
	}
	if r.LatencyMs > 0 {
		v[TokensPerSecond] = float64(r.OutputTokens) / (float64(r.LatencyMs) / 1000)
	}
	if r.OutputTokens > 0 {
		v[CostPerToken] = r.CostUSD / float64(r.OutputTokens)
	}
	return v
}

func boolRate(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Score computes the metric vector for r. With a judge, a task and non-empty
// output, the judged dimensions are requested concurrently; a failed
// dimension keeps its default.
func (s *Scorer) Score(ctx context.Context, r *result.Result, t *task.Task) MetricVector {
	v := Deterministic(r)
	if s.judge == nil || t == nil || r.Output == "" {
		return v
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, dim := range judge.Dimensions {
		g.Go(func() error {
			verdict, err := s.judge.Evaluate(ctx, judge.Request{Dimension: dim, Task: *t, Output: r.Output})
			if err != nil {
				s.logger.Warn("Judge evaluation failed",
					"dimension", string(dim), "task", r.TaskName, "model_id", r.ModelID, "error", err.Error())
				return nil
			}
			mu.Lock()
			v[dimensionKeys[dim]] = verdict.Score
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return v
}
