package scoring_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prime3679/bishop-bench/internal/judge"
	"github.com/prime3679/bishop-bench/internal/logging"
	"github.com/prime3679/bishop-bench/internal/result"
	"github.com/prime3679/bishop-bench/internal/scoring"
	"github.com/prime3679/bishop-bench/internal/task"
)

func errPtr(s string) *string { return &s }

func completed(taskName, model string, latency int64, out int, cost float64) *result.Result {
	return &result.Result{
		TaskName: taskName, ModelID: model, Output: "answer", Completed: true,
		LatencyMs: latency, OutputTokens: out, TotalTokens: out, CostUSD: cost, ToolsCalled: []string{},
	}
}

func TestDeterministic(t *testing.T) {
	r := completed("t", "m", 2000, 100, 0.5)
	r.ToolsCalled = []string{"search", "calc", "search", "fetch"}
	r.ToolsSuccessful = 3
	v := scoring.Deterministic(r)

	assert.Equal(t, 1.0, v[scoring.CompletionRate])
	assert.Equal(t, 0.0, v[scoring.ErrorRate])
	assert.Equal(t, 0.0, v[scoring.TimeoutRate])
	assert.Equal(t, 0.75, v[scoring.ToolSuccessRate])
	assert.Equal(t, 2000.0, v[scoring.LatencyMs])
	assert.Equal(t, 50.0, v[scoring.TokensPerSecond])
	assert.InDelta(t, 0.005, v[scoring.CostPerToken], 1e-12)
	assert.Equal(t, 0.5, v[scoring.QualityScore])
	assert.Equal(t, 0.0, v[scoring.AccuracyScore])
	assert.Equal(t, 0.0, v[scoring.HallucinationScore])
	assert.Len(t, v, 11)
}

func TestDeterministicGuards(t *testing.T) {
	r := &result.Result{TaskName: "t", ModelID: "m", Error: errPtr("Request timed out after 10ms"), TimeoutExceeded: true, OutputTokens: 0, LatencyMs: 0}
	v := scoring.Deterministic(r)
	assert.Equal(t, 0.0, v[scoring.TokensPerSecond])
	assert.Equal(t, 0.0, v[scoring.CostPerToken])
	assert.Equal(t, 0.0, v[scoring.ToolSuccessRate])
	assert.Equal(t, 1.0, v[scoring.ErrorRate])
	assert.Equal(t, 1.0, v[scoring.TimeoutRate])
	assert.Equal(t, 0.0, v[scoring.CompletionRate])
	for k, x := range v {
		assert.False(t, math.IsNaN(x) || math.IsInf(x, 0), "%s not finite", k)
	}
}

func TestAggregate(t *testing.T) {
	assert.Equal(t, scoring.AggregatedMetrics{}, scoring.Aggregate(nil))

	got := scoring.Aggregate([]scoring.MetricVector{{"a": 10}, {"a": 20}, {"a": 30}})
	assert.Equal(t, scoring.AggregatedMetrics{"a_avg": 20, "a_min": 10, "a_max": 30}, got)

	got = scoring.Aggregate([]scoring.MetricVector{{"a": 10}, {"a": math.NaN()}, {"a": 30}})
	assert.Equal(t, 20.0, got["a_avg"])

	got = scoring.Aggregate([]scoring.MetricVector{{"a": 10}, {"a": 20, "b": 30}})
	assert.NotContains(t, got, "b_avg")
	assert.NotContains(t, got, "b_min")
	assert.Equal(t, 15.0, got["a_avg"])

	got = scoring.Aggregate([]scoring.MetricVector{{"a": math.NaN(), "c": 1}, {"c": 3}})
	assert.NotContains(t, got, "a_avg")
	assert.Equal(t, 2.0, got["c_avg"])
}

func TestCompareGroupsAndFilters(t *testing.T) {
	results := []*result.Result{
		completed("t1", "mA", 100, 10, 0.1),
		completed("t1", "mA", 200, 10, 0.3),
		{TaskName: "t2", ModelID: "mB", Error: errPtr("Missing OPENAI_API_KEY"), ToolsCalled: []string{}},
		{TaskName: "t3", ModelID: "mC"},
		{TaskName: "pending", ModelID: "mD", Error: errPtr("")},
	}
	s := scoring.New(nil, logging.Discard(), 0)
	c := s.Compare(context.Background(), results, nil)

	assert.Len(t, c.Detailed, 5)
	assert.Contains(t, c.ByTask, "t1")
	assert.Contains(t, c.ByTask, "t2")
	assert.NotContains(t, c.ByTask, "t3")
	assert.NotContains(t, c.ByTask, "pending")
	assert.NotContains(t, c.ByModel, "mC")
	assert.NotContains(t, c.ByModel, "mD")
	assert.Equal(t, []string{"t1", "t2"}, c.TaskOrder)
	assert.Equal(t, []string{"mA", "mB"}, c.ModelOrder)

	assert.Equal(t, 150.0, c.ByModel["mA"]["latency_ms_avg"])
	assert.Equal(t, 100.0, c.ByModel["mA"]["latency_ms_min"])
	assert.Equal(t, 200.0, c.ByModel["mA"]["latency_ms_max"])
	assert.Equal(t, 150.0, c.ByTask["t1"]["latency_ms_avg"])
	assert.Equal(t, 100.0, c.ByTask["t1"]["latency_ms_min"])
	assert.Equal(t, 200.0, c.ByTask["t1"]["latency_ms_max"])
	assert.Equal(t, 1.0, c.ByModel["mA"]["completion_rate_avg"])
	assert.Equal(t, 0.0, c.ByModel["mB"]["completion_rate_avg"])
	assert.InDelta(t, 2.0/3.0, c.Summary["completion_rate_avg"], 1e-9)
	assert.InDelta(t, 1.0/3.0, c.Summary["error_rate_avg"], 1e-9)
}

func TestDeterministicEmptyError(t *testing.T) {
	tests := []struct {
		name string
		err  *string
		want float64
	}{
		{"nil error", nil, 0},
		{"empty error", errPtr(""), 0},
		{"error message", errPtr("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := scoring.Deterministic(&result.Result{Error: tt.err})
			assert.Equal(t, tt.want, v[scoring.ErrorRate])
		})
	}
}

func TestCompareEmpty(t *testing.T) {
	s := scoring.New(nil, logging.Discard(), 5)
	c := s.Compare(context.Background(), nil, nil)
	assert.Empty(t, c.Summary)
	assert.Empty(t, c.ByTask)
	assert.NotNil(t, c.Detailed)
}

type fakeJudge struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	fail     map[judge.Dimension]bool
	scores   map[judge.Dimension]float64
	delay    time.Duration
}

func (f *fakeJudge) Evaluate(ctx context.Context, req judge.Request) (judge.Verdict, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[req.Dimension] {
		return judge.Verdict{}, errors.New("judge down")
	}
	return judge.Verdict{Score: f.scores[req.Dimension]}, nil
}

func TestScoreWithJudge(t *testing.T) {
	j := &fakeJudge{
		scores: map[judge.Dimension]float64{judge.Quality: 0.9, judge.Accuracy: 0.8, judge.Hallucination: 0.1},
		fail:   map[judge.Dimension]bool{judge.Accuracy: true},
	}
	s := scoring.New(j, logging.Discard(), 5)
	tk := task.Task{Name: "t", Prompt: "p"}
	v := s.Score(context.Background(), completed("t", "m", 100, 1, 0), &tk)

	assert.Equal(t, int32(3), j.calls.Load())
	assert.Equal(t, 0.9, v[scoring.QualityScore])
	assert.Equal(t, 0.0, v[scoring.AccuracyScore], "failed dimension keeps its default")
	assert.Equal(t, 0.1, v[scoring.HallucinationScore])
}

func TestScoreSkipsJudge(t *testing.T) {
	j := &fakeJudge{}
	s := scoring.New(j, logging.Discard(), 5)
	tk := task.Task{Name: "t"}

	empty := completed("t", "m", 1, 1, 0)
	empty.Output = ""
	v := s.Score(context.Background(), empty, &tk)
	assert.Equal(t, 0.5, v[scoring.QualityScore])

	s.Score(context.Background(), completed("t", "m", 1, 1, 0), nil)
	assert.Zero(t, j.calls.Load())
}

func TestCompareBatchesJudgeCalls(t *testing.T) {
	j := &fakeJudge{scores: map[judge.Dimension]float64{judge.Quality: 1}, delay: 5 * time.Millisecond}
	s := scoring.New(j, logging.Discard(), 5)

	var results []*result.Result
	for i := 0; i < 12; i++ {
		results = append(results, completed("t", "m", 100, 10, 0.01))
	}
	c := s.Compare(context.Background(), results, map[string]task.Task{"t": {Name: "t", Prompt: "p"}})

	assert.Equal(t, int32(36), j.calls.Load(), "each result is judged once per dimension")
	assert.LessOrEqual(t, j.peak.Load(), int32(15), "at most one batch of results in flight")
	require.Contains(t, c.Summary, "quality_score_avg")
	assert.Equal(t, 1.0, c.Summary["quality_score_avg"])
	assert.Equal(t, 1.0, c.ByTask["t"]["quality_score_avg"])
}
