package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prime3679/bishop-bench/internal/history"
	"github.com/prime3679/bishop-bench/internal/logging"
	"github.com/prime3679/bishop-bench/internal/result"
	"github.com/prime3679/bishop-bench/internal/runner"
)

func errPtr(s string) *string { return &s }

func TestRecordAndList(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), logging.Discard())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	results := []*result.Result{
		{TaskName: "t1", ModelID: "m1", RunIndex: 1, Output: "hi", Completed: true, TotalTokens: 12, CostUSD: 0.01},
		{TaskName: "t1", ModelID: "m2", RunIndex: 1, Error: errPtr("Missing OPENAI_API_KEY")},
	}
	require.NoError(t, store.RecordRun(ctx, &runner.Run{
		ID: "run-old", StartedAt: base, FinishedAt: base.Add(time.Minute), Results: results,
	}, "results/eval-a.json"))
	require.NoError(t, store.RecordRun(ctx, &runner.Run{
		ID: "run-new", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(2 * time.Hour),
	}, "results/eval-b.json"))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-old", runs[1].ID)
	assert.Equal(t, 1, runs[1].Completed)
	assert.Equal(t, 1, runs[1].Failed)
	assert.InDelta(t, 0.01, runs[1].CostUSD, 1e-9)
	assert.Equal(t, "results/eval-a.json", runs[1].Artifact)
	assert.True(t, runs[1].StartedAt.Equal(base))

	got, err := store.Results(ctx, "run-old")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "hi", got[0].Output)
	assert.Equal(t, "Missing OPENAI_API_KEY", got[1].ErrorMessage())
}

func TestListRunsOrdersSubsecondStarts(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), logging.Discard())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 10, 0, 5, 0, time.UTC)
	starts := map[string]time.Time{
		"run-a": base.Add(100 * time.Millisecond),
		"run-b": base.Add(120 * time.Millisecond),
		"run-c": base,
	}
	for id, at := range starts {
		require.NoError(t, store.RecordRun(ctx, &runner.Run{ID: id, StartedAt: at, FinishedAt: at}, id+".json"))
	}

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-b", runs[0].ID)
	assert.Equal(t, "run-a", runs[1].ID)
	assert.Equal(t, "run-c", runs[2].ID)
	assert.True(t, runs[0].StartedAt.Equal(starts["run-b"]))
}

func TestRecordDuplicateRunFails(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), logging.Discard())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	run := &runner.Run{ID: "dup", StartedAt: time.Now(), FinishedAt: time.Now()}
	require.NoError(t, store.RecordRun(ctx, run, "a.json"))
	assert.Error(t, store.RecordRun(ctx, run, "a.json"))
}
