package telemetry_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prime3679/bishop-bench/internal/telemetry"
)

func TestMetrics(t *testing.T) {
	m := telemetry.New()
	m.ObserveRequest("openai", "success", 120*time.Millisecond)
	m.ObserveRequest("openai", "rate_limit", 10*time.Millisecond)
	m.ObserveRequest("anthropic", "success", time.Second)
	m.AddCost("gpt-5.2-codex", 0.25)
	m.AddCost("gpt-5.2-codex", 0)
	m.ObserveJudge("quality", "success")

	count, err := testutil.GatherAndCount(m.Registry(), "bishop_provider_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	path := filepath.Join(t.TempDir(), "bishop.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `bishop_cost_usd_total{model="gpt-5.2-codex"} 0.25`)
	assert.Contains(t, string(data), `bishop_judge_requests_total{dimension="quality",outcome="success"} 1`)
}

func TestNilMetrics(t *testing.T) {
	var m *telemetry.Metrics
	m.ObserveRequest("openai", "success", time.Second)
	m.AddCost("x", 1)
	m.ObserveJudge("quality", "error")
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}
