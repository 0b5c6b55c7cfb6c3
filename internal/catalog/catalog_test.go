package catalog_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prime3679/bishop-bench/internal/catalog"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultCatalog(t *testing.T) {
	c := catalog.Default()
	m, ok := c.Get("claude-3-5-haiku-latest")
	require.True(t, ok)
	assert.Equal(t, catalog.Anthropic, m.Provider)
	assert.Greater(t, m.Pricing.Output, m.Pricing.Input)

	m, ok = c.Get("gpt-5.2-codex")
	require.True(t, ok)
	assert.Equal(t, catalog.OpenAI, m.Provider)
}

func TestSelectSkipsUnknown(t *testing.T) {
	c := catalog.Default()
	got := c.Select([]string{"gpt-5.2-codex", "no-such-model", "claude-3-5-haiku-latest", "gpt-5.2-codex"}, discard())
	require.Len(t, got, 2)
	assert.Equal(t, "gpt-5.2-codex", got[0].ID)
	assert.Equal(t, "claude-3-5-haiku-latest", got[1].ID)
}

func TestSelectAll(t *testing.T) {
	c := catalog.Default()
	got := c.Select(nil, discard())
	assert.Len(t, got, len(c.IDs()))
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	content := `models:
  - id: gpt-5.2-codex
    name: Codex Override
    provider: openai
    pricing:
      input: 2
      output: 8
  - id: local-model
    name: Local
    provider: openai
    pricing:
      input: 0
      output: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := catalog.Load(path)
	require.NoError(t, err)

	m, ok := c.Get("gpt-5.2-codex")
	require.True(t, ok)
	assert.Equal(t, "Codex Override", m.Name)
	assert.Equal(t, 8.0, m.Pricing.Output)

	_, ok = c.Get("local-model")
	assert.True(t, ok)
	_, ok = c.Get("claude-3-5-haiku-latest")
	assert.True(t, ok, "built-in entries survive an override file")
}

func TestLoadRejectsIncompleteEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models:\n  - id: x\n"), 0o644))

	_, err := catalog.Load(path)
	assert.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := catalog.Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, c.IDs())
}
