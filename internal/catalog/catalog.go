package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/prime3679/bishop-bench/internal/pricing"
)

// Provider identifies the vendor API a model is served from.
type Provider string

const (
	Anthropic Provider = "anthropic"
	OpenAI    Provider = "openai"
)

type ModelConfig struct {
	ID       string          `json:"id" yaml:"id" validate:"required"`
	Name     string          `json:"name" yaml:"name" validate:"required"`
	Provider Provider        `json:"provider" yaml:"provider" validate:"required"`
	Pricing  pricing.Pricing `json:"pricing" yaml:"pricing"`
}

// Catalog is the set of models a benchmark can target, keyed by model id.
type Catalog struct {
	models map[string]ModelConfig
}

func defaults() []ModelConfig {
	return []ModelConfig{
		{ID: "claude-3-5-haiku-latest", Name: "Claude Haiku", Provider: Anthropic, Pricing: pricing.Pricing{Input: 0.8, Output: 4}},
		{ID: "claude-sonnet-4-5", Name: "Claude Sonnet 4.5", Provider: Anthropic, Pricing: pricing.Pricing{Input: 3, Output: 15}},
		{ID: "claude-opus-4-1", Name: "Claude Opus 4.1", Provider: Anthropic, Pricing: pricing.Pricing{Input: 15, Output: 75}},
		{ID: "gpt-5.2-codex", Name: "GPT-5.2 Codex", Provider: OpenAI, Pricing: pricing.Pricing{Input: 1.25, Output: 10}},
		{ID: "gpt-5-mini", Name: "GPT-5 Mini", Provider: OpenAI, Pricing: pricing.Pricing{Input: 0.25, Output: 2}},
	}
}

// Default returns the built-in model catalog.
func Default() *Catalog {
	c := &Catalog{models: map[string]ModelConfig{}}
	for _, m := range defaults() {
		c.models[m.ID] = m
	}
	return c
}

type catalogFile struct {
	Models []ModelConfig `yaml:"models" validate:"dive"`
}

// Load returns the built-in catalog with entries from path added or replaced.
// An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model catalog %s: %w", path, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing model catalog %s: %w", path, err)
	}
	if err := validator.New().Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid model catalog %s: %w", path, err)
	}
	for _, m := range f.Models {
		c.models[m.ID] = m
	}
	return c, nil
}

func (c *Catalog) Get(id string) (ModelConfig, bool) {
	m, ok := c.models[id]
	return m, ok
}

// IDs returns every model id in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.models))
	for id := range c.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Select resolves the requested ids against the catalog, keeping request order.
// Unknown ids are logged and skipped. No ids selects the whole catalog.
func (c *Catalog) Select(ids []string, logger *slog.Logger) []ModelConfig {
	if len(ids) == 0 {
		ids = c.IDs()
	}
	var selected []ModelConfig
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		m, ok := c.models[id]
		if !ok {
			logger.Warn("Unknown model, skipping", "model_id", id)
			continue
		}
		selected = append(selected, m)
	}
	return selected
}
