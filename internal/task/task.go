package task

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Task struct {
	Name                 string   `json:"name" yaml:"name" validate:"required"`
	Description          string   `json:"description,omitempty" yaml:"description"`
	Prompt               string   `json:"prompt" yaml:"prompt"`
	ExpectedCapabilities []string `json:"expected_capabilities,omitempty" yaml:"expected_capabilities"`
	ScoringCriteria      []string `json:"scoring_criteria,omitempty" yaml:"scoring_criteria"`
	Filename             string   `json:"filename,omitempty" yaml:"-"`
}

var validate = validator.New()

// LoadDir reads every .yaml/.yml file in dir. Files that fail to parse,
// are empty, are not a mapping, or have no name are skipped with a warning.
// Tasks are returned sorted by file name.
func LoadDir(dir string, logger *slog.Logger) ([]Task, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading tasks dir %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var tasks []Task
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		t, err := loadFile(path)
		if err != nil {
			logger.Warn("Skipping task file", "file", e.Name(), "error", err.Error())
			continue
		}
		t.Filename = e.Name()
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func loadFile(path string) (Task, error) {
	var t Task
	data, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return t, fmt.Errorf("parsing yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return t, fmt.Errorf("empty task file")
	}
	if node.Content[0].Kind != yaml.MappingNode {
		return t, fmt.Errorf("task file is not a mapping")
	}
	if err := node.Decode(&t); err != nil {
		return t, fmt.Errorf("decoding task: %w", err)
	}
	if err := validate.Struct(&t); err != nil {
		return t, fmt.Errorf("invalid task: %w", err)
	}
	return t, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// Filter keeps only the task with the given name. An empty name keeps all.
func Filter(tasks []Task, name string) []Task {
	if name == "" {
		return tasks
	}
	var filtered []Task
	for _, t := range tasks {
		if t.Name == name {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// ByName indexes tasks by their name.
func ByName(tasks []Task) map[string]Task {
	m := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		m[t.Name] = t
	}
	return m
}
