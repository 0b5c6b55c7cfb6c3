package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const stampLayout = "2006-01-02T15-04-05.000Z"

var (
	ErrNoResults   = errors.New("no evaluation results found")
	ErrInvalidPath = errors.New("invalid results file path")
)

// Stamp formats t for use in artifact file names.
func Stamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}

// Save writes results to <dir>/eval-<stamp>.json and returns the path.
func Save(dir string, results []*Result, at time.Time) (string, error) {
	if results == nil {
		results = []*Result{}
	}
	return writeArtifact(dir, "eval-"+Stamp(at)+".json", results)
}

// SaveComparison writes v to <dir>/comparison-<stamp>.json and returns the path.
func SaveComparison(dir string, v any, at time.Time) (string, error) {
	return writeArtifact(dir, "comparison-"+Stamp(at)+".json", v)
}

func writeArtifact(dir, name string, v any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling %s: %w", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return path, nil
}

func Load(path string) ([]*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	var results []*Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parsing results %s: %w", path, err)
	}
	return results, nil
}

// Latest returns the lexicographically greatest eval-*.json file in dir.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoResults
		}
		return "", fmt.Errorf("reading results dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "eval-") && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", ErrNoResults
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

// ResolveResultsPath resolves a user-supplied results file against the working
// directory and checks that it lies inside resultsDir. Absolute paths are
// accepted when they point inside resultsDir.
func ResolveResultsPath(resultsDir, userPath string) (string, error) {
	if strings.TrimSpace(userPath) == "" {
		return "", ErrInvalidPath
	}
	root, err := canonical(resultsDir)
	if err != nil {
		return "", fmt.Errorf("resolving results dir: %w", err)
	}
	target, err := canonical(userPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, userPath)
	}
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, userPath)
	}
	return target, nil
}

// canonical makes p absolute and resolves symlinks in its existing prefix.
func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	dir, base := filepath.Split(abs)
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return filepath.Join(resolved, base), nil
	}
	return filepath.Clean(abs), nil
}
