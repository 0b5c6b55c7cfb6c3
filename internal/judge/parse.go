package judge

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ParseJudgeResponse extracts a Verdict from model output that may wrap the
// JSON object in markdown fences or surrounding prose.
func ParseJudgeResponse(content string) (Verdict, error) {
	var v Verdict
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end < start {
		return v, fmt.Errorf("no JSON object in judge response")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return v, fmt.Errorf("parsing judge response: %w", err)
	}
	if _, ok := raw["score"]; !ok {
		return v, fmt.Errorf("judge response has no score")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &v,
	})
	if err != nil {
		return v, err
	}
	if err := dec.Decode(raw); err != nil {
		return v, fmt.Errorf("decoding judge response: %w", err)
	}
	v.Score = clamp(v.Score)
	return v, nil
}

func clamp(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}

// MedianScore returns the median of scores, or 0 for none.
func MedianScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
