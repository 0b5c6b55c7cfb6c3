// Package judge asks a model to grade another model's output on one dimension.
package judge

import (
	"context"
	"fmt"
	"strings"

	"github.com/prime3679/bishop-bench/internal/task"
)

type Dimension string

const (
	Quality       Dimension = "quality"
	Accuracy      Dimension = "accuracy"
	Hallucination Dimension = "hallucination"
)

// Dimensions lists every dimension the scorer requests.
var Dimensions = []Dimension{Quality, Accuracy, Hallucination}

type Request struct {
	Dimension Dimension
	Task      task.Task
	Output    string
}

// Verdict is a score in [0,1] with the judge's reasoning.
type Verdict struct {
	Score     float64 `mapstructure:"score" json:"score"`
	Rationale string  `mapstructure:"rationale" json:"rationale"`
}

type Judge interface {
	Evaluate(ctx context.Context, req Request) (Verdict, error)
}

const maxOutputChars = 50_000

var rubrics = map[Dimension]string{
	Quality:       "Rate the overall quality of the response: correctness, completeness, clarity and usefulness. 0 is unusable, 1 is excellent.",
	Accuracy:      "Rate how accurately the response follows the task instructions and satisfies its criteria. 0 ignores the task, 1 fully satisfies it.",
	Hallucination: "Rate how much the response invents facts, APIs or details not supported by the task. 0 means no hallucination, 1 means severe hallucination.",
}

func buildPrompt(req Request) (string, error) {
	rubric, ok := rubrics[req.Dimension]
	if !ok {
		return "", fmt.Errorf("unknown judge dimension %q", req.Dimension)
	}
	output := req.Output
	if len(output) > maxOutputChars {
		output = output[:maxOutputChars] + fmt.Sprintf("\n\n... [output truncated from %d to %d chars] ...", len(req.Output), maxOutputChars)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an impartial evaluator. %s\n\n", rubric)
	fmt.Fprintf(&b, "Task: %s\n", req.Task.Name)
	if req.Task.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", req.Task.Description)
	}
	fmt.Fprintf(&b, "\nPrompt:\n%s\n", req.Task.Prompt)
	if len(req.Task.ScoringCriteria) > 0 {
		b.WriteString("\nScoring criteria:\n")
		for _, c := range req.Task.ScoringCriteria {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	fmt.Fprintf(&b, "\nResponse:\n%s\n\n", output)
	b.WriteString(`Respond with ONLY a JSON object, e.g. {"score": 0.8, "rationale": "..."}`)
	return b.String(), nil
}
