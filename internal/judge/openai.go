package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prime3679/bishop-bench/internal/telemetry"
)

type Options struct {
	Model   string
	BaseURL string
	APIKey  string
	// Samples > 1 repeats each evaluation and keeps the median score.
	Samples int
	Client  *http.Client
	Metrics *telemetry.Metrics
}

// OpenAIJudge grades through an OpenAI-compatible chat completions endpoint
// using structured output.
type OpenAIJudge struct {
	opts   Options
	logger *slog.Logger
}

func NewOpenAIJudge(opts Options, logger *slog.Logger) *OpenAIJudge {
	if opts.Samples < 1 {
		opts.Samples = 1
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	return &OpenAIJudge{opts: opts, logger: logger}
}

func (j *OpenAIJudge) Evaluate(ctx context.Context, req Request) (Verdict, error) {
	if j.opts.APIKey == "" {
		j.opts.Metrics.ObserveJudge(string(req.Dimension), "missing_credential")
		return Verdict{}, fmt.Errorf("judge API key not set")
	}
	prompt, err := buildPrompt(req)
	if err != nil {
		return Verdict{}, err
	}

	var verdicts []Verdict
	var lastErr error
	for i := 0; i < j.opts.Samples; i++ {
		v, err := j.call(ctx, prompt)
		if err != nil {
			j.logger.Debug("Judge attempt failed", "dimension", string(req.Dimension), "attempt", i+1, "error", err.Error())
			lastErr = err
			continue
		}
		verdicts = append(verdicts, v)
	}
	if len(verdicts) == 0 {
		j.opts.Metrics.ObserveJudge(string(req.Dimension), "error")
		return Verdict{}, lastErr
	}
	j.opts.Metrics.ObserveJudge(string(req.Dimension), "success")
	return median(verdicts), nil
}

// median returns the verdict whose score is closest to the median score,
// carrying the median as its score.
func median(verdicts []Verdict) Verdict {
	scores := make([]float64, len(verdicts))
	for i, v := range verdicts {
		scores[i] = v.Score
	}
	m := MedianScore(scores)
	best := verdicts[0]
	for _, v := range verdicts[1:] {
		if abs(v.Score-m) < abs(best.Score-m) {
			best = v
		}
	}
	best.Score = m
	return best
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

var verdictSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "judge_verdict",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"score":     map[string]any{"type": "number", "description": "Score between 0 and 1"},
				"rationale": map[string]any{"type": "string"},
			},
			"required":             []string{"score", "rationale"},
			"additionalProperties": false,
		},
	},
}

func (j *OpenAIJudge) call(ctx context.Context, prompt string) (Verdict, error) {
	reqBody := map[string]any{
		"model":       j.opts.Model,
		"temperature": 0,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"response_format": verdictSchema,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Verdict{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.opts.BaseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return Verdict{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+j.opts.APIKey)

	resp, err := j.opts.Client.Do(req)
	if err != nil {
		return Verdict{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Verdict{}, fmt.Errorf("judge API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResult struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chatResult); err != nil {
		return Verdict{}, err
	}
	if len(chatResult.Choices) == 0 {
		return Verdict{}, fmt.Errorf("no choices in judge response")
	}
	return ParseJudgeResponse(chatResult.Choices[0].Message.Content)
}
