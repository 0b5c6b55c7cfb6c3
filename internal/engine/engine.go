// Package engine runs a single task against a single model and records the
// outcome as a result.Result. Execute never returns an error; every failure
// is folded into the result.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/prime3679/bishop-bench/internal/catalog"
	"github.com/prime3679/bishop-bench/internal/pricing"
	"github.com/prime3679/bishop-bench/internal/provider"
	"github.com/prime3679/bishop-bench/internal/result"
	"github.com/prime3679/bishop-bench/internal/task"
	"github.com/prime3679/bishop-bench/internal/telemetry"
)

const DefaultTimeout = 120 * time.Second

// unknownError stands in for errors with empty text so a failed result always
// carries a message.
const unknownError = "unknown error"

type Options struct {
	DryRun   bool
	RunIndex int
	Timeout  time.Duration
}

type Engine struct {
	providers map[catalog.Provider]provider.Provider
	limiters  map[catalog.Provider]*rate.Limiter
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

type Option func(*Engine)

// WithRateLimit paces requests to each provider at rps requests per second.
// Zero or negative disables pacing.
func WithRateLimit(rps float64) Option {
	return func(e *Engine) {
		if rps <= 0 {
			return
		}
		for kind := range e.providers {
			e.limiters[kind] = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func New(providers []provider.Provider, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		providers: make(map[catalog.Provider]provider.Provider, len(providers)),
		limiters:  map[catalog.Provider]*rate.Limiter{},
		logger:    logger,
	}
	for _, p := range providers {
		e.providers[p.Kind()] = p
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Execute(ctx context.Context, t task.Task, model catalog.ModelConfig, opts Options) *result.Result {
	start := time.Now()
	r := &result.Result{
		TaskName:             t.Name,
		ModelID:              model.ID,
		ModelName:            model.Name,
		RunIndex:             opts.RunIndex,
		Timestamp:            start.UTC().Format(time.RFC3339Nano),
		Prompt:               t.Prompt,
		ExpectedCapabilities: nonNil(t.ExpectedCapabilities),
		ToolsCalled:          []string{},
	}
	defer func() {
		r.LatencyMs = time.Since(start).Milliseconds()
		r.TotalTokens = r.InputTokens + r.OutputTokens
	}()

	if opts.DryRun {
		r.Output = fmt.Sprintf("[DRY RUN] Would execute %s on %s", t.Name, model.Name)
		r.Completed = true
		return r
	}

	p, ok := e.providers[model.Provider]
	if !ok {
		e.fail(r, model, fmt.Errorf("%w: %s", ErrUnsupportedProvider, model.Provider), 0)
		return r
	}
	if !p.Ready() {
		e.fail(r, model, fmt.Errorf("%w: Missing %s", provider.ErrMissingCredential, p.CredentialEnv()), 0)
		return r
	}
	if lim := e.limiters[model.Provider]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			e.fail(r, model, err, 0)
			return r
		}
		start = time.Now()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c, err := completeWithin(ctx, p, model.ID, t.Prompt, timeout)
	if err != nil {
		e.fail(r, model, err, time.Since(start))
		return r
	}

	r.Output = c.Text
	r.InputTokens = c.InputTokens
	r.OutputTokens = c.OutputTokens
	r.CostUSD = pricing.Cost(c.InputTokens, c.OutputTokens, model.Pricing)
	r.Completed = true
	e.metrics.ObserveRequest(string(model.Provider), "success", time.Since(start))
	e.metrics.AddCost(model.ID, r.CostUSD)
	return r
}

func (e *Engine) fail(r *result.Result, model catalog.ModelConfig, err error, elapsed time.Duration) {
	kind, msg := Classify(err)
	if msg == "" {
		msg = unknownError
	}
	r.Fail(msg)
	r.TimeoutExceeded = kind == KindTimeout
	e.logger.Warn("Execution failed",
		"task", r.TaskName, "model_id", model.ID, "run", r.RunIndex,
		"kind", string(kind), "error", msg)
	if elapsed > 0 {
		e.metrics.ObserveRequest(string(model.Provider), string(kind), elapsed)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
