package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects per-run counters on a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cost     *prometheus.CounterVec
	judge    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bishop_provider_requests_total",
			Help: "Provider requests by outcome.",
		}, []string{"provider", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bishop_provider_request_duration_seconds",
			Help:    "Provider request latency.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"provider"}),
		cost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bishop_cost_usd_total",
			Help: "Accumulated request cost in USD.",
		}, []string{"model"}),
		judge: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bishop_judge_requests_total",
			Help: "Judge requests by dimension and outcome.",
		}, []string{"dimension", "outcome"}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.cost, m.judge)
	return m
}

func (m *Metrics) ObserveRequest(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(provider, outcome).Inc()
	m.duration.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) AddCost(model string, usd float64) {
	if m == nil || usd <= 0 {
		return
	}
	m.cost.WithLabelValues(model).Add(usd)
}

func (m *Metrics) ObserveJudge(dimension, outcome string) {
	if m == nil {
		return
	}
	m.judge.WithLabelValues(dimension, outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
