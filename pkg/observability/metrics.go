package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for parley_turns_total.
const (
	OutcomeSuccess       = "success"
	OutcomeConfiguration = "configuration_error"
	OutcomeTransport     = "transport_error"
	OutcomeOther         = "error"
)

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	registry *prometheus.Registry

	turns    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
	inFlight prometheus.Gauge
	clears   prometheus.Counter
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_turns_total",
				Help: "Total number of completed turns by outcome",
			},
			[]string{"model", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parley_completion_duration_seconds",
				Help:    "Duration of completion requests",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"model"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_tokens_total",
				Help: "Tokens reported by the provider",
			},
			[]string{"model", "kind"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "parley_turns_in_flight",
			Help: "Turns waiting on the provider",
		}),
		clears: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parley_clears_total",
			Help: "Total number of conversation resets",
		}),
	}
	m.registry.MustRegister(
		m.turns, m.duration, m.tokens, m.inFlight, m.clears,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record turn metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			m.inFlight.Inc()
		},
		OnTurnComplete: func(ctx context.Context, e *domain.TurnEvent) {
			m.inFlight.Dec()
			m.turns.WithLabelValues(e.Model, OutcomeSuccess).Inc()
			m.duration.WithLabelValues(e.Model).Observe(e.Duration.Seconds())
			if e.Usage != nil {
				m.tokens.WithLabelValues(e.Model, "prompt").Add(float64(e.Usage.PromptTokens))
				m.tokens.WithLabelValues(e.Model, "completion").Add(float64(e.Usage.CompletionTokens))
			}
		},
		OnTurnFailed: func(ctx context.Context, e *domain.TurnEvent) {
			m.inFlight.Dec()
			m.turns.WithLabelValues(e.Model, outcome(e.Err)).Inc()
			if e.Duration > 0 {
				m.duration.WithLabelValues(e.Model).Observe(e.Duration.Seconds())
			}
		},
		OnClear: func(ctx context.Context, e *domain.TurnEvent) {
			m.clears.Inc()
		},
	}
}

func outcome(err error) string {
	var cfgErr *domain.ConfigurationError
	var trErr *domain.TransportError
	switch {
	case errors.As(err, &cfgErr):
		return OutcomeConfiguration
	case errors.As(err, &trErr):
		return OutcomeTransport
	}
	return OutcomeOther
}
