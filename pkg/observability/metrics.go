package observability

import (
	"context"

	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the calculator.
type Metrics struct {
	Evaluations *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Phases      *prometheus.CounterVec
	Tokens      *prometheus.CounterVec
	InFlight    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg (nil skips registration).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bifrost_evaluations_total",
				Help: "Total number of evaluations by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bifrost_evaluation_duration_seconds",
				Help:    "Duration of evaluations from open to close",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"channel"},
		),
		Phases: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bifrost_evaluation_phases_total",
				Help: "Total number of evaluation phase transitions",
			},
			[]string{"phase"},
		),
		Tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bifrost_tokens_inserted_total",
				Help: "Total number of keypad tokens inserted by class",
			},
			[]string{"class"},
		),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bifrost_evaluations_in_flight",
			Help: "Number of evaluations currently running",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Evaluations, m.Duration, m.Phases, m.Tokens, m.InFlight)
	}
	return m
}

// Hooks returns hooks that record into the collectors.
func (m *Metrics) Hooks() domain.EvaluationHooks {
	return domain.EvaluationHooks{
		OnEvaluationStart: func(_ context.Context, _ *domain.EvaluationEvent) {
			m.InFlight.Inc()
		},
		OnPhase: func(_ context.Context, e *domain.EvaluationEvent) {
			m.Phases.WithLabelValues(string(e.Phase)).Inc()
		},
		OnEvaluationEnd: func(_ context.Context, e *domain.EvaluationEvent) {
			m.InFlight.Dec()
			m.Evaluations.WithLabelValues(e.Channel, domain.ErrorKind(e.Err)).Inc()
			m.Duration.WithLabelValues(e.Channel).Observe(e.Duration.Seconds())
		},
		OnTokenInserted: func(_ context.Context, e *domain.TokenEvent) {
			m.Tokens.WithLabelValues(e.Class.String()).Inc()
		},
	}
}
