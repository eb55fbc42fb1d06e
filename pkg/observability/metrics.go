package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/titrate/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const none = "none"

// Metrics holds the engine collectors.
type Metrics struct {
	Evaluations *prometheus.CounterVec
	Triggers    *prometheus.CounterVec
	Rejected    *prometheus.CounterVec
	Duration    prometheus.Histogram

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := newMetrics(reg)
	m.gatherer = reg
	return m
}

// NewMetricsWith registers the collectors on reg, which also serves Handler.
func NewMetricsWith(reg *prometheus.Registry) *Metrics {
	m := newMetrics(reg)
	m.gatherer = reg
	return m
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "titrate_evaluations_total",
				Help: "Total number of completed evaluations",
			},
			[]string{"outcome", "action", "class"},
		),
		Triggers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "titrate_safety_triggers_total",
				Help: "Active safety triggers seen across evaluations",
			},
			[]string{"kind"},
		),
		Rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "titrate_rejected_inputs_total",
				Help: "Evaluations refused at validation",
			},
			[]string{"reason"},
		),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "titrate_evaluation_duration_seconds",
			Help:    "Duration of evaluations",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
	}
	reg.MustRegister(m.Evaluations, m.Triggers, m.Rejected, m.Duration)
	return m
}

// Hooks returns engine hooks that record into m.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnEvaluation: func(_ context.Context, ev *domain.EvaluationEvent) {
			if ev == nil || ev.Evaluation == nil {
				return
			}
			action, class := none, none
			if r := ev.Evaluation.Recommendation; r != nil {
				action, class = string(r.Action), string(r.Class)
			}
			m.Evaluations.WithLabelValues(string(ev.Evaluation.Outcome), action, class).Inc()
			for _, t := range ev.Evaluation.Triggers {
				m.Triggers.WithLabelValues(string(t.Kind)).Inc()
			}
			m.Duration.Observe(ev.Duration.Seconds())
		},
		OnRejected: func(_ context.Context, ev *domain.RejectionEvent) {
			if ev == nil {
				return
			}
			m.Rejected.WithLabelValues(ev.Reason).Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
