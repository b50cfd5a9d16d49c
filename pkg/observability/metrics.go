package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/canopy/pkg/domain"
)

// Metrics holds the prometheus collectors for flow activity. It subscribes
// to the engine through ordinary lifecycle hooks, so hosts that do not want
// metrics simply never construct it.
type Metrics struct {
	AnswersRecorded    *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	Navigations        *prometheus.CounterVec
	FlagToggles        prometheus.Counter
	Completions        prometheus.Counter
	AutoSaves          prometheus.Counter
}

// NewMetrics creates and registers the collectors. Pass
// prometheus.DefaultRegisterer for the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AnswersRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_answers_recorded_total",
				Help: "Total number of answers recorded, by question id.",
			},
			[]string{"question_id"},
		),
		ValidationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_validation_failures_total",
				Help: "Total number of rejected navigation attempts, by question id.",
			},
			[]string{"question_id"},
		),
		Navigations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_navigations_total",
				Help: "Total number of position changes, by direction.",
			},
			[]string{"direction"},
		),
		FlagToggles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_flag_toggles_total",
			Help: "Total number of flag toggles.",
		}),
		Completions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_flow_completions_total",
			Help: "Total number of flows reaching the terminal state.",
		}),
		AutoSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_auto_saves_total",
			Help: "Total number of auto-save ticks.",
		}),
	}
	reg.MustRegister(
		m.AnswersRecorded,
		m.ValidationFailures,
		m.Navigations,
		m.FlagToggles,
		m.Completions,
		m.AutoSaves,
	)
	return m
}

// Hooks returns lifecycle hooks feeding the collectors. Register them on the
// engine alongside any host hooks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAnswerChange: func(_ context.Context, questionID string, _ any, _ domain.AnswerMap) {
			m.AnswersRecorded.WithLabelValues(questionID).Inc()
		},
		OnValidationError: func(_ context.Context, questionID string, _ string) {
			m.ValidationFailures.WithLabelValues(questionID).Inc()
		},
		OnNavigationChange: func(_ context.Context, _ int, direction domain.Direction) {
			m.Navigations.WithLabelValues(string(direction)).Inc()
		},
		OnQuestionFlag: func(_ context.Context, _ string, _ bool) {
			m.FlagToggles.Inc()
		},
		OnComplete: func(_ context.Context, _ domain.AnswerMap, _ []string) {
			m.Completions.Inc()
		},
		OnAutoSave: func(_ context.Context, _ domain.AnswerMap) {
			m.AutoSaves.Inc()
		},
	}
}
