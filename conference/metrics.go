package conference

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bazelment/yoloswe/namecouncil/phase"
)

// Metrics counts conference activity. A nil *Metrics records nothing.
type Metrics struct {
	// rounds counts finished rounds by outcome (complete, incomplete, error).
	rounds *prometheus.CounterVec

	// attempts counts prompts sent by kind (initial, nomination, retry).
	attempts *prometheus.CounterVec

	// phases counts stage transitions by the stage reached.
	phases *prometheus.CounterVec

	// reports counts structured payloads by result (valid, invalid).
	reports *prometheus.CounterVec

	// cost accumulates the agent-reported cost.
	cost prometheus.Counter

	// turnDuration observes agent-reported turn durations.
	turnDuration prometheus.Histogram
}

// NewMetrics registers the conference metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		rounds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "namecouncil",
			Subsystem: "conference",
			Name:      "rounds_total",
			Help:      "Finished rounds by outcome",
		}, []string{"outcome"}),
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "namecouncil",
			Subsystem: "conference",
			Name:      "attempts_total",
			Help:      "Prompts sent to the agent by kind",
		}, []string{"kind"}),
		phases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "namecouncil",
			Subsystem: "conference",
			Name:      "phase_transitions_total",
			Help:      "Stage completions detected in agent output",
		}, []string{"phase"}),
		reports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "namecouncil",
			Subsystem: "conference",
			Name:      "reports_total",
			Help:      "Structured reports received by validation result",
		}, []string{"result"}),
		cost: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "namecouncil",
			Subsystem: "agent",
			Name:      "cost_usd_total",
			Help:      "Agent-reported cost in US dollars",
		}),
		turnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "namecouncil",
			Subsystem: "agent",
			Name:      "turn_duration_seconds",
			Help:      "Agent-reported turn duration",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		}),
	}
}

func (m *Metrics) round(outcome string) {
	if m != nil {
		m.rounds.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) attempt(kind string) {
	if m != nil {
		m.attempts.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) phase(p phase.Phase) {
	if m != nil {
		m.phases.WithLabelValues(p.String()).Inc()
	}
}

func (m *Metrics) report(valid bool) {
	if m == nil {
		return
	}
	result := "valid"
	if !valid {
		result = "invalid"
	}
	m.reports.WithLabelValues(result).Inc()
}

func (m *Metrics) turn(duration time.Duration, costUSD *float64) {
	if m == nil {
		return
	}
	m.turnDuration.Observe(duration.Seconds())
	if costUSD != nil && *costUSD > 0 {
		m.cost.Add(*costUSD)
	}
}
