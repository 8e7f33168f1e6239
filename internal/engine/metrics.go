package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/ledger/internal/ledger"
)

const (
	metricsNamespace = "ledger"
	engineSubsystem  = "engine"
)

// Mutation outcomes used as the "outcome" label.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeFailed   = "failed"
)

// Metrics holds the engine's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	mutations *prometheus.CounterVec
	conflicts prometheus.Counter
	warnings  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Pass a fresh prometheus.NewRegistry() in tests to avoid global state.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "mutations_total",
				Help:      "Ledger mutations by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		conflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "cas_conflicts_total",
				Help:      "Conditional writes rejected because the revision was stale",
			},
		),
		warnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "warnings_total",
				Help:      "Advisory conditions reported on accepted mutations",
			},
			[]string{"code"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.mutations, m.conflicts, m.warnings)
	}
	return m
}

func (m *Metrics) observeMutation(kind ledger.MutationKind, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(string(kind), outcome).Inc()
}

func (m *Metrics) observeConflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

func (m *Metrics) observeWarnings(warnings []ledger.Warning) {
	if m == nil {
		return
	}
	for _, w := range warnings {
		m.warnings.WithLabelValues(string(w.Code)).Inc()
	}
}
