package metrics

import "github.com/prometheus/client_golang/prometheus"

// DealMetrics counts negotiation outcomes.
type DealMetrics struct {
	transitions *prometheus.CounterVec
	conflicts   prometheus.Counter
}

// NewDealMetrics registers deal counters on the provided registerer.
func NewDealMetrics(reg prometheus.Registerer) *DealMetrics {
	if reg == nil {
		return &DealMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deal_transitions_total",
		Help: "Completed deal state transitions by action and resulting state.",
	}, []string{"action", "to_state"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deal_state_conflicts_total",
		Help: "Transitions rejected because the deal state changed concurrently.",
	})
	reg.MustRegister(transitions, conflicts)
	return &DealMetrics{
		transitions: transitions,
		conflicts:   conflicts,
	}
}

// IncTransition records one completed transition.
func (d *DealMetrics) IncTransition(action, toState string) {
	if d == nil || d.transitions == nil {
		return
	}
	d.transitions.WithLabelValues(normalizeLabel(action), normalizeLabel(toState)).Inc()
}

// IncConflict records one optimistic concurrency rejection.
func (d *DealMetrics) IncConflict() {
	if d == nil || d.conflicts == nil {
		return
	}
	d.conflicts.Inc()
}
