package loop

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts workflow cycles by outcome.
type Metrics struct {
	cycles          *prometheus.CounterVec
	requestsCreated prometheus.Counter
}

// NewMetrics registers loop metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "remedyd_cycles_total",
			Help: "Workflow cycles by outcome.",
		}, []string{"outcome"}),
		requestsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "remedyd_review_requests_created_total",
			Help: "Review requests successfully opened.",
		}),
	}
}

func (m *Metrics) observeCycle(outcome outcome) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) observeRequestCreated() {
	if m == nil {
		return
	}
	m.requestsCreated.Inc()
}
