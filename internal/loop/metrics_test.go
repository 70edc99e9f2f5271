package loop

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_CountsCycles(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.observeCycle(outcomeGenerated)
	m.observeCycle(outcomeGenerated)
	m.observeCycle(outcomeFailed)
	m.observeRequestCreated()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cycles.WithLabelValues("generated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles.WithLabelValues("failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.cycles.WithLabelValues("matched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsCreated))
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.observeCycle(outcomeGenerated)
	m.observeRequestCreated()
}
