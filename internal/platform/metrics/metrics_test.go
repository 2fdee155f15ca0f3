package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.HTTPRequests.WithLabelValues("GET", "/health", "200").Inc()
	m.HTTPDuration.WithLabelValues("GET", "/health").Observe(0.01)
	m.ObserveLedgerOperation("settle", nil)
	m.ObserveOutbox("published")
	m.ObserveActivity("inserted")

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestObserveLedgerOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveLedgerOperation("add_transaction", nil)
	m.ObserveLedgerOperation("add_transaction", nil)
	m.ObserveLedgerOperation("add_transaction", errors.New("boom"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.LedgerOperations.WithLabelValues("add_transaction", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LedgerOperations.WithLabelValues("add_transaction", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveLedgerOperation("settle", nil)
		m.ObserveOutbox("published")
		m.ObserveActivity("duplicate")
	})
}
