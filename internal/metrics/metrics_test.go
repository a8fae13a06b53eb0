package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.PaymentsApplied.Inc()
	m.IncrementRejected("AMOUNT_MISMATCH")
	m.IncrementRejected("AMOUNT_MISMATCH")
	m.IncrementRejected("")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentsApplied))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PaymentsRejected.WithLabelValues("AMOUNT_MISMATCH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentsRejected.WithLabelValues("UNKNOWN")))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	require.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestMetrics_ObserveSweep(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSweep(time.Now().Add(-time.Second))

	count, err := testutil.GatherAndCount(reg, "sponsorship_sweep_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
