package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("reports:daily").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("reports:daily").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("reports:daily", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("reports:daily", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("reports:daily")))
}

func TestSetLowStock(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.SetLowStock(4)
	require.Equal(t, 4.0, testutil.ToFloat64(m.lowStock))
	m.SetLowStock(-1)
	require.Equal(t, 4.0, testutil.ToFloat64(m.lowStock))
}

func TestNilMetricsTrackerPassesThrough(t *testing.T) {
	var m *Metrics
	err := errors.New("kept")
	require.ErrorIs(t, m.Track("x").End(err), err)
	m.SetLowStock(1)
}
