package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/ipsim-go/internal/infra/metrics"
)

func TestMetrics_ShouldTrackSessionLifecycle(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.SessionStarted()
	m.ObserveProbe("pending", 5*time.Millisecond)
	m.ObserveProbe("approved", 7*time.Millisecond)
	m.SessionEnded("approved")

	require.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSessions))
	require.Equal(t, 1.0, testutil.ToFloat64(m.OutcomesTotal.WithLabelValues("approved")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("pending")))
	require.Equal(t, 2, testutil.CollectAndCount(m.ProbesTotal))
}

func TestMetrics_NilReceiverShouldBeNoop(t *testing.T) {
	var m *metrics.Metrics

	require.NotPanics(t, func() {
		m.SessionStarted()
		m.ObserveProbe("error", time.Second)
		m.SessionEnded("timed_out")
		m.IncTransaction("PENDING")
		m.IncSettlement("approved")
		m.IncWebhook("applied")
		m.IncDispatched()
	})
}
