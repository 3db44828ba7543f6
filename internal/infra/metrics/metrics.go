package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ProbesTotal       *prometheus.CounterVec // result=pending|approved|denied|error
	ProbeLatencyMS    prometheus.Histogram
	OutcomesTotal     *prometheus.CounterVec // outcome=approved|declined|timed_out|cancelled
	ActiveSessions    prometheus.Gauge
	TransactionsTotal *prometheus.CounterVec // status=PENDING|APPROVED|DENIED
	SettlementsTotal  *prometheus.CounterVec // result=approved|denied
	WebhooksTotal     *prometheus.CounterVec // result=applied|duplicate|unknown|invalid
	OutboxDispatched  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProbesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipsim_confirmation_probes_total",
				Help: "Status probes issued by the confirmation poller, by result",
			},
			[]string{"result"},
		),
		ProbeLatencyMS: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ipsim_confirmation_probe_latency_ms",
			Help:    "Latency of status probes (ms)",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1ms .. ~8s
		}),
		OutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipsim_confirmation_outcomes_total",
				Help: "Confirmation sessions by final outcome",
			},
			[]string{"outcome"},
		),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ipsim_confirmation_sessions_active",
			Help: "Confirmation sessions currently polling",
		}),
		TransactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipsim_transactions_total",
				Help: "Transactions by status transition",
			},
			[]string{"status"},
		),
		SettlementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipsim_settlements_total",
				Help: "Simulated processor decisions by result",
			},
			[]string{"result"},
		),
		WebhooksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipsim_webhooks_total",
				Help: "Webhooks received by result",
			},
			[]string{"result"},
		),
		OutboxDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ipsim_outbox_dispatched_total",
			Help: "Outbox events published to the bus",
		}),
	}

	reg.MustRegister(
		m.ProbesTotal,
		m.ProbeLatencyMS,
		m.OutcomesTotal,
		m.ActiveSessions,
		m.TransactionsTotal,
		m.SettlementsTotal,
		m.WebhooksTotal,
		m.OutboxDispatched,
	)

	return m
}

// The recording helpers below accept a nil *Metrics so components can run
// without instrumentation.

func (m *Metrics) ObserveProbe(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.ProbesTotal.WithLabelValues(result).Inc()
	m.ProbeLatencyMS.Observe(float64(took.Milliseconds()))
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionEnded(outcome string) {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
	m.OutcomesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncTransaction(status string) {
	if m == nil {
		return
	}
	m.TransactionsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) IncSettlement(result string) {
	if m == nil {
		return
	}
	m.SettlementsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncWebhook(result string) {
	if m == nil {
		return
	}
	m.WebhooksTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncDispatched() {
	if m == nil {
		return
	}
	m.OutboxDispatched.Inc()
}
