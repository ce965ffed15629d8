package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "chessfam"

// Metrics holds the service's collectors. A nil *Metrics is valid and records
// nothing, so services can run without a registry in tests.
type Metrics struct {
	Registry *prometheus.Registry

	registrations      *prometheus.CounterVec
	withdrawals        *prometheus.CounterVec
	sideEffectFailures *prometheus.CounterVec
	registrationTime   prometheus.Histogram
	statusTransitions  *prometheus.CounterVec
	syncedRecords      *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		Registry: registry,
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "withdrawals_total",
			Help:      "Withdrawal attempts by outcome.",
		}, []string{"outcome"}),
		sideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Best-effort side effects that failed and were swallowed.",
		}, []string{"effect"}),
		registrationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registration_duration_seconds",
			Help:      "Time spent handling a registration.",
			Buckets:   prometheus.DefBuckets,
		}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tournament_status_transitions_total",
			Help:      "Tournaments moved to a new lifecycle status by the scheduler.",
		}, []string{"status"}),
		syncedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synced_records_total",
			Help:      "Records upserted from the sync service.",
		}, []string{"kind"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.registrations,
		m.withdrawals,
		m.sideEffectFailures,
		m.registrationTime,
		m.statusTransitions,
		m.syncedRecords,
	)
	return m
}

func (m *Metrics) RegistrationOutcome(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
	m.registrationTime.Observe(took.Seconds())
}

func (m *Metrics) WithdrawalOutcome(outcome string) {
	if m == nil {
		return
	}
	m.withdrawals.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SideEffectFailed(effect string) {
	if m == nil {
		return
	}
	m.sideEffectFailures.WithLabelValues(effect).Inc()
}

func (m *Metrics) StatusTransitions(status string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.statusTransitions.WithLabelValues(status).Add(float64(n))
}

func (m *Metrics) Synced(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.syncedRecords.WithLabelValues(kind).Add(float64(n))
}
