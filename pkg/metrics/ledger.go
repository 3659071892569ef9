package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics tracks balance-affecting operations and collection closures.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	retries    *prometheus.CounterVec
	credits    *prometheus.CounterVec
	closures   *prometheus.CounterVec
	likeRepair prometheus.Counter
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	m := &LedgerMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger operations by name and outcome code.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Wall time of ledger operations including retries.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "version_conflicts_total",
			Help:      "Optimistic concurrency conflicts that triggered a retry.",
		}, []string{"op"}),
		credits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "credits_moved_total",
			Help:      "Credits moved by committed operations.",
		}, []string{"op"}),
		closures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collections",
			Name:      "closed_total",
			Help:      "Collections moved to closed, by reason.",
		}, []string{"reason"}),
		likeRepair: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "likes",
			Name:      "counter_repairs_total",
			Help:      "likes_count caches corrected by reconciliation.",
		}),
	}
	reg.MustRegister(m.operations, m.duration, m.retries, m.credits, m.closures, m.likeRepair)
	return m
}

// ObserveOperation records the outcome and duration of one ledger call.
func (m *LedgerMetrics) ObserveOperation(op, outcome string, took time.Duration) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(normalizeLabel(op)).Observe(took.Seconds())
}

// IncConflict counts a version conflict that led to a retry.
func (m *LedgerMetrics) IncConflict(op string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(op)).Inc()
}

// AddCredits counts credits moved by a committed operation.
func (m *LedgerMetrics) AddCredits(op string, amount int64) {
	if m == nil || m.credits == nil || amount <= 0 {
		return
	}
	m.credits.WithLabelValues(normalizeLabel(op)).Add(float64(amount))
}

// IncClosed counts a collection closure.
func (m *LedgerMetrics) IncClosed(reason string) {
	if m == nil || m.closures == nil {
		return
	}
	m.closures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// AddLikeRepairs counts like counters fixed by reconciliation.
func (m *LedgerMetrics) AddLikeRepairs(n int) {
	if m == nil || m.likeRepair == nil || n <= 0 {
		return
	}
	m.likeRepair.Add(float64(n))
}
