package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the service's Prometheus collectors. A nil *Manager is valid
// and records nothing.
type Manager struct {
	// counters
	CounterRequests          *prometheus.CounterVec
	CounterSessionsCompleted prometheus.Counter
	CounterLedgerUpdates     *prometheus.CounterVec
	CounterProgressAdvances  prometheus.Counter
	CounterAdvanceConflicts  prometheus.Counter
	CounterProgramsCompleted prometheus.Counter

	// histograms
	HistRequestDuration  prometheus.Histogram
	HistPipelineDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("fitlog", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("fitlog", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code",
		}, []string{"method", "status"}),
		CounterSessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_completed_total",
			Help:      "Sessions run through the completion pipeline",
		}),
		CounterLedgerUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ledger_updates_total",
			Help:      "Per-exercise ledger updates by outcome (applied, duplicate, skipped)",
		}, []string{"outcome"}),
		CounterProgressAdvances: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "progress_advances_total",
			Help:      "Program cursor advances",
		}),
		CounterAdvanceConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "program_version_conflicts_total",
			Help:      "Program writes retried after losing an optimistic version check",
		}),
		CounterProgramsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "programs_completed_total",
			Help:      "Programs that reached the end of their mesocycle",
		}),
		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		HistPipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of one session completion pipeline run",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

func (m *Manager) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.CounterRequests.WithLabelValues(method, statusClass(status)).Inc()
	m.HistRequestDuration.Observe(d.Seconds())
}

func (m *Manager) SessionCompleted(d time.Duration) {
	if m == nil {
		return
	}
	m.CounterSessionsCompleted.Inc()
	m.HistPipelineDuration.Observe(d.Seconds())
}

// LedgerUpdate counts one per-exercise update; outcome is applied,
// duplicate or skipped.
func (m *Manager) LedgerUpdate(outcome string) {
	if m == nil {
		return
	}
	m.CounterLedgerUpdates.WithLabelValues(outcome).Inc()
}

func (m *Manager) ProgressAdvanced(completed bool) {
	if m == nil {
		return
	}
	m.CounterProgressAdvances.Inc()
	if completed {
		m.CounterProgramsCompleted.Inc()
	}
}

func (m *Manager) VersionConflict() {
	if m == nil {
		return
	}
	m.CounterAdvanceConflicts.Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
