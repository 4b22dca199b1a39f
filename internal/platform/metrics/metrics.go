package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	SubmissionsStarted prometheus.Counter
	StageDuration      *prometheus.HistogramVec
	StageFailures      *prometheus.CounterVec
	RecordsCommitted   prometheus.Counter
	CommitFailures     prometheus.Counter
	LedgerQueries      prometheus.Counter
	Dispositions       *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all metrics against the given registerer. main
// passes prometheus.DefaultRegisterer; tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubmissionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "sealedger_submissions_started_total",
			Help: "Total number of document submissions started",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sealedger_pipeline_stage_duration_seconds",
			Help:    "Duration of extraction pipeline stages",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sealedger_pipeline_stage_failures_total",
			Help: "Total number of failed pipeline stages",
		}, []string{"stage"}),
		RecordsCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "sealedger_records_committed_total",
			Help: "Total number of attested records committed to the ledger",
		}),
		CommitFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sealedger_commit_failures_total",
			Help: "Total number of failed ledger commits",
		}),
		LedgerQueries: factory.NewCounter(prometheus.CounterOpts{
			Name: "sealedger_ledger_queries_total",
			Help: "Total number of permit-authorized ledger reads",
		}),
		Dispositions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sealedger_audit_dispositions_total",
			Help: "Total number of audit dispositions broadcast, by state",
		}, []string{"state"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sealedger_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// ObserveStage records one pipeline stage run.
func (m *Metrics) ObserveStage(stage string, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if failed {
		m.StageFailures.WithLabelValues(stage).Inc()
	}
}
