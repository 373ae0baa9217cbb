package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the assessment pipeline instrumentation.
type Metrics struct {
	Completed     *prometheus.CounterVec
	Failed        *prometheus.CounterVec
	Degraded      prometheus.Counter
	CacheHits     prometheus.Counter
	StageDuration *prometheus.HistogramVec
}

// New registers all assessment metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Completed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caregate_assessments_completed_total",
			Help: "Completed assessments by payload kind and gate outcome",
		}, []string{"kind", "state"}),
		Failed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caregate_assessments_failed_total",
			Help: "Failed assessments by payload kind and error kind",
		}, []string{"kind", "reason"}),
		Degraded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caregate_assessments_degraded_total",
			Help: "Assessments completed under fallback scoring or degraded retrieval",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caregate_assessment_cache_hits_total",
			Help: "Assessments served from the result cache",
		}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caregate_assessment_stage_duration_seconds",
			Help:    "Latency per orchestrator stage",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
}

// ObserveStage records one stage latency.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
