// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "feedback_analyzer"

// Analysis outcomes.
const (
	OutcomeSuccess          = "success"
	OutcomeQuota            = "quota_exceeded"
	OutcomeUnsupportedModel = "unsupported_model"
	OutcomeEmpty            = "empty_response"
	OutcomeInvalid          = "invalid_response"
	OutcomeFailed           = "failed"
	OutcomeDisconnected     = "client_disconnected"
)

// Feedback sources.
const (
	SourceAnalyzed    = "analyzed"
	SourcePreAnalyzed = "pre_analyzed"
)

// Metrics is a set of collectors bound to one registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	analysisRequests *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	rateLimited      *prometheus.CounterVec
	feedbackCreated  *prometheus.CounterVec
	startupAttempts  prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		analysisRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_requests_total",
			Help:      "Language model analysis calls by outcome.",
		}, []string{"outcome"}),
		analysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Latency of language model analysis calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a named rate limiter.",
		}, []string{"limiter"}),
		feedbackCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_created_total",
			Help:      "Feedback records stored, by analysis source.",
		}, []string{"source"}),
		startupAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "startup_attempts_total",
			Help:      "Schema creation attempts made during startup.",
		}),
	}
}

func (m *Metrics) ObserveAnalysis(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.analysisRequests.WithLabelValues(outcome).Inc()
	m.analysisDuration.Observe(d.Seconds())
}

func (m *Metrics) RateLimited(limiter string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(limiter).Inc()
}

func (m *Metrics) FeedbackCreated(source string) {
	if m == nil {
		return
	}
	m.feedbackCreated.WithLabelValues(source).Inc()
}

func (m *Metrics) StartupAttempt() {
	if m == nil {
		return
	}
	m.startupAttempts.Inc()
}
