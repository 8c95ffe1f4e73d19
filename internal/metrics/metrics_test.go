package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveAnalysis(OutcomeSuccess, 300*time.Millisecond)
	m.ObserveAnalysis(OutcomeSuccess, time.Second)
	m.ObserveAnalysis(OutcomeQuota, time.Millisecond)
	m.RateLimited("translate")
	m.FeedbackCreated(SourcePreAnalyzed)
	m.StartupAttempt()
	m.StartupAttempt()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analysisRequests.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analysisRequests.WithLabelValues(OutcomeQuota)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited.WithLabelValues("translate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.feedbackCreated.WithLabelValues(SourcePreAnalyzed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.startupAttempts))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAnalysis(OutcomeFailed, time.Second)
		m.RateLimited("feedback")
		m.FeedbackCreated(SourceAnalyzed)
		m.StartupAttempt()
	})
}

func TestIndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
