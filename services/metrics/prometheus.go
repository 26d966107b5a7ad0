package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ongoza/cyberhub/core/onboarding"
)

const namespace = "onboarding"

// PrometheusMetrics exports wizard activity to prometheus.
type PrometheusMetrics struct {
	registry prometheus.Gatherer

	sessionsStarted   prometheus.Counter
	sessionsCompleted *prometheus.CounterVec
	sessionsAbandoned *prometheus.CounterVec
	sessionDuration   prometheus.Histogram
	stepsReached      *prometheus.CounterVec
	uploadsRejected   *prometheus.CounterVec
	verifications     *prometheus.CounterVec
	verifyDuration    *prometheus.HistogramVec
	activeSessions    prometheus.Gauge
}

var _ onboarding.Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the onboarding collectors on a fresh registry.
func NewPrometheusMetrics() (*PrometheusMetrics, error) {
	reg := prometheus.NewRegistry()
	m := &PrometheusMetrics{
		registry: reg,
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of onboarding sessions started",
		}),
		sessionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Total number of onboarding sessions completed, by recommended track",
		}, []string{"track"}),
		sessionsAbandoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_abandoned_total",
			Help:      "Total number of onboarding sessions abandoned",
		}, []string{"reason"}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Time from session start to completion",
			Buckets:   prometheus.ExponentialBuckets(30, 2, 10),
		}),
		stepsReached: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_reached_total",
			Help:      "Total number of times a wizard step was reached",
		}, []string{"step"}),
		uploadsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_rejected_total",
			Help:      "Total number of document uploads rejected before verification",
		}, []string{"kind"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Total number of document verifications resolved",
		}, []string{"kind", "status"}),
		verifyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verification_duration_seconds",
			Help:      "Duration of document verification in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of in-progress onboarding sessions",
		}),
	}

	collectors := []prometheus.Collector{
		m.sessionsStarted, m.sessionsCompleted, m.sessionsAbandoned, m.sessionDuration,
		m.stepsReached, m.uploadsRejected, m.verifications, m.verifyDuration, m.activeSessions,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the registry in the prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PrometheusMetrics) SessionStarted() { m.sessionsStarted.Inc() }

func (m *PrometheusMetrics) SessionCompleted(track onboarding.TrackID, elapsed time.Duration) {
	label := string(track)
	if label == "" {
		label = "none"
	}
	m.sessionsCompleted.WithLabelValues(label).Inc()
	m.sessionDuration.Observe(elapsed.Seconds())
}

func (m *PrometheusMetrics) SessionAbandoned(reason string) {
	m.sessionsAbandoned.WithLabelValues(reason).Inc()
}

func (m *PrometheusMetrics) StepReached(step onboarding.Step) {
	m.stepsReached.WithLabelValues(strconv.Itoa(int(step))).Inc()
}

func (m *PrometheusMetrics) UploadRejected(kind onboarding.DocumentKind) {
	m.uploadsRejected.WithLabelValues(string(kind)).Inc()
}

func (m *PrometheusMetrics) VerificationResolved(kind onboarding.DocumentKind, status onboarding.VerificationStatus, elapsed time.Duration) {
	m.verifications.WithLabelValues(string(kind), string(status)).Inc()
	m.verifyDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

func (m *PrometheusMetrics) ActiveSessions(n int) { m.activeSessions.Set(float64(n)) }
