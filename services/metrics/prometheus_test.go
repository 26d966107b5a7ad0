package metricsvc

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongoza/cyberhub/core/onboarding"
)

func TestPrometheusMetrics(t *testing.T) {
	m, err := NewPrometheusMetrics()
	require.NoError(t, err)

	m.SessionStarted()
	m.SessionStarted()
	m.StepReached(onboarding.StepEducation)
	m.StepReached(onboarding.StepEducation)
	m.UploadRejected(onboarding.DocumentCV)
	m.VerificationResolved(onboarding.DocumentID, onboarding.VerificationVerified, 2*time.Second)
	m.VerificationResolved(onboarding.DocumentID, onboarding.VerificationFailed, time.Second)
	m.SessionCompleted(onboarding.TrackBuilders, time.Minute)
	m.SessionCompleted("", time.Minute)
	m.SessionAbandoned("expired")
	m.ActiveSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.stepsReached.WithLabelValues("2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploadsRejected.WithLabelValues("cv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifications.WithLabelValues("id", "verified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifications.WithLabelValues("id", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsCompleted.WithLabelValues("builders")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsCompleted.WithLabelValues("none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsAbandoned.WithLabelValues("expired")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 1, testutil.CollectAndCount(m.verifyDuration))
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	m, err := NewPrometheusMetrics()
	require.NoError(t, err)
	m.SessionStarted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "onboarding_sessions_started_total 1")
	assert.Contains(t, string(body), "onboarding_sessions_active 0")
}
