package onboarding

import "time"

// Metrics receives wizard events for monitoring.
type Metrics interface {
	SessionStarted()
	SessionCompleted(track TrackID, took time.Duration)
	SessionAbandoned(reason string)
	StepReached(step Step)
	UploadRejected(kind DocumentKind)
	VerificationResolved(kind DocumentKind, status VerificationStatus, took time.Duration)
	ActiveSessions(n int)
}

type nopMetrics struct{}

func (nopMetrics) SessionStarted()                                                      {}
func (nopMetrics) SessionCompleted(TrackID, time.Duration)                              {}
func (nopMetrics) SessionAbandoned(string)                                              {}
func (nopMetrics) StepReached(Step)                                                     {}
func (nopMetrics) UploadRejected(DocumentKind)                                          {}
func (nopMetrics) VerificationResolved(DocumentKind, VerificationStatus, time.Duration) {}
func (nopMetrics) ActiveSessions(int)                                                   {}
