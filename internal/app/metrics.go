package app

import "github.com/sreenu926/50cube-staging/internal/domain"

// Metrics records service-level counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	SessionStarted(challengeID string)
	SessionCompleted(challengeID string, by domain.CompletionTrigger, accuracyPercent int)
	SubmissionFinished(status domain.SubmissionStatus)
	FallbackUsed(kind string)
	SetActiveSessions(count int)
}

// NoopMetrics discards everything; the default when metrics are disabled.
type NoopMetrics struct{}

func (NoopMetrics) SessionStarted(string)                                  {}
func (NoopMetrics) SessionCompleted(string, domain.CompletionTrigger, int) {}
func (NoopMetrics) SubmissionFinished(domain.SubmissionStatus)             {}
func (NoopMetrics) FallbackUsed(string)                                    {}
func (NoopMetrics) SetActiveSessions(int)                                  {}
