package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// Collector implements app.Metrics on a Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	sessionsStarted   *prometheus.CounterVec
	sessionsCompleted *prometheus.CounterVec
	accuracy          *prometheus.HistogramVec
	submissions       *prometheus.CounterVec
	fallbacks         *prometheus.CounterVec
	activeSessions    prometheus.Gauge
}

// NewCollector registers the service metrics on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		sessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "challenge_sessions_started_total",
			Help: "Challenge sessions started, by challenge",
		}, []string{"challenge"}),
		sessionsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "challenge_sessions_completed_total",
			Help: "Challenge sessions completed, by challenge and trigger",
		}, []string{"challenge", "trigger"}),
		accuracy: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "challenge_accuracy_percent",
			Help:    "Accuracy of completed sessions",
			Buckets: prometheus.LinearBuckets(0, 20, 6),
		}, []string{"challenge"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "challenge_submissions_total",
			Help: "Result submissions, by outcome",
		}, []string{"status"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fallback_served_total",
			Help: "Responses served from fallback data, by kind",
		}, []string{"kind"}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "challenge_sessions_active",
			Help: "Challenge sessions currently held",
		}),
	}
}

func (c *Collector) SessionStarted(challengeID string) {
	c.sessionsStarted.WithLabelValues(challengeID).Inc()
}

func (c *Collector) SessionCompleted(challengeID string, by domain.CompletionTrigger, accuracyPercent int) {
	c.sessionsCompleted.WithLabelValues(challengeID, string(by)).Inc()
	c.accuracy.WithLabelValues(challengeID).Observe(float64(accuracyPercent))
}

func (c *Collector) SubmissionFinished(status domain.SubmissionStatus) {
	c.submissions.WithLabelValues(string(status)).Inc()
}

func (c *Collector) FallbackUsed(kind string) {
	c.fallbacks.WithLabelValues(kind).Inc()
}

func (c *Collector) SetActiveSessions(count int) {
	c.activeSessions.Set(float64(count))
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
