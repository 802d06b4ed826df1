package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()

	c.SessionStarted("speed-reading-sprint")
	c.SessionStarted("speed-reading-sprint")
	c.SessionCompleted("speed-reading-sprint", domain.CompletedByTimeout, 60)
	c.SubmissionFinished(domain.SubmissionFailed)
	c.FallbackUsed("leagues")
	c.SetActiveSessions(3)

	if got := testutil.ToFloat64(c.sessionsStarted.WithLabelValues("speed-reading-sprint")); got != 2 {
		t.Fatalf("sessions started = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.sessionsCompleted.WithLabelValues("speed-reading-sprint", "timeout")); got != 1 {
		t.Fatalf("sessions completed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.submissions.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed submissions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.activeSessions); got != 3 {
		t.Fatalf("active sessions = %v, want 3", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.FallbackUsed("readers")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `fallback_served_total{kind="readers"} 1`) {
		t.Fatalf("metric missing from output:\n%s", body)
	}
}
