package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sreenu926/50cube-staging/internal/app"
	"github.com/sreenu926/50cube-staging/internal/domain"
)

// fiveQuestions builds a challenge whose correct answer for question i is i%3.
func fiveQuestions(timeLimitMinutes int) domain.Challenge {
	qs := make([]domain.Question, 5)
	for i := range qs {
		qs[i] = domain.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Prompt:        fmt.Sprintf("Question %d", i+1),
			Options:       []string{"a", "b", "c", "d"},
			CorrectOption: i % 3,
		}
	}
	return domain.Challenge{
		ID:               "speed-reading-sprint",
		Name:             "Speed Reading Sprint",
		TimeLimitMinutes: timeLimitMinutes,
		Questions:        qs,
	}
}

func wrongOption(q domain.Question) int {
	return (q.CorrectOption + 1) % len(q.Options)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// manualTicker never fires on its own; tests either call Session.Tick or push
// on ch.
type manualTicker struct {
	ch chan time.Time
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               {}

type tickerFactory struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (f *tickerFactory) New(time.Duration) app.Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *tickerFactory) Last() *manualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tickers) == 0 {
		return nil
	}
	return f.tickers[len(f.tickers)-1]
}

type fakeSubmitter struct {
	mu          sync.Mutex
	receipt     domain.SubmissionReceipt
	err         error
	submissions []domain.Submission
}

func (f *fakeSubmitter) Submit(_ context.Context, _ string, s domain.Submission) (domain.SubmissionReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, s)
	return f.receipt, f.err
}

func (f *fakeSubmitter) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submissions)
}

func quietLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for submission to finish")
	}
}

// answerAll selects and advances through every question using pick.
func answerAll(t *testing.T, s *app.Session, pick func(i int, q domain.Question) int) domain.SessionState {
	t.Helper()
	var state domain.SessionState
	for i, q := range s.Challenge().Questions {
		if _, err := s.Select(pick(i, q)); err != nil {
			t.Fatalf("select %d: %v", i, err)
		}
		var err error
		if state, err = s.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
	return state
}
