package app_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sreenu926/50cube-staging/internal/app"
	"github.com/sreenu926/50cube-staging/internal/domain"
)

func newTestSession(challenge domain.Challenge, clock *fakeClock, opts ...app.SessionOption) (*app.Session, *tickerFactory) {
	tickers := &tickerFactory{}
	base := []app.SessionOption{
		app.WithSessionClock(clock.Now),
		app.WithTickerFactory(tickers.New),
		app.WithSessionLogger(quietLogger()),
	}
	return app.NewSession("s1", "u1", "Alice", challenge, append(base, opts...)...), tickers
}

func TestNewSessionSizesAttempt(t *testing.T) {
	s, _ := newTestSession(fiveQuestions(10), newFakeClock())
	state := s.State()

	if state.Phase != domain.PhaseNotStarted {
		t.Fatalf("expected not_started, got %s", state.Phase)
	}
	if len(state.Answers) != 5 {
		t.Fatalf("expected 5 answer slots, got %d", len(state.Answers))
	}
	for i, a := range state.Answers {
		if a != domain.NoSelection {
			t.Fatalf("slot %d should be unanswered, got %d", i, a)
		}
	}
	if state.RemainingSeconds != 600 {
		t.Fatalf("expected 600s countdown, got %d", state.RemainingSeconds)
	}
}

func TestActionsBeforeStartAreRejected(t *testing.T) {
	s, _ := newTestSession(fiveQuestions(10), newFakeClock())

	if _, err := s.Select(0); !errors.Is(err, domain.ErrSessionNotStarted) {
		t.Fatalf("expected not started, got %v", err)
	}
	if s.Tick() {
		t.Fatal("tick before start should not run the countdown")
	}
	if s.State().RemainingSeconds != 600 {
		t.Fatal("countdown moved before start")
	}
}

func TestStartTwiceFails(t *testing.T) {
	s, _ := newTestSession(fiveQuestions(10), newFakeClock())
	defer s.Abandon()

	if _, err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.Start(); !errors.Is(err, domain.ErrSessionStarted) {
		t.Fatalf("expected already started, got %v", err)
	}
}

func TestAnswerSlotsStayValid(t *testing.T) {
	s, _ := newTestSession(fiveQuestions(10), newFakeClock())
	defer s.Abandon()
	if _, err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, bad := range []int{-1, 4, 99} {
		if _, err := s.Select(bad); !errors.Is(err, domain.ErrInvalidOption) {
			t.Fatalf("select %d: expected invalid option, got %v", bad, err)
		}
	}
	if _, err := s.Advance(); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected no selection, got %v", err)
	}
	if _, err := s.Retreat(); !errors.Is(err, domain.ErrAtFirstQuestion) {
		t.Fatalf("expected first question error, got %v", err)
	}

	state := s.State()
	if len(state.Answers) != 5 {
		t.Fatalf("expected 5 slots, got %d", len(state.Answers))
	}
	for i, a := range state.Answers {
		if a != domain.NoSelection {
			t.Fatalf("slot %d changed to %d", i, a)
		}
	}
}

func TestSelectIsPendingUntilAdvance(t *testing.T) {
	s, _ := newTestSession(fiveQuestions(10), newFakeClock())
	defer s.Abandon()
	_, _ = s.Start()

	state, err := s.Select(2)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if state.Pending == nil || *state.Pending != 2 {
		t.Fatalf("expected pending 2, got %v", state.Pending)
	}
	if state.Answers[0] != domain.NoSelection {
		t.Fatal("selection committed before advance")
	}

	state, err = s.Advance()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if state.Answers[0] != 2 || state.Cursor != 1 || state.Pending != nil {
		t.Fatalf("unexpected state after advance: %+v", state)
	}
}

func TestAllCorrectIsHundredAllWrongIsZero(t *testing.T) {
	clock := newFakeClock()

	right, _ := newTestSession(fiveQuestions(10), clock)
	_, _ = right.Start()
	state := answerAll(t, right, func(_ int, q domain.Question) int { return q.CorrectOption })
	if state.Result == nil || state.Result.AccuracyPercent != 100 {
		t.Fatalf("expected 100%%, got %+v", state.Result)
	}

	wrong, _ := newTestSession(fiveQuestions(10), clock)
	_, _ = wrong.Start()
	state = answerAll(t, wrong, func(_ int, q domain.Question) int { return wrongOption(q) })
	if state.Result == nil || state.Result.AccuracyPercent != 0 {
		t.Fatalf("expected 0%%, got %+v", state.Result)
	}
	if state.Result.Score < 1 {
		t.Fatalf("score must stay positive, got %d", state.Result.Score)
	}
}

func TestRetreatAndAdvanceReproducesAttempt(t *testing.T) {
	s, _ := newTestSession(fiveQuestions(10), newFakeClock())
	defer s.Abandon()
	_, _ = s.Start()

	picks := []int{3, 1, 2, 0}
	for _, p := range picks {
		_, _ = s.Select(p)
		_, _ = s.Advance()
	}
	before := s.State()

	for i := 0; i < len(picks); i++ {
		state, err := s.Retreat()
		if err != nil {
			t.Fatalf("retreat %d: %v", i, err)
		}
		want := picks[state.Cursor]
		if state.Pending == nil || *state.Pending != want {
			t.Fatalf("cursor %d: expected restored pending %d, got %v", state.Cursor, want, state.Pending)
		}
	}
	for i := 0; i < len(picks); i++ {
		state, err := s.Advance()
		if err != nil {
			t.Fatalf("re-advance %d: %v", i, err)
		}
		if state.Cursor < len(picks) && (state.Pending == nil || *state.Pending != picks[state.Cursor]) {
			t.Fatalf("cursor %d: expected recorded answer pending, got %v", state.Cursor, state.Pending)
		}
	}
	if after := s.State(); after.Pending != nil {
		t.Fatalf("unanswered question should have nothing pending, got %d", *after.Pending)
	}

	after := s.State()
	if after.Cursor != before.Cursor {
		t.Fatalf("cursor moved: %d != %d", after.Cursor, before.Cursor)
	}
	for i := range before.Answers {
		if before.Answers[i] != after.Answers[i] {
			t.Fatalf("answer %d changed: %d != %d", i, before.Answers[i], after.Answers[i])
		}
	}
}

func TestScenarioFourOfFiveInThreeMinutes(t *testing.T) {
	clock := newFakeClock()
	var completions int32
	s, _ := newTestSession(fiveQuestions(10), clock,
		app.WithCompletionHook(func(domain.CompletionEvent) { atomic.AddInt32(&completions, 1) }),
	)
	_, _ = s.Start()

	for i, q := range s.Challenge().Questions {
		pick := q.CorrectOption
		if i == 4 {
			pick = wrongOption(q)
		}
		if i == 4 {
			clock.Advance(180 * time.Second)
		}
		_, _ = s.Select(pick)
		_, _ = s.Advance()
	}
	waitDone(t, s.SubmissionDone())

	result, ok := s.Result()
	if !ok {
		t.Fatal("expected a result")
	}
	if result.AccuracyPercent != 80 || result.CorrectAnswers != 4 || result.TotalQuestions != 5 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.ElapsedSeconds != 180 {
		t.Fatalf("expected 180s elapsed, got %d", result.ElapsedSeconds)
	}
	if result.CompletedBy != domain.CompletedByAnswer {
		t.Fatalf("expected answer completion, got %s", result.CompletedBy)
	}
	if result.Score != app.CompositeScore(80, 180) {
		t.Fatalf("unexpected score %d", result.Score)
	}
	if got := atomic.LoadInt32(&completions); got != 1 {
		t.Fatalf("expected exactly one completion, got %d", got)
	}
}

func TestScenarioCountdownExpiresWithTwoAnswered(t *testing.T) {
	clock := newFakeClock()
	var completions int32
	s, _ := newTestSession(fiveQuestions(10), clock,
		app.WithCompletionHook(func(domain.CompletionEvent) { atomic.AddInt32(&completions, 1) }),
	)
	_, _ = s.Start()

	qs := s.Challenge().Questions
	_, _ = s.Select(qs[0].CorrectOption)
	_, _ = s.Advance()
	_, _ = s.Select(qs[1].CorrectOption)
	_, _ = s.Advance()

	for i := 0; i < 600; i++ {
		clock.Advance(time.Second)
		running := s.Tick()
		if i < 599 && !running {
			t.Fatalf("countdown stopped early at tick %d", i)
		}
		if i == 599 && running {
			t.Fatal("countdown should stop at zero")
		}
	}
	// extra ticks after completion are no-ops
	if s.Tick() {
		t.Fatal("tick after completion should be a no-op")
	}
	waitDone(t, s.SubmissionDone())

	state := s.State()
	if state.Phase != domain.PhaseCompleted || state.RemainingSeconds != 0 {
		t.Fatalf("expected completed at zero, got %s with %ds", state.Phase, state.RemainingSeconds)
	}
	if state.Cursor != 2 {
		t.Fatalf("expected cursor to stay at 2, got %d", state.Cursor)
	}
	result := state.Result
	if result == nil || result.AccuracyPercent != 40 || result.CompletedBy != domain.CompletedByTimeout {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.ElapsedSeconds != 600 {
		t.Fatalf("expected 600s elapsed, got %d", result.ElapsedSeconds)
	}
	if got := atomic.LoadInt32(&completions); got != 1 {
		t.Fatalf("expected exactly one completion, got %d", got)
	}
}

func TestCompletedSessionRejectsMutation(t *testing.T) {
	s, _ := newTestSession(fiveQuestions(10), newFakeClock())
	_, _ = s.Start()
	before := answerAll(t, s, func(_ int, q domain.Question) int { return q.CorrectOption })

	if _, err := s.Select(0); !errors.Is(err, domain.ErrSessionCompleted) {
		t.Fatalf("expected completed error, got %v", err)
	}
	if _, err := s.Retreat(); !errors.Is(err, domain.ErrSessionCompleted) {
		t.Fatalf("expected completed error, got %v", err)
	}
	if _, err := s.Start(); !errors.Is(err, domain.ErrSessionCompleted) {
		t.Fatalf("expected completed error, got %v", err)
	}
	after := s.State()
	for i := range before.Answers {
		if before.Answers[i] != after.Answers[i] {
			t.Fatalf("answer %d mutated after completion", i)
		}
	}
}

func TestCompletionRaceFiresOnce(t *testing.T) {
	for run := 0; run < 50; run++ {
		var completions int32
		sub := &fakeSubmitter{receipt: domain.SubmissionReceipt{Accepted: true}}
		s, _ := newTestSession(fiveQuestions(1), newFakeClock(),
			app.WithCompletionHook(func(domain.CompletionEvent) { atomic.AddInt32(&completions, 1) }),
			app.WithSubmitter(sub, time.Second),
		)
		_, _ = s.Start()

		qs := s.Challenge().Questions
		for i := 0; i < len(qs)-1; i++ {
			_, _ = s.Select(qs[i].CorrectOption)
			_, _ = s.Advance()
		}
		_, _ = s.Select(qs[len(qs)-1].CorrectOption)
		for i := 0; i < 59; i++ {
			s.Tick()
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); _, _ = s.Advance() }()
		go func() { defer wg.Done(); s.Tick() }()
		wg.Wait()
		waitDone(t, s.SubmissionDone())

		if got := atomic.LoadInt32(&completions); got != 1 {
			t.Fatalf("run %d: expected one completion, got %d", run, got)
		}
		if got := sub.Count(); got != 1 {
			t.Fatalf("run %d: expected one submission, got %d", run, got)
		}
	}
}

func TestCountdownGoroutineTicks(t *testing.T) {
	s, tickers := newTestSession(fiveQuestions(10), newFakeClock())
	defer s.Abandon()

	ch, cancel := s.Subscribe()
	defer cancel()
	<-ch // initial snapshot

	_, _ = s.Start()
	<-ch // in progress

	tickers.Last().ch <- time.Now()
	select {
	case state := <-ch:
		if state.RemainingSeconds != 599 {
			t.Fatalf("expected 599s, got %d", state.RemainingSeconds)
		}
	case <-time.After(time.Second):
		t.Fatal("no update after tick")
	}
}

func TestAbandonStopsCountdown(t *testing.T) {
	s, tickers := newTestSession(fiveQuestions(10), newFakeClock())
	_, _ = s.Start()
	s.Abandon()

	// the countdown goroutine has exited, so nobody receives on the ticker
	select {
	case tickers.Last().ch <- time.Now():
		t.Fatal("countdown still running after abandon")
	case <-time.After(50 * time.Millisecond):
	}
	if _, err := s.Select(0); !errors.Is(err, domain.ErrSessionAbandoned) {
		t.Fatalf("expected abandoned, got %v", err)
	}
	if s.State().RemainingSeconds != 600 {
		t.Fatal("countdown moved after abandon")
	}
}

func TestSubmissionFailureIsNonBlockingWarning(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("connection refused")}
	s, _ := newTestSession(fiveQuestions(10), newFakeClock(), app.WithSubmitter(sub, time.Second))
	_, _ = s.Start()
	state := answerAll(t, s, func(_ int, q domain.Question) int { return q.CorrectOption })

	if state.Result == nil || state.Result.AccuracyPercent != 100 {
		t.Fatalf("result must be available immediately, got %+v", state.Result)
	}
	if state.Submission.Status != domain.SubmissionPending {
		t.Fatalf("expected pending submission, got %s", state.Submission.Status)
	}

	waitDone(t, s.SubmissionDone())
	state = s.State()
	if state.Submission.Status != domain.SubmissionFailed || state.Submission.Warning == "" {
		t.Fatalf("expected failed submission with warning, got %+v", state.Submission)
	}
	if state.Result == nil || state.Result.AccuracyPercent != 100 {
		t.Fatal("local result changed after submission failure")
	}
}

func TestRejectedSubmissionCarriesReason(t *testing.T) {
	sub := &fakeSubmitter{receipt: domain.SubmissionReceipt{Accepted: false, Message: "League has ended"}}
	s, _ := newTestSession(fiveQuestions(10), newFakeClock(), app.WithSubmitter(sub, time.Second))
	_, _ = s.Start()
	answerAll(t, s, func(_ int, q domain.Question) int { return q.CorrectOption })
	waitDone(t, s.SubmissionDone())

	state := s.State()
	if state.Submission.Status != domain.SubmissionRejected || state.Submission.Warning != "League has ended" {
		t.Fatalf("unexpected submission state: %+v", state.Submission)
	}

	sub.mu.Lock()
	got := sub.submissions[0]
	sub.mu.Unlock()
	if got.AccuracyPercent != 100 || len(got.Answers) != 5 || got.UserID != "u1" || got.DisplayName != "Alice" {
		t.Fatalf("unexpected submission payload: %+v", got)
	}
}

func TestEmptyChallengeCannotStart(t *testing.T) {
	s, _ := newTestSession(domain.Challenge{ID: "empty", TimeLimitMinutes: 10}, newFakeClock())
	if _, err := s.Start(); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected no questions, got %v", err)
	}
}
