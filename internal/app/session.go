package app

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// Submitter hands a finished attempt to the Submission Service.
type Submitter interface {
	Submit(ctx context.Context, challengeID string, submission domain.Submission) (domain.SubmissionReceipt, error)
}

// Ticker drives a session countdown.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

const submissionWarning = "Your result is shown locally but could not be submitted to the leaderboard."

type sessionConfig struct {
	now           func() time.Time
	tickInterval  time.Duration
	newTicker     func(time.Duration) Ticker
	submitter     Submitter
	submitTimeout time.Duration
	log           logrus.FieldLogger
	onComplete    func(domain.CompletionEvent)
	onSubmitted   func(domain.SubmissionStatus)
}

// SessionOption customizes a Session.
type SessionOption func(*sessionConfig)

// WithSessionClock injects the clock used for start and completion timestamps.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(c *sessionConfig) { c.now = now }
}

// WithTickInterval sets how often the countdown loses one second.
func WithTickInterval(d time.Duration) SessionOption {
	return func(c *sessionConfig) {
		if d > 0 {
			c.tickInterval = d
		}
	}
}

// WithTickerFactory replaces time.NewTicker; tests pass a ticker that never
// fires and drive the countdown through Tick.
func WithTickerFactory(f func(time.Duration) Ticker) SessionOption {
	return func(c *sessionConfig) { c.newTicker = f }
}

// WithSubmitter sets the Submission Service and the per-submission timeout.
func WithSubmitter(s Submitter, timeout time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.submitter = s
		if timeout > 0 {
			c.submitTimeout = timeout
		}
	}
}

func WithSessionLogger(log logrus.FieldLogger) SessionOption {
	return func(c *sessionConfig) { c.log = log }
}

// WithCompletionHook runs once per session, after scoring and before submission.
func WithCompletionHook(f func(domain.CompletionEvent)) SessionOption {
	return func(c *sessionConfig) { c.onComplete = f }
}

// WithSubmissionHook observes the final submission status.
func WithSubmissionHook(f func(domain.SubmissionStatus)) SessionOption {
	return func(c *sessionConfig) { c.onSubmitted = f }
}

// Session is one user's timed attempt at a challenge. All methods are safe for
// concurrent use; the countdown goroutine and client events serialize on mu.
type Session struct {
	id          string
	userID      string
	displayName string
	challenge   domain.Challenge
	createdAt   time.Time
	cfg         sessionConfig

	mu          sync.Mutex
	phase       domain.Phase
	abandoned   bool
	cursor      int
	pending     int
	answers     []int
	startedAt   time.Time
	remaining   int
	result      *domain.Result
	submission  domain.SubmissionState
	stopTimer   context.CancelFunc
	timerDone   chan struct{}
	finished    chan struct{}
	subscribers map[chan domain.SessionState]struct{}
}

// NewSession creates a NotStarted session with one unanswered slot per
// question and the countdown set to the challenge time limit.
func NewSession(id, userID, displayName string, challenge domain.Challenge, opts ...SessionOption) *Session {
	cfg := sessionConfig{
		now:           time.Now,
		tickInterval:  time.Second,
		newTicker:     NewRealTicker,
		submitTimeout: 5 * time.Second,
		log:           logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	answers := make([]int, len(challenge.Questions))
	for i := range answers {
		answers[i] = domain.NoSelection
	}
	return &Session{
		id:          id,
		userID:      userID,
		displayName: displayName,
		challenge:   challenge,
		createdAt:   cfg.now(),
		cfg:         cfg,
		phase:       domain.PhaseNotStarted,
		pending:     domain.NoSelection,
		answers:     answers,
		remaining:   challenge.TimeLimitSeconds(),
		submission:  domain.SubmissionState{Status: domain.SubmissionNone},
		finished:    make(chan struct{}),
		subscribers: make(map[chan domain.SessionState]struct{}),
	}
}

func (s *Session) ID() string                  { return s.id }
func (s *Session) UserID() string              { return s.userID }
func (s *Session) ChallengeID() string         { return s.challenge.ID }
func (s *Session) Challenge() domain.Challenge { return s.challenge }
func (s *Session) CreatedAt() time.Time        { return s.createdAt }

// Start records the start timestamp and begins the countdown.
func (s *Session) Start() (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.abandoned {
		return domain.SessionState{}, domain.ErrSessionAbandoned
	}
	switch s.phase {
	case domain.PhaseInProgress:
		return domain.SessionState{}, domain.ErrSessionStarted
	case domain.PhaseCompleted:
		return domain.SessionState{}, domain.ErrSessionCompleted
	}
	if len(s.answers) == 0 {
		return domain.SessionState{}, domain.ErrNoQuestions
	}

	s.phase = domain.PhaseInProgress
	s.startedAt = s.cfg.now()
	if s.remaining <= 0 {
		s.remaining = 0
		s.completeLocked(domain.CompletedByTimeout)
		return s.broadcastLocked(), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopTimer = cancel
	s.timerDone = make(chan struct{})
	go s.runCountdown(ctx, s.cfg.newTicker(s.cfg.tickInterval), s.timerDone)
	return s.broadcastLocked(), nil
}

func (s *Session) runCountdown(ctx context.Context, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if !s.Tick() {
				return
			}
		}
	}
}

// Tick takes one second off the countdown and completes the session when it
// reaches zero. It reports whether the countdown is still running.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.abandoned || s.phase != domain.PhaseInProgress {
		return false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.completeLocked(domain.CompletedByTimeout)
		s.broadcastLocked()
		return false
	}
	s.broadcastLocked()
	return true
}

// Select records a pending selection for the current question.
func (s *Session) Select(option int) (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkActiveLocked(); err != nil {
		return domain.SessionState{}, err
	}
	if !s.challenge.Questions[s.cursor].ValidOption(option) {
		return domain.SessionState{}, domain.ErrInvalidOption
	}
	s.pending = option
	return s.broadcastLocked(), nil
}

// Advance commits the pending selection and moves forward, completing the
// session after the last question. Moving onto an already answered question
// restores that answer as the pending selection.
func (s *Session) Advance() (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkActiveLocked(); err != nil {
		return domain.SessionState{}, err
	}
	if s.pending == domain.NoSelection {
		return domain.SessionState{}, domain.ErrNoSelection
	}

	s.answers[s.cursor] = s.pending
	s.pending = domain.NoSelection
	if s.cursor < len(s.answers)-1 {
		s.cursor++
		// a revisited question starts with its recorded answer pending
		s.pending = s.answers[s.cursor]
	} else {
		s.completeLocked(domain.CompletedByAnswer)
	}
	return s.broadcastLocked(), nil
}

// Retreat moves back one question and restores its recorded answer as the
// pending selection. Recorded answers are kept.
func (s *Session) Retreat() (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkActiveLocked(); err != nil {
		return domain.SessionState{}, err
	}
	if s.cursor == 0 {
		return domain.SessionState{}, domain.ErrAtFirstQuestion
	}
	s.cursor--
	s.pending = s.answers[s.cursor]
	return s.broadcastLocked(), nil
}

// State returns the current snapshot.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Result returns the computed result once the session has completed.
func (s *Session) Result() (domain.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.Result{}, false
	}
	return *s.result, true
}

// SubmissionDone is closed after the completion hook and submission finish.
func (s *Session) SubmissionDone() <-chan struct{} {
	return s.finished
}

// Abandon tears down the countdown and closes subscribers. It waits for the
// countdown goroutine to exit so no tick lands afterwards.
func (s *Session) Abandon() {
	s.mu.Lock()
	if s.abandoned {
		s.mu.Unlock()
		return
	}
	s.abandoned = true
	if s.stopTimer != nil {
		s.stopTimer()
	}
	done := s.timerDone
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Subscribe returns a channel of state snapshots, starting with the current
// one. The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.SessionState, func()) {
	ch := make(chan domain.SessionState, 8)

	s.mu.Lock()
	if s.abandoned {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) checkActiveLocked() error {
	if s.abandoned {
		return domain.ErrSessionAbandoned
	}
	switch s.phase {
	case domain.PhaseNotStarted:
		return domain.ErrSessionNotStarted
	case domain.PhaseCompleted:
		return domain.ErrSessionCompleted
	}
	return nil
}

// completeLocked is the completion latch: the first caller scores the attempt,
// every later caller is a no-op.
func (s *Session) completeLocked(by domain.CompletionTrigger) bool {
	if s.result != nil {
		return false
	}

	now := s.cfg.now()
	result := ScoreAttempt(s.challenge, s.answers, now.Sub(s.startedAt), by)
	result.CompletedAt = now
	s.result = &result
	s.phase = domain.PhaseCompleted
	s.pending = domain.NoSelection
	if s.stopTimer != nil {
		s.stopTimer()
	}
	if s.cfg.submitter != nil {
		s.submission = domain.SubmissionState{Status: domain.SubmissionPending}
	}

	go s.finish(result, append([]int(nil), s.answers...))
	return true
}

func (s *Session) finish(result domain.Result, answers []int) {
	defer close(s.finished)

	if s.cfg.onComplete != nil {
		s.cfg.onComplete(domain.CompletionEvent{
			SessionID:   s.id,
			ChallengeID: s.challenge.ID,
			UserID:      s.userID,
			DisplayName: s.displayName,
			Result:      result,
		})
	}
	if s.cfg.submitter == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.submitTimeout)
	defer cancel()

	log := s.cfg.log.WithFields(logrus.Fields{
		"session":   s.id,
		"challenge": s.challenge.ID,
		"user":      s.userID,
	})
	receipt, err := s.cfg.submitter.Submit(ctx, s.challenge.ID, domain.Submission{
		SessionID:       s.id,
		UserID:          s.userID,
		DisplayName:     s.displayName,
		Answers:         answers,
		ElapsedSeconds:  result.ElapsedSeconds,
		AccuracyPercent: result.AccuracyPercent,
		Score:           result.Score,
		SubmittedAt:     result.CompletedAt,
	})

	state := domain.SubmissionState{Status: domain.SubmissionAccepted}
	switch {
	case err != nil:
		log.WithError(err).Warn("result submission failed")
		state = domain.SubmissionState{Status: domain.SubmissionFailed, Warning: submissionWarning}
	case !receipt.Accepted:
		msg := receipt.Message
		if msg == "" {
			msg = domain.ErrSubmissionRejected.Error()
		}
		log.WithField("reason", msg).Warn("result submission rejected")
		state = domain.SubmissionState{Status: domain.SubmissionRejected, Warning: msg}
	default:
		log.Debug("result submitted")
	}

	s.mu.Lock()
	s.submission = state
	s.broadcastLocked()
	s.mu.Unlock()

	if s.cfg.onSubmitted != nil {
		s.cfg.onSubmitted(state.Status)
	}
}

func (s *Session) broadcastLocked() domain.SessionState {
	state := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- state:
		default:
			// drop the stale snapshot so a slow reader never blocks the countdown
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
	return state
}

func (s *Session) snapshotLocked() domain.SessionState {
	var pending *int
	if s.pending != domain.NoSelection {
		p := s.pending
		pending = &p
	}
	var result *domain.Result
	if s.result != nil {
		r := *s.result
		result = &r
	}
	return domain.SessionState{
		SessionID:        s.id,
		ChallengeID:      s.challenge.ID,
		UserID:           s.userID,
		Phase:            s.phase,
		Cursor:           s.cursor,
		Pending:          pending,
		RemainingSeconds: s.remaining,
		Answers:          append([]int(nil), s.answers...),
		Result:           result,
		Submission:       s.submission,
	}
}
