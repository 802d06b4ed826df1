package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// SessionRepository abstracts how challenge sessions are held (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
	List() []*Session
}

// ChallengeRepository loads challenge content (from cache/backing store).
type ChallengeRepository interface {
	GetChallenge(ctx context.Context, challengeID string) (domain.Challenge, error)
}

// ResultPublisher announces completed sessions to other services.
type ResultPublisher interface {
	PublishCompleted(ctx context.Context, event domain.CompletionEvent) error
}

// ChallengeService contains the challenge session use cases.
type ChallengeService struct {
	sessions   SessionRepository
	challenges ChallengeRepository
	standings  *Standings

	submitter     Submitter
	submitTimeout time.Duration
	publisher     ResultPublisher
	metrics       Metrics
	log           logrus.FieldLogger
	now           func() time.Time
	tickInterval  time.Duration
	newTicker     func(time.Duration) Ticker
	newID         func() string
}

// ServiceOption customizes a ChallengeService.
type ServiceOption func(*ChallengeService)

func WithResultSubmitter(s Submitter, timeout time.Duration) ServiceOption {
	return func(c *ChallengeService) {
		c.submitter = s
		c.submitTimeout = timeout
	}
}

func WithPublisher(p ResultPublisher) ServiceOption {
	return func(c *ChallengeService) { c.publisher = p }
}

func WithMetrics(m Metrics) ServiceOption {
	return func(c *ChallengeService) {
		if m != nil {
			c.metrics = m
		}
	}
}

func WithLogger(log logrus.FieldLogger) ServiceOption {
	return func(c *ChallengeService) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(c *ChallengeService) { c.now = now }
}

// WithCountdown sets the tick interval and, optionally, the ticker factory.
func WithCountdown(interval time.Duration, newTicker func(time.Duration) Ticker) ServiceOption {
	return func(c *ChallengeService) {
		c.tickInterval = interval
		if newTicker != nil {
			c.newTicker = newTicker
		}
	}
}

// WithIDGenerator is test-only for predictable session ids.
func WithIDGenerator(f func() string) ServiceOption {
	return func(c *ChallengeService) { c.newID = f }
}

func NewChallengeService(sessions SessionRepository, challenges ChallengeRepository, standings *Standings, opts ...ServiceOption) *ChallengeService {
	if standings == nil {
		standings = NewStandings()
	}
	s := &ChallengeService{
		sessions:     sessions,
		challenges:   challenges,
		standings:    standings,
		metrics:      NoopMetrics{},
		log:          logrus.StandardLogger(),
		now:          time.Now,
		tickInterval: time.Second,
		newTicker:    NewRealTicker,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession loads the challenge and registers a NotStarted session sized to
// its question count. Load failures block the session.
func (s *ChallengeService) StartSession(ctx context.Context, challengeID, userID, displayName string) (domain.SessionState, domain.ChallengeView, error) {
	challenge, err := s.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		s.log.WithError(err).WithField("challenge", challengeID).Error("challenge load failed")
		return domain.SessionState{}, domain.ChallengeView{}, err
	}
	if displayName == "" {
		displayName = userID
	}

	opts := []SessionOption{
		WithSessionClock(s.now),
		WithTickInterval(s.tickInterval),
		WithTickerFactory(s.newTicker),
		WithSessionLogger(s.log),
		WithCompletionHook(s.onCompleted(challenge)),
		WithSubmissionHook(s.metrics.SubmissionFinished),
	}
	if s.submitter != nil {
		opts = append(opts, WithSubmitter(s.submitter, s.submitTimeout))
	}

	session := NewSession(s.newID(), userID, displayName, challenge, opts...)
	s.sessions.Save(session)
	s.metrics.SetActiveSessions(len(s.sessions.List()))

	s.log.WithFields(logrus.Fields{
		"session":   session.ID(),
		"challenge": challenge.ID,
		"user":      userID,
		"fallback":  challenge.Fallback,
	}).Info("challenge session created")
	return session.State(), challenge.View(), nil
}

// Begin moves the session to InProgress and starts its countdown.
func (s *ChallengeService) Begin(_ context.Context, sessionID string) (domain.SessionState, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	state, err := session.Start()
	if err == nil {
		s.metrics.SessionStarted(session.ChallengeID())
	}
	return state, err
}

// SelectOption records a pending selection for the current question.
func (s *ChallengeService) SelectOption(_ context.Context, sessionID string, option int) (domain.SessionState, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	return session.Select(option)
}

// Advance commits the pending selection and moves forward or completes.
func (s *ChallengeService) Advance(_ context.Context, sessionID string) (domain.SessionState, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	return session.Advance()
}

// Retreat moves back one question.
func (s *ChallengeService) Retreat(_ context.Context, sessionID string) (domain.SessionState, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	return session.Retreat()
}

// State returns the current session snapshot.
func (s *ChallengeService) State(_ context.Context, sessionID string) (domain.SessionState, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	return session.State(), nil
}

// Subscribe returns a channel that receives session snapshots on every change
// and countdown tick. The caller must invoke the returned cancel function.
func (s *ChallengeService) Subscribe(_ context.Context, sessionID string) (<-chan domain.SessionState, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// SubmissionDone exposes the session's submission completion signal.
func (s *ChallengeService) SubmissionDone(_ context.Context, sessionID string) (<-chan struct{}, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.SubmissionDone(), nil
}

// Abandon cancels the session countdown and forgets the session.
func (s *ChallengeService) Abandon(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Abandon()
	s.sessions.Delete(sessionID)
	s.metrics.SetActiveSessions(len(s.sessions.List()))
}

// Sweep abandons sessions created more than maxAge ago and returns how many
// were removed.
func (s *ChallengeService) Sweep(ctx context.Context, maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, session := range s.sessions.List() {
		if session.CreatedAt().Before(cutoff) {
			s.Abandon(ctx, session.ID())
			removed++
		}
	}
	if removed > 0 {
		s.log.WithField("removed", removed).Debug("swept stale sessions")
	}
	return removed
}

// LeagueStandings returns the local ranking for a league.
func (s *ChallengeService) LeagueStandings(leagueID string) (domain.LeagueLeaderboard, bool) {
	return s.standings.Snapshot(leagueID)
}

// SubscribeStandings streams the local league ranking, starting with the
// current snapshot.
func (s *ChallengeService) SubscribeStandings(leagueID string) (<-chan domain.LeagueLeaderboard, func()) {
	return s.standings.Subscribe(leagueID)
}

func (s *ChallengeService) onCompleted(challenge domain.Challenge) func(domain.CompletionEvent) {
	return func(event domain.CompletionEvent) {
		s.metrics.SessionCompleted(event.ChallengeID, event.Result.CompletedBy, event.Result.AccuracyPercent)
		s.log.WithFields(logrus.Fields{
			"session":   event.SessionID,
			"challenge": event.ChallengeID,
			"accuracy":  event.Result.AccuracyPercent,
			"elapsed":   event.Result.ElapsedSeconds,
			"by":        event.Result.CompletedBy,
		}).Info("challenge session completed")

		s.standings.Record(event.ChallengeID, standingFromResult(event.UserID, event.DisplayName, challenge.TimeLimitSeconds(), event.Result))

		if s.publisher == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.PublishCompleted(ctx, event); err != nil {
			s.log.WithError(err).WithField("session", event.SessionID).Warn("publish completion event failed")
		}
	}
}
