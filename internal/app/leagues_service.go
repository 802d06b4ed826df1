package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// LeagueBackend is the remote side of leagues and leaderboards.
type LeagueBackend interface {
	ListLeagues(ctx context.Context) ([]domain.League, error)
	GetLeague(ctx context.Context, leagueID string) (domain.League, error)
	EnterLeague(ctx context.Context, leagueID, userID string) error
	LeagueLeaderboard(ctx context.Context, leagueID string) ([]domain.LeagueStanding, error)
	GlobalLeaderboard(ctx context.Context, scope, subject string) ([]domain.GlobalEntry, error)
	Spotlight(ctx context.Context) ([]domain.Spotlight, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// LeagueFallback supplies sample league and leaderboard data.
type LeagueFallback interface {
	Leagues() []domain.League
	League(id string) (domain.League, bool)
	LeagueStandings(leagueID string) []domain.LeagueStanding
	GlobalLeaderboard(scope, subject string) []domain.GlobalEntry
	Spotlight() []domain.Spotlight
	Stats() domain.Stats
}

// StandingsArchive holds persisted attempts, used when the backend cannot
// serve a league leaderboard.
type StandingsArchive interface {
	Standings(ctx context.Context, leagueID string) ([]domain.LeagueStanding, error)
}

// LeaguesOption customizes a LeaguesService.
type LeaguesOption func(*LeaguesService)

func WithStandingsArchive(a StandingsArchive) LeaguesOption {
	return func(s *LeaguesService) { s.archive = a }
}

// LeagueBoardView pairs a league with its leaderboard.
type LeagueBoardView struct {
	League      domain.League            `json:"league"`
	Leaderboard domain.LeagueLeaderboard `json:"leaderboard"`
}

// LeaguesService serves leagues and leaderboards, always rendering something:
// remote data first, then archived attempts, then local standings, then
// sample data.
type LeaguesService struct {
	backend   LeagueBackend
	fallback  LeagueFallback
	standings *Standings
	archive   StandingsArchive
	metrics   Metrics
	log       logrus.FieldLogger
}

// NewLeaguesService builds the service. backend may be nil, in which case only
// local and sample data are served.
func NewLeaguesService(backend LeagueBackend, fallback LeagueFallback, standings *Standings, metrics Metrics, log logrus.FieldLogger, opts ...LeaguesOption) *LeaguesService {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if standings == nil {
		standings = NewStandings()
	}
	s := &LeaguesService{backend: backend, fallback: fallback, standings: standings, metrics: metrics, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LeaguesService) useFallback(kind string, err error) {
	s.metrics.FallbackUsed(kind)
	entry := s.log.WithField("kind", kind)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("serving fallback data")
}

// Leagues lists all leagues.
func (s *LeaguesService) Leagues(ctx context.Context) domain.LeagueCatalog {
	if s.backend != nil {
		leagues, err := s.backend.ListLeagues(ctx)
		if err == nil && len(leagues) > 0 {
			return domain.LeagueCatalog{Leagues: leagues}
		}
		s.useFallback("leagues", err)
	}
	return domain.LeagueCatalog{Leagues: s.fallback.Leagues(), FromFallback: true}
}

// League returns one league. Unknown ids yield domain.ErrLeagueNotFound.
func (s *LeaguesService) League(ctx context.Context, leagueID string) (domain.League, error) {
	if s.backend != nil {
		league, err := s.backend.GetLeague(ctx, leagueID)
		if err == nil {
			return league, nil
		}
		if !errors.Is(err, domain.ErrLeagueNotFound) {
			s.useFallback("league", err)
		}
	}
	if league, ok := s.fallback.League(leagueID); ok {
		return league, nil
	}
	return domain.League{}, domain.ErrLeagueNotFound
}

// Enter joins the user to a league. Without a backend the entry is accepted
// locally.
func (s *LeaguesService) Enter(ctx context.Context, leagueID, userID string) error {
	if _, err := s.League(ctx, leagueID); err != nil {
		return err
	}
	if s.backend == nil {
		return nil
	}
	if err := s.backend.EnterLeague(ctx, leagueID, userID); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"league": leagueID, "user": userID}).Warn("enter league failed")
		return err
	}
	return nil
}

// Leaderboard fetches the league and its leaderboard concurrently.
func (s *LeaguesService) Leaderboard(ctx context.Context, leagueID string) (LeagueBoardView, error) {
	var (
		view   LeagueBoardView
		remote []domain.LeagueStanding
		remErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		league, err := s.League(gctx, leagueID)
		if err != nil {
			return err
		}
		view.League = league
		return nil
	})
	if s.backend != nil {
		g.Go(func() error {
			// leaderboard failures degrade, they never fail the page
			remote, remErr = s.backend.LeagueLeaderboard(gctx, leagueID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return LeagueBoardView{}, err
	}

	switch {
	case s.backend != nil && remErr == nil:
		entries := append([]domain.LeagueStanding(nil), remote...)
		RankStandings(entries)
		view.Leaderboard = domain.LeagueLeaderboard{LeagueID: leagueID, Entries: entries}
		return view, nil
	case s.backend != nil:
		s.log.WithError(remErr).WithField("league", leagueID).Warn("league leaderboard unavailable")
	}

	if s.archive != nil {
		rows, err := s.archive.Standings(ctx, leagueID)
		if err != nil {
			s.log.WithError(err).WithField("league", leagueID).Warn("archived standings unavailable")
		} else if len(rows) > 0 {
			RankStandings(rows)
			view.Leaderboard = domain.LeagueLeaderboard{LeagueID: leagueID, Entries: rows, UpdatedAt: time.Now()}
			return view, nil
		}
	}
	if local, ok := s.standings.Snapshot(leagueID); ok {
		view.Leaderboard = local
		return view, nil
	}
	s.useFallback("league_leaderboard", remErr)
	entries := s.fallback.LeagueStandings(leagueID)
	RankStandings(entries)
	view.Leaderboard = domain.LeagueLeaderboard{LeagueID: leagueID, Entries: entries, FromFallback: true}
	return view, nil
}

// GlobalLeaderboard returns the global or subject ranking ordered by sortBy
// (score, accuracy or challenges).
func (s *LeaguesService) GlobalLeaderboard(ctx context.Context, scope, subject, sortBy string) domain.GlobalLeaderboard {
	scope = strings.ToLower(scope)
	if scope != "subject" {
		scope = "global"
		subject = ""
	}

	board := domain.GlobalLeaderboard{Scope: scope, Subject: subject}
	var err error
	if s.backend != nil {
		var entries []domain.GlobalEntry
		entries, err = s.backend.GlobalLeaderboard(ctx, scope, subject)
		if err == nil {
			board.Entries = entries
		}
	}
	if board.Entries == nil {
		s.useFallback("global_leaderboard", err)
		board.Entries = s.fallback.GlobalLeaderboard(scope, subject)
		board.FromFallback = true
	}
	RankGlobal(board.Entries, sortBy)
	return board
}

// Spotlight returns the highlighted players.
func (s *LeaguesService) Spotlight(ctx context.Context) ([]domain.Spotlight, bool) {
	if s.backend != nil {
		spots, err := s.backend.Spotlight(ctx)
		if err == nil && len(spots) > 0 {
			return spots, false
		}
		s.useFallback("spotlight", err)
	}
	return s.fallback.Spotlight(), true
}

// Stats returns platform-wide numbers.
func (s *LeaguesService) Stats(ctx context.Context) domain.Stats {
	if s.backend != nil {
		stats, err := s.backend.Stats(ctx)
		if err == nil {
			return stats
		}
		s.useFallback("stats", err)
	}
	stats := s.fallback.Stats()
	stats.FromFallback = true
	return stats
}
