package app

import (
	"sync"
	"time"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// Standings keeps the local leaderboard of every league that completed a
// session in this process, and fans out updates to subscribers.
type Standings struct {
	now func() time.Time

	mu      sync.RWMutex
	leagues map[string]*leagueBoard
}

type leagueBoard struct {
	entries     map[string]*domain.LeagueStanding
	subscribers map[chan domain.LeagueLeaderboard]struct{}
}

func NewStandings() *Standings {
	return NewStandingsWithClock(time.Now)
}

// NewStandingsWithClock allows deterministic timestamps in tests.
func NewStandingsWithClock(now func() time.Time) *Standings {
	return &Standings{now: now, leagues: make(map[string]*leagueBoard)}
}

func (s *Standings) boardLocked(leagueID string) *leagueBoard {
	board, ok := s.leagues[leagueID]
	if !ok {
		board = &leagueBoard{
			entries:     make(map[string]*domain.LeagueStanding),
			subscribers: make(map[chan domain.LeagueLeaderboard]struct{}),
		}
		s.leagues[leagueID] = board
	}
	return board
}

// Record keeps the user's best attempt for the league and broadcasts the new
// ranking.
func (s *Standings) Record(leagueID string, entry domain.LeagueStanding) domain.LeagueLeaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	board := s.boardLocked(leagueID)
	if current, ok := board.entries[entry.UserID]; ok {
		if !betterStanding(entry, *current) {
			// keep the better attempt, refresh the display name only
			current.Username = entry.Username
			return s.broadcastLocked(leagueID, board)
		}
	}
	e := entry
	board.entries[entry.UserID] = &e
	return s.broadcastLocked(leagueID, board)
}

// Snapshot returns the ranked standings and whether the league has any.
func (s *Standings) Snapshot(leagueID string) (domain.LeagueLeaderboard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	board, ok := s.leagues[leagueID]
	if !ok || len(board.entries) == 0 {
		return domain.LeagueLeaderboard{LeagueID: leagueID, Entries: []domain.LeagueStanding{}, UpdatedAt: s.now()}, false
	}
	return s.snapshotLocked(leagueID, board), true
}

// Subscribe returns a channel of league leaderboard updates, starting with the
// current ranking. The caller must invoke the returned cancel function.
func (s *Standings) Subscribe(leagueID string) (<-chan domain.LeagueLeaderboard, func()) {
	ch := make(chan domain.LeagueLeaderboard, 8)

	s.mu.Lock()
	board := s.boardLocked(leagueID)
	board.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked(leagueID, board)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := board.subscribers[ch]; ok {
			delete(board.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Standings) broadcastLocked(leagueID string, board *leagueBoard) domain.LeagueLeaderboard {
	lb := s.snapshotLocked(leagueID, board)
	for ch := range board.subscribers {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
	return lb
}

func (s *Standings) snapshotLocked(leagueID string, board *leagueBoard) domain.LeagueLeaderboard {
	entries := make([]domain.LeagueStanding, 0, len(board.entries))
	for _, e := range board.entries {
		entries = append(entries, *e)
	}
	RankStandings(entries)
	return domain.LeagueLeaderboard{
		LeagueID:  leagueID,
		Entries:   entries,
		UpdatedAt: s.now(),
	}
}
