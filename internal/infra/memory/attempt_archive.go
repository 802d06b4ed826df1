package memory

import (
	"context"
	"sync"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// AttemptArchive is an in-process Submission Service: it accepts every
// attempt once and rejects a repeated submission of the same session.
type AttemptArchive struct {
	mu       sync.RWMutex
	attempts map[string][]domain.Submission
	seen     map[string]struct{}
}

func NewAttemptArchive() *AttemptArchive {
	return &AttemptArchive{
		attempts: make(map[string][]domain.Submission),
		seen:     make(map[string]struct{}),
	}
}

func (a *AttemptArchive) Submit(_ context.Context, challengeID string, submission domain.Submission) (domain.SubmissionReceipt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, dup := a.seen[submission.SessionID]; dup {
		return domain.SubmissionReceipt{Accepted: false, Message: "attempt already submitted"}, nil
	}
	a.seen[submission.SessionID] = struct{}{}
	submission.Answers = append([]int(nil), submission.Answers...)
	a.attempts[challengeID] = append(a.attempts[challengeID], submission)
	return domain.SubmissionReceipt{Accepted: true}, nil
}

// Attempts returns the archived submissions for a challenge in arrival order.
func (a *AttemptArchive) Attempts(challengeID string) []domain.Submission {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]domain.Submission(nil), a.attempts[challengeID]...)
}

// Standings returns each user's best archived attempt for a challenge, unranked.
func (a *AttemptArchive) Standings(_ context.Context, challengeID string) ([]domain.LeagueStanding, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	best := make(map[string]domain.LeagueStanding)
	var order []string
	for _, s := range a.attempts[challengeID] {
		row := domain.LeagueStanding{
			UserID:         s.UserID,
			Username:       s.DisplayName,
			Accuracy:       float64(s.AccuracyPercent) / 100,
			TotalScore:     float64(s.Score),
			ElapsedSeconds: s.ElapsedSeconds,
			SubmittedAt:    s.SubmittedAt,
		}
		if row.Username == "" {
			row.Username = s.UserID
		}
		cur, ok := best[s.UserID]
		if !ok {
			order = append(order, s.UserID)
		}
		if !ok || row.Accuracy > cur.Accuracy || (row.Accuracy == cur.Accuracy && row.ElapsedSeconds < cur.ElapsedSeconds) {
			best[s.UserID] = row
		}
	}
	out := make([]domain.LeagueStanding, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out, nil
}
