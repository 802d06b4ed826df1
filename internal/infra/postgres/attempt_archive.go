package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// AttemptArchive records finished attempts in the attempts table. It acts as
// the Submission Service when no remote backend is configured.
type AttemptArchive struct {
	pool *pgxpool.Pool
}

func NewAttemptArchive(pool *pgxpool.Pool) *AttemptArchive {
	return &AttemptArchive{pool: pool}
}

func (a *AttemptArchive) Submit(ctx context.Context, challengeID string, s domain.Submission) (domain.SubmissionReceipt, error) {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return domain.SubmissionReceipt{}, fmt.Errorf("encode answers: %w", err)
	}
	tag, err := a.pool.Exec(ctx, `
		INSERT INTO attempts (session_id, challenge_id, user_id, display_name, answers, elapsed_seconds, accuracy, score, submitted_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO NOTHING`,
		s.SessionID, challengeID, s.UserID, s.DisplayName, string(answers), s.ElapsedSeconds, s.AccuracyPercent, s.Score, s.SubmittedAt)
	if err != nil {
		return domain.SubmissionReceipt{}, fmt.Errorf("insert attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.SubmissionReceipt{Accepted: false, Message: "attempt already submitted"}, nil
	}
	return domain.SubmissionReceipt{Accepted: true}, nil
}

// Standings returns each user's best attempt for a challenge, unranked.
func (a *AttemptArchive) Standings(ctx context.Context, challengeID string) ([]domain.LeagueStanding, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT DISTINCT ON (user_id) user_id, display_name, accuracy, elapsed_seconds, score, submitted_at
		FROM attempts
		WHERE challenge_id = $1
		ORDER BY user_id, accuracy DESC, elapsed_seconds ASC, submitted_at ASC`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	var out []domain.LeagueStanding
	for rows.Next() {
		var (
			st       domain.LeagueStanding
			accuracy int
			score    int
		)
		if err := rows.Scan(&st.UserID, &st.Username, &accuracy, &st.ElapsedSeconds, &score, &st.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		if st.Username == "" {
			st.Username = st.UserID
		}
		st.Accuracy = float64(accuracy) / 100
		st.TotalScore = float64(score)
		out = append(out, st)
	}
	return out, rows.Err()
}
