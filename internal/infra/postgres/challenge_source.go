package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// ChallengeSource loads challenge JSONB from Postgres. It plays the Content
// Service when challenges are authored in the database.
type ChallengeSource struct {
	pool *pgxpool.Pool
}

func NewChallengeSource(pool *pgxpool.Pool) *ChallengeSource {
	return &ChallengeSource{pool: pool}
}

func (l *ChallengeSource) FetchChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM challenges WHERE id=$1`, challengeID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("load challenge: %w", err)
	}
	var challenge domain.Challenge
	if err := json.Unmarshal(raw, &challenge); err != nil {
		return domain.Challenge{ID: challengeID}, fmt.Errorf("unmarshal challenge: %v: %w", err, domain.ErrNoQuestions)
	}
	challenge.ID = challengeID
	challenge.Fallback = false
	if len(challenge.Questions) == 0 {
		return challenge, fmt.Errorf("challenge %s: %w", challengeID, domain.ErrNoQuestions)
	}
	return challenge, nil
}
