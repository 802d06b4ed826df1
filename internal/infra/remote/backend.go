package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// FetchChallenge loads a league's challenge. A payload without a usable
// question set yields the parsed header and domain.ErrNoQuestions.
func (c *Client) FetchChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/leagues/"+escape(challengeID), nil)
	if errors.Is(err, errNotFound) {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	if err != nil {
		return domain.Challenge{}, err
	}
	if !data.IsObject() {
		return domain.Challenge{ID: challengeID}, fmt.Errorf("challenge %s: %w", challengeID, domain.ErrNoQuestions)
	}
	return parseChallenge(challengeID, data)
}

type submitRequest struct {
	LeagueID       string    `json:"leagueId"`
	SessionID      string    `json:"sessionId"`
	UserID         string    `json:"userId"`
	Answers        []int     `json:"answers"`
	CompletionTime int       `json:"completionTime"`
	Accuracy       int       `json:"accuracy"`
	Score          int       `json:"score"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// Submit posts a finished attempt. Failures the backend reports for the
// attempt itself (4xx or success=false) come back as a rejected receipt;
// transport and server errors are returned as errors.
func (c *Client) Submit(ctx context.Context, challengeID string, s domain.Submission) (domain.SubmissionReceipt, error) {
	_, err := c.do(ctx, http.MethodPost, "/api/leagues/submit", submitRequest{
		LeagueID:       challengeID,
		SessionID:      s.SessionID,
		UserID:         s.UserID,
		Answers:        s.Answers,
		CompletionTime: s.ElapsedSeconds,
		Accuracy:       s.AccuracyPercent,
		Score:          s.Score,
		SubmittedAt:    s.SubmittedAt,
	})
	var apiErr *APIError
	switch {
	case err == nil:
		return domain.SubmissionReceipt{Accepted: true}, nil
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		return domain.SubmissionReceipt{Accepted: false, Message: apiErr.Message}, nil
	default:
		return domain.SubmissionReceipt{}, err
	}
}

func (c *Client) ListLeagues(ctx context.Context) ([]domain.League, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/leagues", nil)
	if err != nil {
		return nil, err
	}
	return parseLeagues(data)
}

func (c *Client) GetLeague(ctx context.Context, leagueID string) (domain.League, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/leagues/"+escape(leagueID), nil)
	if errors.Is(err, errNotFound) {
		return domain.League{}, domain.ErrLeagueNotFound
	}
	if err != nil {
		return domain.League{}, err
	}
	league, ok := parseLeague(data)
	if !ok {
		return domain.League{}, fmt.Errorf("league %s: %w", leagueID, ErrMalformedResponse)
	}
	return league, nil
}

func (c *Client) EnterLeague(ctx context.Context, leagueID, userID string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/leagues/enter", map[string]string{
		"leagueId": leagueID,
		"userId":   userID,
	})
	if errors.Is(err, errNotFound) {
		return domain.ErrLeagueNotFound
	}
	return err
}

func (c *Client) LeagueLeaderboard(ctx context.Context, leagueID string) ([]domain.LeagueStanding, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/leagues/"+escape(leagueID)+"/leaderboard", nil)
	if err != nil {
		return nil, err
	}
	return parseStandings(data)
}

func (c *Client) GlobalLeaderboard(ctx context.Context, scope, subject string) ([]domain.GlobalEntry, error) {
	q := url.Values{}
	q.Set("scope", scope)
	if subject != "" {
		q.Set("subject", subject)
	}
	data, err := c.do(ctx, http.MethodGet, "/api/leaderboard?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return parseGlobal(data)
}

func (c *Client) Spotlight(ctx context.Context) ([]domain.Spotlight, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/leaderboard/spotlight", nil)
	if err != nil {
		return nil, err
	}
	return parseSpotlight(data)
}

func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/leaderboard/stats", nil)
	if err != nil {
		return domain.Stats{}, err
	}
	return parseStats(data)
}

func (c *Client) ReadersCatalog(ctx context.Context) ([]domain.Reader, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/readers/catalog", nil)
	if err != nil {
		return nil, err
	}
	return parseReaders(data, time.Now())
}
