package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// Defaults applied to challenge headers the content service leaves blank.
const (
	DefaultChallengeName        = "League Challenge"
	DefaultChallengeDescription = "Test your knowledge and skills"
	DefaultTimeLimitMinutes     = 10
)

// ChallengeSource is the Content Service: it fetches a challenge by id.
// Implementations return domain.ErrNoQuestions (possibly wrapped, with the
// header fields populated) when the payload carries no usable question set.
type ChallengeSource interface {
	FetchChallenge(ctx context.Context, challengeID string) (domain.Challenge, error)
}

// FallbackQuestions supplies the built-in question set.
type FallbackQuestions interface {
	Questions() []domain.Question
}

// ChallengeLoader turns a ChallengeSource into a loader that always yields a
// playable challenge or a blocking error.
type ChallengeLoader struct {
	source   ChallengeSource
	fallback FallbackQuestions
	metrics  Metrics
	log      logrus.FieldLogger
}

func NewChallengeLoader(source ChallengeSource, fallback FallbackQuestions, metrics Metrics, log logrus.FieldLogger) *ChallengeLoader {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ChallengeLoader{source: source, fallback: fallback, metrics: metrics, log: log}
}

// LoadChallenge fetches the challenge, substituting the fallback question set
// when the payload is missing or has invalid questions. Transport failures and
// unknown ids are returned as errors; there is no automatic retry.
func (l *ChallengeLoader) LoadChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	challenge, err := l.source.FetchChallenge(ctx, challengeID)
	switch {
	case err == nil:
		if verr := ValidateQuestions(challenge.Questions); verr != nil {
			l.log.WithError(verr).WithField("challenge", challengeID).Warn("invalid question set, using fallback")
			challenge.Questions = nil
		}
	case errors.Is(err, domain.ErrNoQuestions):
		l.log.WithField("challenge", challengeID).Info("challenge payload has no questions, using fallback")
		challenge.Questions = nil
	case errors.Is(err, domain.ErrChallengeNotFound):
		return domain.Challenge{}, err
	default:
		return domain.Challenge{}, fmt.Errorf("load challenge %s: %w: %w", challengeID, domain.ErrContentUnavailable, err)
	}

	// standings and caches are keyed by the requested id
	challenge.ID = challengeID
	if challenge.Name == "" {
		challenge.Name = DefaultChallengeName
	}
	if challenge.Description == "" {
		challenge.Description = DefaultChallengeDescription
	}
	if challenge.TimeLimitMinutes <= 0 {
		challenge.TimeLimitMinutes = DefaultTimeLimitMinutes
	}
	if len(challenge.Questions) == 0 {
		challenge.Questions = l.fallback.Questions()
		challenge.Fallback = true
		l.metrics.FallbackUsed("questions")
	}
	return challenge, nil
}

// ValidateQuestions rejects question sets that cannot be played: empty sets,
// questions with fewer than two options, or a correct index out of range.
func ValidateQuestions(questions []domain.Question) error {
	if len(questions) == 0 {
		return domain.ErrNoQuestions
	}
	for i, q := range questions {
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d has %d options: %w", i, len(q.Options), domain.ErrNoQuestions)
		}
		if !q.ValidOption(q.CorrectOption) {
			return fmt.Errorf("question %d correct option %d out of range: %w", i, q.CorrectOption, domain.ErrNoQuestions)
		}
	}
	return nil
}
