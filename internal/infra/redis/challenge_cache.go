package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// ChallengeLoader fetches a playable challenge (app.ChallengeLoader in production).
type ChallengeLoader interface {
	LoadChallenge(ctx context.Context, challengeID string) (domain.Challenge, error)
}

// ChallengeCache keeps loaded challenges in Redis so every instance shares one
// copy and falls back to the loader on a miss.
// Challenges are stored as: SET challenge:{challengeID} {json} EX ttl
// Fallback challenges are not cached, and nothing is cached when ttl <= 0.
type ChallengeCache struct {
	client *redis.Client
	loader ChallengeLoader
	ttl    time.Duration
	log    logrus.FieldLogger
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewChallengeCache(client *redis.Client, loader ChallengeLoader, ttl time.Duration, log logrus.FieldLogger) *ChallengeCache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ChallengeCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ChallengeCache) cached(ctx context.Context, key string) (domain.Challenge, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.WithError(err).WithField("key", key).Warn("challenge cache read failed")
		}
		return domain.Challenge{}, false
	}
	var c domain.Challenge
	if err := json.Unmarshal(raw, &c); err != nil || len(c.Questions) == 0 {
		return domain.Challenge{}, false
	}
	return c, true
}

func (r *ChallengeCache) GetChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	key := r.key(challengeID)
	if c, ok := r.cached(ctx, key); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(challengeID, func() (interface{}, error) {
		// Re-check cache in case another instance filled it.
		if c, ok := r.cached(ctx, key); ok {
			return c, nil
		}

		challenge, err := r.loader.LoadChallenge(ctx, challengeID)
		if err != nil {
			return domain.Challenge{}, err
		}
		if challenge.Fallback || r.ttl <= 0 {
			return challenge, nil
		}

		raw, err := json.Marshal(challenge)
		if err == nil {
			err = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		if err != nil {
			r.log.WithError(err).WithField("challenge", challengeID).Warn("challenge cache write failed")
		}
		return challenge, nil
	})
	if err != nil {
		return domain.Challenge{}, err
	}
	return result.(domain.Challenge), nil
}

// Invalidate drops a cached challenge.
func (r *ChallengeCache) Invalidate(ctx context.Context, challengeID string) error {
	return r.client.Del(ctx, r.key(challengeID)).Err()
}

func (r *ChallengeCache) key(challengeID string) string {
	return "challenge:" + challengeID
}

func (r *ChallengeCache) ttlWithJitter() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
