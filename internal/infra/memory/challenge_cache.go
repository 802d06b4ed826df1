package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sreenu926/50cube-staging/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ChallengeLoader fetches a playable challenge (app.ChallengeLoader in production).
type ChallengeLoader interface {
	LoadChallenge(ctx context.Context, challengeID string) (domain.Challenge, error)
}

// ChallengeCache caches challenges with TTL to avoid repeated Content Service hits.
// Challenges built from the fallback question set are never cached, so the
// next session retries the remote source.
type ChallengeCache struct {
	loader ChallengeLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedChallenge
}

type cachedChallenge struct {
	challenge domain.Challenge
	expiresAt time.Time
}

func NewChallengeCache(loader ChallengeLoader, ttl time.Duration) *ChallengeCache {
	return &ChallengeCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedChallenge),
	}
}

func (r *ChallengeCache) lookup(challengeID string, now time.Time) (domain.Challenge, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[challengeID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Challenge{}, false
	}
	return entry.challenge, true
}

func (r *ChallengeCache) GetChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	if c, ok := r.lookup(challengeID, r.clock()); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(challengeID, func() (interface{}, error) {
		now := r.clock()
		if c, ok := r.lookup(challengeID, now); ok {
			return c, nil
		}

		challenge, err := r.loader.LoadChallenge(ctx, challengeID)
		if err != nil {
			return domain.Challenge{}, err
		}
		if challenge.Fallback || r.ttl <= 0 {
			return challenge, nil
		}

		r.mu.Lock()
		r.cache[challengeID] = cachedChallenge{
			challenge: challenge,
			expiresAt: now.Add(r.ttlWithJitterLocked()),
		}
		r.mu.Unlock()
		return challenge, nil
	})
	if err != nil {
		return domain.Challenge{}, err
	}
	return result.(domain.Challenge), nil
}

// Invalidate drops a cached challenge.
func (r *ChallengeCache) Invalidate(challengeID string) {
	r.mu.Lock()
	delete(r.cache, challengeID)
	r.mu.Unlock()
}

func (r *ChallengeCache) ttlWithJitterLocked() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticChallengeSource serves challenges from a map (useful for tests/demos
// and when no Content Service is configured).
type StaticChallengeSource struct {
	challenges map[string]domain.Challenge
}

func NewStaticChallengeSource(challenges map[string]domain.Challenge) *StaticChallengeSource {
	return &StaticChallengeSource{challenges: challenges}
}

func (l *StaticChallengeSource) FetchChallenge(_ context.Context, challengeID string) (domain.Challenge, error) {
	if c, ok := l.challenges[challengeID]; ok {
		return c, nil
	}
	return domain.Challenge{}, domain.ErrChallengeNotFound
}
