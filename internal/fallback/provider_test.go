package fallback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionsAreWellFormed(t *testing.T) {
	qs := NewProvider().Questions()
	require.Len(t, qs, 5)
	for _, q := range qs {
		assert.Len(t, q.Options, 4, q.ID)
		assert.True(t, q.ValidOption(q.CorrectOption), q.ID)
	}
}

func TestReturnsFreshCopies(t *testing.T) {
	p := NewProvider()
	qs := p.Questions()
	qs[0].Options[0] = "mutated"
	assert.NotEqual(t, "mutated", p.Questions()[0].Options[0])
}

func TestGlobalLeaderboardSubjectFilter(t *testing.T) {
	p := NewProvider()
	assert.Len(t, p.GlobalLeaderboard("global", "math"), 5)

	math := p.GlobalLeaderboard("subject", "Math")
	require.Len(t, math, 2)
	for _, e := range math {
		assert.Equal(t, "math", e.Subject)
	}
}

func TestSpotlightDatesFollowClock(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	spots := NewProviderWithClock(func() time.Time { return now }).Spotlight()
	require.Len(t, spots, 3)
	assert.Equal(t, now, spots[0].Date)
	assert.Equal(t, now.Add(-48*time.Hour), spots[2].Date)
}

func TestLeagueLookup(t *testing.T) {
	p := NewProvider()
	l, ok := p.League("speed-reading-sprint")
	require.True(t, ok)
	assert.Equal(t, 10, l.TimeLimitMinutes)

	_, ok = p.League("nope")
	assert.False(t, ok)
}
