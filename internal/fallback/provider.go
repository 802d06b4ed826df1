// Package fallback holds the built-in sample data served whenever the
// remote backend is unreachable or returns an unusable payload.
package fallback

import (
	"strings"
	"time"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// Provider is the single source of sample data. It is safe for concurrent use;
// every method returns fresh copies.
type Provider struct {
	now func() time.Time
}

func NewProvider() *Provider {
	return NewProviderWithClock(time.Now)
}

// NewProviderWithClock pins relative dates (spotlight, league windows) in tests.
func NewProviderWithClock(now func() time.Time) *Provider {
	return &Provider{now: now}
}

// Questions returns the five-question speed reading set.
func (p *Provider) Questions() []domain.Question {
	return []domain.Question{
		{
			ID:     "q1",
			Prompt: "What is the primary purpose of speed reading techniques?",
			Options: []string{
				"To read faster without comprehension",
				"To improve both reading speed and comprehension",
				"To memorize everything you read",
				"To skip difficult sections",
			},
			CorrectOption: 1,
			Explanation:   "Speed reading aims to increase reading speed while maintaining or improving comprehension.",
		},
		{
			ID:     "q2",
			Prompt: "Which technique helps reduce subvocalization while reading?",
			Options: []string{
				"Reading out loud",
				"Using a finger to point at words",
				"Humming or counting while reading",
				"Reading very slowly",
			},
			CorrectOption: 2,
			Explanation:   "Humming or counting occupies the vocal cords and helps prevent subvocalization.",
		},
		{
			ID:            "q3",
			Prompt:        "What is the average reading speed for adults?",
			Options:       []string{"100-150 WPM", "200-250 WPM", "350-400 WPM", "500-600 WPM"},
			CorrectOption: 1,
			Explanation:   "Most adults read between 200-250 words per minute with good comprehension.",
		},
		{
			ID:     "q4",
			Prompt: "Which eye movement pattern is most efficient for reading?",
			Options: []string{
				"Reading word by word",
				"Smooth left-to-right movement",
				"Fixation-saccade pattern",
				"Circular movements",
			},
			CorrectOption: 2,
			Explanation:   "The fixation-saccade pattern allows eyes to fixate on word groups and jump efficiently.",
		},
		{
			ID:     "q5",
			Prompt: "What is 'chunking' in reading comprehension?",
			Options: []string{
				"Breaking text into physical pieces",
				"Grouping words or ideas together for better understanding",
				"Reading only certain paragraphs",
				"Skipping words randomly",
			},
			CorrectOption: 1,
			Explanation:   "Chunking involves grouping related information together to improve comprehension and retention.",
		},
	}
}

// Leagues returns the sample league list.
func (p *Provider) Leagues() []domain.League {
	now := p.now().UTC().Truncate(time.Hour)
	rules := []string{
		"Answer every question before the countdown ends",
		"Rankings based on accuracy first, then completion time",
		"One ranked attempt per player; your best attempt counts",
	}
	prizes := []domain.Prize{
		{Rank: 1, Reward: "Gold badge", Credits: 500},
		{Rank: 2, Reward: "Silver badge", Credits: 300},
		{Rank: 3, Reward: "Bronze badge", Credits: 150},
	}
	return []domain.League{
		{
			ID:               "speed-reading-sprint",
			Name:             "Speed Reading Sprint",
			Description:      "Ten minutes, five questions on reading technique.",
			StartDate:        now.Add(-72 * time.Hour),
			EndDate:          now.Add(14 * 24 * time.Hour),
			Rules:            append([]string(nil), rules...),
			PrizeTable:       append([]domain.Prize(nil), prizes...),
			Status:           domain.LeagueActive,
			TimeLimitMinutes: 10,
			Participants:     128,
			MaxParticipants:  1000,
			Prize:            "500 credits",
			Difficulty:       "Intermediate",
			Category:         "Reading",
		},
		{
			ID:               "comprehension-cup",
			Name:             "Comprehension Cup",
			Description:      "Accuracy-focused league for careful readers.",
			StartDate:        now.Add(7 * 24 * time.Hour),
			EndDate:          now.Add(21 * 24 * time.Hour),
			Rules:            append([]string(nil), rules...),
			PrizeTable:       append([]domain.Prize(nil), prizes...),
			Status:           domain.LeagueUpcoming,
			TimeLimitMinutes: 15,
			MaxParticipants:  500,
			Prize:            "300 credits",
			Difficulty:       "Advanced",
			Category:         "Mixed",
		},
	}
}

// League returns the sample league with the given id.
func (p *Provider) League(id string) (domain.League, bool) {
	for _, l := range p.Leagues() {
		if l.ID == id {
			return l, true
		}
	}
	return domain.League{}, false
}

// LeagueStandings returns a sample leaderboard for any league.
func (p *Provider) LeagueStandings(leagueID string) []domain.LeagueStanding {
	submitted := p.now().UTC().Add(-time.Hour)
	return []domain.LeagueStanding{
		{UserID: "sample-1", Username: "LearningMaster", Accuracy: 1.0, TimeScore: 420, TotalScore: 8200, ElapsedSeconds: 180, SubmittedAt: submitted},
		{UserID: "sample-2", Username: "QuizChampion", Accuracy: 0.8, TimeScore: 360, TotalScore: 6240, ElapsedSeconds: 240, SubmittedAt: submitted},
		{UserID: "sample-3", Username: "StudyPro", Accuracy: 0.8, TimeScore: 300, TotalScore: 5760, ElapsedSeconds: 300, SubmittedAt: submitted},
	}
}

// GlobalLeaderboard returns the sample global ranking, filtered by subject
// when scope is "subject".
func (p *Provider) GlobalLeaderboard(scope, subject string) []domain.GlobalEntry {
	entries := []domain.GlobalEntry{
		{Rank: 1, UserID: "1", Username: "TopPlayer", TotalScore: 2850, Accuracy: 0.95, Challenges: 45, Subject: "reading"},
		{Rank: 2, UserID: "2", Username: "SpeedRunner", TotalScore: 2650, Accuracy: 0.92, Challenges: 38, Subject: "reading"},
		{Rank: 3, UserID: "3", Username: "Challenger", TotalScore: 2400, Accuracy: 0.89, Challenges: 42, Subject: "math"},
		{Rank: 4, UserID: "4", Username: "RisingStar", TotalScore: 2200, Accuracy: 0.87, Challenges: 35, Subject: "science"},
		{Rank: 5, UserID: "5", Username: "Competitor", TotalScore: 2050, Accuracy: 0.84, Challenges: 31, Subject: "math"},
	}
	if scope != "subject" || subject == "" {
		return entries
	}
	filtered := entries[:0]
	for _, e := range entries {
		if strings.EqualFold(e.Subject, subject) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Spotlight returns the sample spotlight feed, newest first.
func (p *Provider) Spotlight() []domain.Spotlight {
	now := p.now().UTC()
	return []domain.Spotlight{
		{ID: "1", Username: "SpeedReader_Pro", Achievement: "Speed Reading Champion", Date: now, Score: 950, Category: "speed"},
		{ID: "2", Username: "QuickEyes", Achievement: "Accuracy Master", Date: now.Add(-24 * time.Hour), Score: 920, Category: "accuracy"},
		{ID: "3", Username: "BrainBoost", Achievement: "Learning Streak", Date: now.Add(-48 * time.Hour), Score: 890, Category: "overall"},
	}
}

// Stats returns sample platform numbers.
func (p *Provider) Stats() domain.Stats {
	return domain.Stats{
		TotalPlayers:     2547,
		ActiveToday:      127,
		AverageScore:     1850,
		TopScore:         2850,
		ChallengesPlayed: 12,
	}
}

// Catalog returns the sample readers catalog.
func (p *Provider) Catalog() []domain.Reader {
	created := p.now().UTC().Add(-10 * 24 * time.Hour)
	old := p.now().UTC().Add(-120 * 24 * time.Hour)
	return []domain.Reader{
		{
			ID: "reader-speed-basics", Title: "Speed Reading Basics", Author: "A. Fernandes",
			Description: "Foundations of fixation, saccades and chunking.",
			Category:    "Reading", Difficulty: "Beginner", Price: 50, Pages: 64,
			Tags: []string{"reading"}, Thumbnail: "/api/placeholder/300/400", CreatedAt: created, New: true,
		},
		{
			ID: "reader-comprehension", Title: "Deep Comprehension", Author: "L. Okafor",
			Description: "Techniques for retaining what you read at speed.",
			Category:    "Reading", Difficulty: "Intermediate", Price: 120, Pages: 140,
			Tags: []string{"reading", "memory"}, Thumbnail: "/api/placeholder/300/400", CreatedAt: old, Premium: true,
		},
		{
			ID: "reader-mental-math", Title: "Mental Math Drills", Author: "R. Iyer",
			Description: "Daily drills for arithmetic fluency.",
			Category:    "Math", Difficulty: "Intermediate", Price: 80, Pages: 96,
			Tags: []string{"math"}, Thumbnail: "/api/placeholder/300/400", CreatedAt: old,
		},
	}
}
