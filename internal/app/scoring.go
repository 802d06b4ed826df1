package app

import (
	"math"
	"sort"
	"time"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// ScoreAttempt compares each recorded answer with the question's correct
// option. Unanswered slots count as incorrect.
func ScoreAttempt(challenge domain.Challenge, answers []int, elapsed time.Duration, by domain.CompletionTrigger) domain.Result {
	total := len(challenge.Questions)
	matches := 0
	for i, q := range challenge.Questions {
		if i < len(answers) && answers[i] != domain.NoSelection && answers[i] == q.CorrectOption {
			matches++
		}
	}

	accuracy := 0
	if total > 0 {
		accuracy = int(math.Round(100 * float64(matches) / float64(total)))
	}
	if elapsed < 0 {
		elapsed = 0
	}
	seconds := int(math.Round(elapsed.Seconds()))

	return domain.Result{
		CorrectAnswers:  matches,
		TotalQuestions:  total,
		AccuracyPercent: accuracy,
		ElapsedSeconds:  seconds,
		Score:           CompositeScore(accuracy, seconds),
		CompletedBy:     by,
	}
}

// CompositeScore blends accuracy with speed: every ten seconds taken costs one
// point of the accuracy multiplier. Never below 1.
func CompositeScore(accuracyPercent, elapsedSeconds int) int {
	raw := math.Floor(float64(accuracyPercent) * (100 - float64(elapsedSeconds)/10))
	if raw < 1 {
		return 1
	}
	return int(raw)
}

// standingFromResult converts a completed result into a league row. TimeScore
// is the number of seconds left on the clock.
func standingFromResult(userID, username string, timeLimitSeconds int, result domain.Result) domain.LeagueStanding {
	timeScore := timeLimitSeconds - result.ElapsedSeconds
	if timeScore < 0 {
		timeScore = 0
	}
	return domain.LeagueStanding{
		UserID:         userID,
		Username:       username,
		Accuracy:       float64(result.AccuracyPercent) / 100,
		TimeScore:      float64(timeScore),
		TotalScore:     float64(result.Score),
		ElapsedSeconds: result.ElapsedSeconds,
		SubmittedAt:    result.CompletedAt,
	}
}

// betterStanding reports whether a ranks ahead of b under the league policy.
func betterStanding(a, b domain.LeagueStanding) bool {
	if a.Accuracy != b.Accuracy {
		return a.Accuracy > b.Accuracy
	}
	if a.ElapsedSeconds != b.ElapsedSeconds {
		return a.ElapsedSeconds < b.ElapsedSeconds
	}
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.Username < b.Username
}

// RankStandings orders rows accuracy first, then completion time, then who
// submitted earlier, and assigns 1-based ranks in place.
func RankStandings(entries []domain.LeagueStanding) {
	sort.SliceStable(entries, func(i, j int) bool {
		return betterStanding(entries[i], entries[j])
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// Global leaderboard orderings.
const (
	SortByScore      = "score"
	SortByAccuracy   = "accuracy"
	SortByChallenges = "challenges"
)

// RankGlobal orders global rows by the requested key (score by default) and
// reassigns ranks.
func RankGlobal(entries []domain.GlobalEntry, sortBy string) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch sortBy {
		case SortByAccuracy:
			if a.Accuracy != b.Accuracy {
				return a.Accuracy > b.Accuracy
			}
		case SortByChallenges:
			if a.Challenges != b.Challenges {
				return a.Challenges > b.Challenges
			}
		}
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		return a.Username < b.Username
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
