package remote

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// Everything the backend sends is loosely typed. The functions below are the
// only place that turns it into domain values; rows that lack an identity are
// dropped rather than half-filled.

func firstString(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func firstNumber(r gjson.Result, keys ...string) (float64, bool) {
	for _, k := range keys {
		v := r.Get(k)
		if v.Type == gjson.Number {
			return v.Float(), true
		}
	}
	return 0, false
}

func intOf(r gjson.Result, keys ...string) int {
	n, _ := firstNumber(r, keys...)
	return int(n)
}

// arrayAt returns r when it is an array, or the first array nested under one
// of keys. ok is false when none is found.
func arrayAt(r gjson.Result, keys ...string) ([]gjson.Result, bool) {
	if r.IsArray() {
		return r.Array(), true
	}
	for _, k := range keys {
		if v := r.Get(k); v.IsArray() {
			return v.Array(), true
		}
	}
	return nil, false
}

// fraction normalizes accuracy sent either as 0..1 or as a percentage.
func fraction(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}

func timeOf(r gjson.Result, keys ...string) time.Time {
	for _, k := range keys {
		v := r.Get(k)
		if !v.Exists() {
			continue
		}
		if t, err := time.Parse(time.RFC3339, v.String()); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseChallenge(id string, r gjson.Result) (domain.Challenge, error) {
	c := domain.Challenge{
		ID:               firstString(r, "id", "_id"),
		Name:             firstString(r, "name", "title"),
		Description:      r.Get("description").String(),
		TimeLimitMinutes: intOf(r, "timeLimit", "timeLimitMinutes"),
	}
	if c.ID == "" {
		c.ID = id
	}

	items, ok := arrayAt(r, "questions")
	if !ok || len(items) == 0 {
		return c, fmt.Errorf("challenge %s: %w", id, domain.ErrNoQuestions)
	}
	questions := make([]domain.Question, 0, len(items))
	for i, item := range items {
		q, err := parseQuestion(i, item)
		if err != nil {
			return c, fmt.Errorf("challenge %s: %v: %w", id, err, domain.ErrNoQuestions)
		}
		questions = append(questions, q)
	}
	c.Questions = questions
	return c, nil
}

func parseQuestion(i int, r gjson.Result) (domain.Question, error) {
	if !r.IsObject() {
		return domain.Question{}, fmt.Errorf("question %d is not an object", i)
	}
	correct, ok := firstNumber(r, "correctAnswer", "correctOption", "correctOptionIndex")
	if !ok || correct != math.Trunc(correct) {
		return domain.Question{}, fmt.Errorf("question %d has no integral correct answer", i)
	}
	var options []string
	for _, o := range r.Get("options").Array() {
		options = append(options, o.String())
	}
	q := domain.Question{
		ID:            firstString(r, "id", "_id"),
		Prompt:        firstString(r, "question", "prompt", "text"),
		Options:       options,
		CorrectOption: int(correct),
		Explanation:   r.Get("explanation").String(),
	}
	if q.ID == "" {
		q.ID = fmt.Sprintf("q%d", i+1)
	}
	if q.Prompt == "" || len(q.Options) < 2 || !q.ValidOption(q.CorrectOption) {
		return domain.Question{}, fmt.Errorf("question %d is incomplete", i)
	}
	return q, nil
}

func parseLeague(r gjson.Result) (domain.League, bool) {
	id := firstString(r, "id", "_id")
	if id == "" {
		return domain.League{}, false
	}
	l := domain.League{
		ID:               id,
		Name:             firstString(r, "name", "title"),
		Description:      r.Get("description").String(),
		StartDate:        timeOf(r, "startDate"),
		EndDate:          timeOf(r, "endDate"),
		Status:           domain.LeagueStatus(strings.ToLower(r.Get("status").String())),
		TimeLimitMinutes: intOf(r, "timeLimit"),
		Participants:     intOf(r, "participants"),
		MaxParticipants:  intOf(r, "maxParticipants"),
		Prize:            r.Get("prize").String(),
		Difficulty:       r.Get("difficulty").String(),
		Category:         r.Get("category").String(),
	}
	for _, rule := range r.Get("rules").Array() {
		l.Rules = append(l.Rules, rule.String())
	}
	for _, p := range r.Get("prizeTable").Array() {
		l.PrizeTable = append(l.PrizeTable, domain.Prize{
			Rank:    intOf(p, "rank"),
			Reward:  p.Get("reward").String(),
			Credits: intOf(p, "credits"),
		})
	}
	switch l.Status {
	case domain.LeagueUpcoming, domain.LeagueActive, domain.LeagueCompleted:
	default:
		l.Status = domain.LeagueActive
	}
	return l, true
}

func parseLeagues(r gjson.Result) ([]domain.League, error) {
	items, ok := arrayAt(r, "leagues", "data", "items")
	if !ok {
		return nil, fmt.Errorf("leagues: %w", ErrMalformedResponse)
	}
	out := make([]domain.League, 0, len(items))
	for _, item := range items {
		if l, ok := parseLeague(item); ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func parseStandings(r gjson.Result) ([]domain.LeagueStanding, error) {
	items, ok := arrayAt(r, "leaderboard", "entries", "data")
	if !ok {
		if !r.Exists() || r.Type == gjson.Null {
			return []domain.LeagueStanding{}, nil
		}
		return nil, fmt.Errorf("leaderboard: %w", ErrMalformedResponse)
	}
	out := make([]domain.LeagueStanding, 0, len(items))
	for _, item := range items {
		userID := firstString(item, "userId", "user_id", "_id")
		if userID == "" {
			continue
		}
		acc, _ := firstNumber(item, "accuracy")
		out = append(out, domain.LeagueStanding{
			Rank:           intOf(item, "rank"),
			UserID:         userID,
			Username:       firstString(item, "username", "name"),
			Accuracy:       fraction(acc),
			TimeScore:      item.Get("timeScore").Float(),
			TotalScore:     item.Get("totalScore").Float(),
			ElapsedSeconds: intOf(item, "completionTime", "elapsedSeconds"),
			SubmittedAt:    timeOf(item, "submittedAt", "createdAt"),
		})
	}
	return out, nil
}

func parseGlobal(r gjson.Result) ([]domain.GlobalEntry, error) {
	items, ok := arrayAt(r, "leaderboard", "entries", "data")
	if !ok {
		return nil, fmt.Errorf("global leaderboard: %w", ErrMalformedResponse)
	}
	out := make([]domain.GlobalEntry, 0, len(items))
	for _, item := range items {
		userID := firstString(item, "userId", "user_id", "_id")
		if userID == "" {
			continue
		}
		acc, _ := firstNumber(item, "accuracy")
		out = append(out, domain.GlobalEntry{
			Rank:       intOf(item, "rank"),
			UserID:     userID,
			Username:   firstString(item, "username", "name"),
			TotalScore: intOf(item, "totalScore", "score"),
			Accuracy:   fraction(acc),
			Challenges: intOf(item, "completedChallenges", "challengesCompleted"),
			Subject:    item.Get("subject").String(),
		})
	}
	return out, nil
}

func parseSpotlight(r gjson.Result) ([]domain.Spotlight, error) {
	items, ok := arrayAt(r, "spotlight", "players", "data")
	if !ok {
		return nil, fmt.Errorf("spotlight: %w", ErrMalformedResponse)
	}
	out := make([]domain.Spotlight, 0, len(items))
	for _, item := range items {
		username := item.Get("username").String()
		if username == "" {
			continue
		}
		out = append(out, domain.Spotlight{
			ID:          firstString(item, "id", "_id"),
			Username:    username,
			Achievement: item.Get("achievement").String(),
			Date:        timeOf(item, "date"),
			Score:       intOf(item, "score"),
			Category:    item.Get("category").String(),
		})
	}
	return out, nil
}

func parseStats(r gjson.Result) (domain.Stats, error) {
	if !r.IsObject() {
		return domain.Stats{}, fmt.Errorf("stats: %w", ErrMalformedResponse)
	}
	return domain.Stats{
		TotalPlayers:     intOf(r, "totalPlayers"),
		ActiveToday:      intOf(r, "activeToday"),
		AverageScore:     intOf(r, "averageScore"),
		TopScore:         intOf(r, "topScore"),
		ChallengesPlayed: intOf(r, "challengesPlayed", "totalChallenges"),
	}, nil
}

func parseReaders(r gjson.Result, now time.Time) ([]domain.Reader, error) {
	items, ok := arrayAt(r, "readers", "catalog", "data", "items")
	if !ok {
		return nil, fmt.Errorf("readers: %w", ErrMalformedResponse)
	}
	out := make([]domain.Reader, 0, len(items))
	for _, item := range items {
		id := firstString(item, "id", "_id")
		if id == "" || !item.IsObject() {
			continue
		}
		price := intOf(item, "cost", "price")
		category := item.Get("category").String()
		if category == "" {
			category = "General"
		}
		reader := domain.Reader{
			ID:          id,
			Title:       orDefault(item.Get("title").String(), "Untitled"),
			Author:      orDefault(item.Get("author").String(), "Unknown Author"),
			Description: orDefault(item.Get("description").String(), "No description available"),
			Category:    category,
			Difficulty:  orDefault(item.Get("difficulty").String(), "Intermediate"),
			Price:       price,
			Pages:       intOf(item, "pageCount", "pages"),
			Thumbnail:   orDefault(item.Get("thumbnail").String(), "/api/placeholder/300/400"),
			CreatedAt:   timeOf(item, "createdAt"),
			Premium:     item.Get("isPremium").Bool() || price > 100,
		}
		if reader.Pages == 0 {
			reader.Pages = 100
		}
		for _, tag := range item.Get("tags").Array() {
			reader.Tags = append(reader.Tags, tag.String())
		}
		if len(reader.Tags) == 0 {
			reader.Tags = []string{strings.ToLower(category)}
		}
		reader.New = item.Get("isNew").Bool() ||
			(!reader.CreatedAt.IsZero() && reader.CreatedAt.After(now.Add(-30*24*time.Hour)))
		out = append(out, reader)
	}
	return out, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
