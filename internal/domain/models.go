package domain

import "time"

// NoSelection marks an unanswered slot in an attempt.
const NoSelection = -1

// Question models an MCQ question with a fixed option set and one correct index.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// ValidOption reports whether idx addresses one of the question's options.
func (q Question) ValidOption(idx int) bool {
	return idx >= 0 && idx < len(q.Options)
}

// Challenge is the timed question set of a league. Read-only once loaded.
type Challenge struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	TimeLimitMinutes int        `json:"timeLimit"`
	Questions        []Question `json:"questions"`
	// Fallback is set when the questions came from the built-in set.
	Fallback bool `json:"fallback,omitempty"`
}

// TimeLimitSeconds is the countdown a session starts with.
func (c Challenge) TimeLimitSeconds() int {
	return c.TimeLimitMinutes * 60
}

// ChallengeView is the client-safe projection of a challenge (no answer key).
type ChallengeView struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	TimeLimitMinutes int            `json:"timeLimit"`
	Questions        []QuestionView `json:"questions"`
}

// QuestionView hides the correct option.
type QuestionView struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
}

// View strips the answer key and explanations.
func (c Challenge) View() ChallengeView {
	qs := make([]QuestionView, len(c.Questions))
	for i, q := range c.Questions {
		qs[i] = QuestionView{ID: q.ID, Prompt: q.Prompt, Options: append([]string(nil), q.Options...)}
	}
	return ChallengeView{
		ID:               c.ID,
		Name:             c.Name,
		Description:      c.Description,
		TimeLimitMinutes: c.TimeLimitMinutes,
		Questions:        qs,
	}
}

// Phase is the lifecycle position of a challenge session.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
)

// CompletionTrigger records which path completed a session.
type CompletionTrigger string

const (
	CompletedByAnswer  CompletionTrigger = "answered"
	CompletedByTimeout CompletionTrigger = "timeout"
)

// Result is computed once, when a session completes.
type Result struct {
	CorrectAnswers  int               `json:"correctAnswers"`
	TotalQuestions  int               `json:"totalQuestions"`
	AccuracyPercent int               `json:"accuracy"`
	ElapsedSeconds  int               `json:"completionTime"`
	Score           int               `json:"score"`
	CompletedBy     CompletionTrigger `json:"completedBy"`
	CompletedAt     time.Time         `json:"completedAt"`
}

// SubmissionStatus tracks the asynchronous hand-off of a result.
type SubmissionStatus string

const (
	SubmissionNone     SubmissionStatus = "none"
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionAccepted SubmissionStatus = "accepted"
	SubmissionRejected SubmissionStatus = "rejected"
	SubmissionFailed   SubmissionStatus = "failed"
)

// SubmissionState is surfaced to clients as a non-blocking warning.
type SubmissionState struct {
	Status  SubmissionStatus `json:"status"`
	Warning string           `json:"warning,omitempty"`
}

// SessionState is the snapshot exposed by currentState().
type SessionState struct {
	SessionID        string          `json:"sessionId"`
	ChallengeID      string          `json:"challengeId"`
	UserID           string          `json:"userId"`
	Phase            Phase           `json:"phase"`
	Cursor           int             `json:"cursor"`
	Pending          *int            `json:"pending,omitempty"`
	RemainingSeconds int             `json:"remainingSeconds"`
	Answers          []int           `json:"answers"`
	Result           *Result         `json:"result,omitempty"`
	Submission       SubmissionState `json:"submission"`
}

// CompletionEvent is published once per completed session.
type CompletionEvent struct {
	SessionID   string `json:"sessionId"`
	ChallengeID string `json:"challengeId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Result      Result `json:"result"`
}

// Submission is what the Submission Service receives for a finished attempt.
type Submission struct {
	SessionID       string    `json:"sessionId"`
	UserID          string    `json:"userId"`
	DisplayName     string    `json:"displayName,omitempty"`
	Answers         []int     `json:"answers"`
	ElapsedSeconds  int       `json:"completionTime"`
	AccuracyPercent int       `json:"accuracy"`
	Score           int       `json:"score"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// SubmissionReceipt is the Submission Service's answer.
type SubmissionReceipt struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// LeagueStatus is the lifecycle of a league.
type LeagueStatus string

const (
	LeagueUpcoming  LeagueStatus = "upcoming"
	LeagueActive    LeagueStatus = "active"
	LeagueCompleted LeagueStatus = "completed"
)

// Prize is one row of a league prize table.
type Prize struct {
	Rank    int    `json:"rank"`
	Reward  string `json:"reward"`
	Credits int    `json:"credits,omitempty"`
}

// League is a timed competition wrapping one challenge.
type League struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	StartDate        time.Time    `json:"startDate"`
	EndDate          time.Time    `json:"endDate"`
	Rules            []string     `json:"rules"`
	PrizeTable       []Prize      `json:"prizeTable"`
	Status           LeagueStatus `json:"status"`
	TimeLimitMinutes int          `json:"timeLimit,omitempty"`
	Participants     int          `json:"participants"`
	MaxParticipants  int          `json:"maxParticipants"`
	Prize            string       `json:"prize"`
	Difficulty       string       `json:"difficulty"`
	Category         string       `json:"category"`
}

// LeagueCatalog lists leagues; FromFallback marks built-in sample data.
type LeagueCatalog struct {
	Leagues      []League `json:"leagues"`
	FromFallback bool     `json:"fromFallback,omitempty"`
}

// LeagueStanding is one row of a league leaderboard.
type LeagueStanding struct {
	Rank           int       `json:"rank"`
	UserID         string    `json:"userId"`
	Username       string    `json:"username"`
	Accuracy       float64   `json:"accuracy"` // fraction in [0,1]
	TimeScore      float64   `json:"timeScore"`
	TotalScore     float64   `json:"totalScore"`
	ElapsedSeconds int       `json:"completionTime"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// LeagueLeaderboard is the ranked standings of a league.
type LeagueLeaderboard struct {
	LeagueID     string           `json:"leagueId"`
	Entries      []LeagueStanding `json:"entries"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	FromFallback bool             `json:"fromFallback,omitempty"`
}

// GlobalEntry is one row of the global or subject leaderboard.
type GlobalEntry struct {
	Rank       int     `json:"rank"`
	UserID     string  `json:"userId"`
	Username   string  `json:"username"`
	TotalScore int     `json:"totalScore"`
	Accuracy   float64 `json:"accuracy,omitempty"`
	Challenges int     `json:"challengesCompleted,omitempty"`
	Subject    string  `json:"subject,omitempty"`
}

// GlobalLeaderboard is the global or subject-scoped ranking.
type GlobalLeaderboard struct {
	Scope        string        `json:"scope"`
	Subject      string        `json:"subject,omitempty"`
	Entries      []GlobalEntry `json:"entries"`
	FromFallback bool          `json:"fromFallback,omitempty"`
}

// Spotlight highlights one player achievement.
type Spotlight struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Achievement string    `json:"achievement"`
	Date        time.Time `json:"date"`
	Score       int       `json:"score"`
	Category    string    `json:"category"`
}

// Stats aggregates platform-wide leaderboard numbers.
type Stats struct {
	TotalPlayers     int  `json:"totalPlayers"`
	ActiveToday      int  `json:"activeToday"`
	AverageScore     int  `json:"averageScore"`
	TopScore         int  `json:"topScore"`
	ChallengesPlayed int  `json:"challengesPlayed"`
	FromFallback     bool `json:"fromFallback,omitempty"`
}

// Reader is a purchasable catalog item.
type Reader struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Difficulty  string    `json:"difficulty"`
	Price       int       `json:"price"`
	Pages       int       `json:"pages"`
	Tags        []string  `json:"tags"`
	Thumbnail   string    `json:"thumbnail"`
	Premium     bool      `json:"isPremium"`
	New         bool      `json:"isNew"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	Purchased   bool      `json:"isPurchased"`
}

// ReaderCatalog lists readers; FromFallback marks built-in sample data.
type ReaderCatalog struct {
	Readers      []Reader `json:"readers"`
	FromFallback bool     `json:"fromFallback,omitempty"`
}

// LibraryItem is a purchased reader kept in a user's wallet.
type LibraryItem struct {
	ReaderID      string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Category      string    `json:"category"`
	Pages         int       `json:"pageCount"`
	Price         int       `json:"price"`
	PurchasedAt   time.Time `json:"purchaseDate"`
	DownloadToken string    `json:"downloadToken"`
	DownloadCount int       `json:"downloadCount"`
	MaxDownloads  int       `json:"maxDownloads"`
}

// Wallet is the per-user credits and library document.
type Wallet struct {
	UserID  string        `json:"userId"`
	Credits int           `json:"credits"`
	Library []LibraryItem `json:"library"`
}

// Owns reports whether readerID is in the wallet's library.
func (w Wallet) Owns(readerID string) bool {
	for _, item := range w.Library {
		if item.ReaderID == readerID {
			return true
		}
	}
	return false
}

// DownloadLink is a time-limited link to a purchased reader.
type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	Remaining int       `json:"remainingDownloads"`
}
