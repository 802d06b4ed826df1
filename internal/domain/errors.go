package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a challenge session does not exist.
	ErrSessionNotFound = errors.New("challenge session not found")
	// ErrChallengeNotFound indicates the challenge content could not be found.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrContentUnavailable indicates the content service could not be reached.
	ErrContentUnavailable = errors.New("content service unavailable")
	// ErrNoQuestions indicates a challenge payload without a usable question set.
	ErrNoQuestions = errors.New("challenge has no valid questions")
	// ErrSessionNotStarted is returned when acting on a session before start.
	ErrSessionNotStarted = errors.New("challenge session not started")
	// ErrSessionStarted is returned when starting a session twice.
	ErrSessionStarted = errors.New("challenge session already started")
	// ErrSessionCompleted is returned when mutating a completed session.
	ErrSessionCompleted = errors.New("challenge session already completed")
	// ErrSessionAbandoned is returned when acting on a session the client left.
	ErrSessionAbandoned = errors.New("challenge session abandoned")
	// ErrInvalidOption indicates a selection outside the question's options.
	ErrInvalidOption = errors.New("option index out of range")
	// ErrNoSelection is returned when advancing without a pending selection.
	ErrNoSelection = errors.New("no option selected")
	// ErrAtFirstQuestion is returned when retreating from the first question.
	ErrAtFirstQuestion = errors.New("already at first question")

	// ErrLeagueNotFound indicates an unknown league.
	ErrLeagueNotFound = errors.New("league not found")
	// ErrSubmissionRejected is returned when the submission service declines a result.
	ErrSubmissionRejected = errors.New("submission rejected")

	// ErrReaderNotFound indicates an unknown catalog item.
	ErrReaderNotFound = errors.New("reader not found")
	// ErrInsufficientCredits is returned when a wallet cannot cover a purchase.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrAlreadyPurchased is returned when buying a reader twice.
	ErrAlreadyPurchased = errors.New("reader already purchased")
	// ErrNotPurchased is returned when downloading a reader that is not owned.
	ErrNotPurchased = errors.New("reader not in library")
	// ErrDownloadExpired indicates the download link is past its lifetime.
	ErrDownloadExpired = errors.New("download link expired")
	// ErrDownloadLimit indicates the per-item download limit was reached.
	ErrDownloadLimit = errors.New("download limit reached")
)
