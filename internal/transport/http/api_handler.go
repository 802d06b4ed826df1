package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/sreenu926/50cube-staging/internal/app"
	"github.com/sreenu926/50cube-staging/internal/domain"
)

const guestUser = "guest"

// APIHandler serves the REST surface: challenge sessions, leagues,
// leaderboards and the readers store.
type APIHandler struct {
	challenges *app.ChallengeService
	leagues    *app.LeaguesService
	readers    *app.ReadersService
	log        logrus.FieldLogger
}

func NewAPIHandler(challenges *app.ChallengeService, leagues *app.LeaguesService, readers *app.ReadersService, log logrus.FieldLogger) *APIHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &APIHandler{challenges: challenges, leagues: leagues, readers: readers, log: log}
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Register mounts the API routes on r.
func (h *APIHandler) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/sessions", h.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", h.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", h.AbandonSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/start", h.StartSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/select", h.SelectOption).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/advance", h.Advance).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/retreat", h.Retreat).Methods(http.MethodPost)

	api.HandleFunc("/leagues", h.ListLeagues).Methods(http.MethodGet)
	api.HandleFunc("/leagues/enter", h.EnterLeague).Methods(http.MethodPost)
	api.HandleFunc("/leagues/{id}", h.GetLeague).Methods(http.MethodGet)
	api.HandleFunc("/leagues/{id}/leaderboard", h.LeagueLeaderboard).Methods(http.MethodGet)

	api.HandleFunc("/leaderboard", h.GlobalLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/spotlight", h.Spotlight).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/stats", h.Stats).Methods(http.MethodGet)

	api.HandleFunc("/readers/catalog", h.ReadersCatalog).Methods(http.MethodGet)
	api.HandleFunc("/readers/wallet", h.Wallet).Methods(http.MethodGet)
	api.HandleFunc("/readers/buy", h.BuyReader).Methods(http.MethodPost)
	api.HandleFunc("/readers/library", h.Library).Methods(http.MethodGet)
	api.HandleFunc("/readers/library", h.ClearLibrary).Methods(http.MethodDelete)
	api.HandleFunc("/readers/download/{id}", h.Download).Methods(http.MethodGet)
}

func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return guestUser
}

// ── Challenge sessions ──────────────────────────────────

type createSessionRequest struct {
	ChallengeID string `json:"challengeId"`
	Name        string `json:"name"`
}

type sessionResponse struct {
	Challenge *domain.ChallengeView `json:"challenge,omitempty"`
	State     domain.SessionState   `json:"state"`
}

func (h *APIHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChallengeID == "" {
		writeError(w, http.StatusBadRequest, "challengeId is required")
		return
	}
	state, view, err := h.challenges.StartSession(r.Context(), req.ChallengeID, userID(r), req.Name)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Challenge: &view, State: state})
}

func (h *APIHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.challenges.State)
}

func (h *APIHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.challenges.Begin)
}

func (h *APIHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.challenges.Advance)
}

func (h *APIHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.challenges.Retreat)
}

func (h *APIHandler) SelectOption(w http.ResponseWriter, r *http.Request) {
	var req selectPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		writeError(w, http.StatusBadRequest, "index is required")
		return
	}
	state, err := h.challenges.SelectOption(r.Context(), mux.Vars(r)["id"], *req.Index)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{State: state})
}

func (h *APIHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	h.challenges.Abandon(r.Context(), mux.Vars(r)["id"])
	writeJSON(w, http.StatusOK, nil)
}

func (h *APIHandler) sessionAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id string) (domain.SessionState, error)) {
	state, err := action(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{State: state})
}

// ── Leagues and leaderboards ────────────────────────────

type enterLeagueRequest struct {
	LeagueID string `json:"leagueId"`
}

func (h *APIHandler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.leagues.Leagues(r.Context()))
}

func (h *APIHandler) GetLeague(w http.ResponseWriter, r *http.Request) {
	league, err := h.leagues.League(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, league)
}

func (h *APIHandler) EnterLeague(w http.ResponseWriter, r *http.Request) {
	var req enterLeagueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LeagueID == "" {
		writeError(w, http.StatusBadRequest, "leagueId is required")
		return
	}
	if err := h.leagues.Enter(r.Context(), req.LeagueID, userID(r)); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"leagueId": req.LeagueID, "userId": userID(r)})
}

func (h *APIHandler) LeagueLeaderboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.leagues.Leaderboard(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *APIHandler) GlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.leagues.GlobalLeaderboard(r.Context(), q.Get("scope"), q.Get("subject"), q.Get("sort")))
}

func (h *APIHandler) Spotlight(w http.ResponseWriter, r *http.Request) {
	spots, fromFallback := h.leagues.Spotlight(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"spotlight": spots, "fromFallback": fromFallback})
}

func (h *APIHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.leagues.Stats(r.Context()))
}

// ── Readers ─────────────────────────────────────────────

type buyReaderRequest struct {
	ReaderID string `json:"readerId"`
}

type purchaseResponse struct {
	Credits int                `json:"credits"`
	Item    domain.LibraryItem `json:"item"`
}

func (h *APIHandler) ReadersCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.readers.Catalog(r.Context(), userID(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (h *APIHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.readers.Wallet(r.Context(), userID(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *APIHandler) BuyReader(w http.ResponseWriter, r *http.Request) {
	var req buyReaderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReaderID == "" {
		writeError(w, http.StatusBadRequest, "readerId is required")
		return
	}
	wallet, item, err := h.readers.Purchase(r.Context(), userID(r), req.ReaderID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchaseResponse{Credits: wallet.Credits, Item: item})
}

func (h *APIHandler) Library(w http.ResponseWriter, r *http.Request) {
	items, err := h.readers.Library(r.Context(), userID(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *APIHandler) ClearLibrary(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.readers.ClearLibrary(r.Context(), userID(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *APIHandler) Download(w http.ResponseWriter, r *http.Request) {
	link, err := h.readers.Download(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// fail maps domain errors onto HTTP statuses.
func (h *APIHandler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrLeagueNotFound),
		errors.Is(err, domain.ErrReaderNotFound),
		errors.Is(err, domain.ErrNotPurchased):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSessionNotStarted),
		errors.Is(err, domain.ErrSessionStarted),
		errors.Is(err, domain.ErrSessionCompleted),
		errors.Is(err, domain.ErrSessionAbandoned),
		errors.Is(err, domain.ErrAlreadyPurchased):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrNoSelection),
		errors.Is(err, domain.ErrAtFirstQuestion):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientCredits):
		status = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrDownloadExpired):
		status = http.StatusGone
	case errors.Is(err, domain.ErrDownloadLimit):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrContentUnavailable):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		h.log.WithError(err).Error("request failed")
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}
