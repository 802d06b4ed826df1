package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/sreenu926/50cube-staging/internal/app"
	"github.com/sreenu926/50cube-staging/internal/domain"
)

type WSHandler struct {
	service  *app.ChallengeService
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

func NewWSHandler(service *app.ChallengeService, log logrus.FieldLogger) *WSHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Index *int `json:"index"`
}

type loadedPayload struct {
	Challenge domain.ChallengeView `json:"challenge"`
	State     domain.SessionState  `json:"state"`
}

type warningPayload struct {
	Status  domain.SubmissionStatus `json:"status"`
	Message string                  `json:"message"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs one challenge session over the
// connection. Closing the connection abandons the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	challengeID := r.URL.Query().Get("challengeId")
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if challengeID == "" || userID == "" {
		http.Error(w, "missing challengeId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	// the session outlives request-scoped cancellation until the socket closes
	ctx := context.WithoutCancel(r.Context())

	state, view, err := h.service.StartSession(ctx, challengeID, userID, displayName)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	sessionID := state.SessionID
	log := h.log.WithFields(logrus.Fields{"session": sessionID, "challenge": challengeID, "user": userID})
	defer h.service.Abandon(ctx, sessionID)

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer; gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write failed")
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-closeSignals:
			return false
		}
	}

	send <- outboundMessage[any]{Type: "loaded", Payload: loadedPayload{Challenge: view, State: state}}

	go func() {
		defer close(updatesDone)
		resultSent := false
		lastSubmission := state.Submission.Status
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				if !push(outboundMessage[any]{Type: "state", Payload: update}) {
					return
				}
				if update.Result != nil && !resultSent {
					resultSent = true
					if !push(outboundMessage[any]{Type: "result", Payload: *update.Result}) {
						return
					}
				}
				if update.Submission.Status != lastSubmission {
					lastSubmission = update.Submission.Status
					if update.Submission.Warning != "" {
						if !push(outboundMessage[any]{Type: "warning", Payload: warningPayload{
							Status:  update.Submission.Status,
							Message: update.Submission.Warning,
						}}) {
							return
						}
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := h.dispatch(ctx, sessionID, inbound); ok {
			if !push(msg) {
				break
			}
		}
	}
	log.Debug("ws connection closed")

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch applies one inbound command. State changes reach the client via
// the subscription, so only errors and explicit state requests reply here.
func (h *WSHandler) dispatch(ctx context.Context, sessionID string, in inboundMessage) (outboundMessage[any], bool) {
	var err error
	switch in.Type {
	case "start":
		_, err = h.service.Begin(ctx, sessionID)
	case "select":
		var payload selectPayload
		if jerr := json.Unmarshal(in.Payload, &payload); jerr != nil || payload.Index == nil {
			return errorMessage("invalid select payload"), true
		}
		_, err = h.service.SelectOption(ctx, sessionID, *payload.Index)
	case "advance":
		_, err = h.service.Advance(ctx, sessionID)
	case "retreat":
		_, err = h.service.Retreat(ctx, sessionID)
	case "state":
		state, serr := h.service.State(ctx, sessionID)
		if serr != nil {
			return errorMessage(serr.Error()), true
		}
		return outboundMessage[any]{Type: "state", Payload: state}, true
	default:
		return errorMessage("unsupported message type"), true
	}
	if err != nil {
		return errorMessage(err.Error()), true
	}
	return outboundMessage[any]{}, false
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// ServeLeaderboard streams live league standings for leagueId until the
// client disconnects.
func (h *WSHandler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	leagueID := r.URL.Query().Get("leagueId")
	if leagueID == "" {
		http.Error(w, "missing leagueId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.service.SubscribeStandings(leagueID)
	defer cancel()

	// reader only detects the disconnect
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case board, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[domain.LeagueLeaderboard]{Type: "leaderboard", Payload: board}); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
