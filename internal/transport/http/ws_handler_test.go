package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sreenu926/50cube-staging/internal/app"
	"github.com/sreenu926/50cube-staging/internal/domain"
	"github.com/sreenu926/50cube-staging/internal/fallback"
	"github.com/sreenu926/50cube-staging/internal/infra/memory"
)

func newChallengeService(t *testing.T) (*app.ChallengeService, *memory.SessionStore) {
	t.Helper()
	log, _ := test.NewNullLogger()
	loader := app.NewChallengeLoader(memory.NewStaticChallengeSource(sampleChallenges()), fallback.NewProvider(), nil, log)
	sessions := memory.NewSessionStore()
	svc := app.NewChallengeService(sessions, memory.NewChallengeCache(loader, time.Minute), nil,
		app.WithLogger(log),
		app.WithResultSubmitter(memory.NewAttemptArchive(), time.Second),
	)
	return svc, sessions
}

func TestWebSocketChallengeFlow(t *testing.T) {
	service, _ := newChallengeService(t)
	wsHandler := NewWSHandler(service, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/challenge", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	conn := dial(t, server, "/ws/challenge?challengeId=speed-reading-sprint&userId=u1&name=Alice")
	defer conn.Close()

	_, payload := readNext(conn, t, "loaded")
	var loaded struct {
		Challenge domain.ChallengeView `json:"challenge"`
	}
	if err := json.Unmarshal(payload, &loaded); err != nil {
		t.Fatalf("decode loaded: %v", err)
	}
	if len(loaded.Challenge.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(loaded.Challenge.Questions))
	}
	if strings.Contains(string(payload), "correctAnswer") {
		t.Fatalf("answer key leaked to client: %s", payload)
	}

	send(t, conn, map[string]any{"type": "start"})
	for _, answer := range []int{1, 2} {
		send(t, conn, map[string]any{"type": "select", "payload": map[string]any{"index": answer}})
		send(t, conn, map[string]any{"type": "advance"})
	}

	payload = readUntil(conn, t, "result")
	var result domain.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.CorrectAnswers != 2 || result.AccuracyPercent != 100 || result.CompletedBy != domain.CompletedByAnswer {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestWebSocketRejectsInvalidCommands(t *testing.T) {
	service, _ := newChallengeService(t)
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(service, nil).ServeWS))
	defer server.Close()

	conn := dial(t, server, "/?challengeId=speed-reading-sprint&userId=u1")
	defer conn.Close()
	readNext(conn, t, "loaded")

	send(t, conn, map[string]any{"type": "advance"})
	payload := readUntil(conn, t, "error")
	if !strings.Contains(string(payload), domain.ErrSessionNotStarted.Error()) {
		t.Fatalf("expected not started error, got %s", payload)
	}

	send(t, conn, map[string]any{"type": "select", "payload": map[string]any{}})
	payload = readUntil(conn, t, "error")
	if !strings.Contains(string(payload), "invalid select payload") {
		t.Fatalf("expected payload error, got %s", payload)
	}
}

func TestWebSocketUnknownChallenge(t *testing.T) {
	service, sessions := newChallengeService(t)
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(service, nil).ServeWS))
	defer server.Close()

	conn := dial(t, server, "/?challengeId=missing&userId=u1")
	defer conn.Close()

	payload := readUntil(conn, t, "error")
	if !strings.Contains(string(payload), domain.ErrChallengeNotFound.Error()) {
		t.Fatalf("expected not found error, got %s", payload)
	}
	if n := len(sessions.List()); n != 0 {
		t.Fatalf("expected no session, got %d", n)
	}
}

func TestWebSocketDisconnectAbandonsSession(t *testing.T) {
	service, sessions := newChallengeService(t)
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(service, nil).ServeWS))
	defer server.Close()

	conn := dial(t, server, "/?challengeId=speed-reading-sprint&userId=u1")
	readNext(conn, t, "loaded")
	send(t, conn, map[string]any{"type": "start"})
	readUntil(conn, t, "state")
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for len(sessions.List()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session was not abandoned after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketMissingParams(t *testing.T) {
	service, _ := newChallengeService(t)
	rec := httptest.NewRecorder()
	NewWSHandler(service, nil).ServeWS(rec, httptest.NewRequest(http.MethodGet, "/ws/challenge?userId=u1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLeaderboardStreamsCompletions(t *testing.T) {
	service, _ := newChallengeService(t)
	wsHandler := NewWSHandler(service, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/challenge", wsHandler.ServeWS)
	mux.HandleFunc("/ws/leaderboard", wsHandler.ServeLeaderboard)
	server := httptest.NewServer(mux)
	defer server.Close()

	board := dial(t, server, "/ws/leaderboard?leagueId=speed-reading-sprint")
	defer board.Close()
	readNext(board, t, "leaderboard")

	player := dial(t, server, "/ws/challenge?challengeId=speed-reading-sprint&userId=u1&name=Alice")
	defer player.Close()
	readNext(player, t, "loaded")
	send(t, player, map[string]any{"type": "start"})
	for _, answer := range []int{1, 0} {
		send(t, player, map[string]any{"type": "select", "payload": map[string]any{"index": answer}})
		send(t, player, map[string]any{"type": "advance"})
	}

	payload := readUntil(board, t, "leaderboard")
	var lb domain.LeagueLeaderboard
	if err := json.Unmarshal(payload, &lb); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].Username != "Alice" || lb.Entries[0].Accuracy != 0.5 {
		t.Fatalf("unexpected leaderboard: %+v", lb)
	}
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg["type"], err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, json.RawMessage) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

// readUntil skips messages until one of type expect arrives.
func readUntil(conn *websocket.Conn, t *testing.T, expect string) json.RawMessage {
	t.Helper()
	for i := 0; i < 50; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == expect {
			return payload
		}
	}
	t.Fatalf("no %s message within 50 reads", expect)
	return nil
}

func sampleChallenges() map[string]domain.Challenge {
	return map[string]domain.Challenge{
		"speed-reading-sprint": {
			ID:               "speed-reading-sprint",
			Name:             "Speed Reading Sprint",
			TimeLimitMinutes: 5,
			Questions: []domain.Question{
				{ID: "q1", Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectOption: 1},
				{ID: "q2", Prompt: "What is 3 + 3?", Options: []string{"5", "7", "6"}, CorrectOption: 2},
			},
		},
	}
}
