package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"darts-live/internal/game"
	"darts-live/internal/session"
)

func newTestGateway(t *testing.T, botDelay time.Duration) (*httptest.Server, *Server) {
	t.Helper()
	registry := session.NewRegistry(session.SessionTTL)
	srv := NewServer(registry, botDelay)
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)
	return ts, srv
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readUntil reads messages until one of the wanted type arrives, skipping
// everything else, and unmarshals it into out.
func readUntil(t *testing.T, conn *websocket.Conn, wantType string, out any) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", wantType, err)
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &base); err != nil {
			t.Fatalf("unmarshal %q: %v", data, err)
		}
		if base.Type != wantType {
			continue
		}
		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				t.Fatalf("unmarshal %q into %T: %v", data, out, err)
			}
		}
		return
	}
}

func TestCreateThrowAndJoinFlow(t *testing.T) {
	ts, _ := newTestGateway(t, time.Minute) // bot never fires
	scorer := dialWS(t, ts)

	sendJSON(t, scorer, map[string]any{"type": "create_match", "settings": map[string]any{}})
	var created MatchCreated
	readUntil(t, scorer, "match_created", &created)
	if !session.ValidCodeFormat(created.Code) || !session.ValidCodeFormat(created.MasterCode) {
		t.Fatalf("malformed pairing codes: %q / %q", created.Code, created.MasterCode)
	}
	if created.State == nil || created.State.Settings.StartingScore != 501 {
		t.Fatalf("created state missing or wrong: %+v", created.State)
	}

	sendJSON(t, scorer, SetStartingPlayerMessage{Type: "set_starting_player", Code: created.Code, PlayerID: 1})
	var st StateMessage
	readUntil(t, scorer, "state", &st)
	if !st.State.GameStarted || st.State.CurrentPlayerID != 1 {
		t.Fatalf("match not started for player 1: %+v", st.State)
	}

	sendJSON(t, scorer, SubmitThrowMessage{Type: "submit_throw", Code: created.Code, PlayerID: 1, Score: 60})
	readUntil(t, scorer, "state", &st)
	if got := st.State.Players[0].Score; got != 441 {
		t.Fatalf("expected 441 after a 60, got %d", got)
	}
	if st.State.CurrentPlayerID != 2 {
		t.Fatalf("turn should pass to player 2, got %d", st.State.CurrentPlayerID)
	}

	// Out of turn throw bounces back to the sender only.
	sendJSON(t, scorer, SubmitThrowMessage{Type: "submit_throw", Code: created.Code, PlayerID: 1, Score: 60})
	var errMsg ErrorMessage
	readUntil(t, scorer, "error", &errMsg)
	if errMsg.Reason != "invalid_throw" {
		t.Fatalf("expected invalid_throw, got %q", errMsg.Reason)
	}

	// A second client joins by master code and receives the live state.
	display := dialWS(t, ts)
	sendJSON(t, display, JoinMatchMessage{Type: "join_match", Code: created.MasterCode})
	readUntil(t, display, "state", &st)
	if got := st.State.Players[0].Score; got != 441 {
		t.Fatalf("joiner should see current state, got score %d", got)
	}
	var joined ClientJoinedMessage
	readUntil(t, scorer, "client_joined", &joined)
	if joined.ClientCount != 2 {
		t.Fatalf("expected 2 clients, got %d", joined.ClientCount)
	}
}

func TestJoinRejectsBadCode(t *testing.T) {
	ts, _ := newTestGateway(t, time.Minute)
	conn := dialWS(t, ts)

	sendJSON(t, conn, JoinMatchMessage{Type: "join_match", Code: "not a code"})
	var errMsg ErrorMessage
	readUntil(t, conn, "error", &errMsg)
	if errMsg.Reason != "invalid_code_format" {
		t.Fatalf("expected invalid_code_format, got %q", errMsg.Reason)
	}

	sendJSON(t, conn, JoinMatchMessage{Type: "join_match", Code: "Abcd2345"})
	readUntil(t, conn, "error", &errMsg)
	if errMsg.Reason != "session_not_found" {
		t.Fatalf("expected session_not_found, got %q", errMsg.Reason)
	}
}

func TestJoinRateLimitOverWire(t *testing.T) {
	ts, _ := newTestGateway(t, time.Minute)
	conn := dialWS(t, ts)

	var errMsg ErrorMessage
	for i := 0; i < session.MaxAttemptsPerWindow; i++ {
		sendJSON(t, conn, JoinMatchMessage{Type: "join_match", Code: "Abcd2345"})
		readUntil(t, conn, "error", &errMsg)
		if errMsg.Reason != "session_not_found" {
			t.Fatalf("attempt %d: expected session_not_found, got %q", i, errMsg.Reason)
		}
	}
	sendJSON(t, conn, JoinMatchMessage{Type: "join_match", Code: "Abcd2345"})
	readUntil(t, conn, "error", &errMsg)
	if errMsg.Reason != "rate_limited" {
		t.Fatalf("expected rate_limited, got %q", errMsg.Reason)
	}
}

func TestBotTakesItsTurn(t *testing.T) {
	ts, _ := newTestGateway(t, 5*time.Millisecond)
	conn := dialWS(t, ts)

	sendJSON(t, conn, map[string]any{"type": "create_match", "settings": map[string]any{
		"dartBot": map[string]any{"enabled": true, "skillLevel": 5, "averageScore": 65, "name": "DartBot"},
	}})
	var created MatchCreated
	readUntil(t, conn, "match_created", &created)
	if !created.State.Players[1].IsBot {
		t.Fatalf("player 2 should be the bot: %+v", created.State.Players[1])
	}

	// The bot opens, so a turn should arrive without any human input.
	sendJSON(t, conn, SetStartingPlayerMessage{Type: "set_starting_player", Code: created.Code, PlayerID: 2})
	deadline := time.Now().Add(3 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatalf("bot never threw")
		}
		var st StateMessage
		readUntil(t, conn, "state", &st)
		if len(st.State.ThrowHistory) == 0 {
			continue // pre-bot snapshot
		}
		if got := st.State.ThrowHistory[0].PlayerID; got != 2 {
			t.Fatalf("first throw should be the bot's, got player %d", got)
		}
		if st.State.CurrentPlayerID != 1 {
			t.Fatalf("turn should pass to the human, got %d", st.State.CurrentPlayerID)
		}
		return
	}
}

func TestResetDropsPendingBotTurn(t *testing.T) {
	registry := session.NewRegistry(session.SessionTTL)
	srv := NewServer(registry, time.Minute)
	settings := game.DefaultSettings()
	settings.Bot.Enabled = true
	sess, err := registry.CreateSession(settings)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var ref *botTurnRef
	sess.Do(func(m *game.Match) {
		if err := m.SetStartingPlayer(2); err != nil {
			t.Fatalf("set starting player: %v", err)
		}
		ref = pendingBotTurn(sess.Code, m)
	})
	if ref == nil {
		t.Fatalf("expected a pending bot turn")
	}

	sess.Do(func(m *game.Match) { m.Reset() })
	srv.runBotTurn(*ref)

	sess.Do(func(m *game.Match) {
		if len(m.ThrowHistory) != 0 || m.Players[1].TotalThrows != 0 {
			t.Fatalf("stale bot turn was applied after reset")
		}
	})
}

func TestPendingBotTurn(t *testing.T) {
	settings := game.DefaultSettings()
	settings.Bot.Enabled = true
	m := game.NewMatch(settings)

	if ref := pendingBotTurn("code", m); ref != nil {
		t.Fatalf("no bot turn before the match starts")
	}
	if err := m.SetStartingPlayer(2); err != nil {
		t.Fatalf("set starting player: %v", err)
	}
	ref := pendingBotTurn("code", m)
	if ref == nil || ref.playerID != 2 || ref.epoch != m.Epoch {
		t.Fatalf("expected bot turn ref for player 2, got %+v", ref)
	}

	human := game.NewMatch(game.DefaultSettings())
	_ = human.SetStartingPlayer(2)
	if ref := pendingBotTurn("code", human); ref != nil {
		t.Fatalf("no bot turn when player 2 is human")
	}
}

func TestMapError(t *testing.T) {
	cases := map[error]string{
		game.ErrInvalidThrow:    "invalid_throw",
		game.ErrMatchNotStarted: "match_not_started",
		game.ErrMatchOver:       "match_over",
		game.ErrAlreadyStarted:  "already_started",
		game.ErrUnknownPlayer:   "unknown_player",
		errors.New("whatever"):  "unknown_error",
	}
	for err, want := range cases {
		if got := mapError(err); got != want {
			t.Fatalf("mapError(%v) = %q, want %q", err, got, want)
		}
	}
}
