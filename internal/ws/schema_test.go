package ws

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"darts-live/internal/game"
)

func compileProtocolSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()
	compiler := jsonschema.NewCompiler()
	data, err := os.ReadFile("../../api/schema/ws_v1.schema.json")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if err := compiler.AddResource("ws_v1.schema.json", strings.NewReader(string(data))); err != nil {
		t.Fatalf("add resource: %v", err)
	}
	schema, err := compiler.Compile("ws_v1.schema.json")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return schema
}

func TestWSProtocolSchema(t *testing.T) {
	schema := compileProtocolSchema(t)

	// Validate real server output, not hand-written samples. The leg
	// reset on a won match clears both histories, so a mid-leg snapshot
	// is captured too: it carries numeric and bust throw events.
	settings := game.DefaultSettings()
	settings.LegsToWin = 1
	settings.Bot.Enabled = true
	m := game.NewMatch(settings)
	if err := m.SetStartingPlayer(1); err != nil {
		t.Fatalf("set starting player: %v", err)
	}
	for _, throw := range []struct{ player, score int }{
		{1, 180}, {2, 60}, {1, 180}, {2, 180}, {1, 180}, // busts at 141
	} {
		if _, err := m.ApplyThrow(throw.player, throw.score); err != nil {
			t.Fatalf("throw %+v: %v", throw, err)
		}
	}
	midLeg := marshalState(m)
	if !strings.Contains(string(midLeg), `"score":"bust"`) {
		t.Fatalf("mid-leg snapshot should carry a bust event: %s", midLeg)
	}
	for _, throw := range []struct{ player, score int }{
		{2, 180}, {1, 141},
	} {
		if _, err := m.ApplyThrow(throw.player, throw.score); err != nil {
			t.Fatalf("throw %+v: %v", throw, err)
		}
	}
	if !m.GameWon {
		t.Fatalf("expected a finished match for the winner sample")
	}

	won, _ := json.Marshal(MatchWonMessage{Type: "match_won", ProtocolVersion: ProtocolVersion, Winner: m.Winner})
	created, _ := json.Marshal(MatchCreated{Type: "match_created", ProtocolVersion: ProtocolVersion, Code: "Abcd2345", MasterCode: "Wxyz6789", State: m})
	bust, _ := json.Marshal(BustMessage{Type: "bust", ProtocolVersion: ProtocolVersion, PlayerID: 2})
	errMsg, _ := json.Marshal(ErrorMessage{Type: "error", ProtocolVersion: ProtocolVersion, Reason: "session_not_found"})
	joined, _ := json.Marshal(ClientJoinedMessage{Type: "client_joined", ProtocolVersion: ProtocolVersion, ClientCount: 2})
	status, _ := json.Marshal(ConnectionStatusMessage{Type: "connection_status", ProtocolVersion: ProtocolVersion, Status: "connected", ClientCount: 2})

	samples := [][]byte{midLeg, marshalState(m), won, created, bust, errMsg, joined, status}
	for i, s := range samples {
		var v any
		if err := json.Unmarshal(s, &v); err != nil {
			t.Fatalf("unmarshal sample %d: %v", i, err)
		}
		if err := schema.Validate(v); err != nil {
			t.Fatalf("schema validate sample %d: %v\n%s", i, err, s)
		}
	}
}

func TestWSProtocolSchemaRejectsMalformed(t *testing.T) {
	schema := compileProtocolSchema(t)

	bad := []string{
		`{"type":"bust","protocol_version":"1.0","player_id":3}`,
		`{"type":"error","protocol_version":"2.0","reason":"x"}`,
		`{"type":"match_created","protocol_version":"1.0","code":"too-short"}`,
		`{"type":"nonsense","protocol_version":"1.0"}`,
	}
	for i, s := range bad {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			t.Fatalf("unmarshal sample %d: %v", i, err)
		}
		if err := schema.Validate(v); err == nil {
			t.Fatalf("sample %d should fail validation: %s", i, s)
		}
	}
}
