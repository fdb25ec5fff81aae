package game

import (
	"encoding/json"
	"time"
)

const (
	maxPlayerThrows  = 10
	maxHistoryThrows = 50
)

// ThrowEvent records one scored turn. Bust events keep RemainingScore
// equal to PreviousScore and carry no numeric score on the wire.
type ThrowEvent struct {
	Score          int       `json:"-"`
	Bust           bool      `json:"-"`
	PlayerID       int       `json:"playerId"`
	PreviousScore  int       `json:"previousScore"`
	RemainingScore int       `json:"remainingScore"`
	Timestamp      time.Time `json:"timestamp"`
}

// throwEventWire mirrors the original scoreboard protocol, where a bust
// turn serializes its score as the string "bust".
type throwEventWire struct {
	Score          any       `json:"score"`
	PlayerID       int       `json:"playerId"`
	PreviousScore  int       `json:"previousScore"`
	RemainingScore int       `json:"remainingScore"`
	Timestamp      time.Time `json:"timestamp"`
}

func (t ThrowEvent) MarshalJSON() ([]byte, error) {
	w := throwEventWire{
		Score:          t.Score,
		PlayerID:       t.PlayerID,
		PreviousScore:  t.PreviousScore,
		RemainingScore: t.RemainingScore,
		Timestamp:      t.Timestamp,
	}
	if t.Bust {
		w.Score = "bust"
	}
	return json.Marshal(w)
}

func (t *ThrowEvent) UnmarshalJSON(data []byte) error {
	var w throwEventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t.PlayerID = w.PlayerID
	t.PreviousScore = w.PreviousScore
	t.RemainingScore = w.RemainingScore
	t.Timestamp = w.Timestamp
	switch v := w.Score.(type) {
	case float64:
		t.Score = int(v)
		t.Bust = false
	case string:
		t.Score = 0
		t.Bust = true
	}
	return nil
}

func (t ThrowEvent) sameThrow(other ThrowEvent) bool {
	return t.Timestamp.Equal(other.Timestamp) && t.Score == other.Score && t.Bust == other.Bust
}
