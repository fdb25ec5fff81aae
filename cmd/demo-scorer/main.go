package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"time"

	"github.com/gorilla/websocket"

	"darts-live/internal/config"
)

// demo-scorer drives a match end to end over the gateway: it creates a
// match (or joins PAIR_CODE), picks the starting player and submits
// plausible throw totals for whichever human seat holds the turn.

type stateEnvelope struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	State *struct {
		CurrentPlayer int  `json:"currentPlayer"`
		GameStarted   bool `json:"gameStarted"`
		GameWon       bool `json:"gameWon"`
		Players       [2]struct {
			ID    int    `json:"id"`
			Name  string `json:"name"`
			Score int    `json:"score"`
			IsBot bool   `json:"isBot"`
		} `json:"players"`
	} `json:"state"`
	Reason string `json:"reason"`
}

func main() {
	cfg, err := config.LoadDemo()
	if err != nil {
		log.Fatal(err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.WSURL, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	code := cfg.PairCode
	if code == "" {
		send(conn, map[string]any{"type": "create_match", "settings": map[string]any{
			"playerNames": [2]string{cfg.PlayerName, "Opponent"},
		}})
	} else {
		send(conn, map[string]any{"type": "join_match", "code": code})
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	delay := time.Duration(cfg.ThrowDelayMS) * time.Millisecond

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env stateEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case "match_created":
			code = env.Code
			log.Printf("match created, pairing code %s", code)
			send(conn, map[string]any{"type": "set_starting_player", "code": code, "player_id": 1})
		case "match_won":
			log.Printf("match over")
			return
		case "error":
			log.Printf("server error: %s", env.Reason)
		case "state":
			if env.State == nil || !env.State.GameStarted || env.State.GameWon {
				continue
			}
			current := env.State.Players[env.State.CurrentPlayer-1]
			if current.IsBot {
				continue
			}
			score := decide(rnd, current.Score)
			time.Sleep(delay)
			log.Printf("%s throws %d (had %d)", current.Name, score, current.Score)
			send(conn, map[string]any{"type": "submit_throw", "code": code, "player_id": current.ID, "score": score})
		}
	}
}

func decide(rnd *rand.Rand, remaining int) int {
	if remaining <= 60 && remaining != 1 {
		return remaining
	}
	score := 26 + rnd.Intn(75)
	if remaining-score < 0 || remaining-score == 1 {
		return 0
	}
	return score
}

func send(conn *websocket.Conn, msg map[string]any) {
	payload, _ := json.Marshal(msg)
	_ = conn.WriteMessage(websocket.TextMessage, payload)
}
