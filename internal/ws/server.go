package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"darts-live/internal/dartbot"
	"darts-live/internal/game"
	"darts-live/internal/session"
)

const defaultBotDelay = 1500 * time.Millisecond

type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Server is the realtime gateway. It owns no match state: the session
// registry is authoritative, and the rooms map is a derived index from
// pairing code to the connections that should receive broadcasts.
type Server struct {
	registry *session.Registry
	upgrader websocket.Upgrader
	botDelay time.Duration

	mu    sync.Mutex
	rooms map[string]map[*Client]struct{}
}

func NewServer(registry *session.Registry, botDelay time.Duration) *Server {
	if botDelay <= 0 {
		botDelay = defaultBotDelay
	}
	return &Server{
		registry: registry,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		botDelay: botDelay,
		rooms:    map[string]map[*Client]struct{}{},
	}
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{id: newClientID(), conn: conn, send: make(chan []byte, 8)}
	log.Debug().Str("client_id", client.id).Msg("client connected")

	go s.writeLoop(client)
	s.readLoop(client)
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		s.unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}
		switch base.Type {
		case "create_match":
			var m CreateMatchMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			s.handleCreate(c, m)
		case "join_match":
			var m JoinMatchMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			s.handleJoin(c, m)
		case "set_starting_player":
			var m SetStartingPlayerMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			s.handleSetStartingPlayer(c, m)
		case "submit_throw":
			var m SubmitThrowMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			s.handleThrow(c, m)
		case "undo_throw":
			var m UndoThrowMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			s.handleUndo(c, m)
		case "reset_match":
			var m ResetMatchMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			s.handleReset(c, m)
		case "update_settings":
			var m UpdateSettingsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			s.handleUpdateSettings(c, m)
		case "rename_player":
			var m RenamePlayerMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			s.handleRename(c, m)
		case "request_state":
			var m RequestStateMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			s.handleRequestState(c, m)
		}
	}
}

func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

func (s *Server) handleCreate(c *Client, msg CreateMatchMessage) {
	settings := game.Merge(game.DefaultSettings(), msg.Settings)
	sess, err := s.registry.CreateSession(settings)
	if err != nil {
		log.Error().Err(err).Msg("create session failed")
		s.sendError(c, "pairing_code_generation_failed")
		return
	}
	s.registry.AddClient(sess.Code, c.id)
	s.joinRoom(sess.Code, c)

	var created []byte
	sess.Do(func(m *game.Match) {
		created, _ = json.Marshal(MatchCreated{
			Type:            "match_created",
			ProtocolVersion: ProtocolVersion,
			Code:            sess.Code,
			MasterCode:      sess.MasterCode,
			State:           m,
		})
	})
	safeSend(c.send, created)
	s.broadcastConnectionStatus(sess.Code)
	log.Info().Str("code", sess.Code).Str("client_id", c.id).Msg("match created")
}

func (s *Server) handleJoin(c *Client, msg JoinMatchMessage) {
	// Rate limit before any lookup so codes cannot be brute-forced.
	if blocked, _ := s.registry.RecordJoinAttempt(c.id); blocked {
		s.sendError(c, "rate_limited")
		return
	}
	if !session.ValidCodeFormat(msg.Code) {
		s.sendError(c, "invalid_code_format")
		return
	}
	sess, ok := s.registry.GetSession(msg.Code)
	if !ok {
		s.sendError(c, "session_not_found")
		return
	}
	s.registry.AddClient(sess.Code, c.id)
	s.joinRoom(sess.Code, c)

	sess.Do(func(m *game.Match) {
		safeSend(c.send, marshalState(m))
	})
	count := s.registry.ClientCount(sess.Code)
	joined, _ := json.Marshal(ClientJoinedMessage{Type: "client_joined", ProtocolVersion: ProtocolVersion, ClientCount: count})
	s.broadcast(sess.Code, joined)
	s.broadcastConnectionStatus(sess.Code)
	log.Info().Str("code", sess.Code).Str("client_id", c.id).Msg("client joined match")
}

func (s *Server) handleSetStartingPlayer(c *Client, msg SetStartingPlayerMessage) {
	sess, ok := s.registry.GetSession(msg.Code)
	if !ok {
		s.sendError(c, "session_not_found")
		return
	}
	var (
		err      error
		stateMsg []byte
		bot      *botTurnRef
	)
	sess.Do(func(m *game.Match) {
		err = m.SetStartingPlayer(msg.PlayerID)
		if err != nil {
			return
		}
		stateMsg = marshalState(m)
		bot = pendingBotTurn(sess.Code, m)
	})
	if err != nil {
		s.sendError(c, mapError(err))
		return
	}
	s.registry.Touch(msg.Code)
	s.broadcast(sess.Code, stateMsg)
	s.scheduleBotTurn(bot)
}

func (s *Server) handleThrow(c *Client, msg SubmitThrowMessage) {
	sess, ok := s.registry.GetSession(msg.Code)
	if !ok {
		s.sendError(c, "session_not_found")
		return
	}
	var (
		res      game.ThrowResult
		err      error
		stateMsg []byte
		winner   *game.Player
		bot      *botTurnRef
	)
	sess.Do(func(m *game.Match) {
		res, err = m.ApplyThrow(msg.PlayerID, msg.Score)
		if err != nil {
			return
		}
		stateMsg = marshalState(m)
		winner = m.Winner
		bot = pendingBotTurn(sess.Code, m)
	})
	if err != nil {
		s.sendError(c, mapError(err))
		return
	}
	s.registry.Touch(msg.Code)
	if res.Bust {
		bust, _ := json.Marshal(BustMessage{Type: "bust", ProtocolVersion: ProtocolVersion, PlayerID: msg.PlayerID})
		s.broadcast(sess.Code, bust)
	}
	s.broadcast(sess.Code, stateMsg)
	if res.MatchWon {
		won, _ := json.Marshal(MatchWonMessage{Type: "match_won", ProtocolVersion: ProtocolVersion, Winner: winner})
		s.broadcast(sess.Code, won)
		return
	}
	s.scheduleBotTurn(bot)
}

func (s *Server) handleUndo(c *Client, msg UndoThrowMessage) {
	s.applyAndBroadcast(c, msg.Code, func(m *game.Match) error {
		m.UndoLastThrow()
		return nil
	})
}

func (s *Server) handleReset(c *Client, msg ResetMatchMessage) {
	s.applyAndBroadcast(c, msg.Code, func(m *game.Match) error {
		m.Reset()
		return nil
	})
}

func (s *Server) handleUpdateSettings(c *Client, msg UpdateSettingsMessage) {
	s.applyAndBroadcast(c, msg.Code, func(m *game.Match) error {
		m.UpdateSettings(msg.Settings)
		return nil
	})
}

func (s *Server) handleRename(c *Client, msg RenamePlayerMessage) {
	s.applyAndBroadcast(c, msg.Code, func(m *game.Match) error {
		return m.RenamePlayer(msg.PlayerID, msg.Name)
	})
}

func (s *Server) handleRequestState(c *Client, msg RequestStateMessage) {
	sess, ok := s.registry.GetSession(msg.Code)
	if !ok {
		s.sendError(c, "session_not_found")
		return
	}
	sess.Do(func(m *game.Match) {
		safeSend(c.send, marshalState(m))
	})
}

// applyAndBroadcast runs a mutation under the session lock and pushes
// the resulting snapshot to the room, or reports the error back to the
// submitting client only.
func (s *Server) applyAndBroadcast(c *Client, code string, fn func(m *game.Match) error) {
	sess, ok := s.registry.GetSession(code)
	if !ok {
		s.sendError(c, "session_not_found")
		return
	}
	var (
		err      error
		stateMsg []byte
	)
	sess.Do(func(m *game.Match) {
		err = fn(m)
		if err != nil {
			return
		}
		stateMsg = marshalState(m)
	})
	if err != nil {
		s.sendError(c, mapError(err))
		return
	}
	s.registry.Touch(code)
	s.broadcast(sess.Code, stateMsg)
}

type botTurnRef struct {
	code     string
	playerID int
	epoch    int64
}

// pendingBotTurn reports whether the turn just passed to a bot player.
// The epoch is captured so the delayed task can detect a reset or
// settings change that happened while it was waiting.
func pendingBotTurn(code string, m *game.Match) *botTurnRef {
	if !m.GameStarted || m.GameWon {
		return nil
	}
	cp := m.CurrentPlayer()
	if cp == nil || !cp.IsBot {
		return nil
	}
	return &botTurnRef{code: code, playerID: cp.ID, epoch: m.Epoch}
}

func (s *Server) scheduleBotTurn(ref *botTurnRef) {
	if ref == nil {
		return
	}
	time.AfterFunc(s.botDelay, func() {
		s.runBotTurn(*ref)
	})
}

func (s *Server) runBotTurn(ref botTurnRef) {
	sess, ok := s.registry.GetSession(ref.code)
	if !ok {
		return
	}
	var (
		stale    bool
		res      game.ThrowResult
		err      error
		turn     int
		stateMsg []byte
		winner   *game.Player
		next     *botTurnRef
	)
	sess.Do(func(m *game.Match) {
		if m.Epoch != ref.epoch || !m.GameStarted || m.GameWon || m.CurrentPlayerID != ref.playerID {
			stale = true
			return
		}
		p := m.PlayerByID(ref.playerID)
		if p == nil || !p.IsBot {
			stale = true
			return
		}
		bot := dartbot.New(dartbot.Config{
			SkillLevel:    p.BotSkillLevel,
			TargetAverage: float64(m.Settings.Bot.AverageScore),
		})
		turn = bot.GenerateTurn(p.Score)
		res, err = m.ApplyThrow(ref.playerID, turn)
		if err != nil {
			return
		}
		stateMsg = marshalState(m)
		winner = m.Winner
		next = pendingBotTurn(ref.code, m)
	})
	if stale {
		log.Debug().Str("code", ref.code).Msg("dropping stale bot turn")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("code", ref.code).Int("turn", turn).Msg("bot throw rejected")
		return
	}
	s.registry.Touch(ref.code)
	log.Info().Str("code", ref.code).Int("player_id", ref.playerID).Int("turn", turn).Bool("bust", res.Bust).Msg("bot turn")
	if res.Bust {
		bust, _ := json.Marshal(BustMessage{Type: "bust", ProtocolVersion: ProtocolVersion, PlayerID: ref.playerID})
		s.broadcast(ref.code, bust)
	}
	s.broadcast(ref.code, stateMsg)
	if res.MatchWon {
		won, _ := json.Marshal(MatchWonMessage{Type: "match_won", ProtocolVersion: ProtocolVersion, Winner: winner})
		s.broadcast(ref.code, won)
		return
	}
	s.scheduleBotTurn(next)
}

func (s *Server) joinRoom(code string, c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.rooms[code]
	if room == nil {
		room = map[*Client]struct{}{}
		s.rooms[code] = room
	}
	room[c] = struct{}{}
}

func (s *Server) unregister(c *Client) {
	affected := s.registry.RemoveClientFromAll(c.id)
	s.mu.Lock()
	for code, room := range s.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(s.rooms, code)
		}
	}
	s.mu.Unlock()
	safeClose(c.send)
	for _, code := range affected {
		s.broadcastConnectionStatus(code)
	}
	log.Debug().Str("client_id", c.id).Msg("client disconnected")
}

func (s *Server) broadcast(code string, msg []byte) {
	if msg == nil {
		return
	}
	s.mu.Lock()
	for c := range s.rooms[code] {
		safeSend(c.send, msg)
	}
	s.mu.Unlock()
}

func (s *Server) broadcastConnectionStatus(code string) {
	status, _ := json.Marshal(ConnectionStatusMessage{
		Type:            "connection_status",
		ProtocolVersion: ProtocolVersion,
		Status:          "connected",
		ClientCount:     s.registry.ClientCount(code),
	})
	s.broadcast(code, status)
}

func (s *Server) sendError(c *Client, reason string) {
	msg, _ := json.Marshal(ErrorMessage{Type: "error", ProtocolVersion: ProtocolVersion, Reason: reason})
	safeSend(c.send, msg)
}

func marshalState(m *game.Match) []byte {
	msg, _ := json.Marshal(StateMessage{Type: "state", ProtocolVersion: ProtocolVersion, State: m})
	return msg
}

func mapError(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidThrow):
		return "invalid_throw"
	case errors.Is(err, game.ErrMatchNotStarted):
		return "match_not_started"
	case errors.Is(err, game.ErrMatchOver):
		return "match_over"
	case errors.Is(err, game.ErrAlreadyStarted):
		return "already_started"
	case errors.Is(err, game.ErrUnknownPlayer):
		return "unknown_player"
	}
	return "unknown_error"
}

func safeClose(ch chan []byte) {
	defer func() {
		_ = recover()
	}()
	close(ch)
}

func safeSend(ch chan []byte, msg []byte) {
	defer func() {
		_ = recover()
	}()
	ch <- msg
}
