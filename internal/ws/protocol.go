package ws

import "darts-live/internal/game"

const ProtocolVersion = "1.0"

// Inbound messages. Every action except create_match carries the pairing
// code of the session it targets.

type CreateMatchMessage struct {
	Type     string             `json:"type"`
	Settings game.SettingsPatch `json:"settings"`
}

type JoinMatchMessage struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

type SetStartingPlayerMessage struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	PlayerID int    `json:"player_id"`
}

type SubmitThrowMessage struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	PlayerID int    `json:"player_id"`
	Score    int    `json:"score"`
}

type UndoThrowMessage struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

type ResetMatchMessage struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

type UpdateSettingsMessage struct {
	Type     string             `json:"type"`
	Code     string             `json:"code"`
	Settings game.SettingsPatch `json:"settings"`
}

type RenamePlayerMessage struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
}

type RequestStateMessage struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// Outbound messages.

type MatchCreated struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Code            string      `json:"code"`
	MasterCode      string      `json:"master_code"`
	State           *game.Match `json:"state"`
}

type StateMessage struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	State           *game.Match `json:"state"`
}

type BustMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        int    `json:"player_id"`
}

type MatchWonMessage struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Winner          *game.Player `json:"winner"`
}

type ErrorMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Reason          string `json:"reason"`
}

type ClientJoinedMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientCount     int    `json:"client_count"`
}

type ConnectionStatusMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Status          string `json:"status"`
	ClientCount     int    `json:"client_count"`
}
