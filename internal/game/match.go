package game

import (
	"strconv"
	"time"
)

// Match is the authoritative state of one darts match. It is a pure
// in-memory rules engine: callers are responsible for serializing access
// and for broadcasting the state after each mutation.
type Match struct {
	Players             [2]*Player   `json:"players"`
	CurrentPlayerID     int          `json:"currentPlayer"`
	LegStartingPlayerID int          `json:"legStartingPlayer"`
	CurrentLeg          int          `json:"currentLeg"`
	CurrentSet          int          `json:"currentSet"`
	ThrowHistory        []ThrowEvent `json:"throwHistory"`
	Settings            Settings     `json:"settings"`
	GameMode            string       `json:"gameMode"`
	GameStarted         bool         `json:"gameStarted"`
	GameWon             bool         `json:"gameWon"`
	Winner              *Player      `json:"winner,omitempty"`

	// Epoch increments on every reset or settings change. Delayed bot
	// turns capture it and drop themselves when it no longer matches.
	Epoch int64 `json:"-"`
}

// ThrowResult reports what a throw did to the match.
type ThrowResult struct {
	Bust     bool
	LegWon   bool
	SetWon   bool
	MatchWon bool
}

func NewMatch(settings Settings) *Match {
	settings = settings.Normalize()
	m := &Match{
		CurrentPlayerID:     1,
		LegStartingPlayerID: 1,
		CurrentLeg:          1,
		CurrentSet:          1,
		Settings:            settings,
		GameMode:            strconv.Itoa(settings.StartingScore),
	}
	m.Players[0] = newPlayer(1, settings, false)
	m.Players[1] = newPlayer(2, settings, settings.Bot.Enabled)
	return m
}

func newPlayer(id int, settings Settings, isBot bool) *Player {
	p := &Player{
		ID:     id,
		Name:   settings.PlayerNames[id-1],
		Score:  settings.StartingScore,
		Throws: []ThrowEvent{},
	}
	if isBot {
		p.IsBot = true
		p.Name = settings.Bot.Name
		p.BotSkillLevel = settings.Bot.SkillLevel
	}
	return p
}

func (m *Match) PlayerByID(id int) *Player {
	if id != 1 && id != 2 {
		return nil
	}
	return m.Players[id-1]
}

func (m *Match) CurrentPlayer() *Player {
	return m.PlayerByID(m.CurrentPlayerID)
}

func otherPlayerID(id int) int {
	if id == 1 {
		return 2
	}
	return 1
}

// SetStartingPlayer picks the opener and starts the match. It is only
// valid before the first throw of the match.
func (m *Match) SetStartingPlayer(playerID int) error {
	if playerID != 1 && playerID != 2 {
		return ErrUnknownPlayer
	}
	if m.GameStarted && len(m.ThrowHistory) > 0 {
		return ErrAlreadyStarted
	}
	m.CurrentPlayerID = playerID
	m.LegStartingPlayerID = playerID
	m.GameStarted = true
	return nil
}

// RenamePlayer updates a player's display name and keeps the settings in
// sync so the name survives a reset.
func (m *Match) RenamePlayer(playerID int, name string) error {
	p := m.PlayerByID(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if name == "" {
		return ErrInvalidThrow
	}
	p.Name = name
	m.Settings.PlayerNames[playerID-1] = name
	return nil
}

// ApplyThrow applies one submitted turn total for playerID.
//
// A turn busts when it would take the score below zero or to exactly one.
// Finishing on zero is accepted without double verification: a total
// entered by hand cannot express which dart hit the double, so that rule
// is only enforced inside the bot's dart-by-dart model.
func (m *Match) ApplyThrow(playerID, score int) (ThrowResult, error) {
	if m.GameWon {
		return ThrowResult{}, ErrMatchOver
	}
	if !m.GameStarted {
		return ThrowResult{}, ErrMatchNotStarted
	}
	p := m.PlayerByID(playerID)
	if p == nil {
		return ThrowResult{}, ErrUnknownPlayer
	}
	if playerID != m.CurrentPlayerID || score < 0 || score > 180 {
		return ThrowResult{}, ErrInvalidThrow
	}

	remaining := p.Score - score
	now := time.Now()

	if remaining < 0 || remaining == 1 {
		m.appendThrow(p, ThrowEvent{
			Bust:           true,
			PlayerID:       playerID,
			PreviousScore:  p.Score,
			RemainingScore: p.Score,
			Timestamp:      now,
		})
		m.CurrentPlayerID = otherPlayerID(playerID)
		return ThrowResult{Bust: true}, nil
	}

	m.appendThrow(p, ThrowEvent{
		Score:          score,
		PlayerID:       playerID,
		PreviousScore:  p.Score,
		RemainingScore: remaining,
		Timestamp:      now,
	})
	p.addToTotals(score)

	if remaining == 0 {
		return m.finishLeg(p), nil
	}

	p.Score = remaining
	p.updateAverage()
	m.CurrentPlayerID = otherPlayerID(playerID)
	return ThrowResult{}, nil
}

func (m *Match) finishLeg(winner *Player) ThrowResult {
	res := ThrowResult{LegWon: true}
	winner.LegsWon++

	if m.Settings.SetsEnabled {
		if winner.LegsWon >= m.Settings.legsNeeded() {
			res.SetWon = true
			winner.SetsWon++
			for _, p := range m.Players {
				p.LegsWon = 0
			}
			m.CurrentSet++
			if winner.SetsWon >= m.Settings.setsNeeded() {
				res.MatchWon = true
			}
		}
	} else if winner.LegsWon >= m.Settings.legsNeeded() {
		res.MatchWon = true
	}

	if res.MatchWon {
		m.GameWon = true
		m.Winner = winner
	}
	// The leg reset also runs on a won match so the scoreboard shows a
	// fresh countdown behind the victory screen.
	m.resetLeg()
	return res
}

// resetLeg restores both players for the next leg and flips the opener.
// It deliberately leaves legsWon, setsWon and the running match totals
// untouched.
func (m *Match) resetLeg() {
	for _, p := range m.Players {
		p.Score = m.Settings.StartingScore
		p.Throws = []ThrowEvent{}
	}
	m.LegStartingPlayerID = otherPlayerID(m.LegStartingPlayerID)
	m.CurrentPlayerID = m.LegStartingPlayerID
	m.CurrentLeg++
	m.ThrowHistory = []ThrowEvent{}
}

// UndoLastThrow pops the most recent throw from the global history and
// rolls its effects back. The turn returns to whoever threw last. The
// global history is cleared on every leg transition, so undo can never
// cross a leg boundary; and if the matching per-player entry was already
// evicted by the 10-entry window, that window simply does not shrink.
func (m *Match) UndoLastThrow() {
	if len(m.ThrowHistory) == 0 {
		return
	}
	last := m.ThrowHistory[len(m.ThrowHistory)-1]
	m.ThrowHistory = m.ThrowHistory[:len(m.ThrowHistory)-1]

	p := m.PlayerByID(last.PlayerID)
	if p == nil {
		return
	}
	p.Score = last.PreviousScore
	for i := len(p.Throws) - 1; i >= 0; i-- {
		if p.Throws[i].sameThrow(last) {
			p.Throws = append(p.Throws[:i], p.Throws[i+1:]...)
			break
		}
	}
	if !last.Bust {
		p.removeFromTotals(last.Score)
	}
	p.updateAverage()
	m.CurrentPlayerID = last.PlayerID
}

// Reset returns the match to its pre-start state under the current
// settings. Pending bot turns are invalidated via the epoch bump.
func (m *Match) Reset() {
	for _, p := range m.Players {
		p.Score = m.Settings.StartingScore
		p.LegsWon = 0
		p.SetsWon = 0
		p.Throws = []ThrowEvent{}
		p.AverageScore = 0
		p.TotalScore = 0
		p.TotalThrows = 0
		p.MatchAverageScore = 0
	}
	m.CurrentPlayerID = 1
	m.LegStartingPlayerID = 1
	m.CurrentLeg = 1
	m.CurrentSet = 1
	m.ThrowHistory = []ThrowEvent{}
	m.GameMode = strconv.Itoa(m.Settings.StartingScore)
	m.GameStarted = false
	m.GameWon = false
	m.Winner = nil
	m.Epoch++
}

// UpdateSettings merges the patch into the current settings and performs
// a full reset, reseeding player names and the bot seat.
func (m *Match) UpdateSettings(patch SettingsPatch) {
	m.Settings = Merge(m.Settings, patch)
	m.Players[0] = newPlayer(1, m.Settings, false)
	m.Players[1] = newPlayer(2, m.Settings, m.Settings.Bot.Enabled)
	m.Reset()
}

func (m *Match) appendThrow(p *Player, ev ThrowEvent) {
	p.Throws = append(p.Throws, ev)
	if len(p.Throws) > maxPlayerThrows {
		p.Throws = p.Throws[len(p.Throws)-maxPlayerThrows:]
	}
	m.ThrowHistory = append(m.ThrowHistory, ev)
	if len(m.ThrowHistory) > maxHistoryThrows {
		m.ThrowHistory = m.ThrowHistory[len(m.ThrowHistory)-maxHistoryThrows:]
	}
}
