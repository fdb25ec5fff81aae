package game

// GameFormat controls how many legs (or sets) decide a match.
type GameFormat string

const (
	FormatFirstTo GameFormat = "firstTo"
	FormatBestOf  GameFormat = "bestOf"
)

// BotSettings configures the automated opponent seated as player 2.
type BotSettings struct {
	Enabled      bool   `json:"enabled"`
	SkillLevel   int    `json:"skillLevel"`
	AverageScore int    `json:"averageScore"`
	Name         string `json:"name"`
}

type Settings struct {
	StartingScore int         `json:"startingScore"`
	GameFormat    GameFormat  `json:"gameFormat"`
	LegsToWin     int         `json:"legsToWin"`
	SetsEnabled   bool        `json:"setsEnabled"`
	SetsToWin     int         `json:"setsToWin"`
	PlayerNames   [2]string   `json:"playerNames"`
	Bot           BotSettings `json:"dartBot"`
}

// SettingsPatch carries optional overrides for an update_settings request.
// Nil fields keep the current value.
type SettingsPatch struct {
	StartingScore *int         `json:"startingScore,omitempty"`
	GameFormat    *GameFormat  `json:"gameFormat,omitempty"`
	LegsToWin     *int         `json:"legsToWin,omitempty"`
	SetsEnabled   *bool        `json:"setsEnabled,omitempty"`
	SetsToWin     *int         `json:"setsToWin,omitempty"`
	PlayerNames   *[2]string   `json:"playerNames,omitempty"`
	Bot           *BotSettings `json:"dartBot,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		StartingScore: 501,
		GameFormat:    FormatFirstTo,
		LegsToWin:     3,
		SetsEnabled:   false,
		SetsToWin:     3,
		PlayerNames:   [2]string{"Player 1", "Player 2"},
		Bot: BotSettings{
			Enabled:      false,
			SkillLevel:   5,
			AverageScore: 65,
			Name:         "DartBot",
		},
	}
}

func validStartingScore(score int) bool {
	switch score {
	case 301, 501, 601, 701:
		return true
	}
	return false
}

// Normalize fills zero values with defaults and clamps out-of-range fields.
func (s Settings) Normalize() Settings {
	def := DefaultSettings()
	if !validStartingScore(s.StartingScore) {
		s.StartingScore = def.StartingScore
	}
	if s.GameFormat != FormatFirstTo && s.GameFormat != FormatBestOf {
		s.GameFormat = def.GameFormat
	}
	if s.LegsToWin < 1 {
		s.LegsToWin = def.LegsToWin
	}
	if s.SetsToWin < 1 {
		s.SetsToWin = def.SetsToWin
	}
	if s.PlayerNames[0] == "" {
		s.PlayerNames[0] = def.PlayerNames[0]
	}
	if s.PlayerNames[1] == "" {
		s.PlayerNames[1] = def.PlayerNames[1]
	}
	if s.Bot.SkillLevel < 1 {
		s.Bot.SkillLevel = def.Bot.SkillLevel
	}
	if s.Bot.SkillLevel > 10 {
		s.Bot.SkillLevel = 10
	}
	if s.Bot.AverageScore <= 0 {
		s.Bot.AverageScore = 20 + (s.Bot.SkillLevel-1)*10
	}
	if s.Bot.Name == "" {
		s.Bot.Name = def.Bot.Name
	}
	return s
}

// Merge applies a patch on top of base. The result is normalized.
func Merge(base Settings, patch SettingsPatch) Settings {
	out := base
	if patch.StartingScore != nil {
		out.StartingScore = *patch.StartingScore
	}
	if patch.GameFormat != nil {
		out.GameFormat = *patch.GameFormat
	}
	if patch.LegsToWin != nil {
		out.LegsToWin = *patch.LegsToWin
	}
	if patch.SetsEnabled != nil {
		out.SetsEnabled = *patch.SetsEnabled
	}
	if patch.SetsToWin != nil {
		out.SetsToWin = *patch.SetsToWin
	}
	if patch.PlayerNames != nil {
		out.PlayerNames = *patch.PlayerNames
	}
	if patch.Bot != nil {
		out.Bot = *patch.Bot
	}
	return out.Normalize()
}

// legsNeeded returns how many legs win a set (or the match when sets are
// disabled) under the configured format.
func (s Settings) legsNeeded() int {
	if s.GameFormat == FormatBestOf {
		return (s.LegsToWin + 1) / 2
	}
	return s.LegsToWin
}

func (s Settings) setsNeeded() int {
	if s.GameFormat == FormatBestOf {
		return (s.SetsToWin + 1) / 2
	}
	return s.SetsToWin
}
