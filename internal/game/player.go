package game

import "math"

// Player tracks the per-player view of a match. Throws is a bounded
// window of the last 10 turns; the Total* fields are unbounded running
// stats that survive leg and set resets.
type Player struct {
	ID                int          `json:"id"`
	Name              string       `json:"name"`
	Score             int          `json:"score"`
	LegsWon           int          `json:"legsWon"`
	SetsWon           int          `json:"setsWon"`
	Throws            []ThrowEvent `json:"throws"`
	AverageScore      float64      `json:"averageScore"`
	TotalScore        int          `json:"totalScore"`
	TotalThrows       int          `json:"totalThrows"`
	MatchAverageScore float64      `json:"matchAverageScore"`
	IsBot             bool         `json:"isBot"`
	BotSkillLevel     int          `json:"botSkillLevel,omitempty"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// updateAverage recomputes the windowed average over the numeric (non
// bust) entries currently in the bounded window.
func (p *Player) updateAverage() {
	sum, n := 0, 0
	for _, t := range p.Throws {
		if t.Bust {
			continue
		}
		sum += t.Score
		n++
	}
	if n == 0 {
		p.AverageScore = 0
		return
	}
	p.AverageScore = round2(float64(sum) / float64(n))
}

func (p *Player) addToTotals(score int) {
	p.TotalScore += score
	p.TotalThrows++
	p.MatchAverageScore = round2(float64(p.TotalScore) / float64(p.TotalThrows))
}

func (p *Player) removeFromTotals(score int) {
	p.TotalScore -= score
	if p.TotalScore < 0 {
		p.TotalScore = 0
	}
	p.TotalThrows--
	if p.TotalThrows < 0 {
		p.TotalThrows = 0
	}
	denom := p.TotalThrows
	if denom < 1 {
		denom = 1
	}
	p.MatchAverageScore = round2(float64(p.TotalScore) / float64(denom))
}
