package dartbot

import (
	"math"
	"math/rand"
	"time"
)

const (
	minSkill = 1
	maxSkill = 10

	// Remaining scores above this cannot be checked out in three darts.
	checkoutWindow = 170

	// At this configured average the dart-by-dart simulation is replaced
	// by direct sampling while outside finishing range.
	directSampleAverage = 90
)

// Config parametrizes the shot model. TargetAverage of zero derives the
// average from the skill level (20 at skill 1 up to 110 at skill 10).
type Config struct {
	SkillLevel    int
	TargetAverage float64
}

// Bot simulates an opponent throwing three darts per turn with
// skill-dependent accuracy and a checkout-seeking policy.
type Bot struct {
	skill          int
	targetAverage  float64
	singleAccuracy float64
	doubleAccuracy float64
	tripleAccuracy float64
	missChance     float64
	rng            *rand.Rand
}

func New(cfg Config) *Bot {
	skill := cfg.SkillLevel
	if skill < minSkill {
		skill = minSkill
	}
	if skill > maxSkill {
		skill = maxSkill
	}
	target := cfg.TargetAverage
	if target <= 0 {
		target = float64(20 + (skill-1)*10)
	}
	return &Bot{
		skill:          skill,
		targetAverage:  target,
		singleAccuracy: math.Min(0.3+float64(skill-1)*0.07, 0.95),
		doubleAccuracy: math.Min(0.1+float64(skill-1)*0.05, 0.6),
		tripleAccuracy: math.Min(0.05+float64(skill-1)*0.03, 0.4),
		missChance:     math.Max(0.02, 0.15-float64(skill-1)*0.012),
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type dart struct {
	score   int
	segment int
	double  bool
	miss    bool
}

// GenerateTurn simulates one three-dart turn against currentScore and
// returns the net reduction in [0, 180]. A dart that would bust ends the
// turn immediately; only the darts thrown before it count. A valid
// double-out finish also ends the turn early.
func (b *Bot) GenerateTurn(currentScore int) int {
	if b.targetAverage >= directSampleAverage && currentScore > checkoutWindow {
		return b.sampleTurnTotal(currentScore)
	}

	remaining := currentScore
	total := 0
	for i := 0; i < 3; i++ {
		finishing := remaining <= checkoutWindow && remaining > 1
		d := b.throwDart(remaining, finishing)
		after := remaining - d.score
		if after < 0 || after == 1 || (after == 0 && !d.double) {
			break
		}
		total += d.score
		remaining = after
		if remaining == 0 {
			break
		}
	}
	if total < 0 {
		total = 0
	}
	if total > 180 {
		total = 180
	}
	return total
}

func (b *Bot) throwDart(remaining int, finishing bool) dart {
	if b.rng.Float64() < b.missChance {
		return dart{miss: true}
	}
	if finishing {
		return b.throwFinishing(remaining)
	}
	return b.throwScoring()
}

func (b *Bot) throwFinishing(remaining int) dart {
	switch {
	case remaining == 50:
		if b.rng.Float64() < b.doubleAccuracy {
			return dart{score: 50, segment: 25, double: true}
		}
		return dart{score: 25, segment: 25}
	case remaining <= 40 && remaining%2 == 0:
		seg := remaining / 2
		if b.rng.Float64() < b.doubleAccuracy {
			return dart{score: remaining, segment: seg, double: true}
		}
		return b.missAround(seg)
	default:
		seg, mult := planSetup(remaining)
		acc := b.singleAccuracy
		if mult == 3 {
			acc = b.tripleAccuracy
		}
		if b.rng.Float64() < acc {
			return dart{score: seg * mult, segment: seg, double: mult == 2}
		}
		return b.missAround(seg)
	}
}

func (b *Bot) throwScoring() dart {
	seg := 20
	if b.rng.Float64() < 0.2 {
		seg = 19
	}
	r := b.rng.Float64()
	switch {
	case r < b.tripleAccuracy:
		return dart{score: seg * 3, segment: seg}
	case r < b.tripleAccuracy+b.doubleAccuracy:
		return dart{score: seg * 2, segment: seg, double: true}
	case r < b.singleAccuracy:
		return dart{score: seg, segment: seg}
	default:
		n := neighbors(seg)
		hit := n[b.rng.Intn(2)]
		return dart{score: hit, segment: hit}
	}
}

// missAround resolves a failed aim at seg to a single: the aimed segment
// half the time, otherwise one of its two board neighbors.
func (b *Bot) missAround(seg int) dart {
	if b.rng.Float64() < 0.5 {
		return dart{score: seg, segment: seg}
	}
	n := neighbors(seg)
	hit := n[b.rng.Intn(2)]
	return dart{score: hit, segment: hit}
}

// sampleTurnTotal draws a turn total from a normal distribution centered
// on the target average, with spread narrowing as skill increases. The
// Box-Muller transform keeps this dependency free. The result is clamped
// so it can never bust the remaining score or leave exactly one.
func (b *Bot) sampleTurnTotal(currentScore int) int {
	u1 := b.rng.Float64()
	if u1 < 1e-12 {
		u1 = 1e-12
	}
	u2 := b.rng.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	sd := 25 - float64(b.skill)
	score := int(math.Round(b.targetAverage + z*sd))
	if score < 0 {
		score = 0
	}
	if score > 180 {
		score = 180
	}
	// The sampler only runs above the checkout window, so the turn may
	// never reach zero: clamp strictly below the remaining score.
	if currentScore-score <= 0 {
		score = currentScore - 2
	}
	if currentScore-score == 1 {
		score--
	}
	if score < 0 {
		score = 0
	}
	return score
}

// SkillDescription buckets the skill level for display.
func (b *Bot) SkillDescription() string {
	switch {
	case b.skill <= 3:
		return "Beginner"
	case b.skill <= 6:
		return "Intermediate"
	case b.skill <= 8:
		return "Advanced"
	default:
		return "Expert"
	}
}

// ExpectedStats reports the derived model parameters, percentages rounded.
type ExpectedStats struct {
	AverageScore   float64
	Accuracy       int
	DoubleAccuracy int
	TripleAccuracy int
}

func (b *Bot) Stats() ExpectedStats {
	return ExpectedStats{
		AverageScore:   b.targetAverage,
		Accuracy:       int(math.Round(b.singleAccuracy * 100)),
		DoubleAccuracy: int(math.Round(b.doubleAccuracy * 100)),
		TripleAccuracy: int(math.Round(b.tripleAccuracy * 100)),
	}
}
