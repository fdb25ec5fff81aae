package dartbot

import (
	"math"
	"math/rand"
	"testing"
)

func newSeeded(t *testing.T, cfg Config, seed int64) *Bot {
	t.Helper()
	b := New(cfg)
	b.rng = rand.New(rand.NewSource(seed))
	return b
}

func TestNewClampsSkill(t *testing.T) {
	if b := New(Config{SkillLevel: 0}); b.skill != 1 {
		t.Fatalf("expected skill floor 1, got %d", b.skill)
	}
	if b := New(Config{SkillLevel: 42}); b.skill != 10 {
		t.Fatalf("expected skill cap 10, got %d", b.skill)
	}
}

func closeTo(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestDerivedParameters(t *testing.T) {
	b := New(Config{SkillLevel: 10})
	if !closeTo(b.singleAccuracy, 0.93) {
		t.Fatalf("skill 10 single accuracy: got %v", b.singleAccuracy)
	}
	if !closeTo(b.doubleAccuracy, 0.55) {
		t.Fatalf("skill 10 double accuracy: got %v", b.doubleAccuracy)
	}
	if !closeTo(b.tripleAccuracy, 0.32) {
		t.Fatalf("skill 10 triple accuracy: got %v", b.tripleAccuracy)
	}
	if b.targetAverage != 110 {
		t.Fatalf("skill 10 derived average: got %v", b.targetAverage)
	}
	if b1 := New(Config{SkillLevel: 1}); !closeTo(b1.missChance, 0.15) {
		t.Fatalf("skill 1 miss chance: got %v", b1.missChance)
	}
}

func TestGenerateTurnNeverBustsOrLeavesOne(t *testing.T) {
	for _, skill := range []int{1, 5, 10} {
		b := newSeeded(t, Config{SkillLevel: skill}, int64(skill))
		for _, score := range []int{501, 170, 100, 61, 50, 41, 32, 4, 2} {
			for i := 0; i < 500; i++ {
				got := b.GenerateTurn(score)
				if got < 0 || got > 180 {
					t.Fatalf("skill %d score %d: turn %d out of range", skill, score, got)
				}
				left := score - got
				if left < 0 || left == 1 {
					t.Fatalf("skill %d score %d: turn %d leaves %d", skill, score, got, left)
				}
			}
		}
	}
}

func TestDirectSamplePathNeverBustsOrFinishes(t *testing.T) {
	b := newSeeded(t, Config{SkillLevel: 10, TargetAverage: 100}, 7)
	for i := 0; i < 2000; i++ {
		got := b.sampleTurnTotal(181)
		if got < 0 || got > 180 {
			t.Fatalf("sampled total %d out of range", got)
		}
		if left := 181 - got; left <= 1 {
			t.Fatalf("sampled total %d leaves %d", got, left)
		}
	}
}

func TestSamplerNeverFinishesFromAboveCheckoutWindow(t *testing.T) {
	// A target average at the remaining score itself makes samples equal
	// to the remainder likely; none may come back as a full checkout from
	// above the 170 window.
	b := newSeeded(t, Config{SkillLevel: 10, TargetAverage: 175}, 3)
	for i := 0; i < 10000; i++ {
		got := b.GenerateTurn(175)
		if left := 175 - got; left <= 1 {
			t.Fatalf("turn %d checks out or leaves %d from 175", got, left)
		}
	}
}

func TestHighAverageUsesDirectSampling(t *testing.T) {
	// With the rng reseeded to the same value, GenerateTurn above the
	// threshold must reproduce the sampler's output exactly.
	b := newSeeded(t, Config{SkillLevel: 10, TargetAverage: 100}, 11)
	direct := b.GenerateTurn(501)
	b.rng = rand.New(rand.NewSource(11))
	sampled := b.sampleTurnTotal(501)
	if direct != sampled {
		t.Fatalf("expected GenerateTurn to defer to the sampler above the threshold: %d vs %d", direct, sampled)
	}
}

func TestPlanSetupLeavesFinishableDouble(t *testing.T) {
	for remaining := 41; remaining <= 170; remaining++ {
		seg, mult := planSetup(remaining)
		if seg < 1 || seg > 20 || (mult != 1 && mult != 3) {
			t.Fatalf("remaining %d: implausible aim %dx%d", remaining, seg, mult)
		}
		leave := remaining - seg*mult
		if leave == 0 {
			continue // T20 fallback can close the gap exactly
		}
		if leave > 0 && leave <= 50 && !finishableDouble(leave) && leave > 1 {
			// Only the curated paths promise a clean leave; the fallback
			// hammering T20 may leave anything.
			if seg != 20 || mult != 3 {
				t.Fatalf("remaining %d: aim %dx%d leaves unfinishable %d", remaining, seg, mult, leave)
			}
		}
	}
}

func TestSetupSinglesLeaveThirtyTwo(t *testing.T) {
	for remaining, seg := range setupSingles {
		if remaining-seg != 32 {
			t.Fatalf("setup for %d aims %d, leaves %d instead of 32", remaining, seg, remaining-seg)
		}
	}
}

func TestFinishableDouble(t *testing.T) {
	for _, ok := range []int{2, 16, 32, 40, 50} {
		if !finishableDouble(ok) {
			t.Fatalf("%d should be finishable", ok)
		}
	}
	for _, bad := range []int{1, 3, 41, 42, 49, 51, 0} {
		if finishableDouble(bad) {
			t.Fatalf("%d should not be finishable", bad)
		}
	}
}

func TestNeighbors(t *testing.T) {
	if n := neighbors(20); n != [2]int{14, 1} {
		t.Fatalf("neighbors of 20: got %v", n)
	}
	if n := neighbors(3); n != [2]int{17, 19} {
		t.Fatalf("neighbors of 3: got %v", n)
	}
	if n := neighbors(25); n != [2]int{25, 25} {
		t.Fatalf("bull has no ring neighbors: got %v", n)
	}
}

func TestSkillDescription(t *testing.T) {
	cases := map[int]string{1: "Beginner", 3: "Beginner", 4: "Intermediate", 6: "Intermediate", 7: "Advanced", 8: "Advanced", 9: "Expert", 10: "Expert"}
	for skill, want := range cases {
		if got := New(Config{SkillLevel: skill}).SkillDescription(); got != want {
			t.Fatalf("skill %d: got %q, want %q", skill, got, want)
		}
	}
}

func TestStatsRoundsPercentages(t *testing.T) {
	got := New(Config{SkillLevel: 5}).Stats()
	if got.AverageScore != 60 {
		t.Fatalf("skill 5 average: got %v", got.AverageScore)
	}
	if got.Accuracy != 58 || got.DoubleAccuracy != 30 || got.TripleAccuracy != 17 {
		t.Fatalf("skill 5 stats: got %+v", got)
	}
}
