package dartbot

// setupSingles maps awkward 41-50 remainders to the single that leaves
// double 16 territory. Bull (50) is aimed directly and is not in here.
var setupSingles = map[int]int{
	41: 9,
	42: 10,
	43: 11,
	44: 12,
	45: 13,
	46: 14,
	47: 15,
	48: 16,
	49: 17,
}

// finishableDouble reports whether remaining can be taken out with one
// dart: an even double up to D20, or the bull.
func finishableDouble(remaining int) bool {
	if remaining == 50 {
		return true
	}
	return remaining >= 2 && remaining <= 40 && remaining%2 == 0
}

// planSetup picks the segment and multiplier to aim at when remaining is
// inside the checkout window but not on a double yet. It walks the big
// trebles looking for one that leaves a clean finish, then the curated
// singles, and otherwise keeps hammering T20 to close the distance.
func planSetup(remaining int) (segment, multiplier int) {
	for s := 20; s >= 10; s-- {
		leave := remaining - s*3
		if leave > 0 && finishableDouble(leave) {
			return s, 3
		}
	}
	if s, ok := setupSingles[remaining]; ok {
		return s, 1
	}
	for s := 20; s >= 1; s-- {
		leave := remaining - s
		if leave > 0 && finishableDouble(leave) {
			return s, 1
		}
	}
	return 20, 3
}
