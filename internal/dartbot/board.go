package dartbot

// boardRing is the clockwise segment order of a standard dartboard,
// starting at 20. Misses on an aimed segment land on a physical
// neighbor, which models real-world miss clustering.
var boardRing = [20]int{20, 1, 18, 4, 13, 6, 10, 15, 2, 17, 3, 19, 7, 16, 8, 11, 5, 12, 9, 14}

func neighbors(segment int) [2]int {
	for i, s := range boardRing {
		if s == segment {
			prev := boardRing[(i+len(boardRing)-1)%len(boardRing)]
			next := boardRing[(i+1)%len(boardRing)]
			return [2]int{prev, next}
		}
	}
	return [2]int{segment, segment}
}
