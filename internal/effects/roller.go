package effects

import "math/rand/v2"

// Roller abstracts the random source behind weighted draws (loot tables,
// puzzle variants). Production code uses RandRoller; tests inject a
// fixed-sequence roller to assert exact branch selection.
type Roller interface {
	// Roll returns a uniform value in [0, total). Total is always >= 1.
	Roll(total int64) int64
}

// RandRoller draws from math/rand/v2's shared generator.
type RandRoller struct{}

// Roll returns a uniform value in [0, total).
func (RandRoller) Roll(total int64) int64 {
	return rand.Int64N(total)
}

// PickWeighted performs one cumulative-weight subtraction draw over the
// entries' weights and returns the chosen index, or -1 when no entry
// carries positive weight. Non-positive weights are skipped but keep
// their index.
func PickWeighted(weights []int64, r Roller) int {
	var total int64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	roll := r.Roll(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if roll < w {
			return i
		}
		roll -= w
	}
	// Unreachable for a roller honoring [0, total).
	return len(weights) - 1
}
