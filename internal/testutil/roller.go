package testutil

import "sync"

// FixedRoller returns predetermined rolls for weighted draws, letting
// tests assert exact loot-table and puzzle-variant branch selection.
//
// Each value is taken modulo the draw's total, so a test can script
// "first entry, then last entry" without knowing exact weight sums.
type FixedRoller struct {
	mu    sync.Mutex
	rolls []int64
	idx   int
}

// NewFixedRoller creates a roller that returns the given rolls in order.
//
// Panics when exhausted. This is a fail-fast approach to catch test
// misconfiguration (the code under test drew more times than expected).
func NewFixedRoller(rolls ...int64) *FixedRoller {
	return &FixedRoller{rolls: rolls}
}

// Roll returns the next scripted value modulo total.
func (r *FixedRoller) Roll(total int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idx >= len(r.rolls) {
		panic("FixedRoller: all rolls exhausted")
	}
	v := r.rolls[r.idx]
	r.idx++
	return v % total
}

// ZeroRoller always rolls 0, selecting the first positively weighted
// entry of every draw.
type ZeroRoller struct{}

// Roll returns 0.
func (ZeroRoller) Roll(int64) int64 { return 0 }
