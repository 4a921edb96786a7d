// Package state defines the GameState aggregate: the single mutable
// record a playthrough accumulates.
//
// Ownership model: the engine and effects packages mutate the live
// value; every other consumer receives an owned deep copy via Clone.
// The record itself enforces nothing - clamping and never-unsolve
// invariants are the effects engine's and orchestrator's job.
//
// All timestamps are stored as Unix milliseconds so that a serialized
// snapshot round-trips to a deep-equal value (time.Time carries
// monotonic-clock and location baggage that does not survive JSON).
package state

import (
	"slices"

	"github.com/roach88/fabula/internal/story"
)

// PuzzleState is the per-puzzle bookkeeping record.
type PuzzleState struct {
	Solved    bool    `json:"solved"`
	Attempts  int64   `json:"attempts"`
	Score     float64 `json:"score,omitempty"`
	ElapsedMS int64   `json:"elapsed_ms,omitempty"`
	// LastAnswer holds the JSON-normalized form of the most recent
	// answer (see NormalizeAnswer).
	LastAnswer any    `json:"last_answer,omitempty"`
	StartedAt  *int64 `json:"started_at,omitempty"` // unix ms
	SolvedAt   *int64 `json:"solved_at,omitempty"`  // unix ms
}

// GameState is the single mutable aggregate for one playthrough.
type GameState struct {
	CurrentNode string `json:"current_node"`

	Visited    map[string]bool  `json:"visited"`
	Inventory  map[string]int64 `json:"inventory"`
	Currencies map[string]int64 `json:"currencies"`
	Stats      map[string]int64 `json:"stats"`
	Flags      map[string]bool  `json:"flags"`

	Puzzles map[string]*PuzzleState `json:"puzzles"`

	// Timers maps timer id to absolute expiry in unix ms. Nothing fires
	// on expiry; activity is a pull-based query against a caller clock.
	Timers map[string]int64 `json:"timers"`

	// LockedChoices maps node id to a sorted set of locked choice
	// indices.
	LockedChoices map[string][]int `json:"locked_choices"`
}

// New creates a fresh GameState for a story with catalog defaults
// applied: initial currency amounts, initial stat values clamped to the
// declared bounds. The current node is left empty; the engine sets it on
// start.
func New(doc *story.Story) *GameState {
	st := &GameState{
		Visited:       make(map[string]bool),
		Inventory:     make(map[string]int64),
		Currencies:    make(map[string]int64),
		Stats:         make(map[string]int64),
		Flags:         make(map[string]bool),
		Puzzles:       make(map[string]*PuzzleState),
		Timers:        make(map[string]int64),
		LockedChoices: make(map[string][]int),
	}
	for _, c := range doc.Currencies {
		if c.Initial > 0 {
			st.Currencies[c.ID] = c.Initial
		}
	}
	for _, s := range doc.Stats {
		st.Stats[s.ID] = clamp(s.Initial, s.Min, s.Max)
	}
	return st
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clone returns a deep, independent copy. Mutating the clone never
// affects the original.
func (st *GameState) Clone() *GameState {
	if st == nil {
		return nil
	}
	out := &GameState{
		CurrentNode:   st.CurrentNode,
		Visited:       cloneMap(st.Visited),
		Inventory:     cloneMap(st.Inventory),
		Currencies:    cloneMap(st.Currencies),
		Stats:         cloneMap(st.Stats),
		Flags:         cloneMap(st.Flags),
		Timers:        cloneMap(st.Timers),
		Puzzles:       make(map[string]*PuzzleState, len(st.Puzzles)),
		LockedChoices: make(map[string][]int, len(st.LockedChoices)),
	}
	for id, ps := range st.Puzzles {
		cp := *ps
		cp.LastAnswer = NormalizeAnswer(ps.LastAnswer)
		if ps.StartedAt != nil {
			v := *ps.StartedAt
			cp.StartedAt = &v
		}
		if ps.SolvedAt != nil {
			v := *ps.SolvedAt
			cp.SolvedAt = &v
		}
		out.Puzzles[id] = &cp
	}
	for node, idxs := range st.LockedChoices {
		out.LockedChoices[node] = slices.Clone(idxs)
	}
	return out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Puzzle returns the bookkeeping record for a puzzle id, creating an
// empty one on first access.
func (st *GameState) Puzzle(id string) *PuzzleState {
	ps, ok := st.Puzzles[id]
	if !ok {
		ps = &PuzzleState{}
		st.Puzzles[id] = ps
	}
	return ps
}

// PuzzleSolved reports whether a puzzle has been solved, without
// creating a record.
func (st *GameState) PuzzleSolved(id string) bool {
	ps, ok := st.Puzzles[id]
	return ok && ps.Solved
}

// ChoiceLocked reports whether a choice index is in a node's locked set.
func (st *GameState) ChoiceLocked(nodeID string, index int) bool {
	return slices.Contains(st.LockedChoices[nodeID], index)
}

// LockChoice adds a choice index to a node's locked set, keeping the
// set sorted and duplicate-free for deterministic serialization.
func (st *GameState) LockChoice(nodeID string, index int) {
	idxs := st.LockedChoices[nodeID]
	if slices.Contains(idxs, index) {
		return
	}
	idxs = append(idxs, index)
	slices.Sort(idxs)
	st.LockedChoices[nodeID] = idxs
}

// UnlockChoice removes a choice index from a node's locked set.
func (st *GameState) UnlockChoice(nodeID string, index int) {
	idxs := st.LockedChoices[nodeID]
	i := slices.Index(idxs, index)
	if i < 0 {
		return
	}
	idxs = slices.Delete(idxs, i, i+1)
	if len(idxs) == 0 {
		delete(st.LockedChoices, nodeID)
	} else {
		st.LockedChoices[nodeID] = idxs
	}
}

// TimerActive reports whether a timer exists and has not expired at the
// given instant (unix ms). Expiry is checked lazily; nothing fires.
func (st *GameState) TimerActive(id string, nowMS int64) bool {
	expiry, ok := st.Timers[id]
	return ok && nowMS < expiry
}
