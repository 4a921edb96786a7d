package harness

import "github.com/roach88/fabula/internal/state"

// TraceEvent is one recorded engine notification, flattened to stable
// scalar fields so traces serialize deterministically for golden
// comparison.
type TraceEvent struct {
	Type    string   `json:"type"`
	Node    string   `json:"node,omitempty"`
	Choice  string   `json:"choice,omitempty"` // choice label
	Puzzle  string   `json:"puzzle,omitempty"`
	Correct *bool    `json:"correct,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	Logs    []string `json:"logs,omitempty"`
}

// Result captures one scenario execution: the full event trace and the
// final state snapshot.
type Result struct {
	Trace []TraceEvent
	Final *state.GameState
}
