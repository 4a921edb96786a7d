package state

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/fabula/internal/story"
)

// Marshal serializes a GameState snapshot to JSON. The output is a
// plain structured document with no loss of information: Unmarshal of
// the result reproduces a deep-equal value.
func Marshal(st *GameState) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(st); err != nil {
		return nil, fmt.Errorf("marshal game state: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Unmarshal restores a GameState from a serialized snapshot. Nil maps
// are replaced with empty ones so callers never need nil checks.
func Unmarshal(data []byte) (*GameState, error) {
	var st GameState
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&st); err != nil {
		return nil, fmt.Errorf("unmarshal game state: %w", err)
	}
	st.ensureMaps()
	// Re-normalize answers decoded with json.Number back to the
	// canonical float form.
	for _, ps := range st.Puzzles {
		ps.LastAnswer = NormalizeAnswer(ps.LastAnswer)
	}
	return &st, nil
}

func (st *GameState) ensureMaps() {
	if st.Visited == nil {
		st.Visited = make(map[string]bool)
	}
	if st.Inventory == nil {
		st.Inventory = make(map[string]int64)
	}
	if st.Currencies == nil {
		st.Currencies = make(map[string]int64)
	}
	if st.Stats == nil {
		st.Stats = make(map[string]int64)
	}
	if st.Flags == nil {
		st.Flags = make(map[string]bool)
	}
	if st.Puzzles == nil {
		st.Puzzles = make(map[string]*PuzzleState)
	}
	if st.Timers == nil {
		st.Timers = make(map[string]int64)
	}
	if st.LockedChoices == nil {
		st.LockedChoices = make(map[string][]int)
	}
}

// NormalizeAnswer converts an arbitrary answer value to its canonical
// JSON shape (map[string]any, []any, string, float64, bool, nil). The
// canonical form is what Clone copies and what a snapshot round-trip
// produces, so storing it keeps serialize/deserialize deep-equal.
func NormalizeAnswer(v any) any {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		// Unencodable answers never reach state in practice; fall back
		// to a printable form rather than dropping the record.
		return fmt.Sprintf("%v", v)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// Validate checks that every reference a snapshot carries resolves
// against the story: the current node, visited nodes, and locked-choice
// nodes must exist. Used when restoring a snapshot from outside.
func Validate(st *GameState, doc *story.Story) error {
	if st.CurrentNode != "" {
		if _, ok := doc.NodeByID(st.CurrentNode); !ok {
			return fmt.Errorf("snapshot references unknown current node %q", st.CurrentNode)
		}
	}
	for id := range st.Visited {
		if _, ok := doc.NodeByID(id); !ok {
			return fmt.Errorf("snapshot visited set references unknown node %q", id)
		}
	}
	for id := range st.LockedChoices {
		if _, ok := doc.NodeByID(id); !ok {
			return fmt.Errorf("snapshot locked choices reference unknown node %q", id)
		}
	}
	return nil
}
