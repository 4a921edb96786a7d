package harness

import (
	"fmt"
	"slices"
)

// RunAssertions validates a result against a scenario's assertion list.
// Returns the first failing assertion as an error.
func RunAssertions(result *Result, assertions []Assertion) error {
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result, a)
		case AssertTraceCount:
			err = assertTraceCount(result, a)
		case AssertFinalState:
			err = assertFinalState(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func countMatches(result *Result, a Assertion) int {
	n := 0
	for _, ev := range result.Trace {
		if a.Event != "" && ev.Type != a.Event {
			continue
		}
		if a.Node != "" && ev.Node != a.Node {
			continue
		}
		n++
	}
	return n
}

func assertTraceContains(result *Result, a Assertion) error {
	if countMatches(result, a) == 0 {
		return fmt.Errorf("trace does not contain event %q node %q", a.Event, a.Node)
	}
	return nil
}

func assertTraceCount(result *Result, a Assertion) error {
	if got := countMatches(result, a); got != a.Count {
		return fmt.Errorf("expected %d events %q node %q, got %d", a.Count, a.Event, a.Node, got)
	}
	return nil
}

func assertFinalState(result *Result, a Assertion) error {
	st := result.Final
	if st == nil {
		return fmt.Errorf("no final state recorded")
	}
	if a.CurrentNode != "" && st.CurrentNode != a.CurrentNode {
		return fmt.Errorf("expected current node %q, got %q", a.CurrentNode, st.CurrentNode)
	}
	for flag, want := range a.Flags {
		if got := st.Flags[flag]; got != want {
			return fmt.Errorf("expected flag %q = %t, got %t", flag, want, got)
		}
	}
	for item, want := range a.Inventory {
		if got := st.Inventory[item]; got != want {
			return fmt.Errorf("expected inventory %q = %d, got %d", item, want, got)
		}
	}
	for stat, want := range a.Stats {
		if got := st.Stats[stat]; got != want {
			return fmt.Errorf("expected stat %q = %d, got %d", stat, want, got)
		}
	}
	visited := make([]string, 0, len(st.Visited))
	for id := range st.Visited {
		visited = append(visited, id)
	}
	for _, id := range a.Visited {
		if !slices.Contains(visited, id) {
			return fmt.Errorf("expected node %q in visited set", id)
		}
	}
	return nil
}
