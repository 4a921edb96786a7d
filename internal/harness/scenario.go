package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance playthrough: which story to load, the
// steps to script, and what the resulting trace and state must look
// like.
type Scenario struct {
	// Name uniquely identifies this scenario; it is also the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Story is the story document path, relative to the scenario file.
	Story string `yaml:"story"`

	// Start optionally overrides the story's first node.
	Start string `yaml:"start,omitempty"`

	// Rolls scripts the weighted draws (loot tables, puzzle variants)
	// in the order the engine performs them. An empty list pins every
	// draw to the first positively weighted entry.
	Rolls []int64 `yaml:"rolls,omitempty"`

	// Steps are executed in order against the engine.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state after all steps.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	dir string // scenario file location, for resolving Story
}

// Step is one scripted action. Exactly one of Choose/Answer/Advance
// should be set; Expect optionally validates the engine right after.
type Step struct {
	// Choose makes the choice at this index on the current node.
	Choose *int `yaml:"choose,omitempty"`

	// Answer submits a puzzle answer for the current node.
	Answer any `yaml:"answer,omitempty"`

	// HasAnswer marks the step as a puzzle submission even when Answer
	// is empty or null.
	HasAnswer bool `yaml:"has_answer,omitempty"`

	// AdvanceSeconds moves the scenario clock forward.
	AdvanceSeconds int64 `yaml:"advance_seconds,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect validates the engine immediately after a step.
type Expect struct {
	// Node is the expected current node id.
	Node string `yaml:"node,omitempty"`

	// Correct is the expected puzzle result for an answer step.
	Correct *bool `yaml:"correct,omitempty"`

	// Score is the expected puzzle score for an answer step.
	Score *float64 `yaml:"score,omitempty"`

	// Ended is the expected ending status.
	Ended *bool `yaml:"ended,omitempty"`
}

// Assertion validates the recorded trace or final state.
type Assertion struct {
	// Type is one of trace_contains, trace_count, final_state.
	Type string `yaml:"type"`

	// Event and Node select trace events (trace_contains, trace_count).
	Event string `yaml:"event,omitempty"`
	Node  string `yaml:"node,omitempty"`

	// Count is the expected number of matches (trace_count).
	Count int `yaml:"count,omitempty"`

	// final_state checks. All are subset matches: only the listed keys
	// are validated.
	CurrentNode string           `yaml:"current_node,omitempty"`
	Flags       map[string]bool  `yaml:"flags,omitempty"`
	Inventory   map[string]int64 `yaml:"inventory,omitempty"`
	Stats       map[string]int64 `yaml:"stats,omitempty"`
	Visited     []string         `yaml:"visited,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and validates one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	if err := sc.check(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// LoadScenarioDir loads every .yaml/.yml scenario under a directory.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	var scenarios []*Scenario
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			sc, err := LoadScenario(path)
			if err != nil {
				return err
			}
			scenarios = append(scenarios, sc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}
	return scenarios, nil
}

// StoryPath resolves the story document path against the scenario file
// location.
func (s *Scenario) StoryPath() string {
	if filepath.IsAbs(s.Story) || s.dir == "" {
		return s.Story
	}
	return filepath.Join(s.dir, s.Story)
}

func (s *Scenario) check() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.Story == "" {
		return fmt.Errorf("scenario story path is required")
	}
	for i, step := range s.Steps {
		actions := 0
		if step.Choose != nil {
			actions++
		}
		if step.Answer != nil || step.HasAnswer {
			actions++
		}
		if step.AdvanceSeconds != 0 {
			actions++
		}
		if actions != 1 {
			return fmt.Errorf("steps[%d]: exactly one of choose, answer, advance_seconds required", i)
		}
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertTraceContains, AssertTraceCount, AssertFinalState:
		default:
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
	}
	return nil
}
