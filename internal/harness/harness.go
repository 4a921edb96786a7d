package harness

import (
	"fmt"
	"time"

	"github.com/roach88/fabula/internal/effects"
	"github.com/roach88/fabula/internal/engine"
	"github.com/roach88/fabula/internal/loader"
	"github.com/roach88/fabula/internal/testutil"
)

// scenarioEpoch pins the scenario clock. Any fixed instant works; what
// matters is that reruns see identical timestamps.
var scenarioEpoch = time.Unix(1700000000, 0).UTC()

// Run executes a scenario and returns the recorded trace and final
// state. Step expectation mismatches are returned as errors with the
// step index.
func Run(scenario *Scenario) (*Result, error) {
	doc, _, err := loader.Load(scenario.StoryPath())
	if err != nil {
		return nil, fmt.Errorf("load story: %w", err)
	}

	var roller effects.Roller
	if len(scenario.Rolls) > 0 {
		roller = testutil.NewFixedRoller(scenario.Rolls...)
	} else {
		roller = testutil.ZeroRoller{}
	}
	clock := testutil.NewFixedClock(scenarioEpoch)

	eng := engine.New(doc,
		engine.WithRoller(roller),
		engine.WithClock(clock),
	)

	result := &Result{}
	unsubscribe := eng.Subscribe(func(ev engine.Event) {
		result.Trace = append(result.Trace, toTraceEvent(ev))
	})
	defer unsubscribe()

	if err := eng.Start(scenario.Start); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	for i, step := range scenario.Steps {
		if err := runStep(eng, clock, i, step); err != nil {
			return result, err
		}
	}

	result.Final = eng.Snapshot()
	if err := RunAssertions(result, scenario.Assertions); err != nil {
		return result, err
	}
	return result, nil
}

func runStep(eng *engine.Engine, clock *testutil.FixedClock, i int, step Step) error {
	switch {
	case step.Choose != nil:
		if err := eng.MakeChoice(*step.Choose); err != nil {
			return fmt.Errorf("steps[%d]: choose %d: %w", i, *step.Choose, err)
		}
	case step.Answer != nil || step.HasAnswer:
		res, err := eng.SolvePuzzle(step.Answer)
		if err != nil {
			return fmt.Errorf("steps[%d]: answer: %w", i, err)
		}
		if e := step.Expect; e != nil {
			if e.Correct != nil && res.Correct != *e.Correct {
				return fmt.Errorf("steps[%d]: expected correct=%t, got %t", i, *e.Correct, res.Correct)
			}
			if e.Score != nil && res.Score != *e.Score {
				return fmt.Errorf("steps[%d]: expected score=%v, got %v", i, *e.Score, res.Score)
			}
		}
	case step.AdvanceSeconds != 0:
		clock.Advance(time.Duration(step.AdvanceSeconds) * time.Second)
	}

	if e := step.Expect; e != nil {
		if e.Node != "" {
			node, err := eng.CurrentNode()
			if err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
			if node.ID != e.Node {
				return fmt.Errorf("steps[%d]: expected node %q, got %q", i, e.Node, node.ID)
			}
		}
		if e.Ended != nil && eng.Ended() != *e.Ended {
			return fmt.Errorf("steps[%d]: expected ended=%t, got %t", i, *e.Ended, eng.Ended())
		}
	}
	return nil
}

func toTraceEvent(ev engine.Event) TraceEvent {
	te := TraceEvent{Type: string(ev.Type)}
	if ev.Node != nil {
		te.Node = ev.Node.ID
	}
	if ev.Choice != nil {
		te.Choice = ev.Choice.Label
	}
	if ev.Puzzle != nil {
		te.Puzzle = ev.Puzzle.ID
	}
	if ev.PuzzleResult != nil {
		correct := ev.PuzzleResult.Correct
		score := ev.PuzzleResult.Score
		te.Correct = &correct
		te.Score = &score
	}
	te.Logs = ev.EffectLogs
	return te
}
