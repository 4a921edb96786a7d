package engine

import (
	"slices"

	"github.com/roach88/fabula/internal/puzzle"
	"github.com/roach88/fabula/internal/state"
	"github.com/roach88/fabula/internal/story"
)

// EventType identifies one kind of orchestrator notification.
type EventType string

const (
	EventNodeEntered     EventType = "node_entered"
	EventChoiceSelected  EventType = "choice_selected"
	EventPuzzleStarted   EventType = "puzzle_started"
	EventPuzzleCompleted EventType = "puzzle_completed"
	EventEffectsApplied  EventType = "effects_applied"
	EventStateChanged    EventType = "state_changed"
	EventGameEnded       EventType = "game_ended"
)

// Event is one notification to the presentation layer. It carries
// enough data to react without querying back into the engine mid-event;
// State is always a deep clone the subscriber owns.
type Event struct {
	Type EventType

	Node        *story.Node
	Choice      *story.Choice
	ChoiceIndex int

	Puzzle       *story.Puzzle
	PuzzleResult *puzzle.Result

	EffectLogs     []string
	EffectFailures []string

	State *state.GameState
}

// Listener receives events synchronously, in production order. A
// listener that panics is recovered and logged; it cannot abort the
// state transition that produced the event.
type Listener func(Event)

// Subscribe registers a listener and returns its unsubscribe function.
// There is no global listener registry; subscriptions live on the
// engine value.
func (e *Engine) Subscribe(fn Listener) func() {
	e.nextListener++
	id := e.nextListener
	e.listeners[id] = fn
	return func() {
		delete(e.listeners, id)
	}
}

// notify fans an event out to all listeners in subscription order.
func (e *Engine) notify(ev Event) {
	ev.State = e.st.Clone()
	ids := make([]int, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	// Subscription ids are monotonic, so sorted ids give registration
	// order.
	slices.Sort(ids)
	for _, id := range ids {
		fn, ok := e.listeners[id]
		if !ok {
			continue
		}
		e.dispatch(fn, ev)
	}
}

func (e *Engine) dispatch(fn Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event listener panicked",
				"event", string(ev.Type),
				"panic", r)
		}
	}()
	fn(ev)
}
