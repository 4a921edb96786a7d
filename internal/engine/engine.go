package engine

import (
	"log/slog"
	"slices"

	"github.com/roach88/fabula/internal/effects"
	"github.com/roach88/fabula/internal/puzzle"
	"github.com/roach88/fabula/internal/rules"
	"github.com/roach88/fabula/internal/state"
	"github.com/roach88/fabula/internal/story"
)

// DefaultMaxRedirectDepth bounds chained on-enter redirects. Authored
// data can form a redirect loop (node A's on_enter jumps to B, whose
// on_enter jumps back to A); once the bound is hit the engine stops
// redirecting, logs the anomaly, and stays at the last entered node.
const DefaultMaxRedirectDepth = 8

// ReasonPuzzleGate is the availability reason reported while an
// unsolved, gate-flagged puzzle blocks a node's choices.
const ReasonPuzzleGate = "puzzle must be solved"

// Engine drives one playthrough of a validated story.
//
// INVARIANTS:
//   - The story is never written to.
//   - Only the engine and its effects applier mutate the live state;
//     Snapshot and event payloads are owned clones.
//   - A solved puzzle never becomes unsolved, and re-solving it returns
//     success without re-scoring or counting an attempt.
type Engine struct {
	doc     *story.Story
	st      *state.GameState
	applier *effects.Applier
	roller  effects.Roller
	clock   Clock
	logger  *slog.Logger

	maxRedirectDepth int

	listeners    map[int]Listener
	nextListener int

	// activePuzzle is the variant-resolved puzzle for the current node,
	// captured at entry so scoring matches what was presented.
	activePuzzle *story.Puzzle
}

// Option configures an Engine.
type Option func(*Engine)

// WithRoller injects the random source for loot tables and puzzle
// variants.
func WithRoller(r effects.Roller) Option {
	return func(e *Engine) { e.roller = r }
}

// WithClock injects the time source for timers and puzzle timestamps.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger injects the structured logger for runtime anomalies.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMaxRedirectDepth overrides DefaultMaxRedirectDepth.
func WithMaxRedirectDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRedirectDepth = n
		}
	}
}

// New creates an engine over a validated story with a fresh GameState
// (catalog defaults applied). The machine is idle until Start.
func New(doc *story.Story, opts ...Option) *Engine {
	e := &Engine{
		doc:              doc,
		st:               state.New(doc),
		roller:           effects.RandRoller{},
		clock:            SystemClock{},
		logger:           slog.Default(),
		maxRedirectDepth: DefaultMaxRedirectDepth,
		listeners:        make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.applier = effects.NewApplier(e.roller, e.clock.Now)
	return e
}

// Start positions the machine at the story's first node, or at startID
// when non-empty.
func (e *Engine) Start(startID string) error {
	id := startID
	if id == "" {
		first, ok := e.doc.Start()
		if !ok {
			return newRuntimeError(ErrCodeUnknownNode, "", "story has no nodes")
		}
		id = first.ID
	}
	return e.enterNode(id, 0)
}

// Restore replaces the live state with a clone of the given snapshot
// after validating it against the story. The machine resumes positioned
// at the snapshot's current node without re-running on_enter effects.
func (e *Engine) Restore(st *state.GameState) error {
	if err := state.Validate(st, e.doc); err != nil {
		return &RuntimeError{Code: ErrCodeBadSnapshot, Message: err.Error()}
	}
	e.st = st.Clone()
	e.activePuzzle = nil
	if node, ok := e.doc.NodeByID(e.st.CurrentNode); ok && node.Puzzle != nil {
		// The variant drawn at the original entry is gone; re-present
		// the base puzzle.
		e.activePuzzle = node.Puzzle
	}
	return nil
}

// Snapshot returns a deep, independent copy of the live state.
func (e *Engine) Snapshot() *state.GameState {
	return e.st.Clone()
}

// Story returns the loaded story document.
func (e *Engine) Story() *story.Story {
	return e.doc
}

// CurrentNode returns the node the machine is positioned at.
func (e *Engine) CurrentNode() (*story.Node, error) {
	if e.st.CurrentNode == "" {
		return nil, newRuntimeError(ErrCodeNotStarted, "", "engine not started")
	}
	node, ok := e.doc.NodeByID(e.st.CurrentNode)
	if !ok {
		return nil, newRuntimeError(ErrCodeUnknownNode, e.st.CurrentNode, "current node not in story")
	}
	return node, nil
}

// Ended reports whether the machine is positioned at an ending node.
func (e *Engine) Ended() bool {
	node, err := e.CurrentNode()
	return err == nil && node.Ending
}

// enterNode is the heart of the traversal: mark visited, run on_enter
// effects, follow at most maxRedirectDepth chained redirects, then
// notify. The node_entered notification is suppressed for nodes that
// were immediately redirected away from.
func (e *Engine) enterNode(id string, depth int) error {
	node, ok := e.doc.NodeByID(id)
	if !ok {
		return newRuntimeError(ErrCodeUnknownNode, id, "no such node")
	}

	e.st.CurrentNode = node.ID
	e.st.Visited[node.ID] = true
	e.activePuzzle = nil

	if len(node.OnEnter) > 0 {
		res := e.applier.Apply(node.OnEnter, e.st, e.doc)
		e.logFailures("on_enter", node.ID, &res)
		e.notify(Event{Type: EventEffectsApplied, Node: node, EffectLogs: res.Logs, EffectFailures: res.Failures})
		if res.Goto != "" {
			if depth < e.maxRedirectDepth {
				return e.enterNode(res.Goto, depth+1)
			}
			e.logger.Error("redirect depth exceeded, staying at node",
				"node", node.ID, "target", res.Goto, "depth", depth)
		}
	}

	e.notify(Event{Type: EventNodeEntered, Node: node})
	if node.Puzzle != nil {
		e.activePuzzle = e.resolveVariant(node.Puzzle)
		ps := e.st.Puzzle(node.Puzzle.ID)
		if ps.StartedAt == nil {
			now := e.clock.Now().UnixMilli()
			ps.StartedAt = &now
		}
		e.notify(Event{Type: EventPuzzleStarted, Node: node, Puzzle: e.activePuzzle})
	}
	e.notify(Event{Type: EventStateChanged, Node: node})
	if node.Ending {
		e.notify(Event{Type: EventGameEnded, Node: node})
	}
	return nil
}

// resolveVariant draws one weighted variant (same mechanism as loot
// tables) and overlays its non-zero fields on a copy of the base puzzle.
func (e *Engine) resolveVariant(p *story.Puzzle) *story.Puzzle {
	if len(p.Variants) == 0 {
		return p
	}
	weights := make([]int64, len(p.Variants))
	for i, v := range p.Variants {
		weights[i] = v.Weight
	}
	idx := effects.PickWeighted(weights, e.roller)
	if idx < 0 {
		e.logger.Warn("puzzle variants carry no positive weight", "puzzle", p.ID)
		return p
	}
	v := p.Variants[idx]
	resolved := *p
	if v.Prompt != "" {
		resolved.Prompt = v.Prompt
	}
	if len(v.Media) > 0 {
		resolved.Media = v.Media
	}
	if len(v.Options) > 0 {
		resolved.Options = v.Options
	}
	if len(v.CorrectOptions) > 0 {
		resolved.CorrectOptions = v.CorrectOptions
	}
	if len(v.Accept) > 0 {
		resolved.Accept = v.Accept
	}
	if v.Pattern != "" {
		resolved.Pattern = v.Pattern
	}
	if v.Answer != nil {
		resolved.Answer = *v.Answer
	}
	if v.Gender != "" {
		resolved.Gender = v.Gender
	}
	return &resolved
}

// ChoiceStatus reports one choice's availability at query time. Reason
// is populated only for the puzzle-gate and requirement-failure cases.
type ChoiceStatus struct {
	Index     int
	Choice    *story.Choice
	Available bool
	Reason    string
}

// AvailableChoices computes availability for every choice on the
// current node. Availability is queried on demand, never cached: a
// choice's index may be locked, the node's gate-flagged puzzle may be
// unsolved, or its requirement expression may evaluate false.
func (e *Engine) AvailableChoices() ([]ChoiceStatus, error) {
	node, err := e.CurrentNode()
	if err != nil {
		return nil, err
	}
	gated := node.Puzzle != nil && node.Puzzle.GateChoices && !e.st.PuzzleSolved(node.Puzzle.ID)
	statuses := make([]ChoiceStatus, len(node.Choices))
	for i := range node.Choices {
		choice := &node.Choices[i]
		statuses[i] = ChoiceStatus{Index: i, Choice: choice}
		switch {
		case e.st.ChoiceLocked(node.ID, i):
			// Locked indices report no reason; the lock is authored
			// flow control, not something to explain to the player.
		case gated:
			statuses[i].Reason = ReasonPuzzleGate
		case !rules.Eval(choice.Requires, e.st, e.doc):
			statuses[i].Reason = choice.DisabledReason
		default:
			statuses[i].Available = true
		}
	}
	return statuses, nil
}

// MakeChoice re-validates availability (state may have changed since
// any earlier query), applies the choice's effects, and transitions to
// the effect-produced jump target or the declared target.
func (e *Engine) MakeChoice(index int) error {
	node, err := e.CurrentNode()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(node.Choices) {
		return newRuntimeError(ErrCodeChoiceUnavailable, node.ID, "choice index %d out of range", index)
	}
	statuses, err := e.AvailableChoices()
	if err != nil {
		return err
	}
	if !statuses[index].Available {
		reason := statuses[index].Reason
		if reason == "" {
			reason = "choice is not available"
		}
		return newRuntimeError(ErrCodeChoiceUnavailable, node.ID, "%s", reason)
	}

	choice := &node.Choices[index]
	e.notify(Event{Type: EventChoiceSelected, Node: node, Choice: choice, ChoiceIndex: index})

	target := choice.Target
	if len(choice.Effects) > 0 {
		res := e.applier.Apply(choice.Effects, e.st, e.doc)
		e.logFailures("choice", node.ID, &res)
		e.notify(Event{Type: EventEffectsApplied, Node: node, Choice: choice, ChoiceIndex: index,
			EffectLogs: res.Logs, EffectFailures: res.Failures})
		if res.Goto != "" {
			target = res.Goto
		}
	}
	return e.enterNode(target, 0)
}

// SolvePuzzle scores an answer against the current node's puzzle and
// performs the state bookkeeping the evaluator deliberately leaves out.
//
// An already solved puzzle returns success immediately: no re-scoring,
// no attempt increment. Otherwise the attempt counter advances, the
// answer and score are recorded, and success or exhausted attempts run
// the declared outcome. Every resolution emits puzzle_completed then
// state_changed.
func (e *Engine) SolvePuzzle(answer any) (puzzle.Result, error) {
	node, err := e.CurrentNode()
	if err != nil {
		return puzzle.Result{}, err
	}
	if node.Puzzle == nil {
		return puzzle.Result{}, newRuntimeError(ErrCodeNoPuzzle, node.ID, "node has no puzzle")
	}

	active := e.activePuzzle
	if active == nil {
		active = node.Puzzle
	}
	ps := e.st.Puzzle(node.Puzzle.ID)
	if ps.Solved {
		return puzzle.Result{Correct: true, Score: ps.Score, Message: "already solved"}, nil
	}

	ps.Attempts++
	res := puzzle.Evaluate(active, answer)
	now := e.clock.Now()
	ps.LastAnswer = state.NormalizeAnswer(answer)
	ps.Score = res.Score
	if ps.StartedAt != nil {
		ps.ElapsedMS = now.UnixMilli() - *ps.StartedAt
	}

	var outcome *story.Outcome
	if res.Correct {
		ps.Solved = true
		solvedAt := now.UnixMilli()
		ps.SolvedAt = &solvedAt
		outcome = active.OnSuccess
	} else if active.MaxAttempts > 0 && ps.Attempts >= active.MaxAttempts {
		outcome = active.OnFailure
	}

	jump := ""
	if outcome != nil {
		jump = outcome.Goto
		if len(outcome.Effects) > 0 {
			er := e.applier.Apply(outcome.Effects, e.st, e.doc)
			e.logFailures("puzzle outcome", node.ID, &er)
			e.notify(Event{Type: EventEffectsApplied, Node: node, Puzzle: active,
				EffectLogs: er.Logs, EffectFailures: er.Failures})
			if er.Goto != "" {
				jump = er.Goto
			}
		}
	}

	e.notify(Event{Type: EventPuzzleCompleted, Node: node, Puzzle: active, PuzzleResult: &res})
	e.notify(Event{Type: EventStateChanged, Node: node})

	if jump != "" {
		if err := e.enterNode(jump, 0); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Hints returns the hints currently revealed for the current node's
// puzzle: all static hints plus every dynamic hint whose attempt
// threshold has been reached.
func (e *Engine) Hints() ([]string, error) {
	node, err := e.CurrentNode()
	if err != nil {
		return nil, err
	}
	if node.Puzzle == nil {
		return nil, newRuntimeError(ErrCodeNoPuzzle, node.ID, "node has no puzzle")
	}
	active := e.activePuzzle
	if active == nil {
		active = node.Puzzle
	}
	hints := append([]string(nil), active.Hints...)
	attempts := int64(0)
	if ps, ok := e.st.Puzzles[node.Puzzle.ID]; ok {
		attempts = ps.Attempts
	}
	for _, rule := range active.DynamicHints {
		if attempts >= rule.AfterAttempts {
			hints = append(hints, rule.Text)
		}
	}
	return hints, nil
}

// TimerActive reports whether a timer is set and unexpired against the
// engine clock's current reading. Timers are passive data; nothing
// fires on expiry.
func (e *Engine) TimerActive(id string) bool {
	return e.st.TimerActive(id, e.clock.Now().UnixMilli())
}

// ActiveTimers returns the ids of all unexpired timers at the engine
// clock's current reading.
func (e *Engine) ActiveTimers() []string {
	nowMS := e.clock.Now().UnixMilli()
	var ids []string
	for id := range e.st.Timers {
		if e.st.TimerActive(id, nowMS) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (e *Engine) logFailures(phase, nodeID string, res *effects.Result) {
	for _, f := range res.Failures {
		e.logger.Warn("effect failed", "phase", phase, "node", nodeID, "failure", f)
	}
}
