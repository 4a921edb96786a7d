// Package engine implements the fabula orchestrator: a node-traversal
// state machine over a validated story.
//
// ARCHITECTURE:
//
// Single-threaded synchronous execution. There are no suspension points
// anywhere in the core: every operation (requirement evaluation, effect
// application, puzzle scoring, node transition) runs to completion
// before returning. The machine has one conceptual state - "positioned
// at a node" - with an optional "awaiting puzzle resolution" sub-state
// implied by an unsolved puzzle on the current node. Reaching an ending
// node is an observable event, not a terminal state; the machine stays
// query-able afterward.
//
// Ownership: the engine and the effects applier are the only writers of
// the live GameState. Everything else - event payloads, Snapshot - gets
// a deep, independent clone, so external mutation cannot desynchronize
// the machine.
//
// Events fan out synchronously and in order to subscribers at the moment
// each event is produced. A panicking subscriber is recovered and logged
// so it cannot abort the transition that produced the event.
//
// Determinism: weighted draws (loot tables, puzzle variants) go through
// an injectable Roller, and timers through an injectable Clock, so tests
// can pin both.
package engine
