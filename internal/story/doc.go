// Package story defines the canonical data model for fabula stories.
//
// This package contains type definitions only. All other internal packages
// import story; story imports nothing internal. This keeps the model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Effect, Requirement, and Puzzle are closed tagged unions: a Kind
//     field plus only the fields relevant to that kind. Dispatch sites
//     switch exhaustively; unknown kinds route to the runtime-anomaly
//     path, never a panic.
//   - A loaded Story is immutable. Nothing in the runtime ever writes to
//     it; all mutation happens on state.GameState.
//   - All JSON tags use snake_case.
package story
