// Package harness runs scripted story playthroughs for conformance
// testing.
//
// A scenario is a YAML file naming a story document, a scripted
// sequence of steps (make a choice, answer a puzzle, advance the test
// clock), inline per-step expectations, and assertions over the
// recorded event trace and final state. Scenarios run with a fixed
// clock and scripted weighted-draw rolls, so traces are deterministic
// and can be compared against golden files.
package harness
