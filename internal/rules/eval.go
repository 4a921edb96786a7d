// Package rules evaluates requirement expressions against game state.
//
// Evaluation is total and pure: it reads state and story catalogs, never
// mutates, and never returns an error. A malformed leaf evaluates to
// false and is reported through the warning side-channel instead of
// aborting the containing expression.
package rules

import (
	"fmt"

	"github.com/roach88/fabula/internal/state"
	"github.com/roach88/fabula/internal/story"
)

// Eval evaluates a requirement expression. A nil expression means "no
// requirement" and evaluates to true.
func Eval(expr *story.RequirementExpr, st *state.GameState, doc *story.Story) bool {
	ok, _ := EvalExplain(expr, st, doc)
	return ok
}

// EvalExplain evaluates like Eval and additionally returns warnings for
// malformed leaves encountered along the evaluated path. Short-circuit
// composites stop at the first decisive child, so warnings cover only
// the work actually done.
func EvalExplain(expr *story.RequirementExpr, st *state.GameState, doc *story.Story) (bool, []string) {
	var warnings []string
	ok := eval(expr, st, doc, &warnings)
	return ok, warnings
}

func eval(expr *story.RequirementExpr, st *state.GameState, doc *story.Story, warnings *[]string) bool {
	if expr == nil {
		return true
	}
	switch {
	case expr.AllOf != nil:
		// Conjunction over an empty list is true.
		for i := range expr.AllOf {
			if !eval(&expr.AllOf[i], st, doc, warnings) {
				return false
			}
		}
		return true
	case expr.AnyOf != nil:
		// Disjunction over an empty list is false.
		for i := range expr.AnyOf {
			if eval(&expr.AnyOf[i], st, doc, warnings) {
				return true
			}
		}
		return false
	case expr.Not != nil:
		return !eval(expr.Not, st, doc, warnings)
	case expr.Req != nil:
		return evalLeaf(expr.Req, st, warnings)
	default:
		*warnings = append(*warnings, "requirement expression has no arm set")
		return false
	}
}

func evalLeaf(req *story.Requirement, st *state.GameState, warnings *[]string) bool {
	switch req.Kind {
	case story.ReqHasItem:
		if req.ItemID == "" {
			return malformed(warnings, req, "missing item_id")
		}
		return st.Inventory[req.ItemID] >= req.Value
	case story.ReqInventoryBelow:
		if req.ItemID == "" {
			return malformed(warnings, req, "missing item_id")
		}
		return st.Inventory[req.ItemID] < req.Value
	case story.ReqCurrencyAtLeast:
		if req.CurrencyID == "" {
			return malformed(warnings, req, "missing currency_id")
		}
		return st.Currencies[req.CurrencyID] >= req.Value
	case story.ReqCurrencyBelow:
		if req.CurrencyID == "" {
			return malformed(warnings, req, "missing currency_id")
		}
		return st.Currencies[req.CurrencyID] < req.Value
	case story.ReqStatAtLeast:
		if req.StatID == "" {
			return malformed(warnings, req, "missing stat_id")
		}
		return st.Stats[req.StatID] >= req.Value
	case story.ReqStatBetween:
		if req.StatID == "" {
			return malformed(warnings, req, "missing stat_id")
		}
		v := st.Stats[req.StatID]
		return v >= req.Min && v <= req.Max
	case story.ReqFlagEquals:
		if req.Flag == "" {
			return malformed(warnings, req, "missing flag")
		}
		return st.Flags[req.Flag] == req.Equals
	case story.ReqPuzzleSolved:
		if req.PuzzleID == "" {
			return malformed(warnings, req, "missing puzzle_id")
		}
		return st.PuzzleSolved(req.PuzzleID)
	case story.ReqNodeVisited:
		if req.NodeID == "" {
			return malformed(warnings, req, "missing node_id")
		}
		return st.Visited[req.NodeID]
	default:
		return malformed(warnings, req, "unknown kind")
	}
}

func malformed(warnings *[]string, req *story.Requirement, reason string) bool {
	*warnings = append(*warnings, fmt.Sprintf("malformed requirement leaf %q: %s", req.Kind, reason))
	return false
}
