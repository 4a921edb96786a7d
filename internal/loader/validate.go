package loader

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/fabula/internal/story"
)

// Validation error codes (E100-E199) and warning codes (W200-W299).
const (
	ErrParse  = "E001" // document could not be parsed
	ErrSchema = "E002" // schema unification failure

	ErrTitleEmpty        = "E101" // title is required
	ErrNoNodes           = "E102" // at least one node required
	ErrDuplicateNode     = "E103" // duplicate node identifier
	ErrDanglingChoice    = "E104" // choice target does not resolve
	ErrEndingHasChoices  = "E105" // ending node carries choices
	ErrUnknownItem       = "E106" // item reference not in catalog
	ErrUnknownCurrency   = "E107" // currency reference not in catalog
	ErrUnknownStat       = "E108" // stat reference not in catalog
	ErrUnknownAsset      = "E109" // media reference not in asset catalog
	ErrDanglingGoto      = "E110" // effect goto target does not resolve
	ErrDanglingOutcome   = "E111" // puzzle outcome jump does not resolve
	ErrBadPuzzle         = "E112" // puzzle definition incomplete for its kind
	ErrDuplicatePuzzle   = "E113" // duplicate puzzle identifier
	ErrBadWeights        = "E114" // weighted list has no positive weight
	ErrBadRequirement    = "E115" // requirement expression arm mismatch
	ErrUnknownEffectKind = "E116" // effect kind not recognized
	ErrBadEffect         = "E117" // effect fields incomplete for its kind
	ErrUnknownPuzzleRef  = "E118" // requirement references unknown puzzle

	WarnUnreachableNode = "W201" // node never referenced
	WarnLikelyLoop      = "W202" // self-referencing choice with no puzzle or effects
)

// ValidationError represents one story validation violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Warning is a non-fatal finding: the story loads, but an author
// probably wants to know.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Report aggregates everything a validation pass found.
type Report struct {
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []Warning         `json:"warnings,omitempty"`
}

// Valid reports whether the story passed with no errors.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

// InvalidStoryError is the aggregated, itemized failure returned when a
// story does not validate. No partially valid story accompanies it.
type InvalidStoryError struct {
	Report *Report
}

// Error lists every violation, one per line.
func (e *InvalidStoryError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "story validation failed with %d error(s):", len(e.Report.Errors))
	for _, ve := range e.Report.Errors {
		b.WriteString("\n  ")
		b.WriteString(ve.Error())
	}
	return b.String()
}

// validator carries the cross-reference sets built in the first pass.
type validator struct {
	doc       *story.Story
	nodeIDs   map[string]bool
	puzzleIDs map[string]bool
	report    *Report
}

// Validate runs the reference validation pass over an already decoded
// story. It never fails fast: all violations are collected.
func Validate(doc *story.Story) *Report {
	v := &validator{
		doc:       doc,
		nodeIDs:   make(map[string]bool),
		puzzleIDs: make(map[string]bool),
		report:    &Report{},
	}

	if strings.TrimSpace(doc.Title) == "" {
		v.errorf(ErrTitleEmpty, "title", "title is required and must be non-empty")
	}
	if len(doc.Nodes) == 0 {
		v.errorf(ErrNoNodes, "nodes", "at least one node is required")
		return v.report
	}

	// First pass: identifier sets and duplicate detection.
	for i, node := range doc.Nodes {
		if v.nodeIDs[node.ID] {
			v.errorf(ErrDuplicateNode, fmt.Sprintf("nodes[%d].id", i), "duplicate node id %q", node.ID)
		}
		v.nodeIDs[node.ID] = true
		if node.Puzzle != nil {
			if v.puzzleIDs[node.Puzzle.ID] {
				v.errorf(ErrDuplicatePuzzle, fmt.Sprintf("nodes[%d].puzzle.id", i), "duplicate puzzle id %q", node.Puzzle.ID)
			}
			v.puzzleIDs[node.Puzzle.ID] = true
		}
	}

	// Second pass: reference and shape checks.
	for i := range doc.Nodes {
		v.validateNode(&doc.Nodes[i], fmt.Sprintf("nodes[%d]", i))
	}

	v.findUnreachable()
	return v.report
}

func (v *validator) errorf(code, field, format string, args ...any) {
	v.report.Errors = append(v.report.Errors, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (v *validator) warnf(code, field, format string, args ...any) {
	v.report.Warnings = append(v.report.Warnings, Warning{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (v *validator) validateNode(node *story.Node, field string) {
	if node.Ending && len(node.Choices) > 0 {
		v.errorf(ErrEndingHasChoices, field+".choices", "ending node %q must not carry choices", node.ID)
	}
	v.validateMedia(node.Media, field+".media")
	v.validateEffects(node.OnEnter, field+".on_enter", node)
	if node.Puzzle != nil {
		v.validatePuzzle(node.Puzzle, field+".puzzle")
	}
	for i := range node.Choices {
		v.validateChoice(node, &node.Choices[i], i, fmt.Sprintf("%s.choices[%d]", field, i))
	}
}

func (v *validator) validateChoice(node *story.Node, choice *story.Choice, index int, field string) {
	if !v.nodeIDs[choice.Target] {
		v.errorf(ErrDanglingChoice, field+".target", "choice target %q does not resolve to a node", choice.Target)
	}
	if choice.Target == node.ID && node.Puzzle == nil && len(choice.Effects) == 0 {
		v.warnf(WarnLikelyLoop, field, "choice %d on node %q targets its own node with no puzzle or effects, likely an infinite loop", index, node.ID)
	}
	v.validateRequirement(choice.Requires, field+".requires")
	v.validateEffects(choice.Effects, field+".effects", node)
}

func (v *validator) validateMedia(refs []string, field string) {
	for i, ref := range refs {
		if _, ok := v.doc.AssetByID(ref); !ok {
			v.errorf(ErrUnknownAsset, fmt.Sprintf("%s[%d]", field, i), "media reference %q not in asset catalog", ref)
		}
	}
}

func (v *validator) validateEffects(list []story.Effect, field string, node *story.Node) {
	for i := range list {
		v.validateEffect(&list[i], fmt.Sprintf("%s[%d]", field, i), node)
	}
}

func (v *validator) validateEffect(e *story.Effect, field string, node *story.Node) {
	switch e.Kind {
	case story.EffectAddItem, story.EffectRemoveItem:
		if _, ok := v.doc.ItemByID(e.ItemID); !ok {
			v.errorf(ErrUnknownItem, field+".item_id", "item %q not in catalog", e.ItemID)
		}
	case story.EffectAddCurrency:
		if _, ok := v.doc.CurrencyByID(e.CurrencyID); !ok {
			v.errorf(ErrUnknownCurrency, field+".currency_id", "currency %q not in catalog", e.CurrencyID)
		}
	case story.EffectAddStat:
		if _, ok := v.doc.StatByID(e.StatID); !ok {
			v.errorf(ErrUnknownStat, field+".stat_id", "stat %q not in catalog", e.StatID)
		}
	case story.EffectSetFlag:
		if e.Flag == "" {
			v.errorf(ErrBadEffect, field+".flag", "set_flag requires a flag name")
		}
	case story.EffectLog:
		// Any message, including empty, is fine.
	case story.EffectGoto:
		if !v.nodeIDs[e.Target] {
			v.errorf(ErrDanglingGoto, field+".target", "goto target %q does not resolve to a node", e.Target)
		}
	case story.EffectUnlockChoice, story.EffectLockChoice:
		target := node
		if e.NodeID != "" {
			n, ok := v.doc.NodeByID(e.NodeID)
			if !ok {
				v.errorf(ErrDanglingGoto, field+".node_id", "%s node %q does not resolve", e.Kind, e.NodeID)
				return
			}
			target = n
		}
		if e.ChoiceIndex < 0 || e.ChoiceIndex >= len(target.Choices) {
			v.errorf(ErrBadEffect, field+".choice_index", "%s index %d out of range for node %q", e.Kind, e.ChoiceIndex, target.ID)
		}
	case story.EffectSetTimer:
		if e.TimerID == "" {
			v.errorf(ErrBadEffect, field+".timer_id", "set_timer requires a timer id")
		}
	case story.EffectLootTable:
		positive := false
		for i := range e.Loot {
			if e.Loot[i].Weight > 0 {
				positive = true
			}
			v.validateEffects(e.Loot[i].Effects, fmt.Sprintf("%s.loot[%d].effects", field, i), node)
		}
		if !positive {
			v.errorf(ErrBadWeights, field+".loot", "loot table has no entry with positive weight")
		}
	default:
		v.errorf(ErrUnknownEffectKind, field+".kind", "unknown effect kind %q", e.Kind)
	}
}

func (v *validator) validateRequirement(expr *story.RequirementExpr, field string) {
	if expr == nil {
		return
	}
	arms := 0
	if expr.AllOf != nil {
		arms++
		for i := range expr.AllOf {
			v.validateRequirement(&expr.AllOf[i], fmt.Sprintf("%s.all_of[%d]", field, i))
		}
	}
	if expr.AnyOf != nil {
		arms++
		for i := range expr.AnyOf {
			v.validateRequirement(&expr.AnyOf[i], fmt.Sprintf("%s.any_of[%d]", field, i))
		}
	}
	if expr.Not != nil {
		arms++
		v.validateRequirement(expr.Not, field+".not")
	}
	if expr.Req != nil {
		arms++
		v.validateLeaf(expr.Req, field+".req")
	}
	if arms != 1 {
		v.errorf(ErrBadRequirement, field, "requirement expression must set exactly one of all_of, any_of, not, req (got %d)", arms)
	}
}

func (v *validator) validateLeaf(req *story.Requirement, field string) {
	if !story.ValidRequirementKinds[req.Kind] {
		v.errorf(ErrBadRequirement, field+".kind", "unknown requirement kind %q", req.Kind)
		return
	}
	switch req.Kind {
	case story.ReqHasItem, story.ReqInventoryBelow:
		if _, ok := v.doc.ItemByID(req.ItemID); !ok {
			v.errorf(ErrUnknownItem, field+".item_id", "item %q not in catalog", req.ItemID)
		}
	case story.ReqCurrencyAtLeast, story.ReqCurrencyBelow:
		if _, ok := v.doc.CurrencyByID(req.CurrencyID); !ok {
			v.errorf(ErrUnknownCurrency, field+".currency_id", "currency %q not in catalog", req.CurrencyID)
		}
	case story.ReqStatAtLeast:
		if _, ok := v.doc.StatByID(req.StatID); !ok {
			v.errorf(ErrUnknownStat, field+".stat_id", "stat %q not in catalog", req.StatID)
		}
	case story.ReqStatBetween:
		if _, ok := v.doc.StatByID(req.StatID); !ok {
			v.errorf(ErrUnknownStat, field+".stat_id", "stat %q not in catalog", req.StatID)
		}
		if req.Min > req.Max {
			v.errorf(ErrBadRequirement, field, "stat_between bounds inverted: min %d > max %d", req.Min, req.Max)
		}
	case story.ReqPuzzleSolved:
		if !v.puzzleIDs[req.PuzzleID] {
			v.errorf(ErrUnknownPuzzleRef, field+".puzzle_id", "puzzle %q not declared by any node", req.PuzzleID)
		}
	case story.ReqNodeVisited:
		if !v.nodeIDs[req.NodeID] {
			v.errorf(ErrDanglingChoice, field+".node_id", "node %q does not resolve", req.NodeID)
		}
	case story.ReqFlagEquals:
		if req.Flag == "" {
			v.errorf(ErrBadRequirement, field+".flag", "flag_equals requires a flag name")
		}
	}
}

func (v *validator) validatePuzzle(p *story.Puzzle, field string) {
	v.validateMedia(p.Media, field+".media")
	v.validateOutcome(p.OnSuccess, field+".on_success")
	v.validateOutcome(p.OnFailure, field+".on_failure")

	if len(p.Variants) > 0 {
		positive := false
		for _, variant := range p.Variants {
			if variant.Weight > 0 {
				positive = true
				break
			}
		}
		if !positive {
			v.errorf(ErrBadWeights, field+".variants", "variants have no entry with positive weight")
		}
	}

	switch p.Kind {
	case story.PuzzleMultipleChoice:
		if len(p.Options) == 0 {
			v.errorf(ErrBadPuzzle, field+".options", "multiple_choice requires options")
		}
		if len(p.CorrectOptions) == 0 {
			v.errorf(ErrBadPuzzle, field+".correct_options", "multiple_choice requires a correct option set")
		}
		for i, idx := range p.CorrectOptions {
			if idx < 0 || idx >= len(p.Options) {
				v.errorf(ErrBadPuzzle, fmt.Sprintf("%s.correct_options[%d]", field, i), "option index %d out of range", idx)
			}
		}
	case story.PuzzleFreeText:
		if len(p.Accept) == 0 {
			v.errorf(ErrBadPuzzle, field+".accept", "free_text requires accepted alternatives")
		}
	case story.PuzzleRegex:
		if p.Pattern == "" {
			v.errorf(ErrBadPuzzle, field+".pattern", "regex puzzle requires a pattern")
		} else if _, err := regexp.Compile(p.Pattern); err != nil {
			v.errorf(ErrBadPuzzle, field+".pattern", "pattern does not compile: %v", err)
		}
	case story.PuzzleNumeric:
		if p.Tolerance < 0 {
			v.errorf(ErrBadPuzzle, field+".tolerance", "tolerance must not be negative")
		}
	case story.PuzzleArticle:
		if p.Gender == "" {
			v.errorf(ErrBadPuzzle, field+".gender", "article puzzle requires a gender token")
		}
	case story.PuzzleCloze:
		if len(p.Blanks) == 0 {
			v.errorf(ErrBadPuzzle, field+".blanks", "cloze requires at least one blank")
		}
		for i, blank := range p.Blanks {
			if len(blank.Accept) == 0 {
				v.errorf(ErrBadPuzzle, fmt.Sprintf("%s.blanks[%d].accept", field, i), "blank requires accepted alternatives")
			}
		}
	case story.PuzzleMatching:
		if len(p.Pairs) == 0 {
			v.errorf(ErrBadPuzzle, field+".pairs", "matching requires at least one pair")
		}
	case story.PuzzleOrdering:
		if len(p.Order) == 0 {
			v.errorf(ErrBadPuzzle, field+".order", "ordering requires the correct sequence")
		}
	case story.PuzzleHotspot:
		correct := 0
		for _, area := range p.Areas {
			if area.Correct {
				correct++
			}
		}
		if len(p.Areas) == 0 {
			v.errorf(ErrBadPuzzle, field+".areas", "hotspot requires areas")
		} else if correct == 0 {
			v.errorf(ErrBadPuzzle, field+".areas", "hotspot requires at least one correct area")
		}
	default:
		v.errorf(ErrBadPuzzle, field+".kind", "unknown puzzle kind %q", p.Kind)
	}

	for i, step := range p.Normalize {
		if !story.ValidNormalizeSteps[step] {
			v.errorf(ErrBadPuzzle, fmt.Sprintf("%s.normalize[%d]", field, i), "unknown normalization step %q", step)
		}
	}
}

func (v *validator) validateOutcome(o *story.Outcome, field string) {
	if o == nil {
		return
	}
	if o.Goto != "" && !v.nodeIDs[o.Goto] {
		v.errorf(ErrDanglingOutcome, field+".goto", "outcome jump %q does not resolve to a node", o.Goto)
	}
	// Outcome effects run without a node context; lock/unlock inside
	// them must name their node explicitly, so validate against an
	// empty one.
	v.validateEffects(o.Effects, field+".effects", &story.Node{})
}

// findUnreachable reports nodes no choice, goto, or outcome jump ever
// targets. The start node is reachable by definition.
func (v *validator) findUnreachable() {
	referenced := make(map[string]bool)
	if len(v.doc.Nodes) > 0 {
		referenced[v.doc.Nodes[0].ID] = true
	}
	var markEffects func(list []story.Effect)
	markEffects = func(list []story.Effect) {
		for _, e := range list {
			if e.Kind == story.EffectGoto {
				referenced[e.Target] = true
			}
			for _, entry := range e.Loot {
				markEffects(entry.Effects)
			}
		}
	}
	for _, node := range v.doc.Nodes {
		markEffects(node.OnEnter)
		for _, choice := range node.Choices {
			referenced[choice.Target] = true
			markEffects(choice.Effects)
		}
		if node.Puzzle != nil {
			for _, outcome := range []*story.Outcome{node.Puzzle.OnSuccess, node.Puzzle.OnFailure} {
				if outcome == nil {
					continue
				}
				if outcome.Goto != "" {
					referenced[outcome.Goto] = true
				}
				markEffects(outcome.Effects)
			}
		}
	}
	for i, node := range v.doc.Nodes {
		if !referenced[node.ID] {
			v.warnf(WarnUnreachableNode, fmt.Sprintf("nodes[%d]", i), "node %q is never referenced", node.ID)
		}
	}
}
