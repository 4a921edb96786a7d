// Package puzzle scores answers against puzzle definitions.
//
// Evaluation is pure: it never mutates state (attempt counters and
// solved flags are the orchestrator's bookkeeping) and never returns an
// error. A malformed answer shape yields correct:false with an
// explanatory message.
package puzzle

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/roach88/fabula/internal/story"
)

// Result reports one scoring pass. Score is in [0, 1]; Partial carries
// per-element outcomes for the kinds that score parts independently
// (cloze blanks, matching pairs, ordering positions, hotspot areas).
type Result struct {
	Correct bool    `json:"correct"`
	Score   float64 `json:"score"`
	Message string  `json:"message,omitempty"`
	Partial []bool  `json:"partial_results,omitempty"`
}

// Evaluate scores an answer against a puzzle definition.
func Evaluate(p *story.Puzzle, answer any) Result {
	switch p.Kind {
	case story.PuzzleMultipleChoice:
		return evalMultipleChoice(p, answer)
	case story.PuzzleFreeText:
		return evalFreeText(p, answer)
	case story.PuzzleRegex:
		return evalRegex(p, answer)
	case story.PuzzleNumeric:
		return evalNumeric(p, answer)
	case story.PuzzleArticle:
		return evalArticle(p, answer)
	case story.PuzzleCloze:
		return evalCloze(p, answer)
	case story.PuzzleMatching:
		return evalMatching(p, answer)
	case story.PuzzleOrdering:
		return evalOrdering(p, answer)
	case story.PuzzleHotspot:
		return evalHotspot(p, answer)
	default:
		return Result{Message: fmt.Sprintf("unknown puzzle kind %q", p.Kind)}
	}
}

func wrongShape(want string) Result {
	return Result{Message: fmt.Sprintf("answer must be %s", want)}
}

// evalMultipleChoice compares the selected option indices as an
// order-independent set against the declared correct set.
func evalMultipleChoice(p *story.Puzzle, answer any) Result {
	got, ok := asIntSet(answer)
	if !ok {
		return wrongShape("a list of option indices")
	}
	want := make(map[int]bool, len(p.CorrectOptions))
	for _, i := range p.CorrectOptions {
		want[i] = true
	}
	if len(got) != len(want) {
		return Result{}
	}
	for i := range want {
		if !got[i] {
			return Result{}
		}
	}
	return Result{Correct: true, Score: 1}
}

func evalFreeText(p *story.Puzzle, answer any) Result {
	s, ok := asString(answer)
	if !ok {
		return wrongShape("a string")
	}
	if matchesAny(s, p.Accept, p.Normalize) {
		return Result{Correct: true, Score: 1}
	}
	return Result{}
}

// evalRegex tests the pattern with its declared flags against the raw
// answer. A pattern that fails to compile is a runtime anomaly and
// scores incorrect with a message rather than failing the playthrough.
func evalRegex(p *story.Puzzle, answer any) Result {
	s, ok := asString(answer)
	if !ok {
		return wrongShape("a string")
	}
	pattern := p.Pattern
	if flags := sanitizeFlags(p.PatternFlags); flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Result{Message: fmt.Sprintf("invalid pattern: %v", err)}
	}
	if re.MatchString(s) {
		return Result{Correct: true, Score: 1}
	}
	return Result{}
}

// sanitizeFlags keeps only the flag letters Go's regexp understands.
func sanitizeFlags(flags string) string {
	var b strings.Builder
	for _, r := range flags {
		switch r {
		case 'i', 'm', 's', 'U':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func evalNumeric(p *story.Puzzle, answer any) Result {
	f, ok := asFloat(answer)
	if !ok {
		return wrongShape("a number")
	}
	if math.Abs(f-p.Answer) <= p.Tolerance {
		return Result{Correct: true, Score: 1}
	}
	return Result{}
}

// evalArticle is a case-insensitive exact compare against the declared
// grammatical gender token ("der", "die", "el", "la", ...).
func evalArticle(p *story.Puzzle, answer any) Result {
	s, ok := asString(answer)
	if !ok {
		return wrongShape("a string")
	}
	if strings.EqualFold(strings.TrimSpace(s), p.Gender) {
		return Result{Correct: true, Score: 1}
	}
	return Result{}
}

// evalCloze scores each blank independently through the shared
// normalization chain and computes a weighted partial score. Fully
// correct only when every blank matches.
func evalCloze(p *story.Puzzle, answer any) Result {
	got, ok := asStringSlice(answer)
	if !ok {
		return wrongShape("a list of strings, one per blank")
	}
	if len(got) != len(p.Blanks) {
		return Result{Message: fmt.Sprintf("expected %d blanks, got %d", len(p.Blanks), len(got))}
	}
	partial := make([]bool, len(p.Blanks))
	var totalWeight, matchedWeight float64
	for i, blank := range p.Blanks {
		w := blank.Weight
		if w <= 0 {
			w = 1
		}
		totalWeight += w
		if matchesAny(got[i], blank.Accept, p.Normalize) {
			partial[i] = true
			matchedWeight += w
		}
	}
	allMatch := matchedWeight == totalWeight && totalWeight > 0
	score := 0.0
	if allMatch {
		score = 1
	} else if p.PartialScoring && totalWeight > 0 {
		score = matchedWeight / totalWeight
	}
	return Result{Correct: allMatch, Score: score, Partial: partial}
}

// evalMatching gives partial credit for the fraction of correctly
// matched pairs; fully correct requires every declared pair to match.
func evalMatching(p *story.Puzzle, answer any) Result {
	got, ok := asStringMap(answer)
	if !ok {
		return wrongShape("a map of left to right values")
	}
	if len(p.Pairs) == 0 {
		return Result{Message: "puzzle declares no pairs"}
	}
	partial := make([]bool, len(p.Pairs))
	matched := 0
	for i, pair := range p.Pairs {
		if got[pair.Left] == pair.Right {
			partial[i] = true
			matched++
		}
	}
	return Result{
		Correct: matched == len(p.Pairs),
		Score:   float64(matched) / float64(len(p.Pairs)),
		Partial: partial,
	}
}

// evalOrdering gives partial credit for correctly placed positions;
// fully correct requires length equality and every position to match.
func evalOrdering(p *story.Puzzle, answer any) Result {
	got, ok := asStringSlice(answer)
	if !ok {
		return wrongShape("a list of element ids in order")
	}
	if len(p.Order) == 0 {
		return Result{Message: "puzzle declares no ordering"}
	}
	partial := make([]bool, len(p.Order))
	matched := 0
	for i, want := range p.Order {
		if i < len(got) && got[i] == want {
			partial[i] = true
			matched++
		}
	}
	return Result{
		Correct: matched == len(p.Order) && len(got) == len(p.Order),
		Score:   float64(matched) / float64(len(p.Order)),
		Partial: partial,
	}
}

// evalHotspot requires the selected area-id set to equal exactly the set
// of areas flagged correct. Partial score is the fraction of correct
// areas selected relative to the total correct areas.
func evalHotspot(p *story.Puzzle, answer any) Result {
	got, ok := asStringSlice(answer)
	if !ok {
		return wrongShape("a list of area ids")
	}
	selected := make(map[string]bool, len(got))
	for _, id := range got {
		selected[id] = true
	}
	correct := make(map[string]bool)
	for _, area := range p.Areas {
		if area.Correct {
			correct[area.ID] = true
		}
	}
	if len(correct) == 0 {
		return Result{Message: "puzzle declares no correct areas"}
	}
	hit := 0
	for id := range correct {
		if selected[id] {
			hit++
		}
	}
	exact := hit == len(correct) && len(selected) == len(correct)
	return Result{
		Correct: exact,
		Score:   float64(hit) / float64(len(correct)),
	}
}
