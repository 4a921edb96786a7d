package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fabula/internal/story"
)

func codesOf(report *Report) []string {
	var codes []string
	for _, e := range report.Errors {
		codes = append(codes, e.Code)
	}
	return codes
}

func minimalStory() *story.Story {
	return &story.Story{
		Title: "Minimal",
		Nodes: []story.Node{{ID: "start", Text: "x", Ending: true}},
	}
}

func TestValidate_MinimalStoryPasses(t *testing.T) {
	report := Validate(minimalStory())
	assert.True(t, report.Valid())
	assert.Empty(t, report.Warnings)
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	doc := &story.Story{
		Title: "",
		Nodes: []story.Node{
			{ID: "a", Text: "x", Choices: []story.Choice{{Label: "go", Target: "missing"}}},
			{ID: "a", Text: "dup", Ending: true},
		},
	}

	report := Validate(doc)
	require.False(t, report.Valid())
	codes := codesOf(report)
	assert.Contains(t, codes, ErrTitleEmpty)
	assert.Contains(t, codes, ErrDuplicateNode)
	assert.Contains(t, codes, ErrDanglingChoice)
	assert.GreaterOrEqual(t, len(codes), 3, "validation never stops at the first error")
}

func TestValidate_NoNodes(t *testing.T) {
	report := Validate(&story.Story{Title: "Empty"})
	assert.Equal(t, []string{ErrNoNodes}, codesOf(report))
}

func TestValidate_EndingWithChoices(t *testing.T) {
	doc := &story.Story{
		Title: "T",
		Nodes: []story.Node{{
			ID: "end", Text: "x", Ending: true,
			Choices: []story.Choice{{Label: "go", Target: "end"}},
		}},
	}
	assert.Contains(t, codesOf(Validate(doc)), ErrEndingHasChoices)
}

func TestValidate_CatalogReferences(t *testing.T) {
	tests := []struct {
		name string
		node story.Node
		want string
	}{
		{
			name: "unknown item in effect",
			node: story.Node{ID: "n", Text: "x", Ending: true, OnEnter: []story.Effect{
				{Kind: story.EffectAddItem, ItemID: "ghost", Amount: 1},
			}},
			want: ErrUnknownItem,
		},
		{
			name: "unknown currency in effect",
			node: story.Node{ID: "n", Text: "x", Ending: true, OnEnter: []story.Effect{
				{Kind: story.EffectAddCurrency, CurrencyID: "ghost", Amount: 1},
			}},
			want: ErrUnknownCurrency,
		},
		{
			name: "unknown stat in effect",
			node: story.Node{ID: "n", Text: "x", Ending: true, OnEnter: []story.Effect{
				{Kind: story.EffectAddStat, StatID: "ghost", Amount: 1},
			}},
			want: ErrUnknownStat,
		},
		{
			name: "unknown asset in media",
			node: story.Node{ID: "n", Text: "x", Ending: true, Media: []string{"ghost.png"}},
			want: ErrUnknownAsset,
		},
		{
			name: "dangling goto",
			node: story.Node{ID: "n", Text: "x", Ending: true, OnEnter: []story.Effect{
				{Kind: story.EffectGoto, Target: "ghost"},
			}},
			want: ErrDanglingGoto,
		},
		{
			name: "unknown effect kind",
			node: story.Node{ID: "n", Text: "x", Ending: true, OnEnter: []story.Effect{
				{Kind: "conjure"},
			}},
			want: ErrUnknownEffectKind,
		},
		{
			name: "set_flag without name",
			node: story.Node{ID: "n", Text: "x", Ending: true, OnEnter: []story.Effect{
				{Kind: story.EffectSetFlag},
			}},
			want: ErrBadEffect,
		},
		{
			name: "set_timer without id",
			node: story.Node{ID: "n", Text: "x", Ending: true, OnEnter: []story.Effect{
				{Kind: story.EffectSetTimer, DurationSeconds: 5},
			}},
			want: ErrBadEffect,
		},
		{
			name: "loot table without positive weight",
			node: story.Node{ID: "n", Text: "x", Ending: true, OnEnter: []story.Effect{
				{Kind: story.EffectLootTable, Loot: []story.LootEntry{{Weight: 0}}},
			}},
			want: ErrBadWeights,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &story.Story{Title: "T", Nodes: []story.Node{tt.node}}
			assert.Contains(t, codesOf(Validate(doc)), tt.want)
		})
	}
}

func TestValidate_LockChoiceIndexRange(t *testing.T) {
	doc := &story.Story{
		Title: "T",
		Nodes: []story.Node{
			{
				ID: "a", Text: "x",
				OnEnter: []story.Effect{{Kind: story.EffectLockChoice, ChoiceIndex: 5}},
				Choices: []story.Choice{{Label: "go", Target: "b"}},
			},
			{ID: "b", Text: "y", Ending: true},
		},
	}
	assert.Contains(t, codesOf(Validate(doc)), ErrBadEffect)
}

func TestValidate_RequirementArms(t *testing.T) {
	choiceWith := func(req *story.RequirementExpr) *story.Story {
		return &story.Story{
			Title: "T",
			Items: []story.Item{{ID: "key"}},
			Nodes: []story.Node{
				{ID: "a", Text: "x", Choices: []story.Choice{{Label: "go", Target: "b", Requires: req}}},
				{ID: "b", Text: "y", Ending: true},
			},
		}
	}

	// Zero arms.
	report := Validate(choiceWith(&story.RequirementExpr{}))
	assert.Contains(t, codesOf(report), ErrBadRequirement)

	// Two arms at once.
	report = Validate(choiceWith(&story.RequirementExpr{
		Not: &story.RequirementExpr{Req: &story.Requirement{Kind: story.ReqHasItem, ItemID: "key"}},
		Req: &story.Requirement{Kind: story.ReqHasItem, ItemID: "key"},
	}))
	assert.Contains(t, codesOf(report), ErrBadRequirement)

	// Exactly one arm, nested.
	report = Validate(choiceWith(&story.RequirementExpr{
		AllOf: []story.RequirementExpr{
			{Req: &story.Requirement{Kind: story.ReqHasItem, ItemID: "key", Value: 1}},
		},
	}))
	assert.True(t, report.Valid())
}

func TestValidate_RequirementLeafReferences(t *testing.T) {
	doc := &story.Story{
		Title: "T",
		Nodes: []story.Node{
			{ID: "a", Text: "x", Choices: []story.Choice{{
				Label: "go", Target: "b",
				Requires: &story.RequirementExpr{AllOf: []story.RequirementExpr{
					{Req: &story.Requirement{Kind: story.ReqPuzzleSolved, PuzzleID: "nope"}},
					{Req: &story.Requirement{Kind: story.ReqStatBetween, StatID: "nope", Min: 5, Max: 1}},
				}},
			}}},
			{ID: "b", Text: "y", Ending: true},
		},
	}

	codes := codesOf(Validate(doc))
	assert.Contains(t, codes, ErrUnknownPuzzleRef)
	assert.Contains(t, codes, ErrUnknownStat)
	assert.Contains(t, codes, ErrBadRequirement, "inverted stat_between bounds")
}

func TestValidate_PuzzleShapes(t *testing.T) {
	tests := []struct {
		name   string
		puzzle story.Puzzle
		valid  bool
	}{
		{
			name: "multiple_choice without options",
			puzzle: story.Puzzle{
				ID: "p", Kind: story.PuzzleMultipleChoice, Prompt: "?",
				CorrectOptions: []int{0},
			},
		},
		{
			name: "multiple_choice index out of range",
			puzzle: story.Puzzle{
				ID: "p", Kind: story.PuzzleMultipleChoice, Prompt: "?",
				Options: []string{"a"}, CorrectOptions: []int{3},
			},
		},
		{
			name:   "free_text without accept",
			puzzle: story.Puzzle{ID: "p", Kind: story.PuzzleFreeText, Prompt: "?"},
		},
		{
			name:   "regex that does not compile",
			puzzle: story.Puzzle{ID: "p", Kind: story.PuzzleRegex, Prompt: "?", Pattern: "([bad"},
		},
		{
			name:   "numeric negative tolerance",
			puzzle: story.Puzzle{ID: "p", Kind: story.PuzzleNumeric, Prompt: "?", Tolerance: -1},
		},
		{
			name:   "article without gender",
			puzzle: story.Puzzle{ID: "p", Kind: story.PuzzleArticle, Prompt: "?"},
		},
		{
			name: "cloze blank without accept",
			puzzle: story.Puzzle{
				ID: "p", Kind: story.PuzzleCloze, Prompt: "?",
				Blanks: []story.ClozeBlank{{}},
			},
		},
		{
			name:   "matching without pairs",
			puzzle: story.Puzzle{ID: "p", Kind: story.PuzzleMatching, Prompt: "?"},
		},
		{
			name:   "ordering without order",
			puzzle: story.Puzzle{ID: "p", Kind: story.PuzzleOrdering, Prompt: "?"},
		},
		{
			name: "hotspot without correct area",
			puzzle: story.Puzzle{
				ID: "p", Kind: story.PuzzleHotspot, Prompt: "?",
				Areas: []story.HotspotArea{{ID: "x"}},
			},
		},
		{
			name: "unknown normalize step",
			puzzle: story.Puzzle{
				ID: "p", Kind: story.PuzzleFreeText, Prompt: "?",
				Accept: []string{"a"}, Normalize: []story.NormalizeStep{"shout"},
			},
		},
		{
			name: "variants without positive weight",
			puzzle: story.Puzzle{
				ID: "p", Kind: story.PuzzleFreeText, Prompt: "?",
				Accept: []string{"a"}, Variants: []story.Variant{{Weight: 0}},
			},
		},
		{
			name: "valid numeric",
			puzzle: story.Puzzle{
				ID: "p", Kind: story.PuzzleNumeric, Prompt: "?",
				Answer: 42, Tolerance: 0.5,
			},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.puzzle
			doc := &story.Story{
				Title: "T",
				Nodes: []story.Node{{ID: "a", Text: "x", Ending: true, Puzzle: &p}},
			}
			report := Validate(doc)
			assert.Equal(t, tt.valid, report.Valid(), "errors: %v", report.Errors)
		})
	}
}

func TestValidate_DuplicatePuzzleIDs(t *testing.T) {
	p1 := story.Puzzle{ID: "p", Kind: story.PuzzleFreeText, Prompt: "?", Accept: []string{"a"}}
	p2 := p1
	doc := &story.Story{
		Title: "T",
		Nodes: []story.Node{
			{ID: "a", Text: "x", Puzzle: &p1, Choices: []story.Choice{{Label: "go", Target: "b"}}},
			{ID: "b", Text: "y", Ending: true, Puzzle: &p2},
		},
	}
	assert.Contains(t, codesOf(Validate(doc)), ErrDuplicatePuzzle)
}

func TestValidate_OutcomeJumps(t *testing.T) {
	doc := &story.Story{
		Title: "T",
		Nodes: []story.Node{{
			ID: "a", Text: "x", Ending: true,
			Puzzle: &story.Puzzle{
				ID: "p", Kind: story.PuzzleFreeText, Prompt: "?", Accept: []string{"a"},
				OnSuccess: &story.Outcome{Goto: "missing"},
			},
		}},
	}
	assert.Contains(t, codesOf(Validate(doc)), ErrDanglingOutcome)
}

func TestValidate_SelfLoopWarning(t *testing.T) {
	doc := &story.Story{
		Title: "T",
		Nodes: []story.Node{{
			ID: "a", Text: "x",
			Choices: []story.Choice{{Label: "stay", Target: "a"}},
		}},
	}

	report := Validate(doc)
	assert.True(t, report.Valid(), "self loops are a warning, not an error")
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, WarnLikelyLoop, report.Warnings[0].Code)
}

func TestValidate_UnreachableWarning(t *testing.T) {
	doc := &story.Story{
		Title: "T",
		Nodes: []story.Node{
			{ID: "start", Text: "x", Ending: true},
			{ID: "orphan", Text: "y", Ending: true},
		},
	}

	report := Validate(doc)
	assert.True(t, report.Valid())
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, WarnUnreachableNode, report.Warnings[0].Code)
	assert.Contains(t, report.Warnings[0].Message, "orphan")
}
