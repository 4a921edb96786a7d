package story

// PuzzleKind identifies one of the nine puzzle families.
type PuzzleKind string

const (
	PuzzleMultipleChoice PuzzleKind = "multiple_choice"
	PuzzleFreeText       PuzzleKind = "free_text"
	PuzzleRegex          PuzzleKind = "regex"
	PuzzleNumeric        PuzzleKind = "numeric"
	PuzzleArticle        PuzzleKind = "article" // grammatical-gender drill
	PuzzleCloze          PuzzleKind = "cloze"
	PuzzleMatching       PuzzleKind = "matching"
	PuzzleOrdering       PuzzleKind = "ordering"
	PuzzleHotspot        PuzzleKind = "hotspot"
)

// ValidPuzzleKinds defines the allowed puzzle kinds.
var ValidPuzzleKinds = map[PuzzleKind]bool{
	PuzzleMultipleChoice: true,
	PuzzleFreeText:       true,
	PuzzleRegex:          true,
	PuzzleNumeric:        true,
	PuzzleArticle:        true,
	PuzzleCloze:          true,
	PuzzleMatching:       true,
	PuzzleOrdering:       true,
	PuzzleHotspot:        true,
}

// NormalizeStep is one step in a text normalization chain. Steps are
// applied in declaration order to both the answer and every accepted
// alternative before comparison.
type NormalizeStep string

const (
	NormTrim            NormalizeStep = "trim"
	NormLowercase       NormalizeStep = "lowercase"
	NormStripNonASCII   NormalizeStep = "strip_nonascii"
	NormStripDiacritics NormalizeStep = "strip_diacritics"
)

// ValidNormalizeSteps defines the allowed normalization steps.
var ValidNormalizeSteps = map[NormalizeStep]bool{
	NormTrim:            true,
	NormLowercase:       true,
	NormStripNonASCII:   true,
	NormStripDiacritics: true,
}

// Outcome is what happens when a puzzle resolves: an effect list plus an
// optional jump target.
type Outcome struct {
	Effects []Effect `json:"effects,omitempty"`
	Goto    string   `json:"goto,omitempty"`
}

// HintRule is a dynamic hint revealed once the attempt counter reaches
// AfterAttempts failed tries.
type HintRule struct {
	AfterAttempts int64  `json:"after_attempts"`
	Text          string `json:"text"`
}

// ClozeBlank is one blank in a cloze puzzle. Weight defaults to 1 when
// zero or negative.
type ClozeBlank struct {
	Accept []string `json:"accept"`
	Weight float64  `json:"weight,omitempty"`
}

// MatchPair is one left/right pair in a matching puzzle.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// HotspotArea is one selectable area in an image hotspot puzzle.
type HotspotArea struct {
	ID      string `json:"id"`
	Correct bool   `json:"correct,omitempty"`
}

// Variant is a weighted override set. When a node with a puzzle is
// entered, one variant is drawn (same weighted mechanism as loot tables)
// and its non-zero fields replace the base puzzle's before the puzzle is
// presented and scored.
type Variant struct {
	Weight int64 `json:"weight"`

	Prompt         string   `json:"prompt,omitempty"`
	Media          []string `json:"media,omitempty"`
	Options        []string `json:"options,omitempty"`
	CorrectOptions []int    `json:"correct_options,omitempty"`
	Accept         []string `json:"accept,omitempty"`
	Pattern        string   `json:"pattern,omitempty"`
	Answer         *float64 `json:"answer,omitempty"`
	Gender         string   `json:"gender,omitempty"`
}

// Puzzle is a scored mini-challenge attached to a node: a closed union
// over nine kinds sharing identity, presentation, attempt bookkeeping,
// and success/failure outcomes.
type Puzzle struct {
	ID     string     `json:"id"`
	Kind   PuzzleKind `json:"kind"`
	Prompt string     `json:"prompt"`
	Media  []string   `json:"media,omitempty"` // asset ids

	TimeLimitSeconds int64      `json:"time_limit_seconds,omitempty"`
	MaxAttempts      int64      `json:"max_attempts,omitempty"` // zero means unlimited
	Hints            []string   `json:"hints,omitempty"`
	DynamicHints     []HintRule `json:"dynamic_hints,omitempty"`
	Variants         []Variant  `json:"variants,omitempty"`

	OnSuccess *Outcome `json:"on_success,omitempty"`
	OnFailure *Outcome `json:"on_failure,omitempty"`

	// GateChoices blocks every choice on the puzzle's node until the
	// puzzle is solved.
	GateChoices bool `json:"gate_choices_until_solved,omitempty"`

	// multiple_choice
	Options        []string `json:"options,omitempty"`
	CorrectOptions []int    `json:"correct_options,omitempty"`

	// free_text / article / cloze share the normalization chain
	Accept    []string        `json:"accept,omitempty"`
	Normalize []NormalizeStep `json:"normalize,omitempty"`

	// regex
	Pattern      string `json:"pattern,omitempty"`
	PatternFlags string `json:"pattern_flags,omitempty"` // subset of "ims"

	// numeric
	Answer    float64 `json:"answer,omitempty"`
	Tolerance float64 `json:"tolerance,omitempty"`

	// article
	Gender string `json:"gender,omitempty"`

	// cloze
	Blanks         []ClozeBlank `json:"blanks,omitempty"`
	PartialScoring bool         `json:"partial_scoring,omitempty"`

	// matching
	Pairs []MatchPair `json:"pairs,omitempty"`

	// ordering
	Order []string `json:"order,omitempty"`

	// hotspot
	Areas []HotspotArea `json:"areas,omitempty"`
}
