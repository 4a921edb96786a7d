package story

// RequirementKind identifies a leaf requirement condition.
type RequirementKind string

const (
	ReqHasItem         RequirementKind = "has_item"          // inventory[item] >= Value
	ReqInventoryBelow  RequirementKind = "inventory_below"   // inventory[item] < Value
	ReqCurrencyAtLeast RequirementKind = "currency_at_least" // currency >= Value
	ReqCurrencyBelow   RequirementKind = "currency_below"    // currency < Value
	ReqStatAtLeast     RequirementKind = "stat_at_least"     // stat >= Value
	ReqStatBetween     RequirementKind = "stat_between"      // Min <= stat <= Max
	ReqFlagEquals      RequirementKind = "flag_equals"       // flag == Equals
	ReqPuzzleSolved    RequirementKind = "puzzle_solved"     // puzzle state solved
	ReqNodeVisited     RequirementKind = "node_visited"      // node in visited set
)

// ValidRequirementKinds defines the allowed leaf requirement kinds.
var ValidRequirementKinds = map[RequirementKind]bool{
	ReqHasItem:         true,
	ReqInventoryBelow:  true,
	ReqCurrencyAtLeast: true,
	ReqCurrencyBelow:   true,
	ReqStatAtLeast:     true,
	ReqStatBetween:     true,
	ReqFlagEquals:      true,
	ReqPuzzleSolved:    true,
	ReqNodeVisited:     true,
}

// Requirement is a leaf condition over game state. Only the fields
// relevant to Kind are populated; an incomplete leaf evaluates to false
// with a warning, never an error.
type Requirement struct {
	Kind RequirementKind `json:"kind"`

	ItemID     string `json:"item_id,omitempty"`
	CurrencyID string `json:"currency_id,omitempty"`
	StatID     string `json:"stat_id,omitempty"`
	Flag       string `json:"flag,omitempty"`
	PuzzleID   string `json:"puzzle_id,omitempty"`
	NodeID     string `json:"node_id,omitempty"`

	Value  int64 `json:"value,omitempty"` // threshold/quantity
	Min    int64 `json:"min,omitempty"`   // stat_between lower bound
	Max    int64 `json:"max,omitempty"`   // stat_between upper bound
	Equals bool  `json:"equals,omitempty"` // flag_equals expected value
}

// RequirementExpr is a recursive boolean formula: exactly one of the four
// arms should be set. AllOf is a short-circuiting conjunction, AnyOf a
// short-circuiting disjunction, Not a negation, Req a leaf condition.
//
// A nil *RequirementExpr means "no requirement" and evaluates to true,
// which is distinct from a requirement that evaluates to false.
type RequirementExpr struct {
	AllOf []RequirementExpr `json:"all_of,omitempty"`
	AnyOf []RequirementExpr `json:"any_of,omitempty"`
	Not   *RequirementExpr  `json:"not,omitempty"`
	Req   *Requirement      `json:"req,omitempty"`
}
