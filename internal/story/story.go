package story

// Story is the root of an authored story document: metadata, catalogs,
// and the ordered list of nodes. Loaded once, treated as read-only.
type Story struct {
	Title    string `json:"title"`
	Language string `json:"language,omitempty"`
	Version  string `json:"version,omitempty"`

	Assets     []Asset    `json:"assets,omitempty"`
	Items      []Item     `json:"items,omitempty"`
	Currencies []Currency `json:"currencies,omitempty"`
	Stats      []Stat     `json:"stats,omitempty"`

	Nodes []Node `json:"nodes"`
}

// Asset is a declared media resource referenced by nodes and puzzles.
type Asset struct {
	ID   string `json:"id"`
	Kind string `json:"kind,omitempty"` // "image", "audio", "video"
	URI  string `json:"uri"`
}

// Item is a catalog entry for an inventory item. MaxStack is only
// meaningful when Stackable is true; zero means uncapped.
type Item struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Stackable bool   `json:"stackable,omitempty"`
	MaxStack  int64  `json:"max_stack,omitempty"`
}

// Currency is a catalog entry for a named currency.
type Currency struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Initial int64  `json:"initial,omitempty"`
}

// Stat is a catalog entry for a bounded numeric stat. The effects engine
// clamps every mutation to [Min, Max].
type Stat struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Min     int64  `json:"min"`
	Max     int64  `json:"max"`
	Initial int64  `json:"initial,omitempty"`
}

// Node is one narrative beat: text, media, optional on-enter effects,
// optional puzzle, optional choices. An ending node has no choices.
type Node struct {
	ID     string `json:"id"`
	Part   int    `json:"part,omitempty"`
	Ending bool   `json:"ending,omitempty"`

	Title string   `json:"title,omitempty"`
	Text  string   `json:"text"`
	Media []string `json:"media,omitempty"` // asset ids

	OnEnter []Effect `json:"on_enter,omitempty"`
	Puzzle  *Puzzle  `json:"puzzle,omitempty"`
	Choices []Choice `json:"choices,omitempty"`
}

// Choice is a labeled transition to another node, optionally gated by a
// requirement expression and carrying its own effect list.
type Choice struct {
	Label          string           `json:"label"`
	Target         string           `json:"target"`
	Requires       *RequirementExpr `json:"requires,omitempty"`
	Effects        []Effect         `json:"effects,omitempty"`
	DisabledReason string           `json:"disabled_reason,omitempty"`
}

// NodeByID returns the node with the given id. Stories are small enough
// that a linear scan beats maintaining an index on an immutable value.
func (s *Story) NodeByID(id string) (*Node, bool) {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i], true
		}
	}
	return nil, false
}

// ItemByID returns the catalog entry for an item id.
func (s *Story) ItemByID(id string) (*Item, bool) {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// CurrencyByID returns the catalog entry for a currency id.
func (s *Story) CurrencyByID(id string) (*Currency, bool) {
	for i := range s.Currencies {
		if s.Currencies[i].ID == id {
			return &s.Currencies[i], true
		}
	}
	return nil, false
}

// StatByID returns the catalog entry for a stat id.
func (s *Story) StatByID(id string) (*Stat, bool) {
	for i := range s.Stats {
		if s.Stats[i].ID == id {
			return &s.Stats[i], true
		}
	}
	return nil, false
}

// AssetByID returns the catalog entry for an asset id.
func (s *Story) AssetByID(id string) (*Asset, bool) {
	for i := range s.Assets {
		if s.Assets[i].ID == id {
			return &s.Assets[i], true
		}
	}
	return nil, false
}

// Start returns the first node in declaration order, the default entry
// point when no explicit start override is given.
func (s *Story) Start() (*Node, bool) {
	if len(s.Nodes) == 0 {
		return nil, false
	}
	return &s.Nodes[0], true
}
