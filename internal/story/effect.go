package story

// EffectKind identifies one state-mutating or control-flow operation.
type EffectKind string

const (
	EffectAddItem      EffectKind = "add_item"
	EffectRemoveItem   EffectKind = "remove_item"
	EffectAddCurrency  EffectKind = "add_currency"
	EffectAddStat      EffectKind = "add_stat"
	EffectSetFlag      EffectKind = "set_flag"
	EffectLog          EffectKind = "log"
	EffectGoto         EffectKind = "goto"
	EffectUnlockChoice EffectKind = "unlock_choice"
	EffectLockChoice   EffectKind = "lock_choice"
	EffectSetTimer     EffectKind = "set_timer"
	EffectLootTable    EffectKind = "loot_table"
)

// ValidEffectKinds defines the allowed effect operations.
var ValidEffectKinds = map[EffectKind]bool{
	EffectAddItem:      true,
	EffectRemoveItem:   true,
	EffectAddCurrency:  true,
	EffectAddStat:      true,
	EffectSetFlag:      true,
	EffectLog:          true,
	EffectGoto:         true,
	EffectUnlockChoice: true,
	EffectLockChoice:   true,
	EffectSetTimer:     true,
	EffectLootTable:    true,
}

// Effect is one operation in an ordered effect list. Only the fields
// relevant to Kind are populated.
//
// Amount is the shared magnitude field: item quantity for add_item and
// remove_item (both positive), currency delta for add_currency, stat
// delta for add_stat.
type Effect struct {
	Kind EffectKind `json:"kind"`

	ItemID     string `json:"item_id,omitempty"`
	CurrencyID string `json:"currency_id,omitempty"`
	StatID     string `json:"stat_id,omitempty"`
	Amount     int64  `json:"amount,omitempty"`

	Flag      string `json:"flag,omitempty"`
	FlagValue bool   `json:"flag_value,omitempty"`

	Message string `json:"message,omitempty"` // log
	Target  string `json:"target,omitempty"`  // goto node id

	// lock_choice / unlock_choice. NodeID defaults to the current node
	// when empty.
	NodeID      string `json:"node_id,omitempty"`
	ChoiceIndex int    `json:"choice_index,omitempty"`

	TimerID         string `json:"timer_id,omitempty"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`

	Loot []LootEntry `json:"loot,omitempty"`
}

// LootEntry is one weighted bundle in a loot table. Exactly one entry is
// chosen per draw; its nested effects are applied recursively.
type LootEntry struct {
	Weight  int64    `json:"weight"`
	Effects []Effect `json:"effects"`
}
