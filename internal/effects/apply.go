// Package effects executes ordered effect lists against a GameState.
//
// The effects engine is the only component with write access to the
// state aggregate. Application never short-circuits: each effect in a
// list is attempted even when a prior one failed, failures are
// accumulated in the result, and the first goto encountered anywhere
// (including inside a loot-table draw) wins the jump target.
package effects

import (
	"fmt"
	"time"

	"github.com/roach88/fabula/internal/state"
	"github.com/roach88/fabula/internal/story"
)

// Result reports one Apply call: the ordered log lines, the accumulated
// failures, and the jump target recorded for the caller to act on. The
// engine itself never re-enters a node.
type Result struct {
	Logs     []string `json:"logs,omitempty"`
	Failures []string `json:"failures,omitempty"`
	Goto     string   `json:"goto,omitempty"`
}

// Success reports whether every effect applied cleanly.
func (r *Result) Success() bool {
	return len(r.Failures) == 0
}

// Applier applies effect lists. The random source and clock are injected
// at construction so loot draws and timers are deterministic under test.
type Applier struct {
	roller Roller
	now    func() time.Time
}

// NewApplier creates an Applier. A nil roller falls back to RandRoller;
// a nil now falls back to time.Now.
func NewApplier(roller Roller, now func() time.Time) *Applier {
	if roller == nil {
		roller = RandRoller{}
	}
	if now == nil {
		now = time.Now
	}
	return &Applier{roller: roller, now: now}
}

// Apply executes the effect list in order against st. The story supplies
// clamping bounds and item stackability; it is never written to.
func (a *Applier) Apply(list []story.Effect, st *state.GameState, doc *story.Story) Result {
	var res Result
	for i := range list {
		a.applyOne(&list[i], st, doc, &res)
	}
	return res
}

func (a *Applier) applyOne(e *story.Effect, st *state.GameState, doc *story.Story, res *Result) {
	switch e.Kind {
	case story.EffectAddItem:
		a.adjustItem(e.ItemID, e.Amount, st, doc, res)
	case story.EffectRemoveItem:
		a.adjustItem(e.ItemID, -e.Amount, st, doc, res)
	case story.EffectAddCurrency:
		cur := st.Currencies[e.CurrencyID] + e.Amount
		if cur < 0 {
			cur = 0
		}
		if cur == 0 {
			delete(st.Currencies, e.CurrencyID)
		} else {
			st.Currencies[e.CurrencyID] = cur
		}
		res.Logs = append(res.Logs, fmt.Sprintf("currency %s: %+d -> %d", e.CurrencyID, e.Amount, cur))
	case story.EffectAddStat:
		stat, ok := doc.StatByID(e.StatID)
		if !ok {
			res.Failures = append(res.Failures, fmt.Sprintf("add_stat: unknown stat %q", e.StatID))
			return
		}
		v := st.Stats[e.StatID] + e.Amount
		if v < stat.Min {
			v = stat.Min
		}
		if v > stat.Max {
			v = stat.Max
		}
		st.Stats[e.StatID] = v
		res.Logs = append(res.Logs, fmt.Sprintf("stat %s: %+d -> %d", e.StatID, e.Amount, v))
	case story.EffectSetFlag:
		st.Flags[e.Flag] = e.FlagValue
		res.Logs = append(res.Logs, fmt.Sprintf("flag %s = %t", e.Flag, e.FlagValue))
	case story.EffectLog:
		res.Logs = append(res.Logs, e.Message)
	case story.EffectGoto:
		// First goto wins; later ones still run after it but cannot
		// overwrite the recorded target.
		if res.Goto == "" {
			res.Goto = e.Target
			res.Logs = append(res.Logs, fmt.Sprintf("goto %s", e.Target))
		} else {
			res.Logs = append(res.Logs, fmt.Sprintf("goto %s ignored, target already %s", e.Target, res.Goto))
		}
	case story.EffectUnlockChoice:
		node := e.NodeID
		if node == "" {
			node = st.CurrentNode
		}
		st.UnlockChoice(node, e.ChoiceIndex)
		res.Logs = append(res.Logs, fmt.Sprintf("unlocked choice %d on %s", e.ChoiceIndex, node))
	case story.EffectLockChoice:
		node := e.NodeID
		if node == "" {
			node = st.CurrentNode
		}
		st.LockChoice(node, e.ChoiceIndex)
		res.Logs = append(res.Logs, fmt.Sprintf("locked choice %d on %s", e.ChoiceIndex, node))
	case story.EffectSetTimer:
		expiry := a.now().Add(time.Duration(e.DurationSeconds) * time.Second)
		st.Timers[e.TimerID] = expiry.UnixMilli()
		res.Logs = append(res.Logs, fmt.Sprintf("timer %s set for %ds", e.TimerID, e.DurationSeconds))
	case story.EffectLootTable:
		a.applyLoot(e, st, doc, res)
	default:
		res.Failures = append(res.Failures, fmt.Sprintf("unknown effect kind %q", e.Kind))
	}
}

func (a *Applier) adjustItem(itemID string, delta int64, st *state.GameState, doc *story.Story, res *Result) {
	item, ok := doc.ItemByID(itemID)
	if !ok {
		res.Failures = append(res.Failures, fmt.Sprintf("item effect: unknown item %q", itemID))
		return
	}
	qty := st.Inventory[itemID] + delta
	if qty < 0 {
		qty = 0
	}
	switch {
	case !item.Stackable:
		if qty > 1 {
			qty = 1
		}
	case item.MaxStack > 0:
		if qty > item.MaxStack {
			qty = item.MaxStack
		}
	}
	if qty == 0 {
		delete(st.Inventory, itemID)
	} else {
		st.Inventory[itemID] = qty
	}
	res.Logs = append(res.Logs, fmt.Sprintf("item %s: %+d -> %d", itemID, delta, qty))
}

// applyLoot performs a single weighted draw and recursively applies the
// chosen entry's effects into the same result, preserving first-goto-wins
// across the nesting.
func (a *Applier) applyLoot(e *story.Effect, st *state.GameState, doc *story.Story, res *Result) {
	weights := make([]int64, len(e.Loot))
	for i, entry := range e.Loot {
		weights[i] = entry.Weight
	}
	idx := PickWeighted(weights, a.roller)
	if idx < 0 {
		res.Failures = append(res.Failures, "loot_table: no entry with positive weight")
		return
	}
	res.Logs = append(res.Logs, fmt.Sprintf("loot table drew entry %d", idx))
	for i := range e.Loot[idx].Effects {
		a.applyOne(&e.Loot[idx].Effects[i], st, doc, res)
	}
}
