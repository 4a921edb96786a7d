package effects

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fabula/internal/state"
	"github.com/roach88/fabula/internal/story"
	"github.com/roach88/fabula/internal/testutil"
)

func testStory() *story.Story {
	return &story.Story{
		Title: "Test",
		Items: []story.Item{
			{ID: "silver_key"},
			{ID: "coin", Stackable: true, MaxStack: 10},
			{ID: "herb", Stackable: true},
		},
		Currencies: []story.Currency{{ID: "gold"}},
		Stats:      []story.Stat{{ID: "reputation", Min: 0, Max: 10}},
		Nodes:      []story.Node{{ID: "start", Text: "x"}},
	}
}

func fixedApplier(rolls ...int64) *Applier {
	epoch := time.Unix(1700000000, 0).UTC()
	clock := testutil.NewFixedClock(epoch)
	if len(rolls) == 0 {
		return NewApplier(testutil.ZeroRoller{}, clock.Now)
	}
	return NewApplier(testutil.NewFixedRoller(rolls...), clock.Now)
}

func TestApply_AddItemNonStackableCapsAtOne(t *testing.T) {
	doc := testStory()
	st := state.New(doc)
	a := fixedApplier()

	res := a.Apply([]story.Effect{
		{Kind: story.EffectAddItem, ItemID: "silver_key", Amount: 3},
	}, st, doc)
	require.True(t, res.Success())
	assert.Equal(t, int64(1), st.Inventory["silver_key"])

	res = a.Apply([]story.Effect{
		{Kind: story.EffectAddItem, ItemID: "silver_key", Amount: 1},
	}, st, doc)
	require.True(t, res.Success())
	assert.Equal(t, int64(1), st.Inventory["silver_key"])
}

func TestApply_AddItemRespectsMaxStack(t *testing.T) {
	doc := testStory()
	st := state.New(doc)
	a := fixedApplier()

	res := a.Apply([]story.Effect{
		{Kind: story.EffectAddItem, ItemID: "coin", Amount: 25},
	}, st, doc)
	require.True(t, res.Success())
	assert.Equal(t, int64(10), st.Inventory["coin"])
}

func TestApply_StackableWithoutMaxStackIsUnbounded(t *testing.T) {
	doc := testStory()
	st := state.New(doc)
	a := fixedApplier()

	a.Apply([]story.Effect{
		{Kind: story.EffectAddItem, ItemID: "herb", Amount: 999},
	}, st, doc)
	assert.Equal(t, int64(999), st.Inventory["herb"])
}

func TestApply_RemoveItemClampsAtZeroAndDeletesEntry(t *testing.T) {
	doc := testStory()
	st := state.New(doc)
	st.Inventory["coin"] = 3
	a := fixedApplier()

	res := a.Apply([]story.Effect{
		{Kind: story.EffectRemoveItem, ItemID: "coin", Amount: 5},
	}, st, doc)
	require.True(t, res.Success())
	_, present := st.Inventory["coin"]
	assert.False(t, present, "zero quantities should not linger in the map")
}

func TestApply_UnknownItemIsFailureButListContinues(t *testing.T) {
	doc := testStory()
	st := state.New(doc)
	a := fixedApplier()

	res := a.Apply([]story.Effect{
		{Kind: story.EffectAddItem, ItemID: "excalibur", Amount: 1},
		{Kind: story.EffectSetFlag, Flag: "after", FlagValue: true},
	}, st, doc)

	assert.False(t, res.Success())
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "excalibur")
	assert.True(t, st.Flags["after"], "later effects still run after a failure")
}

func TestApply_CurrencyClampsAtZero(t *testing.T) {
	doc := testStory()
	st := state.New(doc)
	st.Currencies["gold"] = 5
	a := fixedApplier()

	a.Apply([]story.Effect{
		{Kind: story.EffectAddCurrency, CurrencyID: "gold", Amount: -20},
	}, st, doc)
	_, present := st.Currencies["gold"]
	assert.False(t, present)
}

func TestApply_StatClampsToCatalogBounds(t *testing.T) {
	doc := testStory()
	st := state.New(doc)
	st.Stats["reputation"] = 9
	a := fixedApplier()

	a.Apply([]story.Effect{
		{Kind: story.EffectAddStat, StatID: "reputation", Amount: 5},
	}, st, doc)
	assert.Equal(t, int64(10), st.Stats["reputation"])

	a.Apply([]story.Effect{
		{Kind: story.EffectAddStat, StatID: "reputation", Amount: -99},
	}, st, doc)
	assert.Equal(t, int64(0), st.Stats["reputation"])
}

func TestApply_UnknownStatIsFailure(t *testing.T) {
	doc := testStory()
	st := state.New(doc)
	a := fixedApplier()

	res := a.Apply([]story.Effect{
		{Kind: story.EffectAddStat, StatID: "luck", Amount: 1},
	}, st, doc)
	assert.False(t, res.Success())
}

func TestApply_FirstGotoWins(t *testing.T) {
	doc := testStory()
	st := state.New(doc)
	a := fixedApplier()

	res := a.Apply([]story.Effect{
		{Kind: story.EffectGoto, Target: "cellar"},
		{Kind: story.EffectSetFlag, Flag: "mid", FlagValue: true},
		{Kind: story.EffectGoto, Target: "attic"},
	}, st, doc)

	assert.Equal(t, "cellar", res.Goto)
	assert.True(t, st.Flags["mid"], "effects after the first goto still run")
}

func TestApply_LockUnlockChoiceDefaultsToCurrentNode(t *testing.T) {
	doc := testStory()
	st := state.New(doc)
	st.CurrentNode = "start"
	a := fixedApplier()

	a.Apply([]story.Effect{
		{Kind: story.EffectLockChoice, ChoiceIndex: 2},
	}, st, doc)
	assert.True(t, st.ChoiceLocked("start", 2))

	a.Apply([]story.Effect{
		{Kind: story.EffectUnlockChoice, NodeID: "start", ChoiceIndex: 2},
	}, st, doc)
	assert.False(t, st.ChoiceLocked("start", 2))
}

func TestApply_SetTimerStoresAbsoluteExpiry(t *testing.T) {
	doc := testStory()
	st := state.New(doc)
	epoch := time.Unix(1700000000, 0).UTC()
	clock := testutil.NewFixedClock(epoch)
	a := NewApplier(testutil.ZeroRoller{}, clock.Now)

	a.Apply([]story.Effect{
		{Kind: story.EffectSetTimer, TimerID: "bomb", DurationSeconds: 60},
	}, st, doc)

	want := epoch.Add(60 * time.Second).UnixMilli()
	assert.Equal(t, want, st.Timers["bomb"])
	assert.True(t, st.TimerActive("bomb", epoch.UnixMilli()))
	assert.False(t, st.TimerActive("bomb", want))
}

func TestApply_LootTableDrawIsScriptable(t *testing.T) {
	doc := testStory()
	loot := story.Effect{
		Kind: story.EffectLootTable,
		Loot: []story.LootEntry{
			{Weight: 1, Effects: []story.Effect{{Kind: story.EffectAddItem, ItemID: "coin", Amount: 1}}},
			{Weight: 3, Effects: []story.Effect{{Kind: story.EffectAddItem, ItemID: "herb", Amount: 1}}},
		},
	}

	// Roll 0 lands in the first entry's weight band.
	st := state.New(doc)
	fixedApplier(0).Apply([]story.Effect{loot}, st, doc)
	assert.Equal(t, int64(1), st.Inventory["coin"])
	assert.Zero(t, st.Inventory["herb"])

	// Roll 1 falls past the first entry's weight of 1.
	st = state.New(doc)
	fixedApplier(1).Apply([]story.Effect{loot}, st, doc)
	assert.Zero(t, st.Inventory["coin"])
	assert.Equal(t, int64(1), st.Inventory["herb"])
}

func TestApply_LootTableGotoPreservesFirstWins(t *testing.T) {
	doc := testStory()
	st := state.New(doc)
	a := fixedApplier()

	res := a.Apply([]story.Effect{
		{Kind: story.EffectGoto, Target: "first"},
		{Kind: story.EffectLootTable, Loot: []story.LootEntry{
			{Weight: 1, Effects: []story.Effect{{Kind: story.EffectGoto, Target: "from_loot"}}},
		}},
	}, st, doc)

	assert.Equal(t, "first", res.Goto)
}

func TestApply_LootTableWithoutPositiveWeightFails(t *testing.T) {
	doc := testStory()
	st := state.New(doc)
	a := fixedApplier()

	res := a.Apply([]story.Effect{
		{Kind: story.EffectLootTable, Loot: []story.LootEntry{{Weight: 0}, {Weight: -2}}},
	}, st, doc)
	assert.False(t, res.Success())
}

func TestApply_UnknownKindIsFailure(t *testing.T) {
	doc := testStory()
	st := state.New(doc)
	a := fixedApplier()

	res := a.Apply([]story.Effect{{Kind: "conjure"}}, st, doc)
	assert.False(t, res.Success())
}

func TestPickWeighted(t *testing.T) {
	tests := []struct {
		name    string
		weights []int64
		roll    int64
		want    int
	}{
		{name: "first band", weights: []int64{2, 3}, roll: 0, want: 0},
		{name: "first band upper edge", weights: []int64{2, 3}, roll: 1, want: 0},
		{name: "second band", weights: []int64{2, 3}, roll: 2, want: 1},
		{name: "skips non-positive", weights: []int64{0, -1, 5}, roll: 0, want: 2},
		{name: "no positive weight", weights: []int64{0, 0}, roll: 0, want: -1},
		{name: "empty", weights: nil, roll: 0, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testutil.NewFixedRoller(tt.roll)
			got := PickWeighted(tt.weights, r)
			if tt.want == -1 {
				// No draw happens when nothing is weighted; the scripted
				// roll must remain unconsumed.
				assert.Equal(t, -1, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
