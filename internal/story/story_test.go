package story

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupStory() *Story {
	return &Story{
		Title: "Lookups",
		Assets: []Asset{
			{ID: "map", Kind: "image", URI: "assets/map.png"},
		},
		Items: []Item{
			{ID: "lantern"},
			{ID: "coin", Stackable: true, MaxStack: 10},
		},
		Currencies: []Currency{
			{ID: "gold", Initial: 5},
		},
		Stats: []Stat{
			{ID: "courage", Min: 0, Max: 10, Initial: 3},
		},
		Nodes: []Node{
			{ID: "dock", Text: "Gulls wheel overhead."},
			{ID: "market", Text: "Stalls crowd the square."},
		},
	}
}

func TestLookups(t *testing.T) {
	s := lookupStory()

	node, ok := s.NodeByID("market")
	require.True(t, ok)
	assert.Same(t, &s.Nodes[1], node)
	_, ok = s.NodeByID("tavern")
	assert.False(t, ok)

	item, ok := s.ItemByID("coin")
	require.True(t, ok)
	assert.True(t, item.Stackable)
	assert.Equal(t, int64(10), item.MaxStack)
	_, ok = s.ItemByID("sword")
	assert.False(t, ok)

	cur, ok := s.CurrencyByID("gold")
	require.True(t, ok)
	assert.Equal(t, int64(5), cur.Initial)
	_, ok = s.CurrencyByID("silver")
	assert.False(t, ok)

	stat, ok := s.StatByID("courage")
	require.True(t, ok)
	assert.Equal(t, int64(10), stat.Max)
	_, ok = s.StatByID("luck")
	assert.False(t, ok)

	asset, ok := s.AssetByID("map")
	require.True(t, ok)
	assert.Equal(t, "assets/map.png", asset.URI)
	_, ok = s.AssetByID("theme")
	assert.False(t, ok)
}

func TestStart(t *testing.T) {
	s := lookupStory()
	node, ok := s.Start()
	require.True(t, ok)
	assert.Equal(t, "dock", node.ID)

	_, ok = (&Story{}).Start()
	assert.False(t, ok)
}

func TestNodeDecoding(t *testing.T) {
	raw := `{
		"id": "gate",
		"text": "A gate.",
		"on_enter": [{"kind": "set_flag", "flag": "seen_gate", "flag_value": true}],
		"puzzle": {
			"id": "riddle",
			"kind": "free_text",
			"prompt": "Speak.",
			"accept": ["friend"],
			"gate_choices_until_solved": true,
			"on_success": {"goto": "hall"}
		},
		"choices": [
			{
				"label": "Push through",
				"target": "hall",
				"requires": {"req": {"kind": "has_item", "item_id": "crowbar", "value": 1}},
				"disabled_reason": "the gate will not budge"
			}
		]
	}`

	var node Node
	require.NoError(t, json.Unmarshal([]byte(raw), &node))

	require.Len(t, node.OnEnter, 1)
	assert.Equal(t, EffectSetFlag, node.OnEnter[0].Kind)
	assert.True(t, node.OnEnter[0].FlagValue)

	require.NotNil(t, node.Puzzle)
	assert.Equal(t, PuzzleFreeText, node.Puzzle.Kind)
	assert.True(t, node.Puzzle.GateChoices)
	require.NotNil(t, node.Puzzle.OnSuccess)
	assert.Equal(t, "hall", node.Puzzle.OnSuccess.Goto)

	require.Len(t, node.Choices, 1)
	choice := node.Choices[0]
	assert.Equal(t, "the gate will not budge", choice.DisabledReason)
	require.NotNil(t, choice.Requires)
	require.NotNil(t, choice.Requires.Req)
	assert.Equal(t, ReqHasItem, choice.Requires.Req.Kind)
	assert.Equal(t, "crowbar", choice.Requires.Req.ItemID)
}
