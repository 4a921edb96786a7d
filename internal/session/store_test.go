package session

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fabula/internal/state"
	"github.com/roach88/fabula/internal/story"
)

// seqGenerator hands out predictable ids for assertions.
type seqGenerator struct {
	n int
}

func (g *seqGenerator) Generate() string {
	g.n++
	return fmt.Sprintf("sess-%03d", g.n)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := Open(path, &seqGenerator{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleState() *state.GameState {
	doc := &story.Story{
		Title:      "Sample",
		Currencies: []story.Currency{{ID: "gold", Initial: 10}},
		Nodes:      []story.Node{{ID: "start", Text: "x"}},
	}
	st := state.New(doc)
	st.CurrentNode = "start"
	st.Visited["start"] = true
	st.Flags["met_witch"] = true
	return st
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path, nil)
		require.NoError(t, err, "open iteration %d", i)
		s.Close()
	}
}

func TestSaveAndLoadByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	st := sampleState()

	saved, err := s.Save(ctx, "alice", "The Cellar Door", st)
	require.NoError(t, err)
	assert.Equal(t, "sess-001", saved.ID)
	assert.Equal(t, "alice", saved.Name)

	loaded, err := s.LoadByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, loaded.ID)
	assert.Equal(t, "The Cellar Door", loaded.StoryTitle)
	assert.Equal(t, st, loaded.State, "snapshot round-trips deep-equal")
}

func TestSave_UpsertKeepsID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, "alice", "Story", sampleState())
	require.NoError(t, err)

	st2 := sampleState()
	st2.Currencies["gold"] = 99
	second, err := s.Save(ctx, "alice", "Story", st2)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	loaded, err := s.LoadByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(99), loaded.State.Currencies["gold"])
}

func TestLoadByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, "alice", "Story", sampleState())
	require.NoError(t, err)

	loaded, err := s.Load(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.Name)

	_, err = s.Load(ctx, "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadByName_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadByName(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "alice", "Story A", sampleState())
	require.NoError(t, err)
	_, err = s.Save(ctx, "bob", "Story B", sampleState())
	require.NoError(t, err)

	sessions, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	names := []string{sessions[0].Name, sessions[1].Name}
	assert.ElementsMatch(t, []string{"alice", "bob"}, names)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "alice", "Story", sampleState())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "alice"))
	_, err = s.LoadByName(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "alice"), ErrNotFound)
}

func TestUUIDv7Generator_ProducesUniqueIDs(t *testing.T) {
	g := UUIDv7Generator{}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := g.Generate()
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
