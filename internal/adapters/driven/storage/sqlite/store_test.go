package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func testGaps() []domain.Gap {
	return []domain.Gap{
		{
			DocumentName: "a.pdf", Page: 3, Type: domain.GapTypeLimitation,
			Description: "Small sample.", Evidence: "a limitation is the sample", Suggestion: "Replicate.",
			InsightScore: 0.876, Title: "Solar Adoption", DOI: "10.1000/xyz", ChunkID: "c1",
			Backend: "cloud/gemini", Trigger: "keyword",
		},
		{
			DocumentName: "b.pdf", Page: 1, Type: domain.GapTypeFutureWork,
			Description: "Lacuna.", Evidence: "há uma lacuna", Suggestion: "Estudar.",
			InsightScore: 0.5, ChunkID: "c9",
		},
	}
}

func TestNewStore_RequiresPath(t *testing.T) {
	_, err := NewStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	for _, table := range []string{"sessions", "gaps"} {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	ctx := context.Background()

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(ctx, "s1", "local/qwen", testGaps()))
	require.NoError(t, store.Close())

	store, err = NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	gaps, err := store.ListGaps(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, gaps, 2)
}

func TestStore_SaveSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, "s1", "cloud/gemini", testGaps()))

	gaps, err := store.ListGaps(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, gaps, 2)

	first := gaps[0]
	assert.Equal(t, "a.pdf", first.DocumentName)
	assert.Equal(t, 3, first.Page)
	assert.Equal(t, domain.GapTypeLimitation, first.Type)
	assert.InDelta(t, 0.88, first.InsightScore, 1e-9)
	assert.Equal(t, "10.1000/xyz", first.DOI)
	assert.Equal(t, "keyword", first.Trigger)

	assert.Equal(t, "há uma lacuna", gaps[1].Evidence)
}

func TestStore_MultipleSessions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, "s1", "local", testGaps()[:1]))
	require.NoError(t, store.SaveSession(ctx, "s2", "cloud", testGaps()[1:]))
	require.NoError(t, store.SaveSession(ctx, "s3", "cloud", nil))

	ids, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "s3"}, ids)

	gaps, err := store.ListGaps(ctx, "s2")
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, "b.pdf", gaps[0].DocumentName)

	gaps, err = store.ListGaps(ctx, "s3")
	require.NoError(t, err)
	assert.Empty(t, gaps)
}

func TestRoundScore(t *testing.T) {
	assert.Equal(t, 0.88, roundScore(0.876))
	assert.Equal(t, 0.5, roundScore(0.5))
	assert.Equal(t, 1.0, roundScore(0.999))
}
