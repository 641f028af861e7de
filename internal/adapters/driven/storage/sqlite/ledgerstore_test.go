package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *LedgerStore {
	t.Helper()

	store, err := NewLedgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func entry(sourceID string, at time.Time) driven.LedgerEntry {
	return driven.LedgerEntry{
		SourceID:       sourceID,
		RunID:          "run-" + sourceID,
		ChunkCount:     3,
		EmbeddingModel: "nomic-embed-text",
		Dimensions:     768,
		IngestedAt:     at,
	}
}

func TestLedgerStore_RecordAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.Record(ctx, entry("doc-1", now)))

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.SourceID)
	assert.Equal(t, "run-doc-1", got.RunID)
	assert.Equal(t, 3, got.ChunkCount)
	assert.Equal(t, "nomic-embed-text", got.EmbeddingModel)
	assert.Equal(t, 768, got.Dimensions)
	assert.True(t, got.IngestedAt.Equal(now))
}

func TestLedgerStore_Get_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedgerStore_Record_Replaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := entry("doc-1", time.Now().UTC())
	require.NoError(t, store.Record(ctx, first))

	second := first
	second.RunID = "run-2"
	second.ChunkCount = 9
	second.Dimensions = 1536
	require.NoError(t, store.Record(ctx, second))

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.RunID)
	assert.Equal(t, 9, got.ChunkCount)
	assert.Equal(t, 1536, got.Dimensions)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLedgerStore_List_OrdersByIngestedAtDesc(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, store.Record(ctx, entry("oldest", base.Add(-2*time.Hour))))
	require.NoError(t, store.Record(ctx, entry("newest", base)))
	require.NoError(t, store.Record(ctx, entry("middle", base.Add(-time.Hour))))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "newest", entries[0].SourceID)
	assert.Equal(t, "middle", entries[1].SourceID)
	assert.Equal(t, "oldest", entries[2].SourceID)
}

func TestLedgerStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, entry("doc-1", time.Now().UTC())))
	require.NoError(t, store.Delete(ctx, "doc-1"))

	_, err := store.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting an unknown source is a no-op
	assert.NoError(t, store.Delete(ctx, "never-ingested"))
}

func TestLedgerStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewLedgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, entry("doc-1", time.Now().UTC())))
	require.NoError(t, store.Close())

	reopened, err := NewLedgerStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.SourceID)
}
