package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futig/docqa-backend/internal/entity"
)

func TestMemoryUpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	err := store.Upsert(ctx, "doc-1",
		[]string{"cats are mammals", "fish are not"},
		[][]float32{{1, 0, 0}, {0, 1, 0}},
	)
	require.NoError(t, err)

	results, err := store.Query(ctx, []float32{1, 0, 0}, "doc-1", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "cats are mammals", results[0].Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "doc-1", results[0].Metadata.DocumentID)
	assert.Equal(t, 0, results[0].Metadata.ChunkIndex)
	assert.Equal(t, len("cats are mammals"), results[0].Metadata.ChunkLength)
}

func TestMemoryQueryOrdersByScore(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	err := store.Upsert(ctx, "doc-1",
		[]string{"far", "near", "middle"},
		[][]float32{{0, 1, 0}, {1, 0, 0}, {0.7, 0.7, 0}},
	)
	require.NoError(t, err)

	results, err := store.Query(ctx, []float32{1, 0, 0}, "doc-1", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "near", results[0].Content)
	assert.Equal(t, "middle", results[1].Content)
	assert.Equal(t, "far", results[2].Content)
	assert.True(t, results[0].Score >= results[1].Score)
	assert.True(t, results[1].Score >= results[2].Score)
}

func TestMemoryQueryTieBreaksByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	err := store.Upsert(ctx, "doc-1",
		[]string{"first", "second", "third"},
		[][]float32{{1, 0}, {1, 0}, {1, 0}},
	)
	require.NoError(t, err)

	results, err := store.Query(ctx, []float32{1, 0}, "doc-1", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "first", results[0].Content)
	assert.Equal(t, "second", results[1].Content)
	assert.Equal(t, "third", results[2].Content)
}

func TestMemoryQueryFiltersByDocument(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.Upsert(ctx, "doc-a", []string{"alpha"}, [][]float32{{1, 0}}))
	require.NoError(t, store.Upsert(ctx, "doc-b", []string{"beta"}, [][]float32{{1, 0}}))

	results, err := store.Query(ctx, []float32{1, 0}, "doc-b", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "beta", results[0].Content)

	all, err := store.Query(ctx, []float32{1, 0}, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryDeleteRemovesDocument(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.Upsert(ctx, "doc-a", []string{"alpha"}, [][]float32{{1, 0}}))
	require.NoError(t, store.Upsert(ctx, "doc-b", []string{"beta"}, [][]float32{{0, 1}}))

	require.NoError(t, store.Delete(ctx, "doc-a"))

	results, err := store.Query(ctx, []float32{1, 0}, "doc-a", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryUpsertReplacesExistingChunks(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.Upsert(ctx, "doc-1", []string{"old"}, [][]float32{{0, 1}}))
	require.NoError(t, store.Upsert(ctx, "doc-1", []string{"new"}, [][]float32{{1, 0}}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := store.Query(ctx, []float32{1, 0}, "doc-1", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Content)
}

func TestMemoryUpsertShrinkPrunesStaleChunks(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.Upsert(ctx, "doc-1", []string{"a", "b", "c"}, [][]float32{{1, 0}, {0, 1}, {1, 0}}))
	require.NoError(t, store.Upsert(ctx, "doc-1", []string{"a"}, [][]float32{{1, 0}}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryUpsertValidation(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	err := store.Upsert(ctx, "doc-1", []string{"one", "two"}, [][]float32{{1, 0}})
	assert.ErrorIs(t, err, entity.ErrChunkVectorMismatch)

	require.NoError(t, store.Upsert(ctx, "doc-1", []string{"one"}, [][]float32{{1, 0, 0}}))

	err = store.Upsert(ctx, "doc-2", []string{"two"}, [][]float32{{1, 0}})
	assert.ErrorIs(t, err, entity.ErrDimensionMismatch)
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "doc_abc_chunk_0", ChunkID("abc", 0))
	assert.Equal(t, "doc_abc_chunk_12", ChunkID("abc", 12))
}
