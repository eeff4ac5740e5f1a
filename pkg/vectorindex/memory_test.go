package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndexSearchOrdersByScore(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx,
		Record{Id: "a", Text: "alpha", Vector: []float32{1, 0}},
		Record{Id: "b", Text: "beta", Vector: []float32{1, 1}},
		Record{Id: "c", Text: "gamma", Vector: []float32{0, 1}},
		Record{Id: "blank", Text: "  ", Vector: []float32{1, 0}},
	))

	hits, err := idx.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ContentId)
	assert.Equal(t, "b", hits[1].ContentId)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestMemoryIndexLimitAndDelete(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx,
		Record{Id: "a", Text: "alpha", Vector: []float32{1, 0}},
		Record{Id: "b", Text: "beta", Vector: []float32{1, 0.5}},
	))

	hits, err := idx.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	ok, err := idx.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = idx.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, idx.Len())
}

func TestMemoryIndexRejectsRecordWithoutVector(t *testing.T) {
	err := NewMemoryIndex().Upsert(context.Background(), Record{Id: "a", Text: "alpha"})
	assert.Error(t, err)
}

func TestMemoryIndexDeleteBook(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx,
		Record{Id: "a1", BookId: "a", Text: "alpha", Vector: []float32{1, 0}},
		Record{Id: "a2", BookId: "a", Text: "alpha two", Vector: []float32{1, 0.2}},
		Record{Id: "b1", BookId: "b", Text: "beta", Vector: []float32{1, 0.5}},
	))

	removed, err := idx.DeleteBook(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, 1, idx.Len())

	hits, err := idx.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b1", hits[0].ContentId)

	removed, err = idx.DeleteBook(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, removed)
}
