package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphflow/graphflow/store"
)

func TestChunkStore_BasicOperations(t *testing.T) {
	t.Parallel()

	s := NewChunkStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx,
		store.Chunk{ID: "b", Collection: "doc", Content: "second", Seq: 1, Embedding: []float32{0, 1}},
		store.Chunk{ID: "a", Collection: "doc", Content: "first", Seq: 0, Metadata: map[string]any{"page": 1}},
		store.Chunk{ID: "x", Collection: "other", Content: "elsewhere"},
	))

	t.Run("list is ordered by seq", func(t *testing.T) {
		chunks, err := s.List(ctx, "doc")
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, "first", chunks[0].Content)
		assert.Equal(t, "second", chunks[1].Content)
	})

	t.Run("get", func(t *testing.T) {
		c, err := s.Get(ctx, "doc", "a")
		require.NoError(t, err)
		assert.Equal(t, 1, c.Metadata["page"])

		_, err = s.Get(ctx, "doc", "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put replaces", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, store.Chunk{ID: "a", Collection: "doc", Content: "rewritten"}))
		c, err := s.Get(ctx, "doc", "a")
		require.NoError(t, err)
		assert.Equal(t, "rewritten", c.Content)

		c, err = s.Get(ctx, "other", "x")
		require.NoError(t, err)
		assert.Equal(t, "elsewhere", c.Content)
	})
}

func TestChunkStore_Isolation(t *testing.T) {
	t.Parallel()

	s := NewChunkStore()
	ctx := context.Background()
	emb := []float32{1, 2}
	require.NoError(t, s.Put(ctx, store.Chunk{ID: "a", Collection: "doc", Embedding: emb}))

	emb[0] = 99
	c, err := s.Get(ctx, "doc", "a")
	require.NoError(t, err)
	assert.Equal(t, float32(1), c.Embedding[0])

	c.Embedding[1] = 42
	again, err := s.Get(ctx, "doc", "a")
	require.NoError(t, err)
	assert.Equal(t, float32(2), again.Embedding[1])
}

func TestChunkStore_Delete(t *testing.T) {
	t.Parallel()

	s := NewChunkStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, store.Chunk{ID: "a", Collection: "doc"}))
	require.NoError(t, s.Delete(ctx, "doc"))

	chunks, err := s.List(ctx, "doc")
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.NoError(t, s.Delete(ctx, "never-existed"))
}

func TestChunkStore_Concurrent(t *testing.T) {
	t.Parallel()

	s := NewChunkStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Put(ctx, store.Chunk{ID: fmt.Sprintf("c%d", i), Collection: "doc", Seq: i})
			_, _ = s.List(ctx, "doc")
		}(i)
	}
	wg.Wait()

	chunks, err := s.List(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, chunks, 50)
	for i, c := range chunks {
		assert.Equal(t, i, c.Seq)
	}
}

func TestCache(t *testing.T) {
	t.Parallel()

	c := NewCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("f"), 0))

	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)

	v, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("f"), v)
}
