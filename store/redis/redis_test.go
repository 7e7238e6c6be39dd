package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphflow/graphflow/store"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s := New(Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestChunkStore(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx,
		store.Chunk{ID: "c1", Collection: "policy", Content: "second", Seq: 1, Embedding: []float32{0.5, 0.25}},
		store.Chunk{ID: "c0", Collection: "policy", Content: "first", Seq: 0},
	))
	assert.True(t, mr.Exists("graphflow:chunks:policy"))

	c, err := s.Get(ctx, "policy", "c1")
	require.NoError(t, err)
	assert.Equal(t, "second", c.Content)
	assert.Equal(t, []float32{0.5, 0.25}, c.Embedding)

	_, err = s.Get(ctx, "policy", "c9")
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.List(ctx, "policy")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)
	assert.Equal(t, "second", list[1].Content)

	require.NoError(t, s.Delete(ctx, "policy"))
	list, err = s.List(ctx, "policy")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCache(t *testing.T) {
	s, mr := newTestStore(t)
	cache := s.Cache()
	ctx := context.Background()

	_, err := cache.Get(ctx, "254712345678")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, cache.Set(ctx, "254712345678", []byte(`{"status":"REGISTERED"}`), time.Minute))
	v, err := cache.Get(ctx, "254712345678")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"REGISTERED"}`, string(v))

	mr.FastForward(2 * time.Minute)
	_, err = cache.Get(ctx, "254712345678")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCustomPrefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := New(Options{Addr: mr.Addr(), Prefix: "test:"})
	defer s.Close()

	require.NoError(t, s.Cache().Set(context.Background(), "k", []byte("v"), 0))
	assert.True(t, mr.Exists("test:cache:k"))
}
