package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphflow/graphflow/store"
	"github.com/graphflow/graphflow/store/memory"
)

func TestIndexAddAndSearch(t *testing.T) {
	ctx := context.Background()
	s := memory.NewChunkStore()
	idx := NewIndex(s, keywordEmbedder("claim", "premium", "hospital"), "policy")

	chunks := []store.Chunk{
		{ID: "c0", Content: "How to pay your premium", Seq: 0},
		{ID: "c1", Content: "Submit a claim within 30 days. Claim forms are online.", Seq: 1},
		{ID: "c2", Content: "Hospital cover and claim limits", Seq: 2},
		{ID: "c3", Content: "Contact details", Seq: 3},
	}
	require.NoError(t, idx.Add(ctx, chunks))
	assert.Empty(t, chunks[0].Embedding, "Add does not modify its argument")

	stored, err := s.List(ctx, "policy")
	require.NoError(t, err)
	require.Len(t, stored, 4)
	assert.Equal(t, "policy", stored[0].Collection)
	assert.Equal(t, []float32{0, 1, 0}, stored[0].Embedding)

	results, err := idx.Search(ctx, "how do I file a claim?", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// c1 is only about claims, c2 also mentions hospital cover.
	assert.Equal(t, "c1", results[0].Chunk.ID)
	assert.Equal(t, "c2", results[1].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestIndexSearchTiesKeepOrder(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex(memory.NewChunkStore(), keywordEmbedder("claim"), "c")

	require.NoError(t, idx.Add(ctx, []store.Chunk{
		{ID: "first", Content: "claim", Seq: 0},
		{ID: "second", Content: "claim", Seq: 1},
		{ID: "third", Content: "claim", Seq: 2},
	}))

	results, err := idx.Search(ctx, "claim", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Chunk.ID)
	assert.Equal(t, "second", results[1].Chunk.ID)
	assert.Equal(t, "third", results[2].Chunk.ID)
}

func TestIndexKeepsExistingEmbeddings(t *testing.T) {
	ctx := context.Background()
	s := memory.NewChunkStore()
	idx := NewIndex(s, nil, "c")

	require.NoError(t, idx.Add(ctx, []store.Chunk{{ID: "a", Embedding: []float32{1, 0}}}))

	err := idx.Add(ctx, []store.Chunk{{ID: "b", Content: "needs embedding"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedder configured")
}

func TestIndexSearchErrors(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex(memory.NewChunkStore(), keywordEmbedder("x"), "c")

	_, err := idx.Search(ctx, "x", 0)
	assert.Error(t, err)

	results, err := idx.Search(ctx, "x", 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = NewIndex(memory.NewChunkStore(), nil, "c").Search(ctx, "x", 1)
	assert.Error(t, err)
}

type failingStore struct {
	store.ChunkStore
}

func (failingStore) List(ctx context.Context, collection string) ([]store.Chunk, error) {
	return nil, errors.New("store offline")
}

func TestIndexSearchStoreError(t *testing.T) {
	idx := NewIndex(failingStore{}, keywordEmbedder("x"), "c")
	_, err := idx.Search(context.Background(), "x", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store offline")
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity32([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity32([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity32([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosineSimilarity32([]float32{0, 0}, []float32{1, 2}))
}
