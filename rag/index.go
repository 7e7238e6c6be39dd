package rag

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/tmc/langchaingo/embeddings"

	"github.com/graphflow/graphflow/store"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 4

// SearchResult is a chunk ranked against a query.
type SearchResult struct {
	Chunk store.Chunk
	Score float64
}

// Index is a similarity index over one collection of a ChunkStore.
type Index struct {
	store      store.ChunkStore
	embedder   embeddings.Embedder
	collection string
}

// NewIndex creates an index storing chunks of collection in s.
func NewIndex(s store.ChunkStore, embedder embeddings.Embedder, collection string) *Index {
	return &Index{
		store:      s,
		embedder:   embedder,
		collection: collection,
	}
}

// Collection returns the collection name.
func (idx *Index) Collection() string {
	return idx.collection
}

// Add embeds chunks that have no embedding yet and stores all of them in the
// index collection.
func (idx *Index) Add(ctx context.Context, chunks []store.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	var (
		texts   []string
		missing []int
	)
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			texts = append(texts, c.Content)
			missing = append(missing, i)
		}
	}

	chunks = slices.Clone(chunks)
	if len(texts) > 0 {
		if idx.embedder == nil {
			return errors.New("no embedder configured and chunks have no embedding")
		}
		vectors, err := idx.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
		}
		for j, i := range missing {
			chunks[i].Embedding = vectors[j]
		}
	}

	for i := range chunks {
		chunks[i].Collection = idx.collection
	}
	return idx.store.Put(ctx, chunks...)
}

// Search returns the k chunks most similar to query by cosine similarity.
// Equal scores keep chunk order.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}
	if idx.embedder == nil {
		return nil, errors.New("no embedder configured")
	}

	queryEmbedding, err := idx.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	chunks, err := idx.store.List(ctx, idx.collection)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(chunks))
	for i, c := range chunks {
		results[i] = SearchResult{Chunk: c, Score: cosineSimilarity32(queryEmbedding, c.Embedding)}
	}

	// Sort by similarity score (descending)
	slices.SortStableFunc(results, func(a, b SearchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// cosineSimilarity32 calculates cosine similarity between two float32 vectors
func cosineSimilarity32(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct float64
	var normA float64
	var normB float64

	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
