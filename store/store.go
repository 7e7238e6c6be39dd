package store

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"
)

// ErrNotFound is returned when a chunk or cache entry does not exist.
var ErrNotFound = errors.New("not found")

// Chunk is a piece of a source document stored with its embedding.
type Chunk struct {
	ID         string         `json:"id"`
	Collection string         `json:"collection"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Embedding  []float32      `json:"embedding,omitempty"`
	// Seq is the position of the chunk within its source document
	Seq int `json:"seq"`
}

// ChunkStore persists embedded chunks grouped in named collections.
type ChunkStore interface {
	// Put inserts chunks, replacing any with the same collection and ID
	Put(ctx context.Context, chunks ...Chunk) error

	// Get retrieves one chunk, or ErrNotFound
	Get(ctx context.Context, collection, id string) (*Chunk, error)

	// List returns every chunk of a collection ordered by Seq
	List(ctx context.Context, collection string) ([]Chunk, error)

	// Delete removes a whole collection
	Delete(ctx context.Context, collection string) error
}

// Cache is a byte-valued key store with expiry.
type Cache interface {
	// Get returns the value for key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key; a zero ttl never expires
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// SortBySeq orders chunks by Seq, then ID.
func SortBySeq(chunks []Chunk) {
	slices.SortFunc(chunks, func(a, b Chunk) int {
		if c := cmp.Compare(a.Seq, b.Seq); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
