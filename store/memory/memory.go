// Package memory provides in-process implementations of store.ChunkStore and
// store.Cache.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/graphflow/graphflow/store"
)

// ChunkStore keeps chunks in a map per collection.
type ChunkStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]store.Chunk
}

var _ store.ChunkStore = (*ChunkStore)(nil)

// NewChunkStore creates an empty store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{collections: make(map[string]map[string]store.Chunk)}
}

// Put implements store.ChunkStore.
func (s *ChunkStore) Put(ctx context.Context, chunks ...store.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		col, ok := s.collections[c.Collection]
		if !ok {
			col = make(map[string]store.Chunk)
			s.collections[c.Collection] = col
		}
		col[c.ID] = clone(c)
	}
	return nil
}

// Get implements store.ChunkStore.
func (s *ChunkStore) Get(ctx context.Context, collection, id string) (*store.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c = clone(c)
	return &c, nil
}

// List implements store.ChunkStore.
func (s *ChunkStore) List(ctx context.Context, collection string) ([]store.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.collections[collection]
	chunks := make([]store.Chunk, 0, len(col))
	for _, c := range col {
		chunks = append(chunks, clone(c))
	}
	store.SortBySeq(chunks)
	return chunks, nil
}

// Delete implements store.ChunkStore.
func (s *ChunkStore) Delete(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collection)
	return nil
}

func clone(c store.Chunk) store.Chunk {
	c.Metadata = maps.Clone(c.Metadata)
	c.Embedding = slices.Clone(c.Embedding)
	return c
}

type entry struct {
	value   []byte
	expires time.Time
}

// Cache is a map-backed store.Cache. Expired entries are dropped lazily.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

var _ store.Cache = (*Cache)(nil)

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]entry), now: time.Now}
}

// Get implements store.Cache.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, store.ErrNotFound
	}
	return slices.Clone(e.value), nil
}

// Set implements store.Cache.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{value: slices.Clone(value)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}
