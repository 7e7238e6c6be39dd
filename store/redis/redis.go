package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/graphflow/graphflow/store"
)

// Store implements store.ChunkStore using Redis
type Store struct {
	client *redis.Client
	prefix string
}

var (
	_ store.ChunkStore = (*Store)(nil)
	_ store.Cache      = (*Cache)(nil)
)

// Options configuration for Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // Key prefix, default "graphflow:"
}

// New creates a new Redis store
func New(opts Options) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewWithClient(client, opts.Prefix)
}

// NewWithClient creates a store over an existing client.
func NewWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "graphflow:"
	}
	return &Store{
		client: client,
		prefix: prefix,
	}
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) collectionKey(collection string) string {
	return fmt.Sprintf("%schunks:%s", s.prefix, collection)
}

// Put implements store.ChunkStore.
func (s *Store) Put(ctx context.Context, chunks ...store.Chunk) error {
	pipe := s.client.Pipeline()
	for _, c := range chunks {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal chunk %s: %w", c.ID, err)
		}
		pipe.HSet(ctx, s.collectionKey(c.Collection), c.ID, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save chunks to redis: %w", err)
	}
	return nil
}

// Get implements store.ChunkStore.
func (s *Store) Get(ctx context.Context, collection, id string) (*store.Chunk, error) {
	data, err := s.client.HGet(ctx, s.collectionKey(collection), id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load chunk from redis: %w", err)
	}

	var c store.Chunk
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chunk: %w", err)
	}
	return &c, nil
}

// List implements store.ChunkStore.
func (s *Store) List(ctx context.Context, collection string) ([]store.Chunk, error) {
	values, err := s.client.HGetAll(ctx, s.collectionKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks for collection %s: %w", collection, err)
	}

	chunks := make([]store.Chunk, 0, len(values))
	for id, data := range values {
		var c store.Chunk
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chunk %s: %w", id, err)
		}
		chunks = append(chunks, c)
	}
	store.SortBySeq(chunks)
	return chunks, nil
}

// Delete implements store.ChunkStore.
func (s *Store) Delete(ctx context.Context, collection string) error {
	if err := s.client.Del(ctx, s.collectionKey(collection)).Err(); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", collection, err)
	}
	return nil
}

// Cache implements store.Cache with Redis string keys and native expiry.
type Cache struct {
	client *redis.Client
	prefix string
}

// Cache returns a cache sharing the store's client and prefix.
func (s *Store) Cache() *Cache {
	return &Cache{client: s.client, prefix: s.prefix}
}

func (c *Cache) key(key string) string {
	return fmt.Sprintf("%scache:%s", c.prefix, key)
}

// Get implements store.Cache.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	return data, nil
}

// Set implements store.Cache.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}
