package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/graphflow/graphflow/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// ChunkStore implements store.ChunkStore using PostgreSQL
type ChunkStore struct {
	pool      DBPool
	tableName string
}

var _ store.ChunkStore = (*ChunkStore)(nil)

// Options configuration for Postgres connection
type Options struct {
	ConnString string
	TableName  string // Default "chunks"
}

// NewChunkStore connects to Postgres and creates the chunk table if needed.
func NewChunkStore(ctx context.Context, opts Options) (*ChunkStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	s := NewChunkStoreWithPool(pool, opts.TableName)
	if err := s.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewChunkStoreWithPool creates a chunk store over an existing pool
// Useful for testing with mocks
func NewChunkStoreWithPool(pool DBPool, tableName string) *ChunkStore {
	if tableName == "" {
		tableName = "chunks"
	}
	return &ChunkStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *ChunkStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding REAL[],
			PRIMARY KEY (collection, id)
		);
	`, s.tableName)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *ChunkStore) Close() {
	s.pool.Close()
}

// Put implements store.ChunkStore.
func (s *ChunkStore) Put(ctx context.Context, chunks ...store.Chunk) error {
	query := fmt.Sprintf(`INSERT INTO %s (collection, id, seq, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (collection, id) DO UPDATE SET
			seq = EXCLUDED.seq,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`, s.tableName)

	for _, c := range chunks {
		metadataJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata of chunk %s: %w", c.ID, err)
		}

		_, err = s.pool.Exec(ctx, query, c.Collection, c.ID, c.Seq, c.Content, metadataJSON, c.Embedding)
		if err != nil {
			return fmt.Errorf("failed to save chunk %s: %w", c.ID, err)
		}
	}
	return nil
}

// Get implements store.ChunkStore.
func (s *ChunkStore) Get(ctx context.Context, collection, id string) (*store.Chunk, error) {
	query := fmt.Sprintf(`SELECT collection, id, seq, content, metadata, embedding FROM %s WHERE collection = $1 AND id = $2`, s.tableName)

	c, err := scanChunk(s.pool.QueryRow(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load chunk: %w", err)
	}
	return c, nil
}

// List implements store.ChunkStore.
func (s *ChunkStore) List(ctx context.Context, collection string) ([]store.Chunk, error) {
	query := fmt.Sprintf(`SELECT collection, id, seq, content, metadata, embedding FROM %s WHERE collection = $1 ORDER BY seq ASC, id ASC`, s.tableName)

	rows, err := s.pool.Query(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []store.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		chunks = append(chunks, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunk rows: %w", err)
	}
	return chunks, nil
}

// Delete implements store.ChunkStore.
func (s *ChunkStore) Delete(ctx context.Context, collection string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE collection = $1", s.tableName)
	_, err := s.pool.Exec(ctx, query, collection)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

func scanChunk(row pgx.Row) (*store.Chunk, error) {
	var (
		c            store.Chunk
		metadataJSON []byte
	)
	if err := row.Scan(&c.Collection, &c.ID, &c.Seq, &c.Content, &metadataJSON, &c.Embedding); err != nil {
		return nil, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &c.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &c, nil
}
