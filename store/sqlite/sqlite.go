package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/graphflow/graphflow/store"
)

// ChunkStore implements store.ChunkStore using SQLite
type ChunkStore struct {
	db        *sql.DB
	tableName string
}

var _ store.ChunkStore = (*ChunkStore)(nil)

// Options configuration for SQLite connection
type Options struct {
	Path      string
	TableName string // Default "chunks"
}

// NewChunkStore opens the database and creates the chunk table if needed.
func NewChunkStore(opts Options) (*ChunkStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "chunks"
	}

	s := &ChunkStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *ChunkStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			content TEXT NOT NULL,
			metadata TEXT,
			embedding TEXT,
			PRIMARY KEY (collection, id)
		);
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *ChunkStore) Close() error {
	return s.db.Close()
}

// Put implements store.ChunkStore. All chunks are written in one transaction.
func (s *ChunkStore) Put(ctx context.Context, chunks ...store.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := fmt.Sprintf(`
		INSERT INTO %s (collection, id, seq, content, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			seq = excluded.seq,
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding
	`, s.tableName)

	for _, c := range chunks {
		metadataJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata of chunk %s: %w", c.ID, err)
		}
		embeddingJSON, err := json.Marshal(c.Embedding)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding of chunk %s: %w", c.ID, err)
		}

		if _, err := tx.ExecContext(ctx, query, c.Collection, c.ID, c.Seq, c.Content, string(metadataJSON), string(embeddingJSON)); err != nil {
			return fmt.Errorf("failed to save chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// Get implements store.ChunkStore.
func (s *ChunkStore) Get(ctx context.Context, collection, id string) (*store.Chunk, error) {
	query := fmt.Sprintf(`
		SELECT collection, id, seq, content, metadata, embedding
		FROM %s
		WHERE collection = ? AND id = ?
	`, s.tableName)

	c, err := scanChunk(s.db.QueryRowContext(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load chunk: %w", err)
	}
	return c, nil
}

// List implements store.ChunkStore.
func (s *ChunkStore) List(ctx context.Context, collection string) ([]store.Chunk, error) {
	query := fmt.Sprintf(`
		SELECT collection, id, seq, content, metadata, embedding
		FROM %s
		WHERE collection = ?
		ORDER BY seq ASC, id ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, collection)
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
	query := fmt.Sprintf("DELETE FROM %s WHERE collection = ?", s.tableName)
	_, err := s.db.ExecContext(ctx, query, collection)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChunk(row scanner) (*store.Chunk, error) {
	var (
		c             store.Chunk
		metadataJSON  sql.NullString
		embeddingJSON sql.NullString
	)
	if err := row.Scan(&c.Collection, &c.ID, &c.Seq, &c.Content, &metadataJSON, &embeddingJSON); err != nil {
		return nil, err
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &c.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	if embeddingJSON.Valid && embeddingJSON.String != "" {
		if err := json.Unmarshal([]byte(embeddingJSON.String), &c.Embedding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
		}
	}
	return &c, nil
}
