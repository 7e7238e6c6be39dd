// Package store defines the persistence contracts used by retrieval and
// tools: ChunkStore for embedded document chunks and Cache for short-lived
// lookup results.
//
// Implementations live in sub-packages:
//   - store/memory: in-process maps, the default for tests and one-off runs
//   - store/sqlite: a single file database through mattn/go-sqlite3
//   - store/postgres: pgx connection pools, REAL[] embeddings and JSONB metadata
//   - store/redis: hashes per collection and expiring cache keys
//
// Chunks are keyed by (Collection, ID). Put is an upsert, so re-indexing a
// document overwrites its chunks instead of duplicating them.
package store
