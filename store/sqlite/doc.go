// Package sqlite stores embedded chunks in a SQLite file through
// mattn/go-sqlite3. Embeddings and metadata are kept as JSON text.
package sqlite
