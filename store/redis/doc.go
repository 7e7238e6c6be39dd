// Package redis provides Redis implementations of store.ChunkStore and
// store.Cache.
//
// Each collection is one hash ("<prefix>chunks:<collection>") mapping chunk IDs
// to JSON documents. Cache entries are plain string keys under
// "<prefix>cache:" with native Redis expiry.
package redis
