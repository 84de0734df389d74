// Package store provides the in-memory keyspace for KevaDB.
//
// The store maps keys to opaque byte-string values with optional
// absolute expiration. It is shared by every client connection for
// the lifetime of the process and is safe for concurrent use: each
// operation is atomic with respect to other operations on the same
// key, backed by the sharded locking in pkg/cmap.
//
// Expiration is lazy: an entry whose deadline has passed is logically
// absent, and any per-key access that observes it evicts it. A
// background Sweeper (see sweeper.go) additionally walks the keyspace
// on an interval so that never-read expired keys do not retain memory
// forever.
//
// There is no capacity bound and no eviction policy beyond TTL.
package store
