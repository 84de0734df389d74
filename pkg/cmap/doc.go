// Package cmap provides a concurrent map implementation for KevaDB.
//
// This package implements a sharded concurrent map for the server's
// keyspace with the following features:
//
//   - Sharding: Configurable shard count for parallelism
//   - Fine-grained Locking: Per-shard RWMutex for minimal contention
//   - Atomic Updates: Read-modify-write under a single shard lock,
//     which is what conditional writes (SET NX/XX) build on
//   - Iteration: Safe iteration while holding read locks
//
// Keys are strings (or string-derived types); shard selection hashes
// the key with murmur3 so hot key prefixes still spread across shards.
//
// Usage:
//
//	m := cmap.New[string, Entry]()
//	m.Set("key", entry)
//	val, ok := m.Get("key")
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, Has) use RLock,
// write operations (Set, Delete, Update) use Lock.
package cmap
