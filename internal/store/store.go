package store

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/kevadb/keva-go/pkg/cmap"
)

// Entry is one stored value with its optional expiration instant.
//
// ExpiresAt is Unix milliseconds; zero means the entry never expires.
// Entries are owned by the Store: values handed out by Get are copies
// of the reference held internally and callers must not assume
// aliasing either way.
type Entry struct {
	Value     []byte
	ExpiresAt int64
}

func (e Entry) expired(nowMilli int64) bool {
	return e.ExpiresAt > 0 && e.ExpiresAt <= nowMilli
}

// Store is the concurrency-safe keyspace.
type Store struct {
	entries *cmap.Map[string, Entry]
	clock   func() time.Time

	// expiredEvictions counts entries removed because their TTL had
	// passed, whether lazily or by the sweeper.
	expiredEvictions atomic.Uint64
}

// Option configures the Store.
type Option func(*Store)

// WithShards sets the shard count of the underlying map.
func WithShards(n int) Option {
	return func(s *Store) {
		s.entries = cmap.NewWithShards[string, Entry](n)
	}
}

// WithClock overrides the time source. Used by tests to step
// through expiration without sleeping.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: cmap.New[string, Entry](),
		clock:   time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) nowMilli() int64 {
	return s.clock().UnixMilli()
}

func (s *Store) deadline(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return s.clock().Add(ttl).UnixMilli()
}

// Set stores key→value, overwriting any existing entry unconditionally.
// A positive ttl arms expiration at now+ttl; zero ttl stores without
// expiry.
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	s.entries.Set(key, Entry{Value: value, ExpiresAt: s.deadline(ttl)})
}

// SetNX stores key→value only if the key is absent (expired entries
// count as absent). Returns true if the value was stored.
func (s *Store) SetNX(key string, value []byte, ttl time.Duration) bool {
	now := s.nowMilli()
	stored := false
	s.entries.Update(key, func(cur Entry, exists bool) (Entry, bool) {
		if exists && !cur.expired(now) {
			return cur, true
		}
		if exists {
			s.expiredEvictions.Add(1)
		}
		stored = true
		return Entry{Value: value, ExpiresAt: s.deadline(ttl)}, true
	})
	return stored
}

// SetXX stores key→value only if the key is present and live.
// Returns true if the value was stored.
func (s *Store) SetXX(key string, value []byte, ttl time.Duration) bool {
	now := s.nowMilli()
	stored := false
	s.entries.Update(key, func(cur Entry, exists bool) (Entry, bool) {
		if !exists {
			return Entry{}, false
		}
		if cur.expired(now) {
			s.expiredEvictions.Add(1)
			return Entry{}, false
		}
		stored = true
		return Entry{Value: value, ExpiresAt: s.deadline(ttl)}, true
	})
	return stored
}

// Get returns the value stored under key. Absent and expired keys
// report false; an expired entry is evicted as a side effect of the
// read.
func (s *Store) Get(key string) ([]byte, bool) {
	now := s.nowMilli()
	var (
		value []byte
		found bool
	)
	s.entries.Update(key, func(cur Entry, exists bool) (Entry, bool) {
		if !exists {
			return Entry{}, false
		}
		if cur.expired(now) {
			s.expiredEvictions.Add(1)
			return Entry{}, false
		}
		value = cur.Value
		found = true
		return cur, true
	})
	return value, found
}

// Delete removes the given keys and returns how many were present
// and live.
func (s *Store) Delete(keys ...string) int {
	now := s.nowMilli()
	removed := 0
	for _, key := range keys {
		entry, ok := s.entries.Pop(key)
		if !ok {
			continue
		}
		if entry.expired(now) {
			s.expiredEvictions.Add(1)
			continue
		}
		removed++
	}
	return removed
}

// Exists reports whether key is present and live, evicting it if
// expired.
func (s *Store) Exists(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Expire arms (or rearms) expiration on an existing live key at
// now+ttl. Returns false if the key is absent or expired.
func (s *Store) Expire(key string, ttl time.Duration) bool {
	now := s.nowMilli()
	armed := false
	s.entries.Update(key, func(cur Entry, exists bool) (Entry, bool) {
		if !exists {
			return Entry{}, false
		}
		if cur.expired(now) {
			s.expiredEvictions.Add(1)
			return Entry{}, false
		}
		armed = true
		return Entry{Value: cur.Value, ExpiresAt: s.deadline(ttl)}, true
	})
	return armed
}

// Persist removes the expiration from a live key. Returns true only
// if the key existed and had an expiry to remove.
func (s *Store) Persist(key string) bool {
	now := s.nowMilli()
	persisted := false
	s.entries.Update(key, func(cur Entry, exists bool) (Entry, bool) {
		if !exists {
			return Entry{}, false
		}
		if cur.expired(now) {
			s.expiredEvictions.Add(1)
			return Entry{}, false
		}
		if cur.ExpiresAt == 0 {
			return cur, true
		}
		persisted = true
		return Entry{Value: cur.Value}, true
	})
	return persisted
}

// TTL reports the remaining lifetime of key.
//
// exists is false for absent or expired keys. hasExpiry is false for
// live keys without an expiration. remaining is meaningful only when
// both are true.
func (s *Store) TTL(key string) (remaining time.Duration, hasExpiry, exists bool) {
	now := s.nowMilli()
	s.entries.Update(key, func(cur Entry, ok bool) (Entry, bool) {
		if !ok {
			return Entry{}, false
		}
		if cur.expired(now) {
			s.expiredEvictions.Add(1)
			return Entry{}, false
		}
		exists = true
		if cur.ExpiresAt > 0 {
			hasExpiry = true
			remaining = time.Duration(cur.ExpiresAt-now) * time.Millisecond
		}
		return cur, true
	})
	return remaining, hasExpiry, exists
}

// Keys returns all live keys accepted by filter (nil accepts all).
// Expired-but-unobserved entries are skipped without being evicted;
// the sweeper reclaims them.
func (s *Store) Keys(filter func(string) bool) []string {
	now := s.nowMilli()
	var keys []string
	s.entries.Range(func(key string, entry Entry) bool {
		if entry.expired(now) {
			return true
		}
		if filter == nil || filter(key) {
			keys = append(keys, key)
		}
		return true
	})
	return keys
}

// Scan returns up to count live keys starting at cursor, plus the
// cursor for the next call (0 when iteration is complete). filter
// narrows the returned window without affecting cursor advancement,
// matching SCAN's MATCH semantics. Iteration order is a sorted
// snapshot per call; keys written during a scan may or may not be
// observed.
func (s *Store) Scan(cursor uint64, count int, filter func(string) bool) ([]string, uint64) {
	if count <= 0 {
		count = 10
	}

	all := s.Keys(nil)
	sort.Strings(all)

	if cursor >= uint64(len(all)) {
		return nil, 0
	}

	end := cursor + uint64(count)
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}

	var keys []string
	for _, key := range all[cursor:end] {
		if filter == nil || filter(key) {
			keys = append(keys, key)
		}
	}

	next := end
	if next >= uint64(len(all)) {
		next = 0
	}
	return keys, next
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	now := s.nowMilli()
	n := 0
	s.entries.Range(func(_ string, entry Entry) bool {
		if !entry.expired(now) {
			n++
		}
		return true
	})
	return n
}

// Flush removes every entry.
func (s *Store) Flush() {
	s.entries.Clear()
}

// SweepExpired removes all expired entries and returns the number
// evicted. Called periodically by the Sweeper; safe to call at any
// time.
func (s *Store) SweepExpired() int {
	now := s.nowMilli()

	var stale []string
	s.entries.Range(func(key string, entry Entry) bool {
		if entry.expired(now) {
			stale = append(stale, key)
		}
		return true
	})

	evicted := 0
	for _, key := range stale {
		// Re-check under the shard lock: the entry may have been
		// overwritten since the scan.
		s.entries.Update(key, func(cur Entry, exists bool) (Entry, bool) {
			if !exists {
				return Entry{}, false
			}
			if !cur.expired(now) {
				return cur, true
			}
			evicted++
			s.expiredEvictions.Add(1)
			return Entry{}, false
		})
	}
	return evicted
}

// ExpiredEvictions returns the total number of entries removed due to
// TTL expiry since the store was created.
func (s *Store) ExpiredEvictions() uint64 {
	return s.expiredEvictions.Load()
}
