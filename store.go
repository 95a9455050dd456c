package redshard

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// ErrWrongType signals that GetOrCreate found an existing value of a
// different kind than requested; the caller must translate this into
// a WRONGTYPE reply without having mutated anything.
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

// shard is one lock-striped bucket of the key-space. Splitting the
// store into shards keyed by xxhash(key) mod N — rather than one
// global RWMutex — is what lets concurrent callers from independent
// connections make progress on unrelated keys without contending on a
// single lock (C5).
type shard struct {
	mu   sync.RWMutex
	data map[string]*Value
}

// Store is the concurrent, sharded key-space (C5). All exported
// operations are atomic; Value-internal mutations additionally take
// the Value's own mutex so that concurrent writers to the same key
// still observe a total order without serializing unrelated keys.
type Store struct {
	shards  []*shard
	metrics *serverMetrics // optional; nil is fine, every use is guarded
}

// NewStore builds a Store with shardCount buckets. shardCount is
// rounded up to at least 1. metrics may be nil, in which case the
// store simply doesn't report keyspace hit/miss/expiry counters.
func NewStore(shardCount int, metrics *serverMetrics) *Store {
	if shardCount < 1 {
		shardCount = 1
	}
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{data: make(map[string]*Value)}
	}
	return &Store{shards: shards, metrics: metrics}
}

func (s *Store) shardFor(key string) *shard {
	h := xxhash.Sum64String(key)
	return s.shards[h%uint64(len(s.shards))]
}

// Get returns the value at key if present and not expired. An expired
// value is lazily removed and reported as absent.
func (s *Store) Get(key string) (*Value, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	v, ok := sh.data[key]
	sh.mu.RUnlock()
	if !ok {
		if s.metrics != nil {
			s.metrics.keyspaceMisses.Inc()
		}
		return nil, false
	}
	if v.isExpired(time.Now()) {
		s.expireNow(key)
		if s.metrics != nil {
			s.metrics.keyspaceMisses.Inc()
		}
		return nil, false
	}
	if s.metrics != nil {
		s.metrics.keyspaceHits.Inc()
	}
	return v, true
}

// expireNow removes key if it is still present and still expired,
// re-checking under the write lock to avoid racing a concurrent writer
// that replaced the key in the meantime.
func (s *Store) expireNow(key string) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if v, ok := sh.data[key]; ok && v.isExpired(time.Now()) {
		delete(sh.data, key)
		if s.metrics != nil {
			s.metrics.expiredKeys.Inc()
		}
	}
}

// AddOrReplace unconditionally installs v at key, discarding any prior
// value and its TTL.
func (s *Store) AddOrReplace(key string, v *Value) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	sh.data[key] = v
	sh.mu.Unlock()
}

// GetOrCreate atomically returns the value at key, creating one via
// makeEmpty if absent. If a live value of a different kind already
// exists, it returns ErrWrongType and leaves the key untouched.
func (s *Store) GetOrCreate(key string, kind ValueKind, makeEmpty func() *Value) (*Value, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if v, ok := sh.data[key]; ok {
		if v.isExpired(time.Now()) {
			delete(sh.data, key)
		} else if v.Kind != kind {
			return nil, ErrWrongType
		} else {
			return v, nil
		}
	}
	v := makeEmpty()
	sh.data[key] = v
	return v, nil
}

// Remove deletes key unconditionally and reports whether it existed
// (and was not already expired).
func (s *Store) Remove(key string) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	v, ok := sh.data[key]
	if !ok {
		return false
	}
	delete(sh.data, key)
	return !v.isExpired(time.Now())
}

// RemoveIfEmpty deletes key if the value stored there is both v (not a
// value a concurrent writer has since replaced) and now empty. Used
// after a mutation that may have emptied a collection (§3 lifecycle).
func (s *Store) RemoveIfEmpty(key string, v *Value, empty func(*Value) bool) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if cur, ok := sh.data[key]; ok && cur == v && empty(v) {
		delete(sh.data, key)
	}
}

// Exists reports whether key holds a live (non-expired) value.
func (s *Store) Exists(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// IterActive returns a snapshot of all non-expired keys.
func (s *Store) IterActive() []string {
	now := time.Now()
	var out []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, v := range sh.data {
			if !v.isExpired(now) {
				out = append(out, k)
			}
		}
		sh.mu.RUnlock()
	}
	return out
}

// Match returns the non-expired keys matching the reduced glob pattern
// (§4.4): "*" matches everything; otherwise a pattern is only honored
// if it is an exact match, a "prefix*", a "*suffix", or a
// "prefix*suffix" — anything more elaborate is treated as a literal.
func (s *Store) Match(pattern string) []string {
	match := compileReducedGlob(pattern)
	keys := s.IterActive()
	out := keys[:0:0]
	for _, k := range keys {
		if match(k) {
			out = append(out, k)
		}
	}
	return out
}

// Clear removes every key from every shard.
func (s *Store) Clear() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.data = make(map[string]*Value)
		sh.mu.Unlock()
	}
}

// DBSize returns the number of non-expired keys.
func (s *Store) DBSize() int {
	now := time.Now()
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, v := range sh.data {
			if !v.isExpired(now) {
				n++
			}
		}
		sh.mu.RUnlock()
	}
	return n
}

// Rename moves the value (and TTL) at src to dst, replacing anything
// already at dst. Reports false if src does not hold a live value.
func (s *Store) Rename(src, dst string) bool {
	v, ok := s.Get(src)
	if !ok {
		return false
	}
	s.Remove(src)
	s.AddOrReplace(dst, v)
	return true
}

// compileReducedGlob implements the five-case pattern language from
// spec.md §4.4: "*", exact, "prefix*", "*suffix", "prefix*suffix".
// Anything with more than one "*" or otherwise not matching one of
// these shapes is matched literally (equality only) — this is the
// deliberate restriction spec.md calls out over full Redis globbing.
func compileReducedGlob(pattern string) func(string) bool {
	if pattern == "*" {
		return func(string) bool { return true }
	}
	count := strings.Count(pattern, "*")
	switch {
	case count == 0:
		return func(k string) bool { return k == pattern }
	case count == 1 && strings.HasPrefix(pattern, "*"):
		suffix := pattern[1:]
		return func(k string) bool { return strings.HasSuffix(k, suffix) }
	case count == 1 && strings.HasSuffix(pattern, "*"):
		prefix := pattern[:len(pattern)-1]
		return func(k string) bool { return strings.HasPrefix(k, prefix) }
	case count == 1:
		idx := strings.IndexByte(pattern, '*')
		prefix, suffix := pattern[:idx], pattern[idx+1:]
		return func(k string) bool {
			return len(k) >= len(prefix)+len(suffix) &&
				strings.HasPrefix(k, prefix) && strings.HasSuffix(k, suffix)
		}
	default:
		return func(k string) bool { return k == pattern }
	}
}
