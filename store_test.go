package redshard

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetOrCreateWrongType(t *testing.T) {
	s := NewStore(4, nil)
	_, err := s.GetOrCreate("k", KindString, func() *Value { return newStringValue([]byte("x")) })
	require.NoError(t, err)

	_, err = s.GetOrCreate("k", KindHash, newHashValue)
	assert.ErrorIs(t, err, ErrWrongType)

	// the failed GetOrCreate must not have mutated the existing value
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, KindString, v.Kind)
	assert.Equal(t, "x", string(v.str))
}

func TestStoreLazyExpiry(t *testing.T) {
	s := NewStore(4, nil)
	v := newStringValue([]byte("v"))
	v.setExpiration(-1) // already in the past
	s.AddOrReplace("k", v)

	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.False(t, s.Exists("k"))
	assert.Equal(t, 0, s.DBSize())
}

func TestStoreRemoveIfEmpty(t *testing.T) {
	s := NewStore(4, nil)
	v, err := s.GetOrCreate("k", KindHash, newHashValue)
	require.NoError(t, err)

	v.mu.Lock()
	v.hash["f"] = []byte("v")
	v.mu.Unlock()

	s.RemoveIfEmpty("k", v, func(v *Value) bool { return len(v.hash) == 0 })
	assert.True(t, s.Exists("k"))

	v.mu.Lock()
	delete(v.hash, "f")
	v.mu.Unlock()

	s.RemoveIfEmpty("k", v, func(v *Value) bool { return len(v.hash) == 0 })
	assert.False(t, s.Exists("k"))
}

func TestStoreRename(t *testing.T) {
	s := NewStore(4, nil)
	s.AddOrReplace("src", newStringValue([]byte("v")))

	assert.True(t, s.Rename("src", "dst"))
	assert.False(t, s.Exists("src"))
	v, ok := s.Get("dst")
	require.True(t, ok)
	assert.Equal(t, "v", string(v.str))

	assert.False(t, s.Rename("nope", "dst2"))
}

func TestStoreMatch(t *testing.T) {
	s := NewStore(4, nil)
	for _, k := range []string{"user:1", "user:2", "session:1", "other"} {
		s.AddOrReplace(k, newStringValue(nil))
	}

	assert.ElementsMatch(t, []string{"user:1", "user:2", "session:1", "other"}, s.Match("*"))
	assert.ElementsMatch(t, []string{"user:1", "user:2"}, s.Match("user:*"))
	assert.ElementsMatch(t, []string{"user:1", "session:1"}, s.Match("*:1"))
	assert.ElementsMatch(t, []string{"other"}, s.Match("other"))
}

func TestStoreConcurrentIncrement(t *testing.T) {
	s := NewStore(8, nil)
	const goroutines, perGoroutine = 50, 100

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				incrDecrBy(&Server{store: s}, "counter", 1)
			}
		}()
	}
	wg.Wait()

	v, ok := s.Get("counter")
	require.True(t, ok)
	assert.Equal(t, strconv.Itoa(goroutines*perGoroutine), string(v.str))
}

func TestValueExpirationLifecycle(t *testing.T) {
	v := newStringValue([]byte("x"))
	assert.Equal(t, int64(-1), v.ttlSeconds())
	assert.False(t, v.isExpired(time.Now()))

	v.setExpiration(10)
	assert.InDelta(t, 10, v.ttlSeconds(), 1)

	v.removeExpiration()
	assert.Equal(t, int64(-1), v.ttlSeconds())
}

func TestSortedZSetMembersOrdering(t *testing.T) {
	v := newZSetValue()
	v.zset["b"] = 1
	v.zset["a"] = 1
	v.zset["c"] = 0.5

	members := v.sortedZSetMembers()
	require.Len(t, members, 3)
	assert.Equal(t, "c", members[0].member)
	assert.Equal(t, "a", members[1].member)
	assert.Equal(t, "b", members[2].member)
}
