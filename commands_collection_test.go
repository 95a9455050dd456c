package redshard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashOperations(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	reply := handleHSet([]string{"h", "f1", "v1", "f2", "v2"}, sess, srv)
	assert.Equal(t, Int(2), reply) // both fields newly created

	reply = handleHSet([]string{"h", "f1", "v1-updated"}, sess, srv)
	assert.Equal(t, Int(0), reply) // no new field created

	got := handleHGet([]string{"h", "f1"}, sess, srv)
	assert.Equal(t, "v1-updated", string(got.Bulk))

	assert.Equal(t, Int(1), handleHExists([]string{"h", "f2"}, sess, srv))
	assert.Equal(t, Int(0), handleHExists([]string{"h", "nope"}, sess, srv))
	assert.Equal(t, Int(2), handleHLen([]string{"h"}, sess, srv))

	all := handleHGetAll([]string{"h"}, sess, srv)
	assert.Equal(t, MapValue, all.Type)
	assert.Len(t, all.Array, 4)

	assert.Equal(t, Int(2), handleHDel([]string{"h", "f1", "f2"}, sess, srv))
	assert.False(t, srv.store.Exists("h")) // emptied hash is removed
}

func TestListOperations(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	assert.Equal(t, Int(1), handleRPush([]string{"l", "a"}, sess, srv))
	assert.Equal(t, Int(2), handleRPush([]string{"l", "b"}, sess, srv))
	assert.Equal(t, Int(3), handleLPush([]string{"l", "z"}, sess, srv))

	// order should now be z, a, b
	reply := handleLRange([]string{"l", "0", "-1"}, sess, srv)
	require.Len(t, reply.Array, 3)
	assert.Equal(t, "z", string(reply.Array[0].Bulk))
	assert.Equal(t, "a", string(reply.Array[1].Bulk))
	assert.Equal(t, "b", string(reply.Array[2].Bulk))

	assert.Equal(t, "z", string(handleLPop([]string{"l"}, sess, srv).Bulk))
	assert.Equal(t, "b", string(handleRPop([]string{"l"}, sess, srv).Bulk))
	assert.Equal(t, Int(1), handleLLen([]string{"l"}, sess, srv))

	assert.Equal(t, "a", string(handleLIndex([]string{"l", "0"}, sess, srv).Bulk))
	assert.Equal(t, OK(), handleLSet([]string{"l", "0", "replaced"}, sess, srv))
	assert.Equal(t, "replaced", string(handleLIndex([]string{"l", "0"}, sess, srv).Bulk))
}

func TestListPopEmptiesKey(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	handleRPush([]string{"l", "only"}, sess, srv)
	handleRPop([]string{"l"}, sess, srv)
	assert.False(t, srv.store.Exists("l"))
	assert.Equal(t, Null(), handleRPop([]string{"l"}, sess, srv))
}

func TestSetOperations(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	assert.Equal(t, Int(2), handleSAdd([]string{"s", "a", "b"}, sess, srv))
	assert.Equal(t, Int(0), handleSAdd([]string{"s", "a"}, sess, srv))
	assert.Equal(t, Int(2), handleSCard([]string{"s"}, sess, srv))
	assert.Equal(t, Int(1), handleSIsMember([]string{"s", "a"}, sess, srv))
	assert.Equal(t, Int(0), handleSIsMember([]string{"s", "missing"}, sess, srv))

	members := handleSMembers([]string{"s"}, sess, srv)
	assert.Equal(t, SetValue, members.Type)
	assert.Len(t, members.Array, 2)

	assert.Equal(t, Int(1), handleSRem([]string{"s", "a"}, sess, srv))
	assert.Equal(t, Int(1), handleSCard([]string{"s"}, sess, srv))
}

func TestSetUnion(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)
	handleSAdd([]string{"s1", "a", "b"}, sess, srv)
	handleSAdd([]string{"s2", "b", "c"}, sess, srv)

	reply := handleSUnion([]string{"s1", "s2"}, sess, srv)
	assert.Equal(t, SetValue, reply.Type)
	assert.Len(t, reply.Array, 3)
}

func TestZSetOperations(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	assert.Equal(t, Int(3), handleZAdd([]string{"z", "1", "a", "2", "b", "3", "c"}, sess, srv))
	assert.Equal(t, Int(3), handleZCard([]string{"z"}, sess, srv))

	score := handleZScore([]string{"z", "b"}, sess, srv)
	assert.Equal(t, "2", string(score.Bulk))

	reply := handleZRange([]string{"z", "0", "-1"}, sess, srv)
	require.Len(t, reply.Array, 3)
	assert.Equal(t, "a", string(reply.Array[0].Bulk))
	assert.Equal(t, "c", string(reply.Array[2].Bulk))

	withScores := handleZRange([]string{"z", "0", "-1", "WITHSCORES"}, sess, srv)
	assert.Len(t, withScores.Array, 6)

	assert.Equal(t, Int(0), handleZRank([]string{"z", "a"}, sess, srv))
	assert.Equal(t, Int(2), handleZRank([]string{"z", "c"}, sess, srv))

	incr := handleZIncrBy([]string{"z", "5", "a"}, sess, srv)
	assert.Equal(t, "6", string(incr.Bulk))

	byScore := handleZRangeByScore([]string{"z", "2", "3"}, sess, srv)
	require.Len(t, byScore.Array, 2)
}

func TestGenericKeyCommands(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	handleSet([]string{"k1", "v1"}, sess, srv)
	handleSet([]string{"k2", "v2"}, sess, srv)

	assert.Equal(t, Int(2), handleExists([]string{"k1", "k2", "missing"}, sess, srv))
	assert.Equal(t, RespValue{Type: SimpleString, Str: "string"}, handleType([]string{"k1"}, sess, srv))
	assert.Equal(t, RespValue{Type: SimpleString, Str: "none"}, handleType([]string{"missing"}, sess, srv))

	assert.Equal(t, Int(-1), handleTTL([]string{"k1"}, sess, srv))
	assert.Equal(t, Int(1), handleExpire([]string{"k1", "100"}, sess, srv))
	ttl := handleTTL([]string{"k1"}, sess, srv)
	assert.InDelta(t, 100, ttl.Int, 1)

	assert.Equal(t, Int(1), handlePersist([]string{"k1"}, sess, srv))
	assert.Equal(t, Int(-1), handleTTL([]string{"k1"}, sess, srv))

	assert.Equal(t, OK(), handleRename([]string{"k1", "renamed"}, sess, srv))
	assert.False(t, srv.store.Exists("k1"))
	assert.True(t, srv.store.Exists("renamed"))

	assert.Equal(t, Int(2), handleDBSize([]string{}, sess, srv))
	assert.Equal(t, Int(2), handleDel([]string{"renamed", "k2"}, sess, srv))
	assert.Equal(t, Int(0), handleDBSize([]string{}, sess, srv))
}

func TestExpireNonPositiveDeletesImmediately(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)
	handleSet([]string{"k", "v"}, sess, srv)

	reply := handleExpire([]string{"k", "0"}, sess, srv)
	assert.Equal(t, Int(1), reply)
	assert.False(t, srv.store.Exists("k"))
}

func TestKeysAndScanPatterns(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)
	handleSet([]string{"user:1", "a"}, sess, srv)
	handleSet([]string{"user:2", "b"}, sess, srv)
	handleSet([]string{"other", "c"}, sess, srv)

	keys := handleKeys([]string{"user:*"}, sess, srv)
	assert.Len(t, keys.Array, 2)

	scan := handleScan([]string{"0", "MATCH", "user:*"}, sess, srv)
	require.Len(t, scan.Array, 2)
	assert.Equal(t, "0", string(scan.Array[0].Bulk))
	assert.Len(t, scan.Array[1].Array, 2)
}
