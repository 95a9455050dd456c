package redshard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXAddAutoIDMonotonic(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	id1 := handleXAdd([]string{"s", "*", "field", "v1"}, sess, srv)
	require.Equal(t, BulkString, id1.Type)
	id2 := handleXAdd([]string{"s", "*", "field", "v2"}, sess, srv)

	assert.Less(t, string(id1.Bulk), string(id2.Bulk))
	assert.Equal(t, Int(2), handleXLen([]string{"s"}, sess, srv))
}

func TestXAddExplicitIDMustBeGreater(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	first := handleXAdd([]string{"s", "5-0", "f", "v"}, sess, srv)
	assert.Equal(t, "5-0", string(first.Bulk))

	reply := handleXAdd([]string{"s", "5-0", "f", "v"}, sess, srv)
	assert.Equal(t, ErrorReply, reply.Type)
	assert.Contains(t, reply.Str, "equal or smaller")

	reply = handleXAdd([]string{"s", "4-9", "f", "v"}, sess, srv)
	assert.Equal(t, ErrorReply, reply.Type)

	ok := handleXAdd([]string{"s", "6-0", "f", "v"}, sess, srv)
	assert.Equal(t, "6-0", string(ok.Bulk))
}

func TestXRangeAndXDel(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	handleXAdd([]string{"s", "1-0", "f", "a"}, sess, srv)
	handleXAdd([]string{"s", "2-0", "f", "b"}, sess, srv)
	handleXAdd([]string{"s", "3-0", "f", "c"}, sess, srv)

	reply := handleXRange([]string{"s", "-", "+"}, sess, srv)
	require.Len(t, reply.Array, 3)

	reply = handleXRange([]string{"s", "2-0", "+"}, sess, srv)
	assert.Len(t, reply.Array, 2)

	assert.Equal(t, Int(1), handleXDel([]string{"s", "2-0"}, sess, srv))
	assert.Equal(t, Int(2), handleXLen([]string{"s"}, sess, srv))
}

func TestXInfoStream(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)
	handleXAdd([]string{"s", "1-0", "f", "v"}, sess, srv)

	reply := handleXInfo([]string{"STREAM", "s"}, sess, srv)
	assert.Equal(t, MapValue, reply.Type)

	var lastID string
	for i := 0; i < len(reply.Array); i += 2 {
		if string(reply.Array[i].Bulk) == "last-generated-id" {
			lastID = string(reply.Array[i+1].Bulk)
		}
	}
	assert.Equal(t, "1-0", lastID)

	groups := handleXInfo([]string{"GROUPS", "s"}, sess, srv)
	assert.Equal(t, Array, groups.Type)
	assert.Len(t, groups.Array, 0)
}

func TestJSONSetGetDel(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	doc := `{"a":1,"b":[1,2,3]}`
	reply := handleJSONSet([]string{"j", "$", doc}, sess, srv)
	assert.Equal(t, OK(), reply)

	got := handleJSONGet([]string{"j"}, sess, srv)
	assert.Equal(t, doc, string(got.Bulk))

	assert.Equal(t, Int(1), handleJSONDel([]string{"j"}, sess, srv))
	assert.False(t, srv.store.Exists("j"))
}

func TestJSONSetRejectsInvalidDocument(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	reply := handleJSONSet([]string{"j", "$", "{not valid json"}, sess, srv)
	assert.Equal(t, ErrorReply, reply.Type)
}

func TestJSONSetWrongType(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	handleSet([]string{"k", "v"}, sess, srv)
	reply := handleJSONSet([]string{"k", "$", "{}"}, sess, srv)
	assert.True(t, strings.Contains(reply.Str, "WRONGTYPE"))
}
