package redshard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoContainsExpectedSections(t *testing.T) {
	srv := NewServerWithConfig(":0", DefaultConfig())
	sess := newSession(1, false)

	reply := handleInfo(nil, sess, srv)
	text := string(reply.Bulk)

	for _, section := range []string{"# Server", "# Clients", "# Memory", "# Replication", "# Stats", "# Keyspace"} {
		assert.True(t, strings.Contains(text, section), "missing section %q", section)
	}
	assert.Contains(t, text, "redis_version:"+srv.Config.RedisCompatibilityVer)
}

func TestCommandCount(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	reply := handleCommand([]string{"COUNT"}, sess, srv)
	assert.Equal(t, Int(int64(len(implementedCommands))), reply)
}

func TestClusterNodesDisabledStub(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	reply := handleCluster([]string{"NODES"}, sess, srv)
	assert.Equal(t, ErrorReply, reply.Type)
	assert.Contains(t, reply.Str, "cluster support disabled")
}

func TestConfigGetKnownAndUnknown(t *testing.T) {
	srv := newTestServer()
	srv.Config = DefaultConfig()
	sess := newSession(1, false)

	reply := handleConfig([]string{"GET", "databases"}, sess, srv)
	assert.Len(t, reply.Array, 2)

	reply = handleConfig([]string{"GET", "nonexistent-param"}, sess, srv)
	assert.Equal(t, Array, reply.Type)
	assert.Len(t, reply.Array, 0)
}

func TestACLWhoAmI(t *testing.T) {
	srv := newTestServer()
	sess := newSession(1, false)

	reply := handleACL([]string{"WHOAMI"}, sess, srv)
	assert.Equal(t, "default", string(reply.Bulk))
}
