package redshard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshotReflectsIncrements(t *testing.T) {
	m := newServerMetrics()
	m.commandsProcessed.Inc()
	m.commandsProcessed.Inc()
	m.connectedClients.Inc()

	commands, clients, expired, hits, misses := m.snapshot()
	assert.Equal(t, float64(2), commands)
	assert.Equal(t, float64(1), clients)
	assert.Equal(t, float64(0), expired)
	assert.Equal(t, float64(0), hits)
	assert.Equal(t, float64(0), misses)
}

// TestStoreDrivesKeyspaceMetrics exercises the counters through real
// Store operations rather than asserting them directly, so a future
// regression that stops wiring Get/expireNow to metrics gets caught
// here instead of just asserting zero.
func TestStoreDrivesKeyspaceMetrics(t *testing.T) {
	m := newServerMetrics()
	s := NewStore(4, m)

	s.AddOrReplace("k", newStringValue([]byte("v")))
	_, ok := s.Get("k")
	assert.True(t, ok)

	_, ok = s.Get("missing")
	assert.False(t, ok)

	expiring := newStringValue([]byte("v"))
	expiring.setExpiration(-1)
	s.AddOrReplace("gone", expiring)
	_, ok = s.Get("gone")
	assert.False(t, ok)

	_, _, expired, hits, misses := m.snapshot()
	assert.Equal(t, float64(1), expired)
	assert.Equal(t, float64(1), hits)
	assert.Equal(t, float64(2), misses)
}

func TestRunIDIsUnique(t *testing.T) {
	a := newRunID()
	b := newRunID()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}
