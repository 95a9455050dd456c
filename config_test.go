package redshard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConfigDefaults(t *testing.T) {
	cfg, err := DecodeConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestDecodeConfigOverridesAndTimeouts(t *testing.T) {
	cfg, err := DecodeConfig(map[string]interface{}{
		"port":                  "6380",
		"max_connections":       "500",
		"shard_count":           16,
		"read_timeout_seconds":  "5",
		"write_timeout_seconds": 10,
	})
	require.NoError(t, err)

	assert.Equal(t, uint16(6380), cfg.Port)
	assert.Equal(t, 500, cfg.MaxConnections)
	assert.Equal(t, 16, cfg.ShardCount)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
}

func TestDecodeConfigRejectsBadTimeout(t *testing.T) {
	_, err := DecodeConfig(map[string]interface{}{
		"read_timeout_seconds": "not-a-number",
	})
	assert.Error(t, err)
}
