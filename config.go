/*
Configuration surface (§6): a flat set of knobs decoded from flags/env
by cmd/redshard-server. Decoding itself goes through mapstructure the
way packetd's config layer does, with spf13/cast covering the
flags-are-all-strings coercions mapstructure doesn't attempt on its
own (e.g. "30" -> time.Duration).
*/
package redshard

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// DecodeConfig builds a Config from an untyped source map (flags or
// env, already lowercased to the mapstructure tag names in Config).
// ReadTimeout/WriteTimeout are excluded from the mapstructure pass
// (tagged "-") because they come from the same duration-ish string
// inputs that need cast's looser coercion rather than mapstructure's
// stricter duration decoding.
func DecodeConfig(src map[string]interface{}) (Config, error) {
	cfg := DefaultConfig()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, fmt.Errorf("building config decoder: %w", err)
	}
	if err := decoder.Decode(src); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if raw, ok := src["read_timeout_seconds"]; ok {
		secs, err := cast.ToInt64E(raw)
		if err != nil {
			return Config{}, fmt.Errorf("read_timeout_seconds: %w", err)
		}
		cfg.ReadTimeout = time.Duration(secs) * time.Second
	}
	if raw, ok := src["write_timeout_seconds"]; ok {
		secs, err := cast.ToInt64E(raw)
		if err != nil {
			return Config{}, fmt.Errorf("write_timeout_seconds: %w", err)
		}
		cfg.WriteTimeout = time.Duration(secs) * time.Second
	}

	return cfg, nil
}
