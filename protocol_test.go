package redshard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeOne(t *testing.T, raw []byte) RespValue {
	t.Helper()
	d := NewDecoder()
	d.Feed(raw)
	v, ok, err := d.Next()
	require.NoError(t, err)
	require.True(t, ok)
	return v
}

func TestRESPRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		value   RespValue
		version int
	}{
		{"null resp2", Null(), 2},
		{"null resp3", Null(), 3},
		{"integer", Int(-9223372036854775808), 2},
		{"bulk arbitrary bytes", Bulk([]byte{0, 0xff, '\r', '\n', 'a'}), 2},
		{"array depth", ArrayOf(ArrayOf(Int(1), Int(2)), BulkStr("x")), 2},
		{"resp3 map", RespValue{Type: MapValue, Array: []RespValue{BulkStr("a"), Int(1)}}, 3},
		{"resp3 set", RespValue{Type: SetValue, Array: []RespValue{BulkStr("a")}}, 3},
		{"resp3 double", RespValue{Type: Double, Dbl: 3.25}, 3},
		{"resp3 boolean", RespValue{Type: Boolean, Bool: true}, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wire := Encode(tc.value, tc.version)
			got := decodeOne(t, wire)
			assertValuesEqual(t, tc.value, got, tc.version)
		})
	}
}

// assertValuesEqual compares the logical content the decoder would
// reconstruct, allowing for the RESP2 collapse of map/set/double/
// boolean into their array/bulk/integer analogs.
func assertValuesEqual(t *testing.T, want, got RespValue, version int) {
	t.Helper()
	switch want.Type {
	case MapValue, SetValue:
		if version >= 3 {
			assert.Equal(t, want.Type, got.Type)
		} else {
			assert.Equal(t, Array, got.Type)
		}
		assert.Len(t, got.Array, len(want.Array))
	case Double:
		if version >= 3 {
			assert.Equal(t, Double, got.Type)
			assert.Equal(t, want.Dbl, got.Dbl)
		} else {
			assert.Equal(t, BulkString, got.Type)
		}
	case Boolean:
		if version >= 3 {
			assert.Equal(t, Boolean, got.Type)
			assert.Equal(t, want.Bool, got.Bool)
		} else {
			assert.Equal(t, Integer, got.Type)
		}
	case NullValue:
		assert.Equal(t, NullValue, got.Type)
	default:
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, want.Int, got.Int)
		assert.Equal(t, want.Str, got.Str)
		assert.Equal(t, want.Bulk, got.Bulk)
		assert.Len(t, got.Array, len(want.Array))
	}
}

func TestDecoderRestartability(t *testing.T) {
	full := Encode(ArrayOf(BulkStr("SET"), BulkStr("k"), BulkStr("hello world")), 2)
	full = append(full, Encode(Int(42), 2)...)

	whole := NewDecoder()
	whole.Feed(full)
	var wholeValues []RespValue
	for {
		v, ok, err := whole.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		wholeValues = append(wholeValues, v)
	}

	for chunkSize := 1; chunkSize <= len(full); chunkSize++ {
		d := NewDecoder()
		var chunked []RespValue
		for i := 0; i < len(full); i += chunkSize {
			end := i + chunkSize
			if end > len(full) {
				end = len(full)
			}
			d.Feed(full[i:end])
			for {
				v, ok, err := d.Next()
				require.NoError(t, err)
				if !ok {
					break
				}
				chunked = append(chunked, v)
			}
		}
		require.Len(t, chunked, len(wholeValues))
	}
}

func TestBinarySafeEcho(t *testing.T) {
	payload := []byte{0x00, 0xff, '\r', '\n', 0x7f}
	reply := handleEcho([]string{string(payload)}, newSession(1, false), nil)
	assert.Equal(t, payload, reply.Bulk)
}

func TestDecoderRejectsOversizedBulk(t *testing.T) {
	d := NewDecoder()
	d.maxBulkLen = 4
	d.Feed([]byte("$10\r\n0123456789\r\n"))
	_, ok, err := d.Next()
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestFormatDoubleRoundTrips(t *testing.T) {
	for _, f := range []float64{0, 1, -1, 3.25, 1e300, 1.0 / 3.0} {
		s := formatDouble(f)
		got, err := parseDouble(s)
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}
