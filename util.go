package redshard

import "time"

func timeSinceSeconds(t time.Time) int64 {
	return int64(time.Since(t) / time.Second)
}

// toUpperASCII uppercases using a byte-level routine rather than
// strings.ToUpper's locale-aware casing (§4.1: command/subcommand
// tokens are parsed byte-by-byte, not through a locale-dependent path).
func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// normalizeIndex resolves a possibly-negative Redis-style index
// against length, clamping to [0, length] per §3's "negative = from
// tail" rule. isEnd controls the upper clamp: an inclusive range end
// is clamped to length-1, a range start to length (so a start past the
// end yields an empty range).
func normalizeIndex(idx, length int, isEnd bool) int {
	if idx < 0 {
		idx = length + idx
	}
	if idx < 0 {
		idx = 0
	}
	if isEnd {
		if idx >= length {
			idx = length - 1
		}
	} else if idx > length {
		idx = length
	}
	return idx
}
