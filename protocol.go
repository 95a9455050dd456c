/*
Package redshard implements Redis Serialization Protocol (RESP2/RESP3)
parsing and serialization.

This file is the incremental, byte-level codec (C1): a restartable
decoder state machine that turns a possibly fragmented client byte
stream into a sequence of typed RespValue frames, and an encoder that
renders a logical reply into the wire form the session's negotiated
protocol version expects.

Decoder contract:
  - Feed appends bytes to an internal buffer; it never blocks and never
    reads from a socket itself.
  - Next attempts to parse one complete top-level value from the
    buffered bytes. If there is not yet enough data it returns
    (zero value, false, nil) and leaves the buffer untouched — the
    caller feeds more bytes and tries again. This is what makes the
    decoder restartable: a value split across any number of Feed calls
    parses identically to one delivered whole.
  - Bulk/verbatim/blob-error payloads are taken as exactly the declared
    number of bytes, never interpreted as text, so binary payloads
    (CR, LF, NUL, anything) survive unchanged — this is what keeps
    ECHO byte-exact.

Encoder contract:
  - Encode takes a logical RespValue and a protocol version (2 or 3)
    and returns the wire bytes. Types that exist in both protocols
    (simple string, error, integer, bulk string, array) encode
    identically; RESP3-only shapes (null, boolean, double, map, set)
    collapse to their RESP2 analog when the session negotiated version 2.
*/
package redshard

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrProtocol is wrapped by every decode failure that should close the
// connection per spec.md §7 (Protocol errors).
var ErrProtocol = errors.New("ERR Protocol error")

const (
	defaultMaxArrayLen = 1 << 20        // 2^20 elements
	defaultMaxBulkLen  = 512 * (1 << 20) // 512 MiB
)

// errNeedMore is an internal sentinel: the buffered bytes are a valid
// prefix of a frame but the frame isn't complete yet. It never escapes
// the package.
var errNeedMore = errors.New("redshard: need more data")

// Decoder is the restartable RESP2/RESP3 frame parser (C1).
type Decoder struct {
	buf         []byte
	maxArrayLen int
	maxBulkLen  int
}

// NewDecoder returns a Decoder with the spec's default frame caps.
func NewDecoder() *Decoder {
	return &Decoder{maxArrayLen: defaultMaxArrayLen, maxBulkLen: defaultMaxBulkLen}
}

// Feed appends newly arrived bytes to the decoder's internal buffer.
func (d *Decoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Next attempts to decode one complete top-level value from the
// buffered bytes. ok is false (err nil) when more bytes are needed.
func (d *Decoder) Next() (value RespValue, ok bool, err error) {
	v, n, perr := d.parseValue(d.buf)
	if perr == errNeedMore {
		return RespValue{}, false, nil
	}
	if perr != nil {
		return RespValue{}, false, perr
	}
	d.buf = d.buf[n:]
	return v, true, nil
}

// parseValue parses exactly one RESP value (possibly with leading
// attribute frames, which are consumed and discarded) starting at
// buf[0]. It returns the number of bytes consumed from buf.
func (d *Decoder) parseValue(buf []byte) (RespValue, int, error) {
	total := 0
	for {
		if len(buf) == 0 {
			return RespValue{}, 0, errNeedMore
		}
		marker := buf[0]
		if marker == '|' {
			// Attribute: parse and discard the k/v map, then loop to
			// parse the value it decorates.
			_, n, err := d.parseAggregate(buf, '|', 2)
			if err != nil {
				return RespValue{}, 0, err
			}
			buf = buf[n:]
			total += n
			continue
		}
		v, n, err := d.parseOne(buf)
		if err != nil {
			return RespValue{}, 0, err
		}
		return v, total + n, nil
	}
}

// parseOne parses a single non-attribute frame.
func (d *Decoder) parseOne(buf []byte) (RespValue, int, error) {
	switch buf[0] {
	case '+':
		line, n, ok := readLine(buf[1:])
		if !ok {
			return RespValue{}, 0, errNeedMore
		}
		return RespValue{Type: SimpleString, Str: string(line)}, n + 1, nil
	case '-':
		line, n, ok := readLine(buf[1:])
		if !ok {
			return RespValue{}, 0, errNeedMore
		}
		return RespValue{Type: ErrorReply, Str: string(line)}, n + 1, nil
	case ':':
		line, n, ok := readLine(buf[1:])
		if !ok {
			return RespValue{}, 0, errNeedMore
		}
		i, err := strconv.ParseInt(string(line), 10, 64)
		if err != nil {
			return RespValue{}, 0, protoErrf("invalid integer '%s'", line)
		}
		return RespValue{Type: Integer, Int: i}, n + 1, nil
	case ',':
		line, n, ok := readLine(buf[1:])
		if !ok {
			return RespValue{}, 0, errNeedMore
		}
		f, err := parseDouble(string(line))
		if err != nil {
			return RespValue{}, 0, protoErrf("invalid double '%s'", line)
		}
		return RespValue{Type: Double, Dbl: f}, n + 1, nil
	case '#':
		line, n, ok := readLine(buf[1:])
		if !ok {
			return RespValue{}, 0, errNeedMore
		}
		switch string(line) {
		case "t":
			return RespValue{Type: Boolean, Bool: true}, n + 1, nil
		case "f":
			return RespValue{Type: Boolean, Bool: false}, n + 1, nil
		default:
			return RespValue{}, 0, protoErrf("invalid boolean '%s'", line)
		}
	case '_':
		line, n, ok := readLine(buf[1:])
		if !ok {
			return RespValue{}, 0, errNeedMore
		}
		if len(line) != 0 {
			return RespValue{}, 0, protoErrf("malformed null")
		}
		return RespValue{Type: NullValue}, n + 1, nil
	case '(':
		line, n, ok := readLine(buf[1:])
		if !ok {
			return RespValue{}, 0, errNeedMore
		}
		return RespValue{Type: BigNumber, Str: string(line)}, n + 1, nil
	case '$':
		return d.parseLengthPrefixed(buf, BulkString, true)
	case '!':
		return d.parseLengthPrefixed(buf, BlobError, false)
	case '=':
		return d.parseLengthPrefixed(buf, VerbatimString, false)
	case '*':
		return d.parseAggregate(buf, '*', 1)
	case '%':
		return d.parseAggregate(buf, '%', 2)
	case '~':
		return d.parseAggregate(buf, '~', 1)
	case '>':
		return d.parseAggregate(buf, '>', 1)
	default:
		return RespValue{}, 0, protoErrf("invalid type byte '%c'", buf[0])
	}
}

// parseLengthPrefixed handles $, !, and = frames: a decimal length
// line followed by exactly that many payload bytes and a CRLF. Only
// bulk string ($) accepts a -1 length to mean null.
func (d *Decoder) parseLengthPrefixed(buf []byte, typ RespType, nullable bool) (RespValue, int, error) {
	line, n, ok := readLine(buf[1:])
	if !ok {
		return RespValue{}, 0, errNeedMore
	}
	size, err := strconv.Atoi(string(line))
	if err != nil {
		return RespValue{}, 0, protoErrf("invalid bulk length '%s'", line)
	}
	if size == -1 && nullable {
		return RespValue{Type: NullValue}, n + 1, nil
	}
	if size < 0 {
		return RespValue{}, 0, protoErrf("invalid bulk length %d", size)
	}
	if size > d.maxBulkLen {
		return RespValue{}, 0, protoErrf("bulk length %d exceeds limit", size)
	}
	header := 1 + n
	need := size + 2
	rest := buf[header:]
	if len(rest) < need {
		return RespValue{}, 0, errNeedMore
	}
	payload := make([]byte, size)
	copy(payload, rest[:size])
	if rest[size] != '\r' || rest[size+1] != '\n' {
		return RespValue{}, 0, protoErrf("bulk payload missing CRLF terminator")
	}
	if typ == VerbatimString && size >= 4 && payload[3] == ':' {
		return RespValue{Type: typ, Str: string(payload[:3]), Bulk: payload[4:]}, header + need, nil
	}
	return RespValue{Type: typ, Bulk: payload}, header + need, nil
}

// parseAggregate handles *, %, ~, > and | frames: a decimal count line
// followed by count*multiplier nested values. multiplier is 2 for maps
// and attributes (key, value pairs), 1 otherwise.
func (d *Decoder) parseAggregate(buf []byte, marker byte, multiplier int) (RespValue, int, error) {
	line, n, ok := readLine(buf[1:])
	if !ok {
		return RespValue{}, 0, errNeedMore
	}
	count, err := strconv.Atoi(string(line))
	if err != nil {
		return RespValue{}, 0, protoErrf("invalid aggregate length '%s'", line)
	}
	if count == -1 && marker == '*' {
		return RespValue{Type: NullValue}, n + 1, nil
	}
	if count < 0 {
		return RespValue{}, 0, protoErrf("invalid aggregate length %d", count)
	}
	elems := count * multiplier
	if elems > d.maxArrayLen {
		return RespValue{}, 0, protoErrf("aggregate length %d exceeds limit", count)
	}
	consumed := 1 + n
	rest := buf[consumed:]
	items := make([]RespValue, 0, elems)
	for i := 0; i < elems; i++ {
		v, vn, verr := d.parseValue(rest)
		if verr != nil {
			return RespValue{}, 0, verr
		}
		items = append(items, v)
		rest = rest[vn:]
		consumed += vn
	}
	typ := Array
	switch marker {
	case '%':
		typ = MapValue
	case '~':
		typ = SetValue
	case '>':
		typ = PushValue
	}
	return RespValue{Type: typ, Array: items}, consumed, nil
}

// readLine scans buf for a CRLF (or bare LF) terminator and returns
// the line content (without terminator) and the number of bytes
// consumed including the terminator.
func readLine(buf []byte) (line []byte, n int, ok bool) {
	idx := bytes.IndexByte(buf, '\n')
	if idx < 0 {
		return nil, 0, false
	}
	end := idx
	if end > 0 && buf[end-1] == '\r' {
		end--
	}
	return buf[:end], idx + 1, true
}

func protoErrf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}

func parseDouble(s string) (float64, error) {
	switch s {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	case "nan":
		return math.NaN(), nil
	default:
		return strconv.ParseFloat(s, 64)
	}
}

// formatDouble renders f using the shortest decimal representation
// that round-trips through strconv.ParseFloat — "G17" in spec.md's
// terminology.
func formatDouble(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// Encode renders v as wire bytes for the given negotiated RESP
// protocol version (2 or 3).
func Encode(v RespValue, version int) []byte {
	var b bytes.Buffer
	encodeInto(&b, v, version)
	return b.Bytes()
}

func encodeInto(b *bytes.Buffer, v RespValue, version int) {
	switch v.Type {
	case SimpleString:
		b.WriteByte('+')
		b.WriteString(v.Str)
		b.WriteString("\r\n")
	case ErrorReply:
		b.WriteByte('-')
		b.WriteString(v.Str)
		b.WriteString("\r\n")
	case Integer:
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(v.Int, 10))
		b.WriteString("\r\n")
	case BulkString:
		writeBulkBytes(b, v.Bulk)
	case NullValue:
		if version >= 3 {
			b.WriteString("_\r\n")
		} else {
			b.WriteString("$-1\r\n")
		}
	case Boolean:
		if version >= 3 {
			if v.Bool {
				b.WriteString("#t\r\n")
			} else {
				b.WriteString("#f\r\n")
			}
		} else {
			if v.Bool {
				b.WriteString(":1\r\n")
			} else {
				b.WriteString(":0\r\n")
			}
		}
	case Double:
		s := formatDouble(v.Dbl)
		if version >= 3 {
			b.WriteByte(',')
			b.WriteString(s)
			b.WriteString("\r\n")
		} else {
			writeBulkBytes(b, []byte(s))
		}
	case BigNumber:
		if version >= 3 {
			b.WriteByte('(')
			b.WriteString(v.Str)
			b.WriteString("\r\n")
		} else {
			writeBulkBytes(b, []byte(v.Str))
		}
	case BlobError:
		if version >= 3 {
			b.WriteByte('!')
			b.WriteString(strconv.Itoa(len(v.Bulk)))
			b.WriteString("\r\n")
			b.Write(v.Bulk)
			b.WriteString("\r\n")
		} else {
			b.WriteByte('-')
			b.Write(v.Bulk)
			b.WriteString("\r\n")
		}
	case VerbatimString:
		if version >= 3 {
			b.WriteByte('=')
			b.WriteString(strconv.Itoa(len(v.Bulk) + 4))
			b.WriteString("\r\n")
			typ := v.Str
			if typ == "" {
				typ = "txt"
			}
			b.WriteString(typ)
			b.WriteByte(':')
			b.Write(v.Bulk)
			b.WriteString("\r\n")
		} else {
			writeBulkBytes(b, v.Bulk)
		}
	case Array:
		b.WriteByte('*')
		b.WriteString(strconv.Itoa(len(v.Array)))
		b.WriteString("\r\n")
		for _, it := range v.Array {
			encodeInto(b, it, version)
		}
	case MapValue:
		if version >= 3 {
			b.WriteByte('%')
			b.WriteString(strconv.Itoa(len(v.Array) / 2))
			b.WriteString("\r\n")
			for _, it := range v.Array {
				encodeInto(b, it, version)
			}
		} else {
			b.WriteByte('*')
			b.WriteString(strconv.Itoa(len(v.Array)))
			b.WriteString("\r\n")
			for _, it := range v.Array {
				encodeInto(b, it, version)
			}
		}
	case SetValue:
		if version >= 3 {
			b.WriteByte('~')
		} else {
			b.WriteByte('*')
		}
		b.WriteString(strconv.Itoa(len(v.Array)))
		b.WriteString("\r\n")
		for _, it := range v.Array {
			encodeInto(b, it, version)
		}
	case PushValue:
		if version >= 3 {
			b.WriteByte('>')
		} else {
			b.WriteByte('*')
		}
		b.WriteString(strconv.Itoa(len(v.Array)))
		b.WriteString("\r\n")
		for _, it := range v.Array {
			encodeInto(b, it, version)
		}
	default:
		b.WriteString("-ERR internal server error\r\n")
	}
}

func writeBulkBytes(b *bytes.Buffer, data []byte) {
	if data == nil {
		b.WriteString("$-1\r\n")
		return
	}
	b.WriteByte('$')
	b.WriteString(strconv.Itoa(len(data)))
	b.WriteString("\r\n")
	b.Write(data)
	b.WriteString("\r\n")
}
