// Stream commands (§4.5 "Streams", §4.5.1 "Stream id state"): XADD,
// XRANGE, XLEN, XDEL, XINFO STREAM|GROUPS|CONSUMERS.
package redshard

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func (s *Server) registerStreamCommands() {
	s.register(string(CmdXAdd), 4, -1, handleXAdd)
	s.register(string(CmdXRange), 3, 5, handleXRange)
	s.register(string(CmdXLen), 1, 1, handleXLen)
	s.register(string(CmdXDel), 2, -1, handleXDel)
	s.register(string(CmdXInfo), 2, 2, handleXInfo)
}

// handleXAdd implements the id state machine: "*" auto-generates
// "<unix-ms>-<seq>" with seq reset to 0 on a new millisecond and
// incremented within one; an explicit id must be strictly greater
// than last_id or the command fails.
func handleXAdd(args []string, sess *Session, srv *Server) RespValue {
	key, idArg := args[0], args[1]
	fieldArgs := args[2:]
	if len(fieldArgs)%2 != 0 {
		return syntaxErr()
	}

	v, err := srv.store.GetOrCreate(key, KindStream, newStreamValue)
	if err != nil {
		return wrongTypeErr()
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	var ms, seq int64
	if idArg == "*" {
		now := time.Now().UnixMilli()
		if now == v.streamLastMs {
			seq = v.streamLastSeq + 1
		} else {
			seq = 0
		}
		ms = now
		if ms < v.streamLastMs {
			ms = v.streamLastMs
			seq = v.streamLastSeq + 1
		}
	} else {
		parsedMs, parsedSeq, perr := parseStreamID(idArg)
		if perr != nil {
			return Err("ERR Invalid stream ID specified as stream command argument")
		}
		if parsedMs < v.streamLastMs || (parsedMs == v.streamLastMs && parsedSeq <= v.streamLastSeq) {
			return Err("ERR The ID specified in XADD is equal or smaller than the target stream top item")
		}
		ms, seq = parsedMs, parsedSeq
	}

	v.streamLastMs, v.streamLastSeq = ms, seq
	id := fmt.Sprintf("%d-%d", ms, seq)

	fields := make(map[string]string, len(fieldArgs)/2)
	for i := 0; i < len(fieldArgs); i += 2 {
		fields[fieldArgs[i]] = fieldArgs[i+1]
	}
	v.streamEntries = append(v.streamEntries, streamEntry{id: id, ms: ms, seq: seq, fields: fields})

	return BulkStr(id)
}

func parseStreamID(s string) (ms int64, seq int64, err error) {
	parts := strings.SplitN(s, "-", 2)
	ms, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	if len(parts) == 1 {
		return ms, 0, nil
	}
	seq, err = strconv.ParseInt(parts[1], 10, 64)
	return ms, seq, err
}

func handleXRange(args []string, sess *Session, srv *Server) RespValue {
	key, startArg, endArg := args[0], args[1], args[2]
	limit := -1
	if len(args) == 5 {
		if !strings.EqualFold(args[3], "COUNT") {
			return syntaxErr()
		}
		n, err := strconv.Atoi(args[4])
		if err != nil {
			return notIntegerErr()
		}
		limit = n
	}

	v, ok := srv.store.Get(key)
	if !ok {
		return ArrayOf()
	}
	if v.Kind != KindStream {
		return wrongTypeErr()
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	items := make([]RespValue, 0, len(v.streamEntries))
	for _, e := range v.streamEntries {
		if !streamIDInRange(e, startArg, endArg) {
			continue
		}
		items = append(items, entryToResp(e))
		if limit >= 0 && len(items) >= limit {
			break
		}
	}
	return ArrayOf(items...)
}

func streamIDInRange(e streamEntry, startArg, endArg string) bool {
	if startArg != "-" {
		ms, seq, err := parseStreamID(startArg)
		if err == nil && (e.ms < ms || (e.ms == ms && e.seq < seq)) {
			return false
		}
	}
	if endArg != "+" {
		ms, seq, err := parseStreamID(endArg)
		if err == nil && (e.ms > ms || (e.ms == ms && e.seq > seq)) {
			return false
		}
	}
	return true
}

func entryToResp(e streamEntry) RespValue {
	fields := make([]RespValue, 0, len(e.fields)*2)
	for k, val := range e.fields {
		fields = append(fields, BulkStr(k), BulkStr(val))
	}
	return ArrayOf(BulkStr(e.id), ArrayOf(fields...))
}

func handleXLen(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(0)
	}
	if v.Kind != KindStream {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return Int(int64(len(v.streamEntries)))
}

func handleXDel(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(0)
	}
	if v.Kind != KindStream {
		return wrongTypeErr()
	}

	toDelete := make(map[string]struct{}, len(args)-1)
	for _, id := range args[1:] {
		toDelete[id] = struct{}{}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.streamEntries[:0]
	var removed int64
	for _, e := range v.streamEntries {
		if _, match := toDelete[e.id]; match {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	v.streamEntries = kept
	return Int(removed)
}

// handleXInfo implements STREAM|GROUPS|CONSUMERS. Consumer groups are
// always empty (§4.5 — no scripting/consumer-group machinery in
// scope), matching the spec's explicit "consumer groups return empty".
func handleXInfo(args []string, sess *Session, srv *Server) RespValue {
	sub := toUpperASCII(args[0])
	key := args[1]

	switch sub {
	case "GROUPS", "CONSUMERS":
		return ArrayOf()
	case "STREAM":
		v, ok := srv.store.Get(key)
		if !ok {
			return noSuchKeyErr()
		}
		if v.Kind != KindStream {
			return wrongTypeErr()
		}
		v.mu.Lock()
		defer v.mu.Unlock()
		lastID := fmt.Sprintf("%d-%d", v.streamLastMs, v.streamLastSeq)
		return RespValue{Type: MapValue, Array: []RespValue{
			BulkStr("length"), Int(int64(len(v.streamEntries))),
			BulkStr("last-generated-id"), BulkStr(lastID),
			BulkStr("groups"), Int(0),
		}}
	default:
		return unknownSubcommandErr("XINFO", args[0])
	}
}
