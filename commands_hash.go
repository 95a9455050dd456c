// Hash commands (§4.5 "Hashes"): HSET, HMSET, HGET, HGETALL, HDEL,
// HLEN, HEXISTS, HSCAN.
package redshard

func (s *Server) registerHashCommands() {
	s.register(string(CmdHSet), 3, -1, handleHSet)
	s.register(string(CmdHMSet), 3, -1, handleHMSet)
	s.register(string(CmdHGet), 2, 2, handleHGet)
	s.register(string(CmdHGetAll), 1, 1, handleHGetAll)
	s.register(string(CmdHDel), 2, -1, handleHDel)
	s.register(string(CmdHLen), 1, 1, handleHLen)
	s.register(string(CmdHExists), 2, 2, handleHExists)
	s.register(string(CmdHScan), 2, -1, handleHScan)
}

// handleHSet returns the count of fields newly created, not the total
// number of field/value pairs supplied (§4.5).
func handleHSet(args []string, sess *Session, srv *Server) RespValue {
	if len(args)%2 != 1 {
		return arityError(string(CmdHSet))
	}
	key := args[0]
	v, err := srv.store.GetOrCreate(key, KindHash, newHashValue)
	if err != nil {
		return wrongTypeErr()
	}

	v.mu.Lock()
	var created int64
	for i := 1; i < len(args); i += 2 {
		field, val := args[i], args[i+1]
		if _, exists := v.hash[field]; !exists {
			created++
		}
		v.hash[field] = []byte(val)
	}
	v.mu.Unlock()

	return Int(created)
}

func handleHMSet(args []string, sess *Session, srv *Server) RespValue {
	reply := handleHSet(args, sess, srv)
	if reply.Type == ErrorReply {
		return reply
	}
	return OK()
}

func handleHGet(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Null()
	}
	if v.Kind != KindHash {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	val, exists := v.hash[args[1]]
	if !exists {
		return Null()
	}
	return Bulk(val)
}

// handleHGetAll shapes its reply as a RESP3 map or a flat RESP2 array
// of the same key/value pairs; the encoder picks the wire form from
// the session's protocol version (§4.1).
func handleHGetAll(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return RespValue{Type: MapValue}
	}
	if v.Kind != KindHash {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	pairs := make([]RespValue, 0, len(v.hash)*2)
	for field, val := range v.hash {
		pairs = append(pairs, BulkStr(field), Bulk(val))
	}
	return RespValue{Type: MapValue, Array: pairs}
}

func handleHDel(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(0)
	}
	if v.Kind != KindHash {
		return wrongTypeErr()
	}

	v.mu.Lock()
	var removed int64
	for _, field := range args[1:] {
		if _, exists := v.hash[field]; exists {
			delete(v.hash, field)
			removed++
		}
	}
	empty := len(v.hash) == 0
	v.mu.Unlock()

	if empty {
		srv.store.RemoveIfEmpty(args[0], v, func(val *Value) bool {
			val.mu.Lock()
			defer val.mu.Unlock()
			return len(val.hash) == 0
		})
	}
	return Int(removed)
}

func handleHLen(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(0)
	}
	if v.Kind != KindHash {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return Int(int64(len(v.hash)))
}

func handleHExists(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(0)
	}
	if v.Kind != KindHash {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, exists := v.hash[args[1]]; exists {
		return Int(1)
	}
	return Int(0)
}

// handleHScan follows SCAN's simplified cursor contract (§4.5):
// always a full sweep, next cursor always "0".
func handleHScan(args []string, sess *Session, srv *Server) RespValue {
	pattern := "*"
	for i := 2; i < len(args); i++ {
		switch toUpperASCII(args[i]) {
		case "MATCH":
			if i+1 >= len(args) {
				return syntaxErr()
			}
			pattern = args[i+1]
			i++
		case "COUNT":
			if i+1 >= len(args) {
				return syntaxErr()
			}
			i++
		default:
			return syntaxErr()
		}
	}

	v, ok := srv.store.Get(args[0])
	if !ok {
		return ArrayOf(BulkStr("0"), ArrayOf())
	}
	if v.Kind != KindHash {
		return wrongTypeErr()
	}

	match := compileReducedGlob(pattern)
	v.mu.Lock()
	defer v.mu.Unlock()
	items := make([]RespValue, 0, len(v.hash)*2)
	for field, val := range v.hash {
		if match(field) {
			items = append(items, BulkStr(field), Bulk(val))
		}
	}
	return ArrayOf(BulkStr("0"), ArrayOf(items...))
}
