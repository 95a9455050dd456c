// Generic key-space commands (§4.5 "Keys"): DEL, EXISTS, KEYS, SCAN,
// TYPE, TTL, EXPIRE, PERSIST, RENAME, DBSIZE, FLUSHDB.
package redshard

import "strconv"

func (s *Server) registerGenericCommands() {
	s.register(string(CmdDel), 1, -1, handleDel)
	s.register(string(CmdExists), 1, -1, handleExists)
	s.register(string(CmdKeys), 1, 1, handleKeys)
	s.register(string(CmdScan), 1, -1, handleScan)
	s.register(string(CmdType), 1, 1, handleType)
	s.register(string(CmdTTL), 1, 1, handleTTL)
	s.register(string(CmdExpire), 2, 2, handleExpire)
	s.register(string(CmdPersist), 1, 1, handlePersist)
	s.register(string(CmdRename), 2, 2, handleRename)
	s.register(string(CmdDBSize), 0, 0, handleDBSize)
	s.register(string(CmdFlushDB), 0, 0, handleFlushDB)
}

func handleDel(args []string, sess *Session, srv *Server) RespValue {
	var n int64
	for _, k := range args {
		if srv.store.Remove(k) {
			n++
		}
	}
	return Int(n)
}

func handleExists(args []string, sess *Session, srv *Server) RespValue {
	var n int64
	for _, k := range args {
		if srv.store.Exists(k) {
			n++
		}
	}
	return Int(n)
}

func handleKeys(args []string, sess *Session, srv *Server) RespValue {
	keys := srv.store.Match(args[0])
	items := make([]RespValue, len(keys))
	for i, k := range keys {
		items[i] = BulkStr(k)
	}
	return ArrayOf(items...)
}

// handleScan implements the spec's deliberately simplified cursor
// contract: always a full sweep, next cursor always "0" (§4.5).
func handleScan(args []string, sess *Session, srv *Server) RespValue {
	pattern := "*"
	for i := 1; i < len(args); i++ {
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

	keys := srv.store.Match(pattern)
	items := make([]RespValue, len(keys))
	for i, k := range keys {
		items[i] = BulkStr(k)
	}
	return ArrayOf(BulkStr("0"), ArrayOf(items...))
}

func handleType(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return RespValue{Type: SimpleString, Str: "none"}
	}
	return RespValue{Type: SimpleString, Str: v.Kind.TypeName()}
}

func handleTTL(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(-2)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return Int(v.ttlSeconds())
}

func handleExpire(args []string, sess *Session, srv *Server) RespValue {
	seconds, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return notIntegerErr()
	}
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(0)
	}
	if seconds <= 0 {
		srv.store.Remove(args[0])
		return Int(1)
	}
	v.mu.Lock()
	v.setExpiration(seconds)
	v.mu.Unlock()
	return Int(1)
}

func handlePersist(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(0)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.expiresAt.IsZero() {
		return Int(0)
	}
	v.removeExpiration()
	return Int(1)
}

func handleRename(args []string, sess *Session, srv *Server) RespValue {
	if !srv.store.Rename(args[0], args[1]) {
		return noSuchKeyErr()
	}
	return OK()
}

func handleDBSize(args []string, sess *Session, srv *Server) RespValue {
	return Int(int64(srv.store.DBSize()))
}

func handleFlushDB(args []string, sess *Session, srv *Server) RespValue {
	srv.store.Clear()
	return OK()
}
