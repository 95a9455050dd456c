// List commands (§4.5 "Lists"): RPUSH/LPUSH, RPOP/LPOP, LRANGE, LLEN,
// LINDEX, LSET.
package redshard

import "strconv"

func (s *Server) registerListCommands() {
	s.register(string(CmdRPush), 2, -1, handleRPush)
	s.register(string(CmdLPush), 2, -1, handleLPush)
	s.register(string(CmdRPop), 1, 1, handleRPop)
	s.register(string(CmdLPop), 1, 1, handleLPop)
	s.register(string(CmdLRange), 3, 3, handleLRange)
	s.register(string(CmdLLen), 1, 1, handleLLen)
	s.register(string(CmdLIndex), 2, 2, handleLIndex)
	s.register(string(CmdLSet), 3, 3, handleLSet)
}

func handleRPush(args []string, sess *Session, srv *Server) RespValue {
	return pushTo(srv, args[0], args[1:], true)
}

func handleLPush(args []string, sess *Session, srv *Server) RespValue {
	return pushTo(srv, args[0], args[1:], false)
}

func pushTo(srv *Server, key string, values []string, tail bool) RespValue {
	v, err := srv.store.GetOrCreate(key, KindList, newListValue)
	if err != nil {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, val := range values {
		b := []byte(val)
		if tail {
			v.list = append(v.list, b)
		} else {
			v.list = append([][]byte{b}, v.list...)
		}
	}
	return Int(int64(len(v.list)))
}

func handleRPop(args []string, sess *Session, srv *Server) RespValue {
	return popFrom(srv, args[0], true)
}

func handleLPop(args []string, sess *Session, srv *Server) RespValue {
	return popFrom(srv, args[0], false)
}

func popFrom(srv *Server, key string, tail bool) RespValue {
	v, ok := srv.store.Get(key)
	if !ok {
		return Null()
	}
	if v.Kind != KindList {
		return wrongTypeErr()
	}

	v.mu.Lock()
	if len(v.list) == 0 {
		v.mu.Unlock()
		return Null()
	}
	var out []byte
	if tail {
		out = v.list[len(v.list)-1]
		v.list = v.list[:len(v.list)-1]
	} else {
		out = v.list[0]
		v.list = v.list[1:]
	}
	empty := len(v.list) == 0
	v.mu.Unlock()

	if empty {
		srv.store.RemoveIfEmpty(key, v, func(val *Value) bool {
			val.mu.Lock()
			defer val.mu.Unlock()
			return len(val.list) == 0
		})
	}
	return Bulk(out)
}

func handleLRange(args []string, sess *Session, srv *Server) RespValue {
	start, err1 := strconv.Atoi(args[1])
	stop, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		return notIntegerErr()
	}

	v, ok := srv.store.Get(args[0])
	if !ok {
		return ArrayOf()
	}
	if v.Kind != KindList {
		return wrongTypeErr()
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	n := len(v.list)
	if n == 0 {
		return ArrayOf()
	}
	s0 := normalizeIndex(start, n, false)
	e0 := normalizeIndex(stop, n, true)
	if s0 > e0 || s0 >= n {
		return ArrayOf()
	}

	items := make([]RespValue, 0, e0-s0+1)
	for i := s0; i <= e0; i++ {
		items = append(items, Bulk(v.list[i]))
	}
	return ArrayOf(items...)
}

func handleLLen(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(0)
	}
	if v.Kind != KindList {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return Int(int64(len(v.list)))
}

func handleLIndex(args []string, sess *Session, srv *Server) RespValue {
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return notIntegerErr()
	}

	v, ok := srv.store.Get(args[0])
	if !ok {
		return Null()
	}
	if v.Kind != KindList {
		return wrongTypeErr()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if idx < 0 {
		idx = len(v.list) + idx
	}
	if idx < 0 || idx >= len(v.list) {
		return Null()
	}
	return Bulk(v.list[idx])
}

func handleLSet(args []string, sess *Session, srv *Server) RespValue {
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return notIntegerErr()
	}

	v, ok := srv.store.Get(args[0])
	if !ok {
		return noSuchKeyErr()
	}
	if v.Kind != KindList {
		return wrongTypeErr()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if idx < 0 {
		idx = len(v.list) + idx
	}
	if idx < 0 || idx >= len(v.list) {
		return Err("ERR index out of range")
	}
	v.list[idx] = []byte(args[2])
	return OK()
}
