// Set commands (§4.5 "Sets"): SADD/SREM, SMEMBERS, SISMEMBER, SCARD,
// SPOP, SRANDMEMBER, SUNION.
package redshard

import (
	"math/rand"
	"strconv"
)

func (s *Server) registerSetCommands() {
	s.register(string(CmdSAdd), 2, -1, handleSAdd)
	s.register(string(CmdSRem), 2, -1, handleSRem)
	s.register(string(CmdSMembers), 1, 1, handleSMembers)
	s.register(string(CmdSIsMember), 2, 2, handleSIsMember)
	s.register(string(CmdSCard), 1, 1, handleSCard)
	s.register(string(CmdSPop), 1, 2, handleSPop)
	s.register(string(CmdSRandMember), 1, 2, handleSRandMember)
	s.register(string(CmdSUnion), 1, -1, handleSUnion)
}

func handleSAdd(args []string, sess *Session, srv *Server) RespValue {
	v, err := srv.store.GetOrCreate(args[0], KindSet, newSetValue)
	if err != nil {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	var added int64
	for _, m := range args[1:] {
		if _, exists := v.set[m]; !exists {
			v.set[m] = struct{}{}
			added++
		}
	}
	return Int(added)
}

func handleSRem(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(0)
	}
	if v.Kind != KindSet {
		return wrongTypeErr()
	}

	v.mu.Lock()
	var removed int64
	for _, m := range args[1:] {
		if _, exists := v.set[m]; exists {
			delete(v.set, m)
			removed++
		}
	}
	empty := len(v.set) == 0
	v.mu.Unlock()

	if empty {
		srv.store.RemoveIfEmpty(args[0], v, func(val *Value) bool {
			val.mu.Lock()
			defer val.mu.Unlock()
			return len(val.set) == 0
		})
	}
	return Int(removed)
}

func handleSMembers(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return RespValue{Type: SetValue}
	}
	if v.Kind != KindSet {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	items := make([]RespValue, 0, len(v.set))
	for m := range v.set {
		items = append(items, BulkStr(m))
	}
	return RespValue{Type: SetValue, Array: items}
}

func handleSIsMember(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(0)
	}
	if v.Kind != KindSet {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, exists := v.set[args[1]]; exists {
		return Int(1)
	}
	return Int(0)
}

func handleSCard(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(0)
	}
	if v.Kind != KindSet {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return Int(int64(len(v.set)))
}

func handleSPop(args []string, sess *Session, srv *Server) RespValue {
	count := 1
	hasCount := len(args) == 2
	if hasCount {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return notIntegerErr()
		}
		count = n
	}

	v, ok := srv.store.Get(args[0])
	if !ok {
		if hasCount {
			return ArrayOf()
		}
		return Null()
	}
	if v.Kind != KindSet {
		return wrongTypeErr()
	}

	v.mu.Lock()
	members := make([]string, 0, len(v.set))
	for m := range v.set {
		members = append(members, m)
	}
	rand.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
	if count > len(members) {
		count = len(members)
	}
	popped := members[:count]
	for _, m := range popped {
		delete(v.set, m)
	}
	empty := len(v.set) == 0
	v.mu.Unlock()

	if empty {
		srv.store.RemoveIfEmpty(args[0], v, func(val *Value) bool {
			val.mu.Lock()
			defer val.mu.Unlock()
			return len(val.set) == 0
		})
	}

	if !hasCount {
		if len(popped) == 0 {
			return Null()
		}
		return BulkStr(popped[0])
	}
	items := make([]RespValue, len(popped))
	for i, m := range popped {
		items[i] = BulkStr(m)
	}
	return ArrayOf(items...)
}

func handleSRandMember(args []string, sess *Session, srv *Server) RespValue {
	hasCount := len(args) == 2
	count := 1
	if hasCount {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return notIntegerErr()
		}
		count = n
	}

	v, ok := srv.store.Get(args[0])
	if !ok {
		if hasCount {
			return ArrayOf()
		}
		return Null()
	}
	if v.Kind != KindSet {
		return wrongTypeErr()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	members := make([]string, 0, len(v.set))
	for m := range v.set {
		members = append(members, m)
	}
	rand.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })

	if !hasCount {
		if len(members) == 0 {
			return Null()
		}
		return BulkStr(members[0])
	}

	negative := count < 0
	if negative {
		count = -count
	}
	if !negative && count > len(members) {
		count = len(members)
	}
	out := make([]RespValue, 0, count)
	for i := 0; i < count; i++ {
		if len(members) == 0 {
			break
		}
		idx := i
		if negative {
			idx = rand.Intn(len(members))
		}
		out = append(out, BulkStr(members[idx%len(members)]))
	}
	return ArrayOf(out...)
}

func handleSUnion(args []string, sess *Session, srv *Server) RespValue {
	seen := make(map[string]struct{})
	for _, key := range args {
		v, ok := srv.store.Get(key)
		if !ok {
			continue
		}
		if v.Kind != KindSet {
			return wrongTypeErr()
		}
		v.mu.Lock()
		for m := range v.set {
			seen[m] = struct{}{}
		}
		v.mu.Unlock()
	}
	items := make([]RespValue, 0, len(seen))
	for m := range seen {
		items = append(items, BulkStr(m))
	}
	return RespValue{Type: SetValue, Array: items}
}
