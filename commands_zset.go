// Sorted set commands (§4.5 "Sorted sets"): ZADD, ZREM, ZSCORE,
// ZCARD, ZRANGE, ZINCRBY, ZRANGEBYSCORE, ZRANK.
package redshard

import (
	"strconv"
	"strings"
)

func (s *Server) registerZSetCommands() {
	s.register(string(CmdZAdd), 3, -1, handleZAdd)
	s.register(string(CmdZRem), 2, -1, handleZRem)
	s.register(string(CmdZScore), 2, 2, handleZScore)
	s.register(string(CmdZCard), 1, 1, handleZCard)
	s.register(string(CmdZRange), 3, 4, handleZRange)
	s.register(string(CmdZIncrBy), 3, 3, handleZIncrBy)
	s.register(string(CmdZRangeByScore), 3, 3, handleZRangeByScore)
	s.register(string(CmdZRank), 2, 3, handleZRank)
}

func handleZAdd(args []string, sess *Session, srv *Server) RespValue {
	if len(args)%2 != 1 {
		return syntaxErr()
	}
	v, err := srv.store.GetOrCreate(args[0], KindZSet, newZSetValue)
	if err != nil {
		return wrongTypeErr()
	}

	type pair struct {
		score  float64
		member string
	}
	pairs := make([]pair, 0, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		score, perr := strconv.ParseFloat(args[i], 64)
		if perr != nil {
			return notFloatErr()
		}
		pairs = append(pairs, pair{score, args[i+1]})
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	var added int64
	for _, p := range pairs {
		if _, exists := v.zset[p.member]; !exists {
			added++
		}
		v.zset[p.member] = p.score
	}
	return Int(added)
}

func handleZRem(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(0)
	}
	if v.Kind != KindZSet {
		return wrongTypeErr()
	}

	v.mu.Lock()
	var removed int64
	for _, m := range args[1:] {
		if _, exists := v.zset[m]; exists {
			delete(v.zset, m)
			removed++
		}
	}
	empty := len(v.zset) == 0
	v.mu.Unlock()

	if empty {
		srv.store.RemoveIfEmpty(args[0], v, func(val *Value) bool {
			val.mu.Lock()
			defer val.mu.Unlock()
			return len(val.zset) == 0
		})
	}
	return Int(removed)
}

func handleZScore(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Null()
	}
	if v.Kind != KindZSet {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	score, exists := v.zset[args[1]]
	if !exists {
		return Null()
	}
	return BulkStr(formatDouble(score))
}

func handleZCard(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(0)
	}
	if v.Kind != KindZSet {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return Int(int64(len(v.zset)))
}

func handleZRange(args []string, sess *Session, srv *Server) RespValue {
	start, err1 := strconv.Atoi(args[1])
	stop, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		return notIntegerErr()
	}
	withScores := len(args) == 4 && strings.EqualFold(args[3], "WITHSCORES")
	if len(args) == 4 && !withScores {
		return syntaxErr()
	}

	v, ok := srv.store.Get(args[0])
	if !ok {
		return ArrayOf()
	}
	if v.Kind != KindZSet {
		return wrongTypeErr()
	}

	v.mu.Lock()
	members := v.sortedZSetMembers()
	v.mu.Unlock()

	n := len(members)
	if n == 0 {
		return ArrayOf()
	}
	s0 := normalizeIndex(start, n, false)
	e0 := normalizeIndex(stop, n, true)
	if s0 > e0 || s0 >= n {
		return ArrayOf()
	}

	items := make([]RespValue, 0, (e0-s0+1)*2)
	for i := s0; i <= e0; i++ {
		items = append(items, BulkStr(members[i].member))
		if withScores {
			items = append(items, BulkStr(formatDouble(members[i].score)))
		}
	}
	return ArrayOf(items...)
}

func handleZIncrBy(args []string, sess *Session, srv *Server) RespValue {
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return notFloatErr()
	}
	v, gerr := srv.store.GetOrCreate(args[0], KindZSet, newZSetValue)
	if gerr != nil {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	next := v.zset[args[2]] + delta
	v.zset[args[2]] = next
	return BulkStr(formatDouble(next))
}

func handleZRangeByScore(args []string, sess *Session, srv *Server) RespValue {
	min, err1 := strconv.ParseFloat(args[1], 64)
	max, err2 := strconv.ParseFloat(args[2], 64)
	if err1 != nil || err2 != nil {
		return notFloatErr()
	}

	v, ok := srv.store.Get(args[0])
	if !ok {
		return ArrayOf()
	}
	if v.Kind != KindZSet {
		return wrongTypeErr()
	}

	v.mu.Lock()
	members := v.sortedZSetMembers()
	v.mu.Unlock()

	items := make([]RespValue, 0, len(members))
	for _, m := range members {
		if m.score >= min && m.score <= max {
			items = append(items, BulkStr(m.member))
		}
	}
	return ArrayOf(items...)
}

func handleZRank(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Null()
	}
	if v.Kind != KindZSet {
		return wrongTypeErr()
	}

	v.mu.Lock()
	members := v.sortedZSetMembers()
	v.mu.Unlock()

	descending := len(args) == 3 && strings.EqualFold(args[2], "DESC")

	for i, m := range members {
		if m.member == args[1] {
			if descending {
				return Int(int64(len(members) - 1 - i))
			}
			return Int(int64(i))
		}
	}
	return Null()
}
