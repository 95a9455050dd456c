// Introspection and protocol-shaped stubs (§4.5 "Introspection /
// stubs", §6 "INFO fields"): INFO, CONFIG GET, TIME, ROLE, COMMAND,
// MEMORY USAGE, ACL, MODULE LIST, LATENCY, SENTINEL MASTERS, CLUSTER
// NODES, PUBLISH/SUBSCRIBE/UNSUBSCRIBE.
//
// Pub/sub, cluster, sentinel, ACL, and modules are wire-shaped stubs
// only (§9): the byte shapes match what a real server emits for
// discovery probes, but there is no delivery, sharding, or failover
// behind them.
package redshard

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

func (s *Server) registerIntrospectionCommands() {
	s.register(string(CmdInfo), 0, 1, handleInfo)
	s.register(string(CmdConfig), 1, -1, handleConfig)
	s.register(string(CmdTime), 0, 0, handleTime)
	s.register(string(CmdRole), 0, 0, handleRole)
	s.register(string(CmdCommand), 0, -1, handleCommand)
	s.register(string(CmdMemory), 1, -1, handleMemory)
	s.register(string(CmdACL), 1, -1, handleACL)
	s.register(string(CmdModule), 1, -1, handleModule)
	s.register(string(CmdLatency), 1, -1, handleLatency)
	s.register(string(CmdSentinel), 1, -1, handleSentinel)
	s.register(string(CmdCluster), 1, -1, handleCluster)
	s.register(string(CmdPublish), 2, 2, handlePublish)
	s.register(string(CmdSubscribe), 1, -1, handleSubscribe)
	s.register(string(CmdUnsubscribe), 0, -1, handleUnsubscribe)
}

func handleInfo(args []string, sess *Session, srv *Server) RespValue {
	commands, clients, expired, hits, misses := srv.metrics.snapshot()
	uptime := int64(time.Since(srv.startedAt) / time.Second)

	var b strings.Builder
	fmt.Fprintf(&b, "# Server\r\n")
	fmt.Fprintf(&b, "redis_version:%s\r\n", srv.Config.RedisCompatibilityVer)
	fmt.Fprintf(&b, "redis_mode:standalone\r\n")
	fmt.Fprintf(&b, "os:%s\r\n", runtime.GOOS)
	fmt.Fprintf(&b, "arch_bits:%d\r\n", archBits())
	fmt.Fprintf(&b, "process_id:%d\r\n", os.Getpid())
	fmt.Fprintf(&b, "run_id:%s\r\n", srv.runID)
	fmt.Fprintf(&b, "tcp_port:%d\r\n", srv.Config.Port)
	fmt.Fprintf(&b, "uptime_in_seconds:%d\r\n", uptime)
	fmt.Fprintf(&b, "\r\n# Clients\r\n")
	fmt.Fprintf(&b, "connected_clients:%d\r\n", int64(clients))
	fmt.Fprintf(&b, "\r\n# Memory\r\n")
	fmt.Fprintf(&b, "used_memory:%d\r\n", approxMemoryUsage(srv))
	fmt.Fprintf(&b, "used_memory_peak:%d\r\n", approxMemoryUsage(srv))
	fmt.Fprintf(&b, "total_system_memory:%d\r\n", totalSystemMemory())
	fmt.Fprintf(&b, "\r\n# Replication\r\n")
	fmt.Fprintf(&b, "role:master\r\n")
	fmt.Fprintf(&b, "connected_slaves:0\r\n")
	fmt.Fprintf(&b, "master_repl_offset:0\r\n")
	fmt.Fprintf(&b, "repl_backlog_size:%d\r\n", srv.Config.ReplicationBacklogSize)
	fmt.Fprintf(&b, "\r\n# Stats\r\n")
	fmt.Fprintf(&b, "total_commands_processed:%d\r\n", int64(commands))
	fmt.Fprintf(&b, "expired_keys:%d\r\n", int64(expired))
	fmt.Fprintf(&b, "keyspace_hits:%d\r\n", int64(hits))
	fmt.Fprintf(&b, "keyspace_misses:%d\r\n", int64(misses))
	fmt.Fprintf(&b, "\r\n# Keyspace\r\n")
	fmt.Fprintf(&b, "db0:keys=%d,expires=0,avg_ttl=0\r\n", srv.store.DBSize())

	return BulkStr(b.String())
}

func archBits() int {
	if strconv.IntSize == 64 {
		return 64
	}
	return 32
}

func approxMemoryUsage(srv *Server) int64 {
	return int64(srv.store.DBSize()) * 128
}

func totalSystemMemory() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Sys)
}

// handleConfig recognizes the subset of parameters named in §6;
// anything else reports as an empty array, matching real servers'
// behavior for unknown-but-not-erroring CONFIG GET parameters.
func handleConfig(args []string, sess *Session, srv *Server) RespValue {
	if !strings.EqualFold(args[0], "GET") || len(args) != 2 {
		return unknownSubcommandErr("CONFIG", args[0])
	}
	switch strings.ToLower(args[1]) {
	case "databases":
		return ArrayOf(BulkStr("databases"), BulkStr(strconv.FormatUint(uint64(srv.Config.DatabaseCount), 10)))
	case "slave-read-only":
		return ArrayOf(BulkStr("slave-read-only"), BulkStr("yes"))
	default:
		return ArrayOf()
	}
}

func handleTime(args []string, sess *Session, srv *Server) RespValue {
	now := time.Now()
	return ArrayOf(
		BulkStr(strconv.FormatInt(now.Unix(), 10)),
		BulkStr(strconv.FormatInt(int64(now.Nanosecond()/1000), 10)),
	)
}

func handleRole(args []string, sess *Session, srv *Server) RespValue {
	return ArrayOf(BulkStr("master"), Int(0), ArrayOf())
}

func handleCommand(args []string, sess *Session, srv *Server) RespValue {
	if len(args) > 0 && strings.EqualFold(args[0], "COUNT") {
		return Int(int64(len(implementedCommands)))
	}
	items := make([]RespValue, len(implementedCommands))
	for i, c := range implementedCommands {
		items[i] = ArrayOf(BulkStr(strings.ToLower(string(c))), Int(-1))
	}
	return ArrayOf(items...)
}

func handleMemory(args []string, sess *Session, srv *Server) RespValue {
	if !strings.EqualFold(args[0], "USAGE") || len(args) < 2 {
		return unknownSubcommandErr("MEMORY", args[0])
	}
	_, ok := srv.store.Get(args[1])
	if !ok {
		return Null()
	}
	return Int(64)
}

func handleACL(args []string, sess *Session, srv *Server) RespValue {
	switch toUpperASCII(args[0]) {
	case "WHOAMI":
		return BulkStr("default")
	case "LIST":
		return ArrayOf(BulkStr("user default on nopass ~* &* +@all"))
	case "USERS":
		return ArrayOf(BulkStr("default"))
	default:
		return unknownSubcommandErr("ACL", args[0])
	}
}

func handleModule(args []string, sess *Session, srv *Server) RespValue {
	if !strings.EqualFold(args[0], "LIST") {
		return unknownSubcommandErr("MODULE", args[0])
	}
	return ArrayOf()
}

func handleLatency(args []string, sess *Session, srv *Server) RespValue {
	switch toUpperASCII(args[0]) {
	case "LATEST", "HISTORY":
		return ArrayOf()
	default:
		return unknownSubcommandErr("LATENCY", args[0])
	}
}

func handleSentinel(args []string, sess *Session, srv *Server) RespValue {
	if !strings.EqualFold(args[0], "MASTERS") {
		return unknownSubcommandErr("SENTINEL", args[0])
	}
	return ArrayOf()
}

func handleCluster(args []string, sess *Session, srv *Server) RespValue {
	if strings.EqualFold(args[0], "NODES") {
		return Err("ERR This instance has cluster support disabled")
	}
	return unknownSubcommandErr("CLUSTER", args[0])
}

// handlePublish acknowledges with the receiver count (always 0 — §1
// non-goal: no real pub/sub fan-out).
func handlePublish(args []string, sess *Session, srv *Server) RespValue {
	return Int(0)
}

// handleSubscribe acknowledges the first requested channel with a
// push-shaped reply; real fan-out across multiple channels would
// require multiple independent push frames, which is out of scope for
// a wire-shaped stub (§9).
func handleSubscribe(args []string, sess *Session, srv *Server) RespValue {
	return RespValue{Type: PushValue, Array: []RespValue{
		BulkStr("subscribe"), BulkStr(args[0]), Int(1),
	}}
}

func handleUnsubscribe(args []string, sess *Session, srv *Server) RespValue {
	if len(args) == 0 {
		return RespValue{Type: PushValue, Array: []RespValue{BulkStr("unsubscribe"), Null(), Int(0)}}
	}
	return RespValue{Type: PushValue, Array: []RespValue{
		BulkStr("unsubscribe"), BulkStr(args[0]), Int(0),
	}}
}
