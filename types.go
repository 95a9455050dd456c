/*
Package redshard implements a Redis-wire-compatible, single-node,
in-memory key-value server: an incremental RESP2/3 codec paired with a
typed, concurrent key-space and a command dispatcher.

This file defines the wire-level and session-level types shared by the
rest of the package:

  - RespType / RespValue: the tagged union the codec decodes into and
    encodes out of, covering both RESP2 and RESP3 frame kinds.
  - Command: a parsed top-level request (name + string arguments).
  - Session: per-connection protocol and identity state (C3).
  - Config: the server's external configuration surface (§6).
  - Server: top-level listener, command table, and shared key-space.
*/
package redshard

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// RespType identifies the wire shape of a decoded or to-be-encoded value.
// RESP2 types are the first block; RESP3 additions follow.
type RespType int

const (
	SimpleString RespType = iota
	ErrorReply
	Integer
	BulkString
	Array
	NullValue // RESP2 null ($-1 / *-1), RESP3 null (_)

	// RESP3 additions.
	Double
	Boolean
	BigNumber
	BlobError
	VerbatimString
	MapValue
	SetValue
	PushValue
)

// RespValue is the tagged union every decoded frame and every handler
// reply is expressed in. Which field is meaningful depends on Type:
//
//   - SimpleString, ErrorReply, BigNumber: Str
//   - Integer: Int
//   - Double: Dbl
//   - Boolean: Bool
//   - BulkString, BlobError, VerbatimString: Bulk (VerbatimString also
//     uses Str for the 3-byte type hint, e.g. "txt")
//   - Array, MapValue, SetValue, PushValue: Array (MapValue stores
//     2*n elements as flattened key, value, key, value...)
//   - NullValue: no payload
type RespValue struct {
	Type  RespType
	Str   string
	Int   int64
	Dbl   float64
	Bool  bool
	Bulk  []byte
	Array []RespValue
}

// Null is the canonical protocol-agnostic null reply; the encoder
// renders it as $-1\r\n under RESP2 and _\r\n under RESP3.
func Null() RespValue { return RespValue{Type: NullValue} }

// OK is the canonical "+OK" simple string reply.
func OK() RespValue { return RespValue{Type: SimpleString, Str: "OK"} }

// Err builds an error reply from a preformatted message, e.g.
// "WRONGTYPE Operation against a key holding the wrong kind of value".
func Err(msg string) RespValue { return RespValue{Type: ErrorReply, Str: msg} }

// Int replies with a RESP integer.
func Int(n int64) RespValue { return RespValue{Type: Integer, Int: n} }

// Bulk replies with a binary-safe bulk string, preserving bytes exactly.
func Bulk(b []byte) RespValue { return RespValue{Type: BulkString, Bulk: b} }

// BulkStr is a convenience wrapper over Bulk for ASCII/UTF-8 text replies.
func BulkStr(s string) RespValue { return RespValue{Type: BulkString, Bulk: []byte(s)} }

// ArrayOf builds an Array reply from already-constructed elements.
func ArrayOf(items ...RespValue) RespValue { return RespValue{Type: Array, Array: items} }

// Command is a parsed top-level RESP request: the first bulk string is
// the uppercased command name, the rest are its arguments verbatim
// (not uppercased — argument case matters for values).
type Command struct {
	Name string
	Args []string
}

// ConnState mirrors the teacher's lifecycle enum for connection
// monitoring hooks.
type ConnState int

const (
	StateNew ConnState = iota
	StateActive
	StateIdle
	StateClosed
)

// Session is the per-client state handlers read and mutate: protocol
// version, identity, and authentication status (C3). It is created on
// accept and owned by the connection for its lifetime.
type Session struct {
	mu sync.RWMutex

	ID            int64
	Name          string
	LibName       string
	LibVersion    string
	ConnectedAt   time.Time
	RespVersion   int // 2 or 3
	Authenticated bool
}

// newSession starts a session authenticated unless requireAuth is
// true, matching §4.5.1: with no auth hook configured, every session
// behaves as already authenticated; with one configured, AUTH/HELLO
// AUTH must succeed before requireAuth-gated commands are reachable.
func newSession(id int64, requireAuth bool) *Session {
	return &Session{
		ID:            id,
		ConnectedAt:   time.Now(),
		RespVersion:   2,
		Authenticated: !requireAuth,
	}
}

func (s *Session) setRespVersion(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RespVersion = v
}

func (s *Session) getRespVersion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.RespVersion
}

func (s *Session) setName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Name = name
}

func (s *Session) getName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Name
}

func (s *Session) setLibInfo(name, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" {
		s.LibName = name
	}
	if version != "" {
		s.LibVersion = version
	}
}

func (s *Session) setAuthenticated(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Authenticated = v
}

func (s *Session) isAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Authenticated
}

// sessionSnapshot is a value copy safe to read without holding the
// lock, used by CLIENT LIST/INFO and other introspection commands.
type sessionSnapshot struct {
	ID          int64
	Name        string
	LibName     string
	LibVersion  string
	ConnectedAt time.Time
	RespVersion int
}

func (s *Session) snapshot() sessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sessionSnapshot{
		ID:          s.ID,
		Name:        s.Name,
		LibName:     s.LibName,
		LibVersion:  s.LibVersion,
		ConnectedAt: s.ConnectedAt,
		RespVersion: s.RespVersion,
	}
}

// AuthHook is the optional, process-global predicate consulted by AUTH
// and HELLO AUTH (C8). Its contract: pure, thread-safe, no blocking I/O.
type AuthHook func(user []byte, password []byte) bool

// Config is the server's external configuration surface (§6). It is
// decoded from a flags/env source map with mapstructure by
// cmd/redshard-server, and can also be built directly for embedding.
type Config struct {
	Port                   uint16        `mapstructure:"port"`
	DatabaseCount          uint32        `mapstructure:"database_count"`
	RedisCompatibilityVer  string        `mapstructure:"redis_compatibility_version"`
	StorageMode            string        `mapstructure:"storage_mode"`
	ReplicationBacklogSize uint64        `mapstructure:"replication_backlog_size"`
	IdleTimeoutSeconds     uint32        `mapstructure:"idle_timeout_seconds"`
	ReadTimeout            time.Duration `mapstructure:"-"`
	WriteTimeout           time.Duration `mapstructure:"-"`
	MaxConnections         int           `mapstructure:"max_connections"`
	ShardCount             int           `mapstructure:"shard_count"`
}

// DefaultConfig returns the spec's default configuration surface.
func DefaultConfig() Config {
	return Config{
		Port:                   6379,
		DatabaseCount:          1,
		RedisCompatibilityVer:  "7.4.0",
		StorageMode:            "Ram",
		ReplicationBacklogSize: 1 << 20,
		IdleTimeoutSeconds:     0,
		ReadTimeout:            0,
		WriteTimeout:           30 * time.Second,
		MaxConnections:         10000,
		ShardCount:             32,
	}
}

// Server is the Redis-compatible server: network listener, shared
// key-space, command table, and session registry (C2/C3/C6 glue).
type Server struct {
	Address   string
	TLSConfig *tls.Config
	Config    Config

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxConnections int

	Logger        *zap.Logger
	ConnStateHook func(net.Conn, ConnState)

	AuthHook AuthHook

	store    *Store
	handlers map[string]commandHandler

	startedAt time.Time
	runID     string

	nextClientID atomic.Int64
	sessions     sync.Map // client id -> *Session
	connByID     sync.Map // client id -> *Connection

	metrics *serverMetrics

	listener    net.Listener
	activeConns map[*Connection]struct{}
	connCount   atomic.Int64
	inShutdown  atomic.Bool
	mu          sync.RWMutex
	onShutdown  []func()
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// commandHandler is the signature every C7 handler implements: it
// receives the raw arguments (command name excluded), the requesting
// session, and the server (for store + metrics access), and returns an
// already-typed logical reply for the encoder to shape by protocol
// version.
type commandHandler func(args []string, sess *Session, srv *Server) RespValue

// commandSpec binds a handler to its arity contract so the dispatcher
// can reject malformed calls before the handler ever runs.
type commandSpec struct {
	name    string
	minArgs int // minimum len(args), -1 = no minimum check
	maxArgs int // maximum len(args), -1 = unbounded
	handler commandHandler
}
