// Connection and session commands (§4.5 "Connection / session"):
// PING, ECHO, AUTH, HELLO, SELECT, QUIT, CLIENT.
package redshard

import (
	"strconv"
	"strings"
)

func (s *Server) registerConnectionCommands() {
	s.register(string(CmdPing), 0, 1, handlePing)
	s.register(string(CmdEcho), 1, 1, handleEcho)
	s.register(string(CmdAuth), 1, 2, handleAuth)
	s.register(string(CmdHello), 0, -1, handleHello)
	s.register(string(CmdSelect), 1, 1, handleSelect)
	s.register(string(CmdQuit), 0, 0, handleQuit)
	s.register(string(CmdClient), 1, -1, handleClient)
}

func handlePing(args []string, sess *Session, srv *Server) RespValue {
	if len(args) == 1 {
		return BulkStr(args[0])
	}
	return RespValue{Type: SimpleString, Str: "PONG"}
}

// handleEcho returns its argument byte-for-byte (§8 binary safety).
func handleEcho(args []string, sess *Session, srv *Server) RespValue {
	return BulkStr(args[0])
}

// handleAuth consults the auth hook (C8). AUTH user pass or AUTH pass.
func handleAuth(args []string, sess *Session, srv *Server) RespValue {
	var user, pass string
	if len(args) == 2 {
		user, pass = args[0], args[1]
	} else {
		pass = args[0]
	}
	if !srv.checkAuth(user, pass) {
		return Err("WRONGPASS invalid username-password pair")
	}
	sess.setAuthenticated(true)
	return OK()
}

// handleHello negotiates the RESP protocol version and returns the
// fixed 7-pair server-hello reply whether or not an AUTH clause is
// given (§9 open question). An AUTH clause goes through checkAuth; if
// it fails, the reply is WRONGPASS instead of the 7 pairs and the
// protocol version is left unchanged.
func handleHello(args []string, sess *Session, srv *Server) RespValue {
	version := sess.getRespVersion()

	i := 0
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			if v != 2 && v != 3 {
				return Err("NOPROTO unsupported protocol version")
			}
			version = v
			i = 1
		} else {
			return Err("NOPROTO unsupported protocol version")
		}
	}

	for i < len(args) {
		switch toUpperASCII(args[i]) {
		case "AUTH":
			if i+2 >= len(args) {
				return syntaxErr()
			}
			if !srv.checkAuth(args[i+1], args[i+2]) {
				return Err("WRONGPASS invalid username-password pair")
			}
			sess.setAuthenticated(true)
			i += 3
		case "SETNAME":
			if i+1 >= len(args) {
				return syntaxErr()
			}
			sess.setName(args[i+1])
			i += 2
		default:
			return syntaxErr()
		}
	}

	sess.setRespVersion(version)

	pairs := []RespValue{
		BulkStr("server"), BulkStr("redshard"),
		BulkStr("version"), BulkStr(srv.Config.RedisCompatibilityVer),
		BulkStr("proto"), Int(int64(version)),
		BulkStr("id"), Int(sess.ID),
		BulkStr("mode"), BulkStr("standalone"),
		BulkStr("role"), BulkStr("master"),
		BulkStr("modules"), ArrayOf(),
	}
	return RespValue{Type: MapValue, Array: pairs}
}

// handleSelect only accepts index 0 (§1 non-goal: no multi-database).
func handleSelect(args []string, sess *Session, srv *Server) RespValue {
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return notIntegerErr()
	}
	if idx != 0 {
		return Err("ERR DB index is out of range")
	}
	return OK()
}

func handleQuit(args []string, sess *Session, srv *Server) RespValue {
	return OK()
}

// handleClient implements the CLIENT subcommands named in the spec
// plus the supplemented LIST/INFO/GETNAME introspection (SPEC_FULL.md).
func handleClient(args []string, sess *Session, srv *Server) RespValue {
	switch toUpperASCII(args[0]) {
	case "SETNAME":
		if len(args) != 2 {
			return unknownSubcommandErr("CLIENT", "SETNAME")
		}
		sess.setName(args[1])
		return OK()
	case "GETNAME":
		name := sess.getName()
		if name == "" {
			return Bulk(nil)
		}
		return BulkStr(name)
	case "SETINFO":
		if len(args) != 3 {
			return unknownSubcommandErr("CLIENT", "SETINFO")
		}
		switch toUpperASCII(args[1]) {
		case "LIB-NAME":
			sess.setLibInfo(args[2], "")
		case "LIB-VER":
			sess.setLibInfo("", args[2])
		default:
			return syntaxErr()
		}
		return OK()
	case "ID":
		return Int(sess.ID)
	case "INFO":
		return BulkStr(formatClientLine(sess.snapshot()))
	case "LIST":
		var b strings.Builder
		srv.sessions.Range(func(_, v interface{}) bool {
			other := v.(*Session)
			b.WriteString(formatClientLine(other.snapshot()))
			b.WriteByte('\n')
			return true
		})
		return BulkStr(b.String())
	default:
		return unknownSubcommandErr("CLIENT", args[0])
	}
}

func formatClientLine(snap sessionSnapshot) string {
	var b strings.Builder
	b.WriteString("id=")
	b.WriteString(strconv.FormatInt(snap.ID, 10))
	b.WriteString(" name=")
	b.WriteString(snap.Name)
	b.WriteString(" resp=")
	b.WriteString(strconv.Itoa(snap.RespVersion))
	b.WriteString(" lib-name=")
	b.WriteString(snap.LibName)
	b.WriteString(" lib-ver=")
	b.WriteString(snap.LibVersion)
	b.WriteString(" age=")
	b.WriteString(strconv.FormatInt(int64(timeSinceSeconds(snap.ConnectedAt)), 10))
	return b.String()
}
