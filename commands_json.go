// JSON commands (§4.5 "JSON"): JSON.SET, JSON.GET, JSON.DEL.
//
// Path handling follows the placeholder behavior §9 explicitly allows
// keeping: the path argument is accepted (for client compatibility)
// but not interpreted — every path, "." included, operates against the
// whole document. See DESIGN.md for the recorded decision.
package redshard

import (
	"github.com/goccy/go-json"
)

func (s *Server) registerJSONCommands() {
	s.register("JSON.SET", 3, 4, handleJSONSet)
	s.register("JSON.GET", 1, 2, handleJSONGet)
	s.register("JSON.DEL", 1, 2, handleJSONDel)
}

func handleJSONSet(args []string, sess *Session, srv *Server) RespValue {
	key, _, doc := args[0], args[1], args[2]

	var nx, xx bool
	if len(args) == 4 {
		switch toUpperASCII(args[3]) {
		case "NX":
			nx = true
		case "XX":
			xx = true
		default:
			return syntaxErr()
		}
	}

	if !json.Valid([]byte(doc)) {
		return Err("ERR new objects must be created at the root")
	}

	exists := srv.store.Exists(key)
	if nx && exists {
		return Null()
	}
	if xx && !exists {
		return Null()
	}

	if exists {
		v, _ := srv.store.Get(key)
		if v.Kind != KindJSON {
			return wrongTypeErr()
		}
	}

	srv.store.AddOrReplace(key, newJSONValue([]byte(doc)))
	return OK()
}

func handleJSONGet(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Null()
	}
	if v.Kind != KindJSON {
		return wrongTypeErr()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return Bulk(v.json)
}

func handleJSONDel(args []string, sess *Session, srv *Server) RespValue {
	v, ok := srv.store.Get(args[0])
	if !ok {
		return Int(0)
	}
	if v.Kind != KindJSON {
		return wrongTypeErr()
	}

	// Placeholder path semantics (§9): every path, "." included,
	// deletes the whole document.
	srv.store.Remove(args[0])
	return Int(1)
}
