package redshard

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// register installs a handler in the command table (C6). minArgs and
// maxArgs bound len(args) (the command name itself excluded); pass -1
// for maxArgs when the command is variadic with no upper bound.
func (s *Server) register(name string, minArgs, maxArgs int, h commandHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handlers == nil {
		s.handlers = make(map[string]commandHandler)
	}
	spec := commandSpec{name: name, minArgs: minArgs, maxArgs: maxArgs, handler: h}
	s.handlers[toUpperASCII(name)] = arityChecked(spec)
}

// arityChecked wraps a handler so arity is validated uniformly before
// any command-specific logic runs.
func arityChecked(spec commandSpec) commandHandler {
	return func(args []string, sess *Session, srv *Server) RespValue {
		if spec.minArgs >= 0 && len(args) < spec.minArgs {
			return arityError(spec.name)
		}
		if spec.maxArgs >= 0 && len(args) > spec.maxArgs {
			return arityError(spec.name)
		}
		return spec.handler(args, sess, srv)
	}
}

func arityError(name string) RespValue {
	return Err(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
}

// authExemptCommands are reachable before AUTH succeeds (§4.5.1): a
// client with a configured, not-yet-satisfied auth hook must still be
// able to authenticate, probe liveness, and disconnect.
var authExemptCommands = map[string]bool{
	"PING":  true,
	"AUTH":  true,
	"HELLO": true,
	"QUIT":  true,
}

// Dispatch routes a parsed Command to its handler (C6): uppercased
// name lookup, arity/type validation (delegated to the handler), panic
// recovery, and an "unknown command" fallback. It never lets an error
// unwind past it — spec.md §7's propagation policy.
func (s *Server) Dispatch(cmd *Command, sess *Session) (reply RespValue) {
	defer func() {
		if r := recover(); r != nil {
			if s.Logger != nil {
				s.Logger.Error("panic in command handler",
					zap.String("command", cmd.Name), zap.Any("recovered", r))
			}
			reply = Err("ERR internal server error")
		}
	}()

	if cmd == nil || cmd.Name == "" {
		return Err("ERR empty command")
	}

	name := toUpperASCII(cmd.Name)

	s.mu.RLock()
	handler, exists := s.handlers[name]
	s.mu.RUnlock()

	if !exists {
		return Err(fmt.Sprintf("ERR unknown command '%s'", cmd.Name))
	}

	if !sess.isAuthenticated() && !authExemptCommands[name] {
		return Err("NOAUTH Authentication required.")
	}

	if s.metrics != nil {
		s.metrics.commandsProcessed.Inc()
	}

	return handler(cmd.Args, sess, s)
}
