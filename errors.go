// Shared error-reply constructors (§7). Keeping these in one place
// keeps wording consistent across every commands_*.go handler.
package redshard

import "fmt"

func wrongTypeErr() RespValue {
	return Err(ErrWrongType.Error())
}

func notIntegerErr() RespValue {
	return Err("ERR value is not an integer or out of range")
}

func notFloatErr() RespValue {
	return Err("ERR value is not a valid float")
}

func overflowErr() RespValue {
	return Err("ERR increment or decrement would overflow")
}

func syntaxErr() RespValue {
	return Err("ERR syntax error")
}

func invalidExpireErr(cmd string) RespValue {
	return Err(fmt.Sprintf("ERR invalid expire time in '%s' command", cmd))
}

func noSuchKeyErr() RespValue {
	return Err("ERR no such key")
}

func unknownSubcommandErr(cmd, sub string) RespValue {
	return Err(fmt.Sprintf("ERR Unknown subcommand or wrong number of arguments for '%s'. Try %s HELP.", sub, cmd))
}
