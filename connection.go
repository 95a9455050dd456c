/*
Package redshard: per-connection read/dispatch loop (C2).

Connection wraps one accepted socket with buffered I/O, an incremental
RESP decoder, and the Session that decoded commands are dispatched
against. Each Connection is owned exclusively by its read task: the
task is the only thing that ever writes to the socket, so handlers
never touch a socket directly — they return a RespValue and the
connection's loop serializes and writes it.
*/
package redshard

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Connection represents one client connection to the server.
type Connection struct {
	conn    net.Conn
	reader  *bufio.Reader
	writer  *bufio.Writer
	decoder *Decoder

	server  *Server
	session *Session

	state     atomic.Int32
	closeOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc

	mu       sync.RWMutex
	lastUsed time.Time
}

func newBufReader(conn net.Conn) *bufio.Reader { return bufio.NewReaderSize(conn, 16*1024) }
func newBufWriter(conn net.Conn) *bufio.Writer { return bufio.NewWriterSize(conn, 16*1024) }

func (c *Connection) setState(state ConnState) {
	c.state.Store(int32(state))
	if c.server.ConnStateHook != nil {
		c.server.ConnStateHook(c.conn, state)
	}
}

// GetState returns the connection's current lifecycle state.
func (c *Connection) GetState() ConnState { return ConnState(c.state.Load()) }

// Close tears the connection down exactly once: marks it closed,
// cancels its context, and closes the underlying socket.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.setState(StateClosed)
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// RemoteAddr returns the client's network address.
func (c *Connection) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// LocalAddr returns the server-side network address for this connection.
func (c *Connection) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// readCommand decodes one top-level RESP value and converts it to a
// Command. Per spec.md §4.3, a top-level request must be an array of
// bulk (or simple) strings whose first element is the command name.
func (c *Connection) readCommand() (*Command, error) {
	value, err := c.nextValue()
	if err != nil {
		return nil, err
	}

	if value.Type != Array {
		return nil, protoErrf("expected array, got frame type %d", value.Type)
	}
	if len(value.Array) == 0 {
		return nil, protoErrf("empty command array")
	}

	cmd := &Command{}
	name, err := elementString(value.Array[0])
	if err != nil {
		return nil, err
	}
	cmd.Name = toUpperASCII(name)

	cmd.Args = make([]string, len(value.Array)-1)
	for i := 1; i < len(value.Array); i++ {
		s, err := elementString(value.Array[i])
		if err != nil {
			return nil, err
		}
		cmd.Args[i-1] = s
	}
	return cmd, nil
}

func elementString(v RespValue) (string, error) {
	switch v.Type {
	case BulkString:
		return string(v.Bulk), nil
	case SimpleString:
		return v.Str, nil
	default:
		return "", protoErrf("invalid argument frame type %d", v.Type)
	}
}

// nextValue pulls bytes off the socket until the decoder has a
// complete top-level value, feeding each chunk into the restartable
// Decoder as it arrives.
func (c *Connection) nextValue() (RespValue, error) {
	for {
		v, ok, err := c.decoder.Next()
		if err != nil {
			return RespValue{}, err
		}
		if ok {
			return v, nil
		}
		chunk := make([]byte, 4096)
		n, rerr := c.reader.Read(chunk)
		if n > 0 {
			c.decoder.Feed(chunk[:n])
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) && n > 0 {
				continue
			}
			return RespValue{}, rerr
		}
	}
}

// writeReply serializes reply for the session's negotiated protocol
// version and writes it to the connection's buffered writer.
func (c *Connection) writeReply(reply RespValue) error {
	_, err := c.writer.Write(Encode(reply, c.session.getRespVersion()))
	return err
}
