// Package transport pairs a net.Conn with the RESP codec, presenting a
// value-level interface: Next yields complete values, refilling from
// the socket as needed; Send encodes and flushes a reply.
package transport

import (
	"bufio"
	"net"

	"github.com/pkg/errors"

	"github.com/flonle/memora/internal/resp"
)

const initialReadSize = 4096

// Framed wraps a connection with a growable read buffer and a buffered
// writer. It is not safe for concurrent use by multiple goroutines.
type Framed struct {
	conn net.Conn
	w    *bufio.Writer

	buf  []byte
	read int // bytes in buf[:read] awaiting a parse
}

// New wraps conn in a Framed transport.
func New(conn net.Conn) *Framed {
	return &Framed{
		conn: conn,
		w:    bufio.NewWriter(conn),
		buf:  make([]byte, initialReadSize),
	}
}

// Next parses one value off the connection, reading more bytes from the
// socket whenever the buffered data is an incomplete frame. It returns a
// hard error on a malformed frame or a closed/broken connection; the
// caller should treat any error as fatal for the session.
func (f *Framed) Next() (resp.Value, error) {
	for {
		if f.read > 0 {
			v, consumed, err := resp.Parse(f.buf[:f.read])
			if err == nil {
				f.advance(consumed)
				return v, nil
			}
			if !errors.Is(err, resp.ErrIncomplete) {
				return resp.Value{}, err
			}
		}

		if err := f.fill(); err != nil {
			return resp.Value{}, err
		}
	}
}

// Send encodes v and flushes it to the connection.
func (f *Framed) Send(v resp.Value) error {
	f.w.Write(resp.Encode(nil, v))
	return f.w.Flush()
}

// advance discards the first n bytes of the parsed prefix, sliding any
// remaining unparsed bytes to the front of buf.
func (f *Framed) advance(n int) {
	remaining := f.read - n
	copy(f.buf, f.buf[n:f.read])
	f.read = remaining
}

// fill grows buf if it is full and reads at least one more chunk from
// the socket.
func (f *Framed) fill() error {
	if f.read == len(f.buf) {
		grown := make([]byte, len(f.buf)*2)
		copy(grown, f.buf[:f.read])
		f.buf = grown
	}

	n, err := f.conn.Read(f.buf[f.read:])
	if n > 0 {
		f.read += n
	}
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}
