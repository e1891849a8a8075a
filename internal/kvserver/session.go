package kvserver

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/flonle/memora/internal/command"
	"github.com/flonle/memora/internal/resp"
	"github.com/flonle/memora/internal/transport"
)

// session drives one client connection through Reading -> Dispatching ->
// (Reading | Terminated). PING and ECHO are answered locally; every
// other command is forwarded to the actor and awaited on a one-shot
// reply channel.
type session struct {
	conn     *transport.Framed
	requests chan<- Request
	addr     string
}

func newSession(conn *transport.Framed, addr string, requests chan<- Request) *session {
	return &session{conn: conn, requests: requests, addr: addr}
}

// run is the session's whole lifecycle: it returns once the peer closes
// the connection, a frame fails to decode, or a reply cannot be sent.
// Nothing closes the request or reply channels, so a session whose
// request is still pending when the actor loop exits stays blocked.
func (s *session) run() {
	for {
		value, err := s.conn.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logrus.WithField("addr", s.addr).WithError(err).Debug("session terminated")
			}
			return
		}

		reply, ok := s.dispatch(value)
		if !ok {
			return
		}
		if err := s.conn.Send(reply); err != nil {
			logrus.WithField("addr", s.addr).WithError(err).Debug("failed to send reply")
			return
		}
	}
}

// dispatch converts value into a command and produces the reply to
// send back, or ok=false if the session must terminate.
func (s *session) dispatch(value resp.Value) (resp.Value, bool) {
	cmd, err := command.Parse(value)
	if err != nil {
		return resp.Error("ERR " + err.Error()), true
	}

	switch cmd.Kind {
	case command.KindPing:
		if cmd.Ping != nil {
			return resp.Array(resp.Bulk("PONG"), resp.Bulk(*cmd.Ping)), true
		}
		return resp.Simple("PONG"), true

	case command.KindEcho:
		return resp.Bulk(cmd.Echo), true

	default:
		req := Request{Cmd: cmd, Reply: make(chan resp.Value)}
		// A full request channel blocks here, which in turn stops
		// draining the socket: backpressure propagates to the client.
		s.requests <- req

		reply, ok := <-req.Reply
		if !ok {
			logrus.WithField("addr", s.addr).Error("actor request channel closed")
			return resp.Value{}, false
		}
		return reply, true
	}
}
