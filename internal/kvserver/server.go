// Package kvserver wires the session state machine and the
// single-writer server actor together: the actor owns the keyspace and
// role, sessions own nothing but a connection and a request channel.
package kvserver

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flonle/memora/internal/command"
	"github.com/flonle/memora/internal/repl"
	"github.com/flonle/memora/internal/resp"
	"github.com/flonle/memora/internal/store"
	"github.com/flonle/memora/internal/transport"
)

const requestChannelCapacity = 128

const defaultInfoSection = "replication"

// Server is the single-writer actor: it owns the listener, the string
// store, and the role, and is the only goroutine that ever mutates
// keyspace or role state.
type Server struct {
	listener net.Listener
	store    *store.Store
	role     repl.Role

	requests chan Request

	// sessions tracks every spawned session goroutine. Entries are never
	// removed: an unbounded tracking vector is a known, accepted
	// limitation rather than a resource leak to fix (see DESIGN.md).
	sessions []*session
}

// New binds a listener on addr and constructs a Server around it.
func New(addr string, role repl.Role) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	logrus.WithField("addr", listener.Addr().String()).Info("listening")

	return &Server{
		listener: listener,
		store:    store.New(),
		role:     role,
		requests: make(chan Request, requestChannelCapacity),
	}, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start blocks on the role's startup (a replica's handshake with its
// upstream) and then runs the actor's main loop until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.role.Start(ctx); err != nil {
		return err
	}

	accepted := s.acceptLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			s.listener.Close()
			return nil

		case conn, ok := <-accepted:
			if !ok {
				return nil
			}
			s.handleConnection(conn)

		case req := <-s.requests:
			s.handleRequest(req)
		}
	}
}

// acceptLoop runs a dedicated goroutine feeding accepted connections
// into a channel, standing in for a native accept-inside-select: Go's
// net.Listener has no cancelable Accept, so closing the listener on
// shutdown is what unblocks it.
func (s *Server) acceptLoop(ctx context.Context) <-chan net.Conn {
	out := make(chan net.Conn)
	go func() {
		defer close(out)
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				if ctx.Err() == nil {
					logrus.WithError(err).Error("accept failed")
				}
				return
			}
			select {
			case out <- conn:
			case <-ctx.Done():
				conn.Close()
				return
			}
		}
	}()
	return out
}

func (s *Server) handleConnection(conn net.Conn) {
	addr := conn.RemoteAddr().String()
	logrus.WithField("addr", addr).Info("accepted connection")

	sess := newSession(transport.New(conn), addr, s.requests)
	s.sessions = append(s.sessions, sess)
	go func() {
		defer conn.Close()
		sess.run()
	}()
}

// handleRequest executes cmd against owned state and replies on the
// request's one-shot channel. A command-execution error is logged and
// the reply is withheld: the requesting session's read from Reply then
// blocks forever, a documented gap rather than a bug (see DESIGN.md).
func (s *Server) handleRequest(req Request) {
	reply, err := s.execute(req.Cmd)
	if err != nil {
		logrus.WithError(err).Error("command execution failed")
		return
	}
	req.Reply <- reply
}

func (s *Server) execute(cmd command.Command) (resp.Value, error) {
	switch cmd.Kind {
	case command.KindSet:
		return s.executeSet(cmd.Set)
	case command.KindGet:
		return s.executeGet(cmd.Get)
	case command.KindInfo:
		return s.executeInfo(cmd.Info)
	default:
		return resp.Value{}, errUnhandledCommand(cmd.Kind)
	}
}

func (s *Server) executeSet(set command.SetCommand) (resp.Value, error) {
	var expiry *time.Time
	if set.Expiry != nil {
		t, ok := set.Expiry.IntoUTC(time.Now().UTC())
		if !ok {
			return resp.Value{}, errInvalidExpiry
		}
		expiry = &t
	}

	s.store.Set(set.Key, set.Value, expiry)
	return resp.Simple("OK"), nil
}

func (s *Server) executeGet(get command.GetCommand) (resp.Value, error) {
	value, ok := s.store.Get(get.Key, time.Now().UTC())
	if !ok {
		return resp.NullBulk(), nil
	}
	return resp.Bulk(value), nil
}

func (s *Server) executeInfo(info command.InfoCommand) (resp.Value, error) {
	section := "default"
	if info.Section != nil {
		section = *info.Section
	}

	resolved := section
	if strings.EqualFold(section, "default") {
		resolved = defaultInfoSection
	}

	if !strings.EqualFold(resolved, defaultInfoSection) {
		return resp.Value{}, command.UnknownSection(section)
	}

	return resp.Bulk(strings.Join(s.role.Info(), "\r\n")), nil
}
