package repl

import (
	"context"
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/flonle/memora/internal/resp"
	"github.com/flonle/memora/internal/transport"
)

// HandshakeError wraps any failure encountered during the replica
// handshake with the step at which it occurred.
type HandshakeError struct {
	Step string
	Err  error
}

func (e *HandshakeError) Error() string {
	return "replica handshake failed at " + e.Step + ": " + e.Err.Error()
}

func (e *HandshakeError) Unwrap() error { return e.Err }

func handshakeErr(step string, err error) error {
	return errors.WithStack(&HandshakeError{Step: step, Err: err})
}

// Replica is the role taken by a server configured with --replicaof. It
// performs a three-step handshake against the upstream master before the
// actor's main loop starts.
type Replica struct {
	listeningPort uint16
	upstreamHost  string
	upstreamPort  uint16

	dial func(network, addr string) (net.Conn, error)
}

// NewReplica constructs a Replica that will announce listeningPort to
// the master at host:upstreamPort during the handshake.
func NewReplica(listeningPort uint16, host string, upstreamPort uint16) *Replica {
	return &Replica{
		listeningPort: listeningPort,
		upstreamHost:  host,
		upstreamPort:  upstreamPort,
		dial:          net.Dial,
	}
}

func (r *Replica) Info() []string {
	return []string{"role:slave"}
}

// Start dials the upstream and drives the handshake to completion. Any
// I/O error, closed connection, or unexpected reply at any step is
// fatal and returned as a *HandshakeError naming the step.
func (r *Replica) Start(ctx context.Context) error {
	addr := net.JoinHostPort(r.upstreamHost, strconv.Itoa(int(r.upstreamPort)))
	logrus.WithField("upstream", addr).Info("connecting to master")

	conn, err := r.dial("tcp", addr)
	if err != nil {
		return handshakeErr("dial", err)
	}

	framed := transport.New(conn)

	if err := r.ping(framed); err != nil {
		conn.Close()
		return err
	}
	if err := r.replconf(framed, "listening-port", strconv.Itoa(int(r.listeningPort))); err != nil {
		conn.Close()
		return err
	}
	if err := r.replconf(framed, "capa", "psync2"); err != nil {
		conn.Close()
		return err
	}

	logrus.Info("replica handshake complete")
	return nil
}

func (r *Replica) ping(framed *transport.Framed) error {
	if err := framed.Send(resp.Array(resp.Bulk("PING"))); err != nil {
		return handshakeErr("PING", err)
	}

	reply, err := framed.Next()
	if err != nil {
		return handshakeErr("PING", err)
	}

	s, ok := reply.AsString()
	if !ok || reply.Kind != resp.KindSimple || !strings.EqualFold(s, "PONG") {
		return handshakeErr("PING", errors.Errorf("expected simple PONG, got %+v", reply))
	}
	return nil
}

func (r *Replica) replconf(framed *transport.Framed, option, value string) error {
	step := "REPLCONF " + option
	if err := framed.Send(resp.Array(resp.Bulk("REPLCONF"), resp.Bulk(option), resp.Bulk(value))); err != nil {
		return handshakeErr(step, err)
	}

	reply, err := framed.Next()
	if err != nil {
		return handshakeErr(step, err)
	}

	s, ok := reply.AsString()
	if !ok || !strings.EqualFold(s, "OK") {
		return handshakeErr(step, errors.Errorf("expected OK, got %+v", reply))
	}
	return nil
}
