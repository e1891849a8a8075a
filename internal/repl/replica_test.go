package repl

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flonle/memora/internal/resp"
	"github.com/flonle/memora/internal/transport"
)

// pipeDialer lets a test substitute net.Pipe for a real TCP dial so the
// handshake can be driven against an in-process fake master.
func pipeDialer(serverSide net.Conn) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		return serverSide, nil
	}
}

func newTestReplica(serverSide net.Conn) *Replica {
	r := NewReplica(6380, "127.0.0.1", 6379)
	r.dial = pipeDialer(serverSide)
	return r
}

func TestReplicaHandshakeSuccess(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	replica := newTestReplica(clientSide)

	done := make(chan error, 1)
	go func() {
		done <- replica.Start(context.Background())
	}()

	master := transport.New(serverSide)
	defer serverSide.Close()

	v, err := master.Next()
	require.NoError(t, err)
	assert.Equal(t, resp.Array(resp.Bulk("PING")), v)
	require.NoError(t, master.Send(resp.Simple("PONG")))

	v, err = master.Next()
	require.NoError(t, err)
	assert.Equal(t, resp.Array(resp.Bulk("REPLCONF"), resp.Bulk("listening-port"), resp.Bulk("6380")), v)
	require.NoError(t, master.Send(resp.Simple("OK")))

	v, err = master.Next()
	require.NoError(t, err)
	assert.Equal(t, resp.Array(resp.Bulk("REPLCONF"), resp.Bulk("capa"), resp.Bulk("psync2")), v)
	require.NoError(t, master.Send(resp.Simple("OK")))

	require.NoError(t, <-done)
}

func TestReplicaHandshakeFailsOnNonPongPing(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	replica := newTestReplica(clientSide)

	done := make(chan error, 1)
	go func() {
		done <- replica.Start(context.Background())
	}()

	master := transport.New(serverSide)
	defer serverSide.Close()

	_, err := master.Next()
	require.NoError(t, err)
	require.NoError(t, master.Send(resp.Bulk("PONG")))

	err = <-done
	assert.Error(t, err)
}

func TestReplicaHandshakeFailsOnClosedConnectionMidHandshake(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	replica := newTestReplica(clientSide)

	done := make(chan error, 1)
	go func() {
		done <- replica.Start(context.Background())
	}()

	master := transport.New(serverSide)

	_, err := master.Next()
	require.NoError(t, err)
	require.NoError(t, master.Send(resp.Simple("PONG")))

	_, err = master.Next()
	require.NoError(t, err)
	serverSide.Close()

	err = <-done
	assert.Error(t, err)
}

func TestReplicaHandshakeFailsOnNonOKReplconf(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	replica := newTestReplica(clientSide)

	done := make(chan error, 1)
	go func() {
		done <- replica.Start(context.Background())
	}()

	master := transport.New(serverSide)
	defer serverSide.Close()

	_, err := master.Next()
	require.NoError(t, err)
	require.NoError(t, master.Send(resp.Simple("PONG")))

	_, err = master.Next()
	require.NoError(t, err)
	require.NoError(t, master.Send(resp.Simple("ERR unsupported")))

	err = <-done
	assert.Error(t, err)
}
