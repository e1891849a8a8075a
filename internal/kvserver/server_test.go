package kvserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flonle/memora/internal/repl"
	"github.com/flonle/memora/internal/resp"
	"github.com/flonle/memora/internal/transport"
)

func startTestServer(t *testing.T) (*Server, func()) {
	t.Helper()
	srv, err := New("127.0.0.1:0", repl.NewMaster())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		require.NoError(t, srv.Start(ctx))
	}()

	return srv, func() {
		cancel()
		<-done
	}
}

func dial(t *testing.T, srv *Server) *transport.Framed {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	return transport.New(conn)
}

func TestEndToEndPing(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	client := dial(t, srv)
	require.NoError(t, client.Send(resp.Array(resp.Bulk("PING"))))

	reply, err := client.Next()
	require.NoError(t, err)
	assert.Equal(t, resp.Simple("PONG"), reply)
}

func TestEndToEndEcho(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	client := dial(t, srv)
	require.NoError(t, client.Send(resp.Array(resp.Bulk("ECHO"), resp.Bulk("hey"))))

	reply, err := client.Next()
	require.NoError(t, err)
	assert.Equal(t, resp.Bulk("hey"), reply)
}

func TestEndToEndSetGet(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	client := dial(t, srv)
	require.NoError(t, client.Send(resp.Array(resp.Bulk("SET"), resp.Bulk("key"), resp.Bulk("val"))))
	reply, err := client.Next()
	require.NoError(t, err)
	assert.Equal(t, resp.Simple("OK"), reply)

	require.NoError(t, client.Send(resp.Array(resp.Bulk("GET"), resp.Bulk("key"))))
	reply, err = client.Next()
	require.NoError(t, err)
	assert.Equal(t, resp.Bulk("val"), reply)
}

func TestEndToEndGetMissingKey(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	client := dial(t, srv)
	require.NoError(t, client.Send(resp.Array(resp.Bulk("GET"), resp.Bulk("nope"))))
	reply, err := client.Next()
	require.NoError(t, err)
	assert.True(t, reply.IsNull())
}

func TestEndToEndSetWithPXExpiresAndGetReturnsNull(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	client := dial(t, srv)
	require.NoError(t, client.Send(resp.Array(
		resp.Bulk("SET"), resp.Bulk("k"), resp.Bulk("v"), resp.Bulk("PX"), resp.Bulk("20"),
	)))
	_, err := client.Next()
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, client.Send(resp.Array(resp.Bulk("GET"), resp.Bulk("k"))))
	reply, err := client.Next()
	require.NoError(t, err)
	assert.True(t, reply.IsNull())
}

func TestEndToEndInfoReplicationOnMaster(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	client := dial(t, srv)
	require.NoError(t, client.Send(resp.Array(resp.Bulk("INFO"), resp.Bulk("replication"))))
	reply, err := client.Next()
	require.NoError(t, err)

	body, ok := reply.AsString()
	require.True(t, ok)
	assert.Contains(t, body, "role:master")
	assert.Contains(t, body, "master_replid:")
	assert.Contains(t, body, "master_repl_offset:0")
}

func TestEndToEndInfoDefaultsToReplication(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	client := dial(t, srv)
	require.NoError(t, client.Send(resp.Array(resp.Bulk("INFO"))))
	reply, err := client.Next()
	require.NoError(t, err)

	body, ok := reply.AsString()
	require.True(t, ok)
	assert.Contains(t, body, "role:master")
}

func TestEndToEndPerConnectionOrdering(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	client := dial(t, srv)
	for i := 0; i < 20; i++ {
		require.NoError(t, client.Send(resp.Array(resp.Bulk("SET"), resp.Bulk("k"), resp.Bulk(string(rune('a'+i))))))
	}
	for i := 0; i < 20; i++ {
		reply, err := client.Next()
		require.NoError(t, err)
		assert.Equal(t, resp.Simple("OK"), reply)
	}

	require.NoError(t, client.Send(resp.Array(resp.Bulk("GET"), resp.Bulk("k"))))
	reply, err := client.Next()
	require.NoError(t, err)
	assert.Equal(t, resp.Bulk(string(rune('a'+19))), reply)
}

func TestEndToEndInvalidCommandReturnsErrorNotDisconnect(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	client := dial(t, srv)
	require.NoError(t, client.Send(resp.Array(resp.Bulk("FLUSHALL"))))
	reply, err := client.Next()
	require.NoError(t, err)
	assert.Equal(t, resp.KindError, reply.Kind)

	// The connection must still be usable afterwards.
	require.NoError(t, client.Send(resp.Array(resp.Bulk("PING"))))
	reply, err = client.Next()
	require.NoError(t, err)
	assert.Equal(t, resp.Simple("PONG"), reply)
}
