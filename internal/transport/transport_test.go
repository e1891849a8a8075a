package transport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flonle/memora/internal/resp"
)

func TestNextAcrossPartialReads(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	framed := New(server)

	full := resp.Encode(nil, resp.Array(resp.Bulk("ECHO"), resp.Bulk("hey")))

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := framed.Next()
		require.NoError(t, err)
		assert.Equal(t, resp.Array(resp.Bulk("ECHO"), resp.Bulk("hey")), v)
	}()

	// Dribble the bytes in one at a time to exercise the refill loop.
	for _, b := range full {
		_, err := client.Write([]byte{b})
		require.NoError(t, err)
	}
	<-done
}

func TestSendEncodesAndFlushes(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	framed := New(server)

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := framed.Send(resp.Simple("PONG"))
		require.NoError(t, err)
	}()

	buf := make([]byte, 7)
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "+PONG\r\n", string(buf[:n]))
	<-done
}

func TestNextReturnsErrorOnClosedConnection(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	client.Close()

	framed := New(server)
	_, err := framed.Next()
	assert.Error(t, err)
}
