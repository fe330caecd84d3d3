package metrics

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountingConn(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	m := New()
	conn := m.Wrap(local)
	defer conn.Close()

	go remote.Write([]byte("hello world"))

	readBuf := make([]byte, 11)
	n, err := conn.Read(readBuf)
	require.NoError(t, err)
	require.Equal(t, uint64(n), m.IngressBytes())

	go func() {
		buf := make([]byte, 16)
		remote.Read(buf)
	}()

	n, err = conn.Write([]byte("goodbye"))
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.Equal(t, uint64(7), m.EgressBytes())
}

func TestConnCounters(t *testing.T) {
	m := New()
	m.ConnOpened()
	m.ConnOpened()
	m.ConnClosed()

	require.Equal(t, uint64(2), m.Connections())
	require.Equal(t, int32(1), m.Active())
}
