package proxy

import (
	"net"

	"github.com/appspotengine/rsnova/core/stream"
)

// PeekedConn presents a sniffed connection as a plain net.Conn again:
// reads drain the wrapper's peek buffer before falling through to the
// socket, writes go straight to the socket. The two halves never observe
// each other.
type PeekedConn struct {
	net.Conn
	r *stream.PeekableReader
}

// NewPeekedConn returns a PeekedConn replaying r's buffered bytes ahead of
// conn's stream.
func NewPeekedConn(conn net.Conn, r *stream.PeekableReader) *PeekedConn {
	return &PeekedConn{Conn: conn, r: r}
}

// Read serves buffered peeked bytes first, then reads the socket directly.
func (c *PeekedConn) Read(p []byte) (int, error) {
	if c.r.Buffered() > 0 {
		return c.r.PollRead(p)
	}
	return c.Conn.Read(p)
}
