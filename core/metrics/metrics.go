// Package metrics implements per-route traffic accounting for proxied
// connections.
package metrics

import (
	"net"
	"sync/atomic"
	"time"
)

// Metrics holds ingress/egress byte counters and connection counts for one
// route. All fields are updated atomically.
type Metrics struct {
	ingressBytes uint64
	egressBytes  uint64
	connections  uint64
	active       int32
	startTime    time.Time
}

// New creates a new Metrics instance.
func New() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// AddIngressBytes adds bytes received from the client side.
func (m *Metrics) AddIngressBytes(n uint64) {
	atomic.AddUint64(&m.ingressBytes, n)
}

// AddEgressBytes adds bytes sent back toward the client.
func (m *Metrics) AddEgressBytes(n uint64) {
	atomic.AddUint64(&m.egressBytes, n)
}

// ConnOpened records a new proxied connection.
func (m *Metrics) ConnOpened() {
	atomic.AddUint64(&m.connections, 1)
	atomic.AddInt32(&m.active, 1)
}

// ConnClosed records the end of a proxied connection.
func (m *Metrics) ConnClosed() {
	atomic.AddInt32(&m.active, -1)
}

// IngressBytes returns the total bytes received.
func (m *Metrics) IngressBytes() uint64 {
	return atomic.LoadUint64(&m.ingressBytes)
}

// EgressBytes returns the total bytes sent.
func (m *Metrics) EgressBytes() uint64 {
	return atomic.LoadUint64(&m.egressBytes)
}

// Connections returns the total connection count.
func (m *Metrics) Connections() uint64 {
	return atomic.LoadUint64(&m.connections)
}

// Active returns the number of currently proxied connections.
func (m *Metrics) Active() int32 {
	return atomic.LoadInt32(&m.active)
}

// Uptime returns the duration since the route was loaded.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// CountingConn feeds a route's counters from a net.Conn. Everything but
// Read and Write delegates to the wrapped conn, so deadlines and
// addresses pass through.
type CountingConn struct {
	net.Conn
	metrics *Metrics
}

// Wrap returns a CountingConn that accounts conn's traffic against m.
func (m *Metrics) Wrap(conn net.Conn) *CountingConn {
	return &CountingConn{Conn: conn, metrics: m}
}

// Read reads from the underlying conn, counting ingress bytes.
func (c *CountingConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.metrics.AddIngressBytes(uint64(n))
	}
	return n, err
}

// Write writes to the underlying conn, counting egress bytes.
func (c *CountingConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if n > 0 {
		c.metrics.AddEgressBytes(uint64(n))
	}
	return n, err
}
