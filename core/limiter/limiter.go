// Package limiter implements per-client connection rate limiting for the
// gateway's accept path.
package limiter

import (
	"net"
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/time/rate"
)

// Limiter gates connections per client IP with a token bucket. A client
// that exhausts its bucket is refused for the cooldown period.
type Limiter struct {
	rate     rate.Limit
	burst    int
	cooldown time.Duration

	clients *cmap.ConcurrentMap[string, *client]
}

type client struct {
	limiter  *rate.Limiter
	lastSeen int64
	cooldown int64
}

// New creates a new connection limiter.
func New(opts ...OptFunc) *Limiter {
	l := &Limiter{}

	for _, opt := range opts {
		opt(l)
	}

	if l.clients == nil {
		c := cmap.New[*client]()
		l.clients = &c
	}
	if l.cooldown == 0 {
		l.cooldown = defaultCooldown
	}
	if l.burst == 0 {
		l.burst = defaultBurst
	}
	if l.rate == 0 {
		l.rate = defaultRPS
	}

	return l
}

// Allow reports whether the connection should be admitted.
func (l *Limiter) Allow(conn net.Conn) bool {
	ip := clientIP(conn)
	if ip == "" {
		return false
	}
	return l.AllowIP(ip)
}

// AllowIP reports whether a connection from ip should be admitted.
func (l *Limiter) AllowIP(ip string) bool {
	now := time.Now()

	c, ok := l.clients.Get(ip)
	if !ok {
		c = &client{
			limiter:  rate.NewLimiter(l.rate, l.burst),
			lastSeen: now.UnixNano(),
		}
		l.clients.Set(ip, c)
	}

	if now.Before(time.Unix(0, atomic.LoadInt64(&c.cooldown))) {
		return false
	}

	if !c.limiter.Allow() {
		atomic.StoreInt64(&c.cooldown, now.Add(l.cooldown).UnixNano())
		return false
	}

	atomic.StoreInt64(&c.lastSeen, now.UnixNano())
	return true
}

// Cleanup removes clients not seen within maxAge.
func (l *Limiter) Cleanup(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge).UnixNano()
	for entry := range l.clients.IterBuffered() {
		if atomic.LoadInt64(&entry.Val.lastSeen) < cutoff {
			l.clients.Remove(entry.Key)
		}
	}
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	return l.clients.Count()
}

func clientIP(conn net.Conn) string {
	addr := conn.RemoteAddr()
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
