package proxy

import (
	"errors"
	"net"
	"runtime"
	"strings"
	"time"

	"github.com/appspotengine/rsnova/core/stream"
)

const (
	ProtoHTTP  = "http"
	ProtoTCP   = "tcp"
	ProtoTLS   = "tls"
	ProtoHTTPS = "https"
)

const (
	defaultPeekBytes    = 24
	defaultSniffTimeout = 1 * time.Second
	sniffPollInterval   = 20 * time.Millisecond
)

// Sniffer classifies the protocol of an accepted connection by peeking at
// its first bytes without consuming them.
type Sniffer struct {
	peekBytes int
	timeout   time.Duration
}

// NewSniffer returns a Sniffer peeking up to peekBytes within timeout.
// Zero values select the defaults.
func NewSniffer(peekBytes int, timeout time.Duration) *Sniffer {
	if peekBytes <= 0 || peekBytes > 512 {
		peekBytes = defaultPeekBytes
	}
	if timeout <= 0 {
		timeout = defaultSniffTimeout
	}
	return &Sniffer{peekBytes: peekBytes, timeout: timeout}
}

// Conn classifies conn and returns the protocol name along with a
// replay-safe connection that still yields the peeked bytes.
func (s *Sniffer) Conn(conn net.Conn) (string, net.Conn) {
	pr := stream.NewPeekableReader(stream.NewConnPoller(conn, sniffPollInterval))
	peeked := s.peek(pr)

	proto := ProtoTCP
	switch {
	case s.TLS(peeked):
		proto = ProtoTLS
	case s.HTTP(peeked):
		proto = ProtoHTTP
	}

	// The poller left a short read deadline armed; clear it before the
	// protocol handler takes over.
	_ = conn.SetReadDeadline(time.Time{})

	return proto, NewPeekedConn(conn, pr)
}

// peek drives an exact-peek of the sniff window, giving up at the timeout
// or at end-of-stream and falling back to whatever prefix was buffered.
func (s *Sniffer) peek(pr *stream.PeekableReader) []byte {
	op := stream.NewPeekExact(pr, make([]byte, s.peekBytes))
	deadline := time.Now().Add(s.timeout)
	for {
		_, buf, err := op.Poll()
		if err == nil {
			return buf
		}
		if errors.Is(err, stream.ErrNotReady) && time.Now().Before(deadline) {
			runtime.Gosched()
			continue
		}
		break
	}

	// Abandoning the operation is harmless: peeked bytes stay in the
	// wrapper, so a shorter peek completes without touching the socket.
	if n := pr.Buffered(); n > 0 {
		if _, buf, err := stream.NewPeekExact(pr, make([]byte, n)).Poll(); err == nil {
			return buf
		}
	}
	return nil
}

// TLS reports whether peeked looks like the start of a TLS record.
func (s *Sniffer) TLS(peeked []byte) bool {
	if len(peeked) < 5 {
		return false
	}
	if peeked[0] != 0x16 {
		return false
	}
	if peeked[1] != 0x03 {
		return false
	}
	if peeked[2] > 0x04 {
		return false
	}
	length := uint16(peeked[3])<<8 | uint16(peeked[4])
	return length > 0 && length <= 16384
}

// HTTP reports whether peeked looks like the start of an HTTP request.
func (s *Sniffer) HTTP(peeked []byte) bool {
	if len(peeked) < 14 {
		return false
	}
	data := string(peeked)
	upper := strings.ToUpper(data)
	methods := []string{
		"GET ", "POST ", "PUT ", "DELETE ", "HEAD ",
		"OPTIONS ", "PATCH ", "TRACE ", "CONNECT ",
	}
	for _, method := range methods {
		if strings.HasPrefix(upper, method) {
			return strings.Contains(upper, "HTTP/1.") || strings.Contains(upper, "HTTP/2")
		}
	}
	return strings.HasPrefix(data, "PRI * HTTP/2.0")
}
