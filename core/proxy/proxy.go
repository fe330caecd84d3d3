package proxy

import (
	"bufio"
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/appspotengine/rsnova/core/config"
	"github.com/appspotengine/rsnova/core/stream"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotConfigured = errors.New("no route configured")
	ErrNoTLSConfig   = errors.New("no tls configuration")
)

var headerSeparator = []byte("\r\n\r\n")

// Proxy routes incoming connections by sniffed protocol and configured
// host.
type Proxy struct {
	// Config defines the user-defined gateway routes.
	Config *config.Config
	// TLSConfig is used to terminate incoming TLS connections.
	TLSConfig *tls.Config
}

// New returns a new Proxy with an empty configuration.
func New() *Proxy {
	return &Proxy{
		Config: config.New(),
	}
}

// Handler sniffs the connection and dispatches to the protocol handler.
func (p *Proxy) Handler(conn net.Conn) error {
	defer conn.Close()

	sniffer := NewSniffer(
		p.Config.Sniff.PeekBytes,
		time.Duration(p.Config.Sniff.TimeoutMS)*time.Millisecond,
	)
	proto, pconn := sniffer.Conn(conn)

	log.Debug().
		Str("proto", proto).
		Str("remote", conn.RemoteAddr().String()).
		Msg("sniffed connection")

	var err error
	switch proto {
	case ProtoTLS:
		err = p.tls(pconn)
	case ProtoHTTP:
		err = p.http(pconn)
	default:
		err = p.tcp(pconn)
	}

	if err != nil {
		log.Warn().
			Err(err).
			Str("proto", proto).
			Str("remote", conn.RemoteAddr().String()).
			Msg("connection closed")
	}
	return err
}

// http frames the request head, routes by Host and forwards the framed
// bytes ahead of the remaining stream.
func (p *Proxy) http(conn net.Conn) error {
	op := stream.ReadUntilSeparator(stream.NewReaderPoller(conn), headerSeparator)
	_, head, tail, err := op.Await()
	if err != nil {
		return fmt.Errorf("failed to frame request head: %w", err)
	}

	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(head)))
	if err != nil {
		return fmt.Errorf("failed to parse request head: %w", err)
	}

	host := req.Host
	if h, _, splitErr := net.SplitHostPort(host); splitErr == nil {
		host = h
	}

	route := p.Config.GetRoute(host)
	if route == nil {
		return fmt.Errorf("%w for host %q", ErrNotConfigured, host)
	}
	if route.Limiter != nil && !route.Limiter.Allow(conn) {
		return nil
	}

	dst, err := net.Dial("tcp", route.Target.String())
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", route.Target, err)
	}
	defer dst.Close()

	// Replay the framed head plus any bytes read past the separator;
	// they belong to the next segment of the same stream.
	if _, err := dst.Write(head); err != nil {
		return fmt.Errorf("failed to forward request head: %w", err)
	}
	if len(tail) > 0 {
		if _, err := dst.Write(tail); err != nil {
			return fmt.Errorf("failed to forward request body: %w", err)
		}
	}

	route.Metrics.ConnOpened()
	defer route.Metrics.ConnClosed()

	return Stream(route.Metrics.Wrap(conn), dst)
}

// tls terminates the handshake, routes by SNI and either re-frames the
// decrypted stream as HTTP or forwards it raw.
func (p *Proxy) tls(conn net.Conn) error {
	if p.TLSConfig == nil {
		return ErrNoTLSConfig
	}

	tlsConn := tls.Server(conn, p.TLSConfig)
	if err := tlsConn.Handshake(); err != nil {
		return fmt.Errorf("tls handshake failed: %w", err)
	}

	sni := tlsConn.ConnectionState().ServerName
	route := p.Config.GetRoute(sni)
	if route == nil {
		return fmt.Errorf("%w for sni %q", ErrNotConfigured, sni)
	}
	if route.Limiter != nil && !route.Limiter.Allow(conn) {
		return nil
	}

	if route.Terminate {
		return p.http(tlsConn)
	}

	dst, err := net.Dial("tcp", route.Target.String())
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", route.Target, err)
	}
	defer dst.Close()

	route.Metrics.ConnOpened()
	defer route.Metrics.ConnClosed()

	return Stream(route.Metrics.Wrap(tlsConn), dst)
}

// tcp drops connections whose protocol offers no routing key.
func (p *Proxy) tcp(conn net.Conn) error {
	return conn.Close()
}
