package stream

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// HostPort is a dial target: either a domain name with a port, or an
// already resolved socket address. It is pure data; resolution and
// dialing belong to the connection-establishment layer.
type HostPort struct {
	Domain string
	Port   uint16
	Addr   netip.AddrPort
}

// DomainPort returns a HostPort for an unresolved domain name.
func DomainPort(domain string, port uint16) HostPort {
	return HostPort{Domain: domain, Port: port}
}

// IPPort returns a HostPort for a resolved socket address.
func IPPort(addr netip.AddrPort) HostPort {
	return HostPort{Addr: addr}
}

// IsIP reports whether the target is a resolved socket address.
func (hp HostPort) IsIP() bool {
	return hp.Addr.IsValid()
}

// String renders the target in host:port form suitable for net.Dial.
func (hp HostPort) String() string {
	if hp.IsIP() {
		return hp.Addr.String()
	}
	return net.JoinHostPort(hp.Domain, strconv.Itoa(int(hp.Port)))
}

// ParseHostPort parses a host:port string into a HostPort, classifying
// the host as an IP address or a domain name.
func ParseHostPort(s string) (HostPort, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return HostPort{}, fmt.Errorf("invalid host:port %q: %w", s, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return HostPort{}, fmt.Errorf("invalid port in %q: %w", s, err)
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return IPPort(netip.AddrPortFrom(addr, uint16(port))), nil
	}
	if host == "" {
		return HostPort{}, fmt.Errorf("empty host in %q", s)
	}
	return DomainPort(host, uint16(port)), nil
}
