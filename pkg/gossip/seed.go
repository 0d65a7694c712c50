package gossip

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// Seed is one address to ask for the cluster's current membership. Seeds are
// rebuilt on every discovery attempt and never stored.
type Seed struct {
	Host   string
	Port   uint16
	Scheme string
}

// NewSeed builds a seed for a host name or literal IP.
func NewSeed(host string, port uint16, secure bool) Seed {
	scheme := SchemeHTTP
	if secure {
		scheme = SchemeHTTPS
	}

	return Seed{
		Host:   host,
		Port:   port,
		Scheme: scheme,
	}
}

// SeedFromAddr builds a seed targeting a member's advertised address.
func SeedFromAddr(addr netip.AddrPort, secure bool) Seed {
	return NewSeed(addr.Addr().String(), addr.Port(), secure)
}

// URL is the gossip endpoint this seed answers membership queries on.
func (s Seed) URL() string {
	scheme := s.Scheme
	if scheme == "" {
		scheme = SchemeHTTP
	}

	return fmt.Sprintf("%s://%s/gossip?format=json", scheme, s.hostPort())
}

func (s Seed) String() string {
	return s.hostPort()
}

func (s Seed) hostPort() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(int(s.Port)))
}
