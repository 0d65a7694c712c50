package domain

import "net/netip"

// Endpoint is a single reachable address of a cluster node.
type Endpoint struct {
	Addr netip.AddrPort
}

// EndpointFromAddr wraps an already parsed address.
func EndpointFromAddr(addr netip.AddrPort) Endpoint {
	return Endpoint{Addr: addr}
}

func (e Endpoint) String() string {
	return e.Addr.String()
}
