package discovery

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"github.com/ovaladares/beluga/pkg/gossip"
)

// Member is a cluster member whose advertised addresses all parsed. Secure
// addresses are optional; a zero netip.AddrPort means the member does not
// advertise that listener.
type Member struct {
	ExternalTCP       netip.AddrPort
	ExternalSecureTCP netip.AddrPort
	ExternalHTTP      netip.AddrPort
	InternalTCP       netip.AddrPort
	InternalSecureTCP netip.AddrPort
	InternalHTTP      netip.AddrPort
	State             gossip.VNodeState
	IsAlive           bool
}

// MemberFromInfo validates a single gossip record. Secure listeners share the
// IP of their plain counterpart and are only present when the advertised port
// is at least 1.
func MemberFromInfo(info gossip.MemberInfo) (Member, error) {
	externalTCP, err := parseHostPort(info.ExternalTCPIP, info.ExternalTCPPort)
	if err != nil {
		return Member{}, err
	}

	var externalSecureTCP netip.AddrPort

	if info.ExternalSecureTCPPort >= 1 {
		externalSecureTCP, err = parseHostPort(info.ExternalTCPIP, info.ExternalSecureTCPPort)
		if err != nil {
			return Member{}, err
		}
	}

	externalHTTP, err := parseHostPort(info.ExternalHTTPIP, info.ExternalHTTPPort)
	if err != nil {
		return Member{}, err
	}

	internalTCP, err := parseHostPort(info.InternalTCPIP, info.InternalTCPPort)
	if err != nil {
		return Member{}, err
	}

	var internalSecureTCP netip.AddrPort

	if info.InternalSecureTCPPort >= 1 {
		internalSecureTCP, err = parseHostPort(info.InternalTCPIP, info.InternalSecureTCPPort)
		if err != nil {
			return Member{}, err
		}
	}

	internalHTTP, err := parseHostPort(info.InternalHTTPIP, info.InternalHTTPPort)
	if err != nil {
		return Member{}, err
	}

	return Member{
		ExternalTCP:       externalTCP,
		ExternalSecureTCP: externalSecureTCP,
		ExternalHTTP:      externalHTTP,
		InternalTCP:       internalTCP,
		InternalSecureTCP: internalSecureTCP,
		InternalHTTP:      internalHTTP,
		State:             info.State,
		IsAlive:           info.IsAlive,
	}, nil
}

// MembersFromInfo validates a whole gossip response. One bad record fails the
// batch, so callers never act on a partial view of the cluster.
func MembersFromInfo(infos []gossip.MemberInfo) ([]Member, error) {
	members := make([]Member, 0, len(infos))

	for _, info := range infos {
		member, err := MemberFromInfo(info)
		if err != nil {
			return nil, fmt.Errorf("failed to validate member %s: %w", info.InstanceID, err)
		}

		members = append(members, member)
	}

	return members, nil
}

func parseHostPort(ip string, port uint16) (netip.AddrPort, error) {
	addr, err := netip.ParseAddrPort(net.JoinHostPort(ip, strconv.Itoa(int(port))))
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("failed to parse advertised address: %w", err)
	}

	return addr, nil
}
