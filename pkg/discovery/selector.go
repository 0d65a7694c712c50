package discovery

import (
	"math/rand/v2"

	"github.com/ovaladares/beluga/pkg/domain"
	"github.com/ovaladares/beluga/pkg/gossip"
)

// NodeEndpoints holds the endpoints a selected node advertises for client
// connections. SecureTCPEndpoint is nil when the node has no secure listener.
type NodeEndpoints struct {
	TCPEndpoint       domain.Endpoint
	SecureTCPEndpoint *domain.Endpoint
}

// BestNode picks the member a client should connect to, honoring the given
// preference. Members that are not alive, managers and nodes shutting down
// or already shut down never qualify. Returns nil when nothing qualifies.
func BestNode(rng *rand.Rand, preference domain.NodePreference, members []Member) *NodeEndpoints {
	eligible := make([]Member, 0, len(members))

	for _, member := range members {
		if member.IsAlive && allowedState(member.State) {
			eligible = append(eligible, member)
		}
	}

	if len(eligible) == 0 {
		return nil
	}

	compare := comparatorFor(rng, preference)

	// The incumbent only gives way when ranked strictly greater than the
	// challenger; ties keep the incumbent.
	best := eligible[0]

	for _, challenger := range eligible[1:] {
		if compare(best, challenger) > 0 {
			best = challenger
		}
	}

	node := &NodeEndpoints{TCPEndpoint: domain.EndpointFromAddr(best.ExternalTCP)}

	if best.ExternalSecureTCP.IsValid() {
		secure := domain.EndpointFromAddr(best.ExternalSecureTCP)
		node.SecureTCPEndpoint = &secure
	}

	return node
}

func allowedState(state gossip.VNodeState) bool {
	switch state {
	case gossip.StateManager, gossip.StateShuttingDown, gossip.StateShutdown:
		return false
	default:
		return true
	}
}

func comparatorFor(rng *rand.Rand, preference domain.NodePreference) func(incumbent, challenger Member) int {
	switch preference {
	case domain.PreferLeader:
		return func(incumbent, challenger Member) int {
			if incumbent.State == gossip.StateMaster {
				return -1
			}

			if challenger.State == gossip.StateMaster {
				return 1
			}

			return 0
		}

	case domain.PreferFollower:
		// A master incumbent survives every challenger, while a slave
		// challenger displaces any non-master incumbent.
		return func(incumbent, challenger Member) int {
			if incumbent.State == gossip.StateMaster {
				return -1
			}

			if challenger.State == gossip.StateSlave {
				return 1
			}

			return 0
		}

	default:
		return func(incumbent, challenger Member) int {
			if rng.Uint32()%2 == 0 {
				return 1
			}

			return -1
		}
	}
}
