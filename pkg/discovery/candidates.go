package discovery

import (
	"math/rand/v2"

	"github.com/ovaladares/beluga/pkg/domain"
	"github.com/ovaladares/beluga/pkg/gossip"
)

// candidates keeps regular nodes apart from managers so that managers are
// only consulted after every node had its chance.
type candidates struct {
	nodes    []Member
	managers []Member
}

func newCandidates(capacity int) *candidates {
	return &candidates{
		nodes:    make([]Member, 0, capacity),
		managers: make([]Member, 0, capacity),
	}
}

func (c *candidates) push(member Member) {
	if member.State == gossip.StateManager {
		c.managers = append(c.managers, member)
		return
	}

	c.nodes = append(c.nodes, member)
}

func (c *candidates) shuffle() {
	rand.Shuffle(len(c.nodes), func(i, j int) {
		c.nodes[i], c.nodes[j] = c.nodes[j], c.nodes[i]
	})

	rand.Shuffle(len(c.managers), func(i, j int) {
		c.managers[i], c.managers[j] = c.managers[j], c.managers[i]
	})
}

func (c *candidates) seeds(secure bool) []gossip.Seed {
	arranged := append(c.nodes, c.managers...)

	seeds := make([]gossip.Seed, 0, len(arranged))

	for _, member := range arranged {
		seeds = append(seeds, gossip.SeedFromAddr(member.ExternalHTTP, secure))
	}

	return seeds
}

// SeedsFromMembers turns previously seen members into gossip seeds. The
// member whose external TCP endpoint matches failed is left out, each bucket
// is shuffled and managers sort behind nodes.
func SeedsFromMembers(members []Member, failed *domain.Endpoint, secure bool) []gossip.Seed {
	arranged := newCandidates(len(members))

	for _, member := range members {
		if failed != nil && member.ExternalTCP == failed.Addr {
			continue
		}

		arranged.push(member)
	}

	arranged.shuffle()

	return arranged.seeds(secure)
}
