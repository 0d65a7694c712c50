package discovery

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/ovaladares/beluga/internal/telemetry"
	"github.com/ovaladares/beluga/pkg/domain"
	"github.com/ovaladares/beluga/pkg/gossip"
)

// Request asks the loop for a discovery round. FailedEndpoint names the node
// the caller just lost, if any; that node is skipped when the loop reuses its
// cached cluster view.
type Request struct {
	FailedEndpoint *domain.Endpoint
}

// GossipClient fetches the member list from one seed.
type GossipClient interface {
	Members(ctx context.Context, seed gossip.Seed) ([]gossip.MemberInfo, error)
}

// LoopConfig carries the knobs of a discovery loop.
type LoopConfig struct {
	MaxDiscoverAttempts int
	RetryDelay          time.Duration
	NodePreference      domain.NodePreference
	Secure              bool
}

// Loop serves discovery requests sequentially. A successful round caches the
// members it saw so later rounds start from that view instead of going back
// to the seed resolver; the cache is only replaced by the next successful
// round.
type Loop struct {
	resolver SeedResolver
	client   GossipClient
	requests <-chan Request
	outcomes chan<- domain.Msg
	conf     LoopConfig
	logg     *slog.Logger

	previousCandidates []Member
	rng                *rand.Rand
	done               chan struct{}
}

func NewLoop(
	resolver SeedResolver,
	client GossipClient,
	requests <-chan Request,
	outcomes chan<- domain.Msg,
	conf LoopConfig,
	logg *slog.Logger,
) *Loop {
	seed1, seed2 := entropySeed()

	return &Loop{
		resolver: resolver,
		client:   client,
		requests: requests,
		outcomes: outcomes,
		conf:     conf,
		logg:     logg.With("component", "beluga_discovery"),
		rng:      rand.New(rand.NewPCG(seed1, seed2)),
		done:     make(chan struct{}),
	}
}

// Run consumes requests until the request channel closes.
func (l *Loop) Run() {
	defer close(l.done)

	for req := range l.requests {
		l.handle(req)
	}
}

// Done closes once Run returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) handle(req Request) {
	att := 1

	for {
		if att > l.conf.MaxDiscoverAttempts {
			telemetry.DiscoveryFailuresTotal.Inc()
			l.logg.Error("Failed to discover candidate", "attempts", l.conf.MaxDiscoverAttempts)

			l.publish(domain.Failed{
				RequestID: uuid.Nil,
				Err:       fmt.Errorf("failed to discover candidate in %d attempts", l.conf.MaxDiscoverAttempts),
			})

			return
		}

		if node := l.discover(req.FailedEndpoint); node != nil {
			telemetry.DiscoveryAttemptsTotal.WithLabelValues("established").Inc()
			l.publish(domain.Establish{Endpoint: l.establishEndpoint(node)})

			return
		}

		telemetry.DiscoveryAttemptsTotal.WithLabelValues("no_candidate").Inc()

		time.Sleep(l.conf.RetryDelay)
		l.logg.Warn("Failed to discover candidate, retrying", "attempt", att)
		att++
	}
}

// discover walks the candidate seeds and returns the endpoints of the first
// member batch that yields a node, or nil when the whole round came up empty.
func (l *Loop) discover(failed *domain.Endpoint) *NodeEndpoints {
	for _, seed := range l.nextSeeds(failed) {
		infos, err := l.client.Members(context.Background(), seed)
		if err != nil {
			l.logg.Info("Candidate resolution error", "candidate", seed.String(), "error", err)
			continue
		}

		members, err := MembersFromInfo(infos)
		if err != nil {
			l.logg.Info("Candidate resolution error", "candidate", seed.String(), "error", err)
			continue
		}

		if len(members) == 0 {
			continue
		}

		node := BestNode(l.rng, l.conf.NodePreference, members)
		if node == nil {
			l.logg.Warn("No member passed node selection")
			continue
		}

		l.previousCandidates = members
		telemetry.CachedMembers.Set(float64(len(members)))

		secure := "none"
		if node.SecureTCPEndpoint != nil {
			secure = node.SecureTCPEndpoint.String()
		}

		l.logg.Info("Found best node candidate", "tcp", node.TCPEndpoint.String(), "secure", secure)

		return node
	}

	return nil
}

func (l *Loop) nextSeeds(failed *domain.Endpoint) []gossip.Seed {
	if l.previousCandidates != nil {
		return SeedsFromMembers(l.previousCandidates, failed, l.conf.Secure)
	}

	seeds, err := l.resolver.Resolve(context.Background(), l.rng)
	if err != nil {
		l.logg.Error("Error when resolving gossip seeds", "error", err)
		return nil
	}

	return seeds
}

func (l *Loop) establishEndpoint(node *NodeEndpoints) domain.Endpoint {
	if !l.conf.Secure {
		return node.TCPEndpoint
	}

	if node.SecureTCPEndpoint == nil {
		panic("secure mode requires the selected node to advertise a secure tcp endpoint")
	}

	return *node.SecureTCPEndpoint
}

// publish never blocks; a slow consumer drops outcomes rather than stalling
// discovery.
func (l *Loop) publish(msg domain.Msg) {
	select {
	case l.outcomes <- msg:
	default:
		l.logg.Warn("Outcome channel full, dropping message")
	}
}

func entropySeed() (uint64, uint64) {
	var buf [16]byte

	if _, err := cryptorand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("failed to seed discovery rng: %v", err))
	}

	return binary.LittleEndian.Uint64(buf[:8]), binary.LittleEndian.Uint64(buf[8:])
}
