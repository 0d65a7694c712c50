package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"

	"github.com/ovaladares/beluga/pkg/gossip"
)

// SeedResolver produces the gossip seeds a discovery round starts from when
// no previous cluster view is available.
type SeedResolver interface {
	Resolve(ctx context.Context, rng *rand.Rand) ([]gossip.Seed, error)
}

// StaticResolver serves a fixed seed list in a fresh random order on every
// call.
type StaticResolver struct {
	seeds []gossip.Seed
}

func NewStaticResolver(seeds []gossip.Seed) *StaticResolver {
	return &StaticResolver{seeds: seeds}
}

func (r *StaticResolver) Resolve(_ context.Context, rng *rand.Rand) ([]gossip.Seed, error) {
	seeds := make([]gossip.Seed, len(r.seeds))
	copy(seeds, r.seeds)

	rng.Shuffle(len(seeds), func(i, j int) {
		seeds[i], seeds[j] = seeds[j], seeds[i]
	})

	return seeds, nil
}

// Lookuper is the subset of net.Resolver needed for SRV based seed
// discovery.
type Lookuper interface {
	LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error)
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// DNSResolver discovers seeds from an SRV record. Every IP behind the
// record's targets becomes a seed on the configured gossip port.
type DNSResolver struct {
	domain     string
	gossipPort uint16
	secure     bool
	lookuper   Lookuper
	logg       *slog.Logger
}

func NewDNSResolver(domain string, gossipPort uint16, secure bool, lookuper Lookuper, logg *slog.Logger) *DNSResolver {
	return &DNSResolver{
		domain:     domain,
		gossipPort: gossipPort,
		secure:     secure,
		lookuper:   lookuper,
		logg:       logg.With("component", "beluga_dns"),
	}
}

func (r *DNSResolver) Resolve(ctx context.Context, rng *rand.Rand) ([]gossip.Seed, error) {
	_, records, err := r.lookuper.LookupSRV(ctx, "", "", r.domain)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve SRV record %s: %w", r.domain, err)
	}

	var seeds []gossip.Seed

	for _, record := range records {
		ips, err := r.lookuper.LookupIP(ctx, "ip", record.Target)
		if err != nil {
			r.logg.Warn("Failed to resolve SRV target", "target", record.Target, "error", err)
			continue
		}

		for _, ip := range ips {
			seeds = append(seeds, gossip.NewSeed(ip.String(), r.gossipPort, r.secure))
		}
	}

	rng.Shuffle(len(seeds), func(i, j int) {
		seeds[i], seeds[j] = seeds[j], seeds[i]
	})

	return seeds, nil
}
