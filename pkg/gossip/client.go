package gossip

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ovaladares/beluga/internal/telemetry"
)

// Client queries cluster members for their view of the cluster membership.
type Client struct {
	http *http.Client
	logg *slog.Logger
}

// NewClient creates a gossip client. Every query is bounded by the given
// timeout.
func NewClient(timeout time.Duration, logg *slog.Logger) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
		logg: logg.With("component", "beluga_gossip"),
	}
}

// Members asks one seed for the cluster's member list. Transport errors,
// non-2xx statuses and undecodable bodies are all reported as errors; the
// caller is expected to move on to its next candidate seed.
func (c *Client) Members(ctx context.Context, seed Seed) ([]MemberInfo, error) {
	start := time.Now()
	defer func() {
		telemetry.GossipRequestDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, seed.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build gossip request for %s: %w", seed, err)
	}

	resp, err := c.http.Do(req)

	if err != nil {
		telemetry.GossipRequestsTotal.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("failed to query gossip endpoint %s: %w", seed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		telemetry.GossipRequestsTotal.WithLabelValues("bad_status").Inc()
		return nil, fmt.Errorf("gossip endpoint %s responded with status %d", seed, resp.StatusCode)
	}

	var doc Response

	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		telemetry.GossipRequestsTotal.WithLabelValues("decode_error").Inc()
		return nil, fmt.Errorf("failed to decode gossip response from %s: %w", seed, err)
	}

	telemetry.GossipRequestsTotal.WithLabelValues("ok").Inc()

	c.logg.Debug("Gossip query succeeded", "seed", seed.String(), "members", len(doc.Members))

	return doc.Members, nil
}
