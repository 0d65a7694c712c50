package beluga

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/ovaladares/beluga/internal/telemetry"
	"github.com/ovaladares/beluga/pkg/discovery"
	"github.com/ovaladares/beluga/pkg/domain"
	"github.com/ovaladares/beluga/pkg/gossip"
)

var (
	ErrNoSeeds          = errors.New("no gossip seeds: set Seeds or DNSDomain")
	ErrAlreadyConnected = errors.New("discovery already connected")
	ErrNotConnected     = errors.New("discovery not connected")
	ErrClosed           = errors.New("discovery closed")
	ErrRequestQueueFull = errors.New("discovery request queue full")
)

const requestQueueSize = 16

// Discovery locates the best node of an event store cluster and relocates it
// on demand. It serves as a client-facing wrapper around the internal
// discovery loop.
type Discovery struct {
	requests chan discovery.Request
	outcomes chan domain.Msg
	loop     *discovery.Loop

	mu        sync.Mutex
	connected bool
	closed    bool
}

// NewDiscovery creates a new Discovery instance configured with the provided
// parameters.
//
// Parameters:
//   - config: Configuration options for the discovery. Either Seeds or
//     DNSDomain must be set.
//
// Returns:
//   - A new Discovery instance ready to be connected
//   - error: nil if successful, otherwise an error describing why the
//     configuration was rejected (no seeds, or a seed that does not parse
//     as "host:port")
func NewDiscovery(config *Config) (*Discovery, error) {
	conf := NewConfig(config)

	conf.Logger.Debug("Creating new cluster discovery")

	resolver, err := seedResolver(conf)
	if err != nil {
		return nil, err
	}

	requests := make(chan discovery.Request, requestQueueSize)
	outcomes := make(chan domain.Msg, conf.OutcomeBufferSize)

	loop := discovery.NewLoop(
		resolver,
		gossip.NewClient(conf.GossipTimeout, conf.Logger),
		requests,
		outcomes,
		discovery.LoopConfig{
			MaxDiscoverAttempts: conf.MaxDiscoverAttempts,
			RetryDelay:          conf.RetryDelay,
			NodePreference:      conf.NodePreference,
			Secure:              conf.Secure,
		},
		conf.Logger,
	)

	return &Discovery{
		requests: requests,
		outcomes: outcomes,
		loop:     loop,
	}, nil
}

func seedResolver(conf *Config) (discovery.SeedResolver, error) {
	if len(conf.Seeds) > 0 {
		seeds := make([]gossip.Seed, 0, len(conf.Seeds))

		for _, raw := range conf.Seeds {
			host, portStr, err := net.SplitHostPort(raw)
			if err != nil {
				return nil, fmt.Errorf("failed to parse seed %q: %w", raw, err)
			}

			port, err := strconv.ParseUint(portStr, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("failed to parse seed %q: %w", raw, err)
			}

			seeds = append(seeds, gossip.NewSeed(host, uint16(port), conf.Secure))
		}

		return discovery.NewStaticResolver(seeds), nil
	}

	if conf.DNSDomain != "" {
		return discovery.NewDNSResolver(conf.DNSDomain, conf.GossipPort, conf.Secure, net.DefaultResolver, conf.Logger), nil
	}

	return nil, ErrNoSeeds
}

// Connect starts the discovery loop and requests a first discovery round.
//
// The connection must be performed before any discovery operations can be
// executed.
//
// Returns:
//   - error: nil if successful, otherwise an error describing what went wrong
func (d *Discovery) Connect() error {
	d.mu.Lock()

	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}

	if d.connected {
		d.mu.Unlock()
		return ErrAlreadyConnected
	}

	d.connected = true
	d.mu.Unlock()

	go d.loop.Run()

	return d.Discover()
}

// Discover requests a discovery round. The result arrives on the Outcomes
// channel.
//
// Returns:
//   - error: nil if the request was queued, otherwise an error (e.g., if
//     Connect was not called or the request queue is full)
func (d *Discovery) Discover() error {
	return d.enqueue(discovery.Request{})
}

// DiscoverAvoiding requests a discovery round that skips the given endpoint
// when reusing the cached cluster view.
//
// Parameters:
//   - failed: The endpoint of the node the caller lost its connection to
//
// Returns:
//   - error: nil if the request was queued, otherwise an error (e.g., if
//     Connect was not called or the request queue is full)
func (d *Discovery) DiscoverAvoiding(failed domain.Endpoint) error {
	return d.enqueue(discovery.Request{FailedEndpoint: &failed})
}

func (d *Discovery) enqueue(req discovery.Request) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	if !d.connected {
		return ErrNotConnected
	}

	select {
	case d.requests <- req:
		return nil
	default:
		return ErrRequestQueueFull
	}
}

// Outcomes returns the channel discovery results arrive on. The channel is
// never closed; stop reading it after Close.
func (d *Discovery) Outcomes() <-chan domain.Msg {
	return d.outcomes
}

// Close stops the discovery loop. Requests already queued are still served
// before the loop shuts down. Close is idempotent.
//
// Returns:
//   - error: always nil, kept for interface compatibility with io.Closer
func (d *Discovery) Close() error {
	d.mu.Lock()

	if d.closed {
		d.mu.Unlock()
		return nil
	}

	d.closed = true
	wasConnected := d.connected
	d.mu.Unlock()

	close(d.requests)

	if wasConnected {
		<-d.loop.Done()
	}

	return nil
}

// MetricsHandler exposes the discovery metrics in Prometheus text format,
// ready to be mounted on an HTTP mux.
func MetricsHandler() http.Handler {
	return telemetry.MetricsHandler()
}
