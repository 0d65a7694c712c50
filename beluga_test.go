package beluga_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ovaladares/beluga"
	"github.com/ovaladares/beluga/pkg/domain"
	"github.com/ovaladares/beluga/pkg/gossip"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitOutcome(t *testing.T, outcomes <-chan domain.Msg) domain.Msg {
	t.Helper()

	select {
	case msg := <-outcomes:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a discovery outcome")
		return nil
	}
}

func TestDiscoveryConnect_EstablishesBestNode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gossip", r.URL.Path, "expected the gossip path")
		assert.Equal(t, "json", r.URL.Query().Get("format"), "expected the json format")

		fmt.Fprint(w, `{
			"members": [
				{
					"instanceId": "8f5623a6-9a3a-4dd8-8a99-f261aa12d668",
					"state": "Master",
					"isAlive": true,
					"internalTcpIp": "127.0.0.1",
					"internalTcpPort": 1112,
					"externalTcpIp": "127.0.0.1",
					"externalTcpPort": 1113,
					"internalHttpIp": "127.0.0.1",
					"internalHttpPort": 2112,
					"externalHttpIp": "127.0.0.1",
					"externalHttpPort": 2113
				},
				{
					"instanceId": "c45c04a1-7efd-4b75-84f8-7a3a11c0c311",
					"state": "Manager",
					"isAlive": true,
					"internalTcpIp": "127.0.0.1",
					"internalTcpPort": 1122,
					"externalTcpIp": "127.0.0.1",
					"externalTcpPort": 1123,
					"internalHttpIp": "127.0.0.1",
					"internalHttpPort": 2122,
					"externalHttpIp": "127.0.0.1",
					"externalHttpPort": 2123
				}
			]
		}`)
	}))
	defer server.Close()

	disc, err := beluga.NewDiscovery(&beluga.Config{
		Logger: testLogger(),
		Seeds:  []string{server.Listener.Addr().String()},
	})
	assert.NoError(t, err, "expected the discovery to build")
	defer disc.Close()

	err = disc.Connect()
	assert.NoError(t, err, "expected connect to queue the first round")

	establish, ok := waitOutcome(t, disc.Outcomes()).(domain.Establish)
	assert.True(t, ok, "expected an establish outcome")
	assert.Equal(t, "127.0.0.1:1113", establish.Endpoint.String(), "expected the only eligible member")
}

func TestDiscoveryConnect_FailsAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	seedAddr := server.Listener.Addr().String()

	// Free the port so every gossip query is refused.
	server.Close()

	disc, err := beluga.NewDiscovery(&beluga.Config{
		Logger:              testLogger(),
		Seeds:               []string{seedAddr},
		MaxDiscoverAttempts: 2,
		RetryDelay:          100 * time.Millisecond,
	})
	assert.NoError(t, err, "expected the discovery to build")
	defer disc.Close()

	start := time.Now()

	err = disc.Connect()
	assert.NoError(t, err, "expected connect to queue the first round")

	failed, ok := waitOutcome(t, disc.Outcomes()).(domain.Failed)
	elapsed := time.Since(start)

	assert.True(t, ok, "expected a failure outcome")
	assert.Contains(t, failed.Err.Error(), "failed to discover candidate in 2 attempts", "expected the attempt count in the error")
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond, "expected the retry delay after each failed attempt")
}

func TestDiscoveryDiscoverAvoiding_SkipsLostNode(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		host, portStr, err := net.SplitHostPort(r.Host)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		gossipPort, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		member := func(tcpPort uint16, state gossip.VNodeState) gossip.MemberInfo {
			return gossip.MemberInfo{
				State:            state,
				IsAlive:          true,
				InternalTCPIP:    host,
				InternalTCPPort:  tcpPort,
				ExternalTCPIP:    host,
				ExternalTCPPort:  tcpPort,
				InternalHTTPIP:   host,
				InternalHTTPPort: uint16(gossipPort),
				ExternalHTTPIP:   host,
				ExternalHTTPPort: uint16(gossipPort),
			}
		}

		doc := gossip.Response{Members: []gossip.MemberInfo{
			member(1113, gossip.StateMaster),
			member(1114, gossip.StateSlave),
		}}

		// The master is gone from the second response on.
		if n > 1 {
			doc.Members = doc.Members[1:]
		}

		json.NewEncoder(w).Encode(doc)
	}))
	defer server.Close()

	disc, err := beluga.NewDiscovery(&beluga.Config{
		Logger:         testLogger(),
		Seeds:          []string{server.Listener.Addr().String()},
		NodePreference: domain.PreferLeader,
	})
	assert.NoError(t, err, "expected the discovery to build")
	defer disc.Close()

	err = disc.Connect()
	assert.NoError(t, err, "expected connect to queue the first round")

	first, ok := waitOutcome(t, disc.Outcomes()).(domain.Establish)
	assert.True(t, ok, "expected the first round to establish")
	assert.Equal(t, "127.0.0.1:1113", first.Endpoint.String(), "expected the master")

	err = disc.DiscoverAvoiding(first.Endpoint)
	assert.NoError(t, err, "expected the rediscovery request to queue")

	second, ok := waitOutcome(t, disc.Outcomes()).(domain.Establish)
	assert.True(t, ok, "expected the second round to establish")
	assert.Equal(t, "127.0.0.1:1114", second.Endpoint.String(), "expected the replica after losing the master")
}

func TestDiscoveryDiscover_NotConnected(t *testing.T) {
	disc, err := beluga.NewDiscovery(&beluga.Config{
		Logger: testLogger(),
		Seeds:  []string{"127.0.0.1:2113"},
	})
	assert.NoError(t, err, "expected the discovery to build")
	defer disc.Close()

	err = disc.Discover()
	assert.ErrorIs(t, err, beluga.ErrNotConnected, "expected discover to require connect")
}

func TestDiscoveryConnect_Twice(t *testing.T) {
	disc, err := beluga.NewDiscovery(&beluga.Config{
		Logger:              testLogger(),
		Seeds:               []string{"127.0.0.1:9"},
		MaxDiscoverAttempts: 1,
		RetryDelay:          time.Millisecond,
		GossipTimeout:       50 * time.Millisecond,
	})
	assert.NoError(t, err, "expected the discovery to build")
	defer disc.Close()

	err = disc.Connect()
	assert.NoError(t, err, "expected the first connect to succeed")

	err = disc.Connect()
	assert.ErrorIs(t, err, beluga.ErrAlreadyConnected, "expected the second connect to be rejected")
}

func TestDiscoveryClose_Idempotent(t *testing.T) {
	disc, err := beluga.NewDiscovery(&beluga.Config{
		Logger: testLogger(),
		Seeds:  []string{"127.0.0.1:2113"},
	})
	assert.NoError(t, err, "expected the discovery to build")

	assert.NoError(t, disc.Close(), "expected close to succeed")
	assert.NoError(t, disc.Close(), "expected close to be idempotent")

	assert.ErrorIs(t, disc.Connect(), beluga.ErrClosed, "expected connect after close to be rejected")
	assert.ErrorIs(t, disc.Discover(), beluga.ErrClosed, "expected discover after close to be rejected")
}

func TestNewDiscovery_NoSeeds(t *testing.T) {
	_, err := beluga.NewDiscovery(&beluga.Config{Logger: testLogger()})
	assert.ErrorIs(t, err, beluga.ErrNoSeeds, "expected a config without seeds to be rejected")
}

func TestNewDiscovery_BadSeed(t *testing.T) {
	_, err := beluga.NewDiscovery(&beluga.Config{
		Logger: testLogger(),
		Seeds:  []string{"localhost"},
	})
	assert.Error(t, err, "expected a seed without a port to be rejected")
	assert.Contains(t, err.Error(), "failed to parse seed", "expected the seed in the error")

	_, err = beluga.NewDiscovery(&beluga.Config{
		Logger: testLogger(),
		Seeds:  []string{"localhost:notaport"},
	})
	assert.Error(t, err, "expected a non-numeric port to be rejected")
}

func TestMetricsHandler_ServesPrometheusText(t *testing.T) {
	server := httptest.NewServer(beluga.MetricsHandler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	assert.NoError(t, err, "expected the metrics endpoint to respond")
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err, "expected the body to read")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "expected a 200")
	assert.Contains(t, string(body), "beluga_uptime_seconds", "expected the uptime gauge")
}
