package discovery_test

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/netip"
	"sync"

	"github.com/google/uuid"

	"github.com/ovaladares/beluga/pkg/discovery"
	"github.com/ovaladares/beluga/pkg/gossip"
)

// This file contains mock implementations of the discovery collaborators.
// They make it possible to exercise the loop without a live cluster.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMember(tcp, http string, state gossip.VNodeState, alive bool) discovery.Member {
	return discovery.Member{
		ExternalTCP:  netip.MustParseAddrPort(tcp),
		ExternalHTTP: netip.MustParseAddrPort(http),
		State:        state,
		IsAlive:      alive,
	}
}

func newMemberInfo(ip string, tcpPort, httpPort uint16, state gossip.VNodeState, alive bool) gossip.MemberInfo {
	return gossip.MemberInfo{
		InstanceID:       uuid.New(),
		State:            state,
		IsAlive:          alive,
		InternalTCPIP:    ip,
		InternalTCPPort:  tcpPort,
		ExternalTCPIP:    ip,
		ExternalTCPPort:  tcpPort,
		InternalHTTPIP:   ip,
		InternalHTTPPort: httpPort,
		ExternalHTTPIP:   ip,
		ExternalHTTPPort: httpPort,
	}
}

type MockGossipClient struct {
	ResponsesBySeed map[string][]gossip.MemberInfo
	ErrBySeed       map[string]error
	DefaultErr      error

	CalledWith []gossip.Seed

	Mu sync.Mutex
}

func (m *MockGossipClient) Members(_ context.Context, seed gossip.Seed) ([]gossip.MemberInfo, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	m.CalledWith = append(m.CalledWith, seed)

	if err, ok := m.ErrBySeed[seed.String()]; ok {
		return nil, err
	}

	if infos, ok := m.ResponsesBySeed[seed.String()]; ok {
		return infos, nil
	}

	if m.DefaultErr != nil {
		return nil, m.DefaultErr
	}

	return nil, nil
}

func (m *MockGossipClient) CallCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	return len(m.CalledWith)
}

type MockResolver struct {
	Seeds []gossip.Seed
	Err   error

	CallCount int

	Mu sync.Mutex
}

func (m *MockResolver) Resolve(_ context.Context, _ *rand.Rand) ([]gossip.Seed, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	m.CallCount++

	if m.Err != nil {
		return nil, m.Err
	}

	seeds := make([]gossip.Seed, len(m.Seeds))
	copy(seeds, m.Seeds)

	return seeds, nil
}

type MockLookuper struct {
	SRVName    string
	SRVRecords []*net.SRV
	SRVErr     error

	IPsByHost map[string][]net.IP
	ErrByHost map[string]error

	LookupSRVCalledWith []string
	LookupIPCalledWith  []string

	Mu sync.Mutex
}

func (m *MockLookuper) LookupSRV(_ context.Context, _, _, name string) (string, []*net.SRV, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	m.LookupSRVCalledWith = append(m.LookupSRVCalledWith, name)

	if m.SRVErr != nil {
		return "", nil, m.SRVErr
	}

	return m.SRVName, m.SRVRecords, nil
}

func (m *MockLookuper) LookupIP(_ context.Context, _, host string) ([]net.IP, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	m.LookupIPCalledWith = append(m.LookupIPCalledWith, host)

	if err, ok := m.ErrByHost[host]; ok {
		return nil, err
	}

	return m.IPsByHost[host], nil
}
