package gossip

import (
	"fmt"

	"github.com/google/uuid"
)

// VNodeState is the lifecycle phase a cluster member reports through gossip.
type VNodeState int

const (
	StateInitializing VNodeState = iota
	StateUnknown
	StatePreReplica
	StateCatchingUp
	StateClone
	StateSlave
	StatePreMaster
	StateMaster
	StateManager
	StateShuttingDown
	StateShutdown
)

var vnodeStateNames = [...]string{
	StateInitializing: "Initializing",
	StateUnknown:      "Unknown",
	StatePreReplica:   "PreReplica",
	StateCatchingUp:   "CatchingUp",
	StateClone:        "Clone",
	StateSlave:        "Slave",
	StatePreMaster:    "PreMaster",
	StateMaster:       "Master",
	StateManager:      "Manager",
	StateShuttingDown: "ShuttingDown",
	StateShutdown:     "Shutdown",
}

func (s VNodeState) String() string {
	if s >= 0 && int(s) < len(vnodeStateNames) {
		return vnodeStateNames[s]
	}

	return fmt.Sprintf("VNodeState(%d)", int(s))
}

func (s VNodeState) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(vnodeStateNames) {
		return nil, fmt.Errorf("unknown vnode state %d", int(s))
	}

	return []byte(vnodeStateNames[s]), nil
}

func (s *VNodeState) UnmarshalText(text []byte) error {
	name := string(text)

	for state, candidate := range vnodeStateNames {
		if candidate == name {
			*s = VNodeState(state)
			return nil
		}
	}

	return fmt.Errorf("unknown vnode state %q", name)
}

// MemberInfo is one member record exactly as it appears on the wire. The
// checkpoint and epoch fields are carried through for callers but take no
// part in node selection.
type MemberInfo struct {
	InstanceID            uuid.UUID  `json:"instanceId"`
	State                 VNodeState `json:"state"`
	IsAlive               bool       `json:"isAlive"`
	InternalTCPIP         string     `json:"internalTcpIp"`
	InternalTCPPort       uint16     `json:"internalTcpPort"`
	InternalSecureTCPPort uint16     `json:"internalSecureTcpPort"`
	ExternalTCPIP         string     `json:"externalTcpIp"`
	ExternalTCPPort       uint16     `json:"externalTcpPort"`
	ExternalSecureTCPPort uint16     `json:"externalSecureTcpPort"`
	InternalHTTPIP        string     `json:"internalHttpIp"`
	InternalHTTPPort      uint16     `json:"internalHttpPort"`
	ExternalHTTPIP        string     `json:"externalHttpIp"`
	ExternalHTTPPort      uint16     `json:"externalHttpPort"`
	LastCommitPosition    int64      `json:"lastCommitPosition"`
	WriterCheckpoint      int64      `json:"writerCheckpoint"`
	ChaserCheckpoint      int64      `json:"chaserCheckpoint"`
	EpochPosition         int64      `json:"epochPosition"`
	EpochNumber           int64      `json:"epochNumber"`
	EpochID               uuid.UUID  `json:"epochId"`
	NodePriority          int64      `json:"nodePriority"`
}

// Response is the JSON document a member serves on its gossip endpoint.
type Response struct {
	Members []MemberInfo `json:"members"`
}
