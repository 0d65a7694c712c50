package domain

import (
	"fmt"
	"strings"
)

// NodePreference tells discovery which cluster role to favor when more than
// one member qualifies for a connection.
type NodePreference int

const (
	// PreferRandom accepts any qualified member.
	PreferRandom NodePreference = iota
	// PreferLeader favors the member currently leading the cluster.
	PreferLeader
	// PreferFollower favors replica members.
	PreferFollower
)

func (p NodePreference) String() string {
	switch p {
	case PreferLeader:
		return "leader"
	case PreferFollower:
		return "follower"
	default:
		return "random"
	}
}

// ParseNodePreference converts a configuration value into a NodePreference.
// The empty string maps to PreferRandom.
func ParseNodePreference(s string) (NodePreference, error) {
	switch strings.ToLower(s) {
	case "", "random":
		return PreferRandom, nil
	case "leader":
		return PreferLeader, nil
	case "follower":
		return PreferFollower, nil
	default:
		return PreferRandom, fmt.Errorf("unknown node preference %q", s)
	}
}
