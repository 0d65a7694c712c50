package beluga

import (
	"log/slog"
	"time"

	"github.com/ovaladares/beluga/pkg/domain"
)

type Config struct {
	Logger *slog.Logger

	// Seeds are gossip endpoints in host:port form. When set they take
	// precedence over DNSDomain.
	Seeds []string

	// DNSDomain is the SRV record consulted when no static seeds are given.
	DNSDomain string

	// GossipPort is the port seeds found through DNS are queried on.
	GossipPort uint16

	MaxDiscoverAttempts int
	RetryDelay          time.Duration
	GossipTimeout       time.Duration
	NodePreference      domain.NodePreference
	Secure              bool

	// OutcomeBufferSize bounds the outcome channel. Outcomes beyond what the
	// consumer keeps up with are dropped.
	OutcomeBufferSize int
}

var defaultConfig = &Config{
	Logger:              slog.Default(),
	GossipPort:          2113,
	MaxDiscoverAttempts: 10,
	RetryDelay:          500 * time.Millisecond,
	GossipTimeout:       5 * time.Second,
	NodePreference:      domain.PreferRandom,
	OutcomeBufferSize:   16,
}

func NewConfig(userConf *Config) *Config {
	if userConf == nil {
		return defaultConfig
	}

	if userConf.Logger == nil {
		userConf.Logger = defaultConfig.Logger
	}

	if userConf.GossipPort == 0 {
		userConf.GossipPort = defaultConfig.GossipPort
	}

	if userConf.MaxDiscoverAttempts == 0 {
		userConf.MaxDiscoverAttempts = defaultConfig.MaxDiscoverAttempts
	}

	if userConf.RetryDelay == 0 {
		userConf.RetryDelay = defaultConfig.RetryDelay
	}

	if userConf.GossipTimeout == 0 {
		userConf.GossipTimeout = defaultConfig.GossipTimeout
	}

	if userConf.OutcomeBufferSize == 0 {
		userConf.OutcomeBufferSize = defaultConfig.OutcomeBufferSize
	}

	return userConf
}
