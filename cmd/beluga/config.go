package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ovaladares/beluga"
	"github.com/ovaladares/beluga/pkg/domain"
)

type fileConfig struct {
	ClusterCnf *clusterConfig `toml:"cluster"`
	MetricsCnf *metricsConfig `toml:"metrics"`
}

type clusterConfig struct {
	Seeds               []string `toml:"seeds"`
	DNSDomain           string   `toml:"dns_domain"`
	GossipPort          uint16   `toml:"gossip_port"`
	MaxDiscoverAttempts int      `toml:"max_discover_attempts"`
	RetryDelay          duration `toml:"retry_delay"`
	GossipTimeout       duration `toml:"gossip_timeout"`
	NodePreference      string   `toml:"node_preference"`
	Secure              bool     `toml:"secure"`
	RefreshCron         string   `toml:"refresh_cron"`
}

type metricsConfig struct {
	Listen string `toml:"listen"`
}

type duration struct {
	time.Duration
}

func (d *duration) Get() time.Duration {
	return d.Duration
}

func (d *duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func loadConfig(filePath string) (*fileConfig, error) {
	var cnf fileConfig

	if _, err := toml.DecodeFile(filePath, &cnf); err != nil {
		return nil, err
	}

	if cnf.ClusterCnf == nil {
		return nil, errors.New("config file has no [cluster] section")
	}

	return &cnf, nil
}

func (cnf *fileConfig) belugaConfig(logg *slog.Logger) (*beluga.Config, error) {
	preference, err := domain.ParseNodePreference(cnf.ClusterCnf.NodePreference)
	if err != nil {
		return nil, fmt.Errorf("failed to load cluster config: %w", err)
	}

	return &beluga.Config{
		Logger:              logg,
		Seeds:               cnf.ClusterCnf.Seeds,
		DNSDomain:           cnf.ClusterCnf.DNSDomain,
		GossipPort:          cnf.ClusterCnf.GossipPort,
		MaxDiscoverAttempts: cnf.ClusterCnf.MaxDiscoverAttempts,
		RetryDelay:          cnf.ClusterCnf.RetryDelay.Get(),
		GossipTimeout:       cnf.ClusterCnf.GossipTimeout.Get(),
		NodePreference:      preference,
		Secure:              cnf.ClusterCnf.Secure,
	}, nil
}
