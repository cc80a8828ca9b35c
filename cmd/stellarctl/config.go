package main

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/vultisig/stellar-txcore/internal/logging"
	"github.com/vultisig/stellar-txcore/internal/metrics"
)

type config struct {
	Network       string `envconfig:"NETWORK" default:"PUBLIC"`
	HorizonURL    string `envconfig:"HORIZON_URL"`
	SorobanRPCURL string `envconfig:"SOROBAN_RPC_URL"`
	Log           logging.Config
	Directory     directoryConfig
	Metrics       metrics.Config
}

type directoryConfig struct {
	URL             string        `envconfig:"DIRECTORY_URL"`
	CachePath       string        `envconfig:"DIRECTORY_CACHE_PATH"`
	TTL             time.Duration `envconfig:"DIRECTORY_TTL" default:"168h"`
	MaxPages        int           `envconfig:"DIRECTORY_MAX_PAGES" default:"10"`
	RefreshInterval time.Duration `envconfig:"DIRECTORY_REFRESH_INTERVAL" default:"1h"`
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
