package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cosmos/ics20-harness/chain"
	"github.com/cosmos/ics20-harness/internal/harnessmetrics"
	"github.com/cosmos/ics20-harness/link"
	"github.com/cosmos/ics20-harness/rly"
)

// appState is the modifiable state of the application.
type appState struct {
	// Log is the root logger of the application.
	// Consumers are expected to store and use local copies of the logger
	// after modifying with the .With method.
	Log *zap.Logger

	Viper *viper.Viper

	HomePath string
	Debug    bool
	Config   *Config

	Metrics *harnessmetrics.Metrics
}

func (a *appState) configPath() string {
	return filepath.Join(a.HomePath, cfgDir, cfgFile)
}

// loadConfig reads <home>/config/config.yaml over the defaults.
// A missing file leaves the defaults in place.
func (a *appState) loadConfig() error {
	cfg := DefaultConfig(a.HomePath)

	cfgPath := a.configPath()
	if _, err := os.Stat(cfgPath); err != nil {
		a.Config = cfg
		return nil
	}

	a.Viper.SetConfigFile(cfgPath)
	if err := a.Viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cfgPath, err)
	}

	file, err := os.ReadFile(a.Viper.ConfigFileUsed())
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cfgPath, err)
	}
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config file %s: %w", cfgPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config file %s: %w", cfgPath, err)
	}

	a.Config = cfg
	return nil
}

func (a *appState) querier(side link.Side) (*chain.CosmosQuerier, error) {
	c := a.Config.Chain(side)
	return chain.NewCosmosQuerier(c.ChainID, c.RPCAddr, c.timeout())
}

func (a *appState) queriers() (*chain.CosmosQuerier, *chain.CosmosQuerier, error) {
	qa, err := a.querier(link.SideA)
	if err != nil {
		return nil, nil, err
	}
	qb, err := a.querier(link.SideB)
	if err != nil {
		return nil, nil, err
	}
	return qa, qb, nil
}

func (a *appState) waiter() *chain.Waiter {
	return chain.NewWaiter(a.Log, a.Metrics, a.Config.pollInterval(), a.Config.waitTimeout())
}

// relayer returns the rly adapter for the configured path.
func (a *appState) relayer() (*rly.Relayer, error) {
	qa, qb, err := a.queriers()
	if err != nil {
		return nil, err
	}
	return rly.New(a.Log, a.Config.runner(), a.Config.relayerConfig(a.Debug), qa, qb), nil
}
