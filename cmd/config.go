package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	chantypes "github.com/cosmos/ibc-go/v3/modules/core/04-channel/types"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cosmos/ics20-harness/chain"
	"github.com/cosmos/ics20-harness/ibcdenom"
	"github.com/cosmos/ics20-harness/link"
	"github.com/cosmos/ics20-harness/poll"
	"github.com/cosmos/ics20-harness/rly"
)

const (
	cfgDir  = "config"
	cfgFile = "config.yaml"

	// DefaultMnemonic funds the genesis account of the local test chains. Never use it elsewhere.
	DefaultMnemonic = "word twist toast cloth movie predict advance crumble escape whale sail such angry muffin balcony keen move employ cook valve hurt glimpse breeze brick"
)

func configCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Manage the harness configuration file",
	}

	cmd.AddCommand(
		configShowCmd(a),
		configInitCmd(a),
	)
	return cmd
}

func configShowCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"s", "list", "l"},
		Short:   "Prints current configuration",
		Args:    withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s config show --home %s
$ %s cfg list --json`, appName, defaultHome, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.configPath()); os.IsNotExist(err) {
				if _, err := os.Stat(a.HomePath); os.IsNotExist(err) {
					return fmt.Errorf("home path does not exist: %s", a.HomePath)
				}
				return fmt.Errorf("config does not exist: %s", a.configPath())
			}

			jsn, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}

			var out []byte
			if jsn {
				out, err = json.Marshal(a.Config)
			} else {
				out, err = yaml.Marshal(a.Config)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(out)))
			return nil
		},
	}
	return jsonFlag(a, cmd)
}

func configInitCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init",
		Aliases: []string{"i"},
		Short:   "Creates a default home directory at path defined by --home",
		Args:    withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s config init --home %s
$ %s cfg i`, appName, defaultHome, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := a.configPath()
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists: %s", cfgPath)
			}

			if err := os.MkdirAll(filepath.Dir(cfgPath), os.ModePerm); err != nil {
				return err
			}

			cfg := DefaultConfig(a.HomePath)
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			if err := os.WriteFile(cfgPath, out, 0o600); err != nil {
				return err
			}

			a.Config = cfg
			a.Log.Info("Wrote default config", zap.String("path", cfgPath))
			return nil
		},
	}
	return cmd
}

// Config is the harness configuration file.
type Config struct {
	Global  GlobalConfig  `yaml:"global" json:"global"`
	Signer  chain.Signer  `yaml:"signer" json:"signer"`
	Chains  ChainsConfig  `yaml:"chains" json:"chains"`
	Relayer RelayerConfig `yaml:"relayer" json:"relayer"`
	Channel ChannelConfig `yaml:"channel" json:"channel"`
}

// GlobalConfig holds the timing settings shared by all commands.
// Durations are strings parsed with time.ParseDuration.
type GlobalConfig struct {
	PollInterval  string `yaml:"poll-interval" json:"poll-interval"`
	RelayInterval string `yaml:"relay-interval" json:"relay-interval"`
	// WaitTimeout bounds every wait. Empty or zero waits until interrupted.
	WaitTimeout string `yaml:"wait-timeout" json:"wait-timeout"`
	LogFormat   string `yaml:"log-format" json:"log-format"`
}

type ChainsConfig struct {
	A ChainConfig `yaml:"a" json:"a"`
	B ChainConfig `yaml:"b" json:"b"`
}

// ChainConfig describes one of the two local chains.
type ChainConfig struct {
	ChainID       string  `yaml:"chain-id" json:"chain-id"`
	RPCAddr       string  `yaml:"rpc-addr" json:"rpc-addr"`
	LCDAddr       string  `yaml:"lcd-addr" json:"lcd-addr"`
	AccountPrefix string  `yaml:"account-prefix" json:"account-prefix"`
	GasPrices     string  `yaml:"gas-prices" json:"gas-prices"`
	GasAdjustment float64 `yaml:"gas-adjustment" json:"gas-adjustment"`
	Timeout       string  `yaml:"timeout" json:"timeout"`

	// EstimatedBlockTime plus EstimatedIndexerTime is how long a transaction takes to become queryable.
	EstimatedBlockTime   string `yaml:"estimated-block-time" json:"estimated-block-time"`
	EstimatedIndexerTime string `yaml:"estimated-indexer-time" json:"estimated-indexer-time"`
}

// RelayerConfig locates the rly binary and the home it keeps its own config in.
type RelayerConfig struct {
	Binary string `yaml:"binary" json:"binary"`
	Home   string `yaml:"home" json:"home"`
	Path   string `yaml:"path" json:"path"`
	// ExecPrefix is prepended to every rly invocation, e.g. [docker, exec, relayer].
	ExecPrefix []string `yaml:"exec-prefix,flow" json:"exec-prefix"`
	// FlushCommand is the rly tx subcommand relaying everything pending on the path.
	// The harness targets rly v2.4 and later, where it is "flush".
	FlushCommand string `yaml:"flush-command" json:"flush-command"`
}

// ChannelConfig sets the counterparty end of the channel opened from the contract port.
type ChannelConfig struct {
	DstPort string `yaml:"dst-port" json:"dst-port"`
	Order   string `yaml:"order" json:"order"`
	Version string `yaml:"version" json:"version"`
}

// DefaultConfig returns the configuration of the two local test chains.
// The relayer home lives under home.
func DefaultConfig(home string) *Config {
	return &Config{
		Global: GlobalConfig{
			PollInterval:  poll.DefaultInterval.String(),
			RelayInterval: link.DefaultRelayInterval.String(),
			WaitTimeout:   "",
			LogFormat:     "auto",
		},
		Signer: chain.Signer{
			KeyName:  "harness",
			Mnemonic: DefaultMnemonic,
			CoinType: chain.SecretCoinType,
		},
		Chains: ChainsConfig{
			A: ChainConfig{
				ChainID:              "secretdev-1",
				RPCAddr:              "http://localhost:26657",
				LCDAddr:              "http://localhost:1317",
				AccountPrefix:        "secret",
				GasPrices:            "0.25uscrt",
				GasAdjustment:        1.5,
				Timeout:              "10s",
				EstimatedBlockTime:   "5750ms",
				EstimatedIndexerTime: "500ms",
			},
			B: ChainConfig{
				ChainID:              "secretdev-2",
				RPCAddr:              "http://localhost:36657",
				LCDAddr:              "http://localhost:3317",
				AccountPrefix:        "secret",
				GasPrices:            "0.25uscrt",
				GasAdjustment:        1.5,
				Timeout:              "10s",
				EstimatedBlockTime:   "5750ms",
				EstimatedIndexerTime: "500ms",
			},
		},
		Relayer: RelayerConfig{
			Binary:       rly.DefaultBinary,
			Home:         filepath.Join(home, "rly"),
			Path:         rly.DefaultPathName,
			FlushCommand: rly.DefaultFlushCommand,
		},
		Channel: ChannelConfig{
			DstPort: link.TransferPort,
			Order:   "unordered",
			Version: link.ICS20Version,
		},
	}
}

func (c *Config) Chain(side link.Side) ChainConfig {
	if side == link.SideB {
		return c.Chains.B
	}
	return c.Chains.A
}

// Validate checks every field the commands rely on.
func (c *Config) Validate() error {
	var errs []error
	for _, d := range []struct{ name, value string }{
		{"global.poll-interval", c.Global.PollInterval},
		{"global.relay-interval", c.Global.RelayInterval},
		{"global.wait-timeout", c.Global.WaitTimeout},
	} {
		if _, err := parseDuration(d.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.name, err))
		}
	}

	if err := c.Signer.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("signer: %w", err))
	}

	for _, side := range link.Sides {
		if err := c.Chain(side).Validate(); err != nil {
			errs = append(errs, fmt.Errorf("chains.%s: %w", strings.ToLower(string(side)), err))
		}
	}
	if c.Chains.A.ChainID != "" && c.Chains.A.ChainID == c.Chains.B.ChainID {
		errs = append(errs, fmt.Errorf("chains.a and chains.b share chain-id %s", c.Chains.A.ChainID))
	}

	if c.Relayer.Home == "" {
		errs = append(errs, errors.New("relayer.home must not be empty"))
	}
	if _, err := parseOrder(c.Channel.Order); err != nil {
		errs = append(errs, fmt.Errorf("channel.order: %w", err))
	}
	if c.Channel.DstPort == "" || c.Channel.Version == "" {
		errs = append(errs, errors.New("channel.dst-port and channel.version must not be empty"))
	}

	return multierr.Combine(errs...)
}

func (c ChainConfig) Validate() error {
	if c.ChainID == "" {
		return errors.New("chain-id must not be empty")
	}
	if c.RPCAddr == "" {
		return errors.New("rpc-addr must not be empty")
	}
	if c.AccountPrefix == "" {
		return errors.New("account-prefix must not be empty")
	}
	if _, err := sdk.ParseDecCoins(c.GasPrices); err != nil {
		return fmt.Errorf("gas-prices: %w", err)
	}
	for _, d := range []string{c.Timeout, c.EstimatedBlockTime, c.EstimatedIndexerTime} {
		if _, err := parseDuration(d); err != nil {
			return err
		}
	}
	return nil
}

// TxWait is how long the chain needs before a broadcast transaction can be queried.
func (c ChainConfig) TxWait() time.Duration {
	block, _ := parseDuration(c.EstimatedBlockTime)
	indexer, _ := parseDuration(c.EstimatedIndexerTime)
	return block + indexer
}

func (c ChainConfig) timeout() time.Duration {
	d, _ := parseDuration(c.Timeout)
	return d
}

func (c ChainConfig) relayerChain() rly.ChainConfig {
	return rly.ChainConfig{
		ChainID:       c.ChainID,
		RPCAddr:       c.RPCAddr,
		AccountPrefix: c.AccountPrefix,
		GasPrices:     c.GasPrices,
		GasAdjustment: c.GasAdjustment,
		Timeout:       c.timeout(),
	}
}

func (c *Config) pollInterval() time.Duration {
	d, _ := parseDuration(c.Global.PollInterval)
	return d
}

func (c *Config) relayInterval() time.Duration {
	d, _ := parseDuration(c.Global.RelayInterval)
	return d
}

func (c *Config) waitTimeout() time.Duration {
	d, _ := parseDuration(c.Global.WaitTimeout)
	return d
}

// relayerConfig returns the rly adapter settings, enabling rly debug output when debug is set.
func (c *Config) relayerConfig(debug bool) rly.Config {
	a, b := c.Chains.A.relayerChain(), c.Chains.B.relayerChain()
	a.Debug, b.Debug = debug, debug
	return rly.Config{
		Home:         c.Relayer.Home,
		PathName:     c.Relayer.Path,
		FlushCommand: c.Relayer.FlushCommand,
		Signer:       c.Signer,
		A:            a,
		B:            b,
	}
}

func (c *Config) runner() rly.ExecRunner {
	return rly.ExecRunner{
		Binary: c.Relayer.Binary,
		Prefix: c.Relayer.ExecPrefix,
	}
}

// channelOptions returns the options of the channel bound to contractPort.
// A bare contract address is turned into its wasm port.
func (c *Config) channelOptions(contract string) (link.ChannelOptions, error) {
	order, err := parseOrder(c.Channel.Order)
	if err != nil {
		return link.ChannelOptions{}, err
	}
	return link.ChannelOptions{
		SrcPort: ibcdenom.ContractPort(contract),
		DstPort: c.Channel.DstPort,
		Order:   order,
		Version: c.Channel.Version,
	}, nil
}

// parseDuration accepts the empty string as zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func parseOrder(s string) (chantypes.Order, error) {
	switch strings.ToLower(s) {
	case "unordered", "order_unordered":
		return chantypes.UNORDERED, nil
	case "ordered", "order_ordered":
		return chantypes.ORDERED, nil
	default:
		return chantypes.NONE, fmt.Errorf("invalid channel order %q, expected ordered or unordered", s)
	}
}
