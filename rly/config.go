package rly

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	chantypes "github.com/cosmos/ibc-go/v3/modules/core/04-channel/types"
	"go.uber.org/zap"
)

const (
	DefaultBinary   = "rly"
	DefaultPathName = "ics20"

	// DefaultFlushCommand is the tx subcommand of rly v2.4 and later that relays every pending
	// packet and acknowledgement on a path. Releases before v2.4 have no such subcommand.
	DefaultFlushCommand = "flush"
)

// ChainConfig is what the relayer needs to know about one chain.
type ChainConfig struct {
	ChainID       string
	RPCAddr       string
	AccountPrefix string
	GasPrices     string
	GasAdjustment float64
	Timeout       time.Duration
	Debug         bool
}

// providerConfig mirrors the cosmos provider entry of the rly config file.
type providerConfig struct {
	Type  string              `json:"type"`
	Value providerConfigValue `json:"value"`
}

type providerConfigValue struct {
	Key            string  `json:"key"`
	ChainID        string  `json:"chain-id"`
	RPCAddr        string  `json:"rpc-addr"`
	AccountPrefix  string  `json:"account-prefix"`
	KeyringBackend string  `json:"keyring-backend"`
	GasAdjustment  float64 `json:"gas-adjustment"`
	GasPrices      string  `json:"gas-prices"`
	Debug          bool    `json:"debug"`
	Timeout        string  `json:"timeout"`
	OutputFormat   string  `json:"output-format"`
	SignMode       string  `json:"sign-mode"`
}

func providerConfigContent(c ChainConfig, keyName string) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return json.MarshalIndent(providerConfig{
		Type: "cosmos",
		Value: providerConfigValue{
			Key:            keyName,
			ChainID:        c.ChainID,
			RPCAddr:        c.RPCAddr,
			AccountPrefix:  c.AccountPrefix,
			KeyringBackend: keyring.BackendTest,
			GasAdjustment:  c.GasAdjustment,
			GasPrices:      c.GasPrices,
			Debug:          c.Debug,
			Timeout:        timeout.String(),
			OutputFormat:   "json",
			SignMode:       "direct",
		},
	}, "", "  ")
}

// configOutput is the subset of `rly config show --json` the harness reads.
type configOutput struct {
	Paths map[string]pathOutput `json:"paths"`
}

type pathOutput struct {
	Src pathEndOutput `json:"src"`
	Dst pathEndOutput `json:"dst"`
}

type pathEndOutput struct {
	ChainID      string `json:"chain-id"`
	ClientID     string `json:"client-id"`
	ConnectionID string `json:"connection-id"`
}

func parseConfigOutput(stdout []byte, pathName string) (pathOutput, error) {
	var cfg configOutput
	if err := json.Unmarshal(stdout, &cfg); err != nil {
		return pathOutput{}, fmt.Errorf("failed to parse rly config: %w", err)
	}
	p, ok := cfg.Paths[pathName]
	if !ok {
		return pathOutput{}, fmt.Errorf("path %s not found in rly config", pathName)
	}
	return p, nil
}

// channelOutput is one line of `rly q channels`.
type channelOutput struct {
	State        string `json:"state"`
	Ordering     string `json:"ordering"`
	Counterparty struct {
		PortID    string `json:"port_id"`
		ChannelID string `json:"channel_id"`
	} `json:"counterparty"`
	ConnectionHops []string `json:"connection_hops"`
	Version        string   `json:"version"`
	PortID         string   `json:"port_id"`
	ChannelID      string   `json:"channel_id"`
}

// parseChannelsOutput reads newline-delimited JSON. Lines that do not parse are logged and skipped.
func parseChannelsOutput(log *zap.Logger, stdout []byte) []channelOutput {
	var channels []channelOutput
	for _, line := range strings.Split(string(stdout), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var ch channelOutput
		if err := json.Unmarshal([]byte(line), &ch); err != nil {
			log.Debug("Failed to parse channel json", zap.String("line", line), zap.Error(err))
			continue
		}
		channels = append(channels, ch)
	}
	return channels
}

func (ch channelOutput) isOpen() bool {
	return ch.State == chantypes.OPEN.String()
}
