package cmd_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cosmos/ics20-harness/cmd"
	"github.com/cosmos/ics20-harness/internal/harnesstest"
	"github.com/cosmos/ics20-harness/link"
)

func TestConfigInit(t *testing.T) {
	t.Parallel()

	sys := harnesstest.NewSystem(t)
	_ = sys.MustRun(t, "config", "init")

	cfg := sys.MustGetConfig(t)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "secretdev-1", cfg.Chains.A.ChainID)
	require.Equal(t, "http://localhost:26657", cfg.Chains.A.RPCAddr)
	require.Equal(t, "http://localhost:1317", cfg.Chains.A.LCDAddr)
	require.Equal(t, "secretdev-2", cfg.Chains.B.ChainID)
	require.Equal(t, "http://localhost:36657", cfg.Chains.B.RPCAddr)
	require.Equal(t, "http://localhost:3317", cfg.Chains.B.LCDAddr)
	require.Equal(t, "0.25uscrt", cfg.Chains.B.GasPrices)
	require.Equal(t, "5750ms", cfg.Chains.A.EstimatedBlockTime)
	require.Equal(t, 6250*time.Millisecond, cfg.Chains.A.TxWait())

	require.Equal(t, "100ms", cfg.Global.PollInterval)
	require.Equal(t, "5s", cfg.Global.RelayInterval)
	require.Empty(t, cfg.Global.WaitTimeout)

	require.Equal(t, uint32(529), cfg.Signer.CoinType)
	require.Equal(t, cmd.DefaultMnemonic, cfg.Signer.Mnemonic)

	require.Equal(t, filepath.Join(sys.HomeDir, "rly"), cfg.Relayer.Home)
	require.Equal(t, "rly", cfg.Relayer.Binary)
	require.Equal(t, "ics20", cfg.Relayer.Path)

	require.Equal(t, link.TransferPort, cfg.Channel.DstPort)
	require.Equal(t, "unordered", cfg.Channel.Order)
	require.Equal(t, link.ICS20Version, cfg.Channel.Version)
}

func TestConfigInit_AlreadyExists(t *testing.T) {
	t.Parallel()

	sys := harnesstest.NewSystem(t)
	_ = sys.MustRun(t, "config", "init")

	res := sys.Run(zaptest.NewLogger(t), "config", "init")
	require.ErrorContains(t, res.Err, "config already exists")
}

func TestConfigShow(t *testing.T) {
	t.Parallel()

	sys := harnesstest.NewSystem(t)
	_ = sys.MustRun(t, "config", "init")

	res := sys.MustRun(t, "config", "show", "--json")

	var cfg cmd.Config
	require.NoError(t, json.Unmarshal(res.Stdout.Bytes(), &cfg))
	require.Equal(t, "secretdev-1", cfg.Chains.A.ChainID)
	require.Equal(t, "secretdev-2", cfg.Chains.B.ChainID)
	require.Equal(t, "harness", cfg.Signer.KeyName)

	res = sys.MustRun(t, "config", "show")
	require.Contains(t, res.Stdout.String(), "chain-id: secretdev-1")
	require.Contains(t, res.Stdout.String(), "relay-interval: 5s")
}

func TestConfigShow_Missing(t *testing.T) {
	t.Parallel()

	sys := harnesstest.NewSystem(t)
	res := sys.Run(zaptest.NewLogger(t), "config", "show")
	require.ErrorContains(t, res.Err, "config does not exist")

	sys = &harnesstest.System{HomeDir: filepath.Join(t.TempDir(), "nope")}
	res = sys.Run(zaptest.NewLogger(t), "config", "show")
	require.ErrorContains(t, res.Err, "home path does not exist")
}

func TestConfig_EditedFileIsUsed(t *testing.T) {
	t.Parallel()

	sys := harnesstest.NewSystem(t)
	cfg := cmd.DefaultConfig(sys.HomeDir)
	cfg.Chains.B.ChainID = "pulsar-3"
	cfg.Chains.B.AccountPrefix = "cosmos"
	sys.MustWriteConfig(t, cfg)

	res := sys.MustRun(t, "keys", "show")
	require.Contains(t, res.Stdout.String(), "pulsar-3")
	require.Contains(t, res.Stdout.String(), "cosmos1")
}

func TestConfig_InvalidFileIsRejected(t *testing.T) {
	t.Parallel()

	sys := harnesstest.NewSystem(t)
	cfg := cmd.DefaultConfig(sys.HomeDir)
	cfg.Channel.Order = "sideways"
	cfg.Chains.B.ChainID = cfg.Chains.A.ChainID
	sys.MustWriteConfig(t, cfg)

	res := sys.Run(zaptest.NewLogger(t), "keys", "show")
	require.ErrorContains(t, res.Err, "channel.order")
	require.ErrorContains(t, res.Err, "share chain-id")
}

func TestConfig_MalformedYAML(t *testing.T) {
	t.Parallel()

	sys := harnesstest.NewSystem(t)
	dir := filepath.Join(sys.HomeDir, "config")
	require.NoError(t, os.MkdirAll(dir, os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("chains: [unterminated"), 0o600))

	res := sys.Run(zaptest.NewLogger(t), "keys", "show")
	require.Error(t, res.Err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*cmd.Config)
		wantErr string
	}{
		{"defaults", func(*cmd.Config) {}, ""},
		{"bad poll interval", func(c *cmd.Config) { c.Global.PollInterval = "soon" }, "global.poll-interval"},
		{"timeout set", func(c *cmd.Config) { c.Global.WaitTimeout = "2m" }, ""},
		{"bad mnemonic", func(c *cmd.Config) { c.Signer.Mnemonic = "one two three" }, "invalid mnemonic"},
		{"missing rpc", func(c *cmd.Config) { c.Chains.A.RPCAddr = "" }, "chains.a: rpc-addr"},
		{"bad gas prices", func(c *cmd.Config) { c.Chains.B.GasPrices = "a lot" }, "chains.b: gas-prices"},
		{"ordered", func(c *cmd.Config) { c.Channel.Order = "ORDERED" }, ""},
		{"no relayer home", func(c *cmd.Config) { c.Relayer.Home = "" }, "relayer.home"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := cmd.DefaultConfig(t.TempDir())
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
