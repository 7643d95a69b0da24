package rly

import (
	"fmt"

	chantypes "github.com/cosmos/ibc-go/v3/modules/core/04-channel/types"
)

// commander builds the argument vectors of the rly subcommands used by the harness.
// The command set is the one of rly v2.4 and later. Every command is scoped to homeDir.
type commander struct {
	homeDir string
}

func (c commander) home(args ...string) []string {
	return append(args, "--home", c.homeDir)
}

func (c commander) Init() []string {
	return c.home("config", "init")
}

func (c commander) ShowConfig() []string {
	return c.home("config", "show", "--json")
}

func (c commander) AddChainConfiguration(file string) []string {
	return c.home("chains", "add", "-f", file)
}

func (c commander) RestoreKey(chainID, keyName string, coinType uint32, mnemonic string) []string {
	return c.home(
		"keys", "restore", chainID, keyName, mnemonic,
		"--coin-type", fmt.Sprint(coinType),
	)
}

func (c commander) GeneratePath(srcChainID, dstChainID, pathName string) []string {
	return c.home("paths", "new", srcChainID, dstChainID, pathName)
}

func (c commander) CreateConnection(pathName string) []string {
	return c.home("tx", "connection", pathName)
}

func (c commander) UpdateClients(pathName string) []string {
	return c.home("tx", "update-clients", pathName)
}

func (c commander) CreateChannel(pathName, srcPort, dstPort string, order chantypes.Order, version string) []string {
	return c.home(
		"tx", "channel", pathName,
		"--src-port", srcPort,
		"--dst-port", dstPort,
		"--order", orderFlag(order),
		"--version", version,
	)
}

func (c commander) GetChannels(chainID string) []string {
	return c.home("q", "channels", chainID)
}

// Flush relays every pending packet and acknowledgement on the path.
func (c commander) Flush(subcommand, pathName string) []string {
	return c.home("tx", subcommand, pathName)
}

// orderFlag renders an ordering the way rly's --order flag expects it.
func orderFlag(o chantypes.Order) string {
	switch o {
	case chantypes.ORDERED:
		return "ordered"
	default:
		return "unordered"
	}
}
