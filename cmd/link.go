package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cosmos/ics20-harness/link"
	"github.com/cosmos/ics20-harness/rly"
)

func linkCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link [contract-address|wasm-port]",
		Short: "Create clients, a connection and an ics20 channel bound to a contract port",
		Long: strings.TrimSpace(`Configure the relayer home, create new clients and a connection between chain a
and chain b, then open a channel from the contract's wasm port on chain a to the
configured port on chain b. The resulting channel ends are printed as JSON.`),
		Args: withUsage(cobra.ExactArgs(1)),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s link secret1qxxlalvsdjd07p07y3rc5fu6ll8k4tme6e2scc
$ %s link wasm.secret1qxxlalvsdjd07p07y3rc5fu6ll8k4tme6e2scc --skip-setup`, appName, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			skipSetup, err := cmd.Flags().GetBool(flagSkipSetup)
			if err != nil {
				return err
			}

			r, err := a.relayer()
			if err != nil {
				return err
			}

			_, pair, err := createLink(cmd.Context(), a, r, args[0], !skipSetup)
			if err != nil {
				return err
			}
			return printChannelPair(cmd, pair)
		},
	}
	return skipSetupFlag(a, cmd)
}

// createLink optionally configures the relayer home, then opens a new connection and a channel from contract.
func createLink(ctx context.Context, a *appState, r *rly.Relayer, contract string, setup bool) (*link.Link, link.ChannelPair, error) {
	if contract == "" {
		return nil, link.ChannelPair{}, errNoContract
	}
	opts, err := a.Config.channelOptions(contract)
	if err != nil {
		return nil, link.ChannelPair{}, err
	}

	if setup {
		if err := r.Setup(ctx); err != nil {
			return nil, link.ChannelPair{}, err
		}
	}

	l, err := link.CreateWithNewConnections(ctx, a.Log, r, a.Metrics)
	if err != nil {
		return nil, link.ChannelPair{}, err
	}

	pair, err := l.CreateChannelWithOptions(ctx, link.SideA, opts)
	if err != nil {
		return nil, link.ChannelPair{}, err
	}
	return l, pair, nil
}

func printChannelPair(cmd *cobra.Command, pair link.ChannelPair) error {
	bz, err := json.Marshal(pair)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return nil
}
