package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cosmos/ics20-harness/chain"
	"github.com/cosmos/ics20-harness/link"
)

func waitCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wait",
		Aliases: []string{"w"},
		Short:   "Block until a chain reaches a given state",
	}

	cmd.AddCommand(
		waitBlocksCmd(a),
		waitConnectionCmd(a),
		waitChannelCmd(a),
	)
	return cmd
}

// waitTarget parses the side argument and returns a waiter honoring --timeout along with the side's querier.
func waitTarget(a *appState, cmd *cobra.Command, arg string) (*chain.Waiter, chain.Querier, error) {
	side, err := link.ParseSide(arg)
	if err != nil {
		return nil, nil, errInvalidSide(arg)
	}

	w := a.waiter()
	timeout, err := cmd.Flags().GetDuration(flagTimeout)
	if err != nil {
		return nil, nil, err
	}
	if timeout > 0 {
		w.Timeout = timeout
	}

	q, err := a.querier(side)
	if err != nil {
		return nil, nil, err
	}
	return w, q, nil
}

func waitBlocksCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocks [a|b]",
		Short: "Wait until the chain produced its first block",
		Args:  withUsage(cobra.ExactArgs(1)),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s wait blocks a
$ %s w blocks b --timeout 2m`, appName, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, q, err := waitTarget(a, cmd, args[0])
			if err != nil {
				return err
			}
			return w.WaitForBlocks(cmd.Context(), q)
		},
	}
	return timeoutFlag(a, cmd)
}

func waitConnectionCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connection [a|b]",
		Aliases: []string{"conn"},
		Short:   "Wait until the chain's first connection is open",
		Args:    withUsage(cobra.ExactArgs(1)),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s wait connection a`, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, q, err := waitTarget(a, cmd, args[0])
			if err != nil {
				return err
			}
			return w.WaitForConnection(cmd.Context(), q)
		},
	}
	return timeoutFlag(a, cmd)
}

func waitChannelCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "channel [a|b] [channel-id]",
		Aliases: []string{"chan"},
		Short:   "Wait until the given channel is open on the chain",
		Args:    withUsage(cobra.ExactArgs(2)),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s wait channel b channel-0`, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, q, err := waitTarget(a, cmd, args[0])
			if err != nil {
				return err
			}
			return w.WaitForChannel(cmd.Context(), q, args[1])
		},
	}
	return timeoutFlag(a, cmd)
}
