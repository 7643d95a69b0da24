package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cosmos/ics20-harness/ibcdenom"
	"github.com/cosmos/ics20-harness/link"
)

func denomCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "denom",
		Short: "Compute and look up IBC denominations",
	}

	cmd.AddCommand(
		denomHashCmd(a),
		denomTraceCmd(a),
	)
	return cmd
}

type denomOutput struct {
	Denom     string `json:"denom"`
	Path      string `json:"path"`
	BaseDenom string `json:"base_denom"`
}

func denomHashCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash [base-denom] [port/channel ...]",
		Short: "Print the IBC denom of a token received over the given hops",
		Long: strings.TrimSpace(`Print the ibc/ denomination a token ends up with after travelling over the
given hops, most recent hop first. With --cw20 the base denomination is the
voucher denom of the cw20 contract and every argument is a hop.`),
		Args: withUsage(cobra.ArbitraryArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s denom hash uscrt transfer/channel-0
$ %s denom hash --cw20 secret1contract wasm.secret1ics20/channel-1
$ %s denom hash uatom transfer/channel-0 transfer/channel-7 --json`, appName, appName, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cw20, err := cmd.Flags().GetString(flagCw20)
			if err != nil {
				return err
			}

			var base string
			hopArgs := args
			if cw20 != "" {
				base = ibcdenom.Cw20Denom(cw20)
			} else {
				if len(args) == 0 {
					cmd.SilenceUsage = false
					return fmt.Errorf("a base denom is required unless --%s is set", flagCw20)
				}
				base, hopArgs = args[0], args[1:]
			}

			hops, err := ibcdenom.ParseHops(strings.Join(hopArgs, "/"))
			if err != nil {
				return err
			}

			out := denomOutput{
				Denom:     ibcdenom.IBCDenom(hops, base),
				Path:      strings.TrimSuffix(ibcdenom.FullPath(hops, base), "/"+base),
				BaseDenom: base,
			}

			jsn, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}
			if !jsn {
				fmt.Fprintln(cmd.OutOrStdout(), out.Denom)
				return nil
			}
			bz, err := json.Marshal(out)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return nil
		},
	}
	cmd.Flags().String(flagCw20, "", "use the voucher denom of this cw20 contract address as base denom")
	return jsonFlag(a, cmd)
}

func denomTraceCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace [a|b] [ibc/HASH]",
		Short: "Query the denom trace behind an IBC denom on one of the chains",
		Args:  withUsage(cobra.ExactArgs(2)),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s denom trace b ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2`, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			side, err := link.ParseSide(args[0])
			if err != nil {
				return errInvalidSide(args[0])
			}
			if !ibcdenom.IsIBCDenom(args[1]) {
				return fmt.Errorf("%q is not an ibc/ denom", args[1])
			}

			q, err := a.querier(side)
			if err != nil {
				return err
			}
			trace, err := q.DenomTrace(cmd.Context(), args[1])
			if err != nil {
				return fmt.Errorf("failed to query denom trace on %s: %w", q.ChainID(), err)
			}
			a.Log.Debug("Queried denom trace", zap.String("chain_id", q.ChainID()), zap.String("denom", args[1]))

			bz, err := json.Marshal(denomOutput{
				Denom:     args[1],
				Path:      trace.Path,
				BaseDenom: trace.BaseDenom,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return nil
		},
	}
	return cmd
}
