package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cosmos/ics20-harness/link"
)

func keysCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "keys",
		Aliases: []string{"k"},
		Short:   "Inspect the signing key used on both chains",
	}

	cmd.AddCommand(keysShowCmd(a))
	return cmd
}

type keyOutput struct {
	Side    string `json:"side"`
	ChainID string `json:"chain_id"`
	KeyName string `json:"key_name"`
	Address string `json:"address"`
}

func keysShowCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"s"},
		Short:   "Print the signer address on both chains",
		Args:    withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s keys show
$ %s k s --json`, appName, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsn, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}

			out := make([]keyOutput, 0, len(link.Sides))
			for _, side := range link.Sides {
				c := a.Config.Chain(side)
				addr, err := a.Config.Signer.Address(c.AccountPrefix)
				if err != nil {
					return err
				}
				out = append(out, keyOutput{
					Side:    strings.ToLower(string(side)),
					ChainID: c.ChainID,
					KeyName: a.Config.Signer.KeyName,
					Address: addr,
				})
			}

			if jsn {
				bz, err := json.Marshal(out)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(bz))
				return nil
			}
			for _, k := range out {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", k.Side, k.ChainID, k.Address)
			}
			return nil
		},
	}
	return jsonFlag(a, cmd)
}
