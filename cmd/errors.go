package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNoContract = errors.New("a contract address or wasm port is required")

func errInvalidSide(arg string) error {
	return fmt.Errorf("invalid side %q, expected a or b", arg)
}

// withUsage wraps a PositionalArgs to display usage only when the PositionalArgs
// variant is violated.
func withUsage(inner cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := inner(cmd, args); err != nil {
			cmd.Root().SilenceUsage = false
			cmd.SilenceUsage = false
			return err
		}

		return nil
	}
}
