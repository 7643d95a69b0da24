package cmd

import (
	"github.com/spf13/cobra"
)

const (
	flagHome      = "home"
	flagDebug     = "debug"
	flagLogFormat = "log-format"
	flagJSON      = "json"
	flagDebugAddr = "debug-addr"
	flagCw20      = "cw20"
	flagTimeout   = "timeout"
	flagSkipSetup = "skip-setup"
)

func jsonFlag(a *appState, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().BoolP(flagJSON, "j", false, "returns the response in json format")
	if err := a.Viper.BindPFlag(flagJSON, cmd.Flags().Lookup(flagJSON)); err != nil {
		panic(err)
	}
	return cmd
}

func debugServerFlags(a *appState, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().String(flagDebugAddr, "", "address to use for debug and metrics server, e.g. localhost:7597 (empty disables the server)")
	if err := a.Viper.BindPFlag(flagDebugAddr, cmd.Flags().Lookup(flagDebugAddr)); err != nil {
		panic(err)
	}
	return cmd
}

func timeoutFlag(a *appState, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().Duration(flagTimeout, 0, "give up waiting after this long, overriding global.wait-timeout (0 uses the config)")
	if err := a.Viper.BindPFlag(flagTimeout, cmd.Flags().Lookup(flagTimeout)); err != nil {
		panic(err)
	}
	return cmd
}

func skipSetupFlag(a *appState, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().Bool(flagSkipSetup, false, "do not configure the relayer home before linking")
	if err := a.Viper.BindPFlag(flagSkipSetup, cmd.Flags().Lookup(flagSkipSetup)); err != nil {
		panic(err)
	}
	return cmd
}
