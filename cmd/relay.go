package cmd

import (
	"fmt"
	"net"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cosmos/ics20-harness/internal/harnessdebug"
	"github.com/cosmos/ics20-harness/link"
)

func relayCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Relay packets and acknowledgements on the configured path until interrupted",
		Args:  withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s relay
$ %s relay --debug-addr localhost:7597`, appName, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := startDebugServer(cmd, a); err != nil {
				return err
			}

			r, err := a.relayer()
			if err != nil {
				return err
			}
			return link.New(a.Log, r, a.Metrics).Run(cmd.Context(), a.Config.relayInterval())
		},
	}
	return debugServerFlags(a, cmd)
}

// startDebugServer serves pprof and the harness metrics when --debug-addr is set.
// The server stops with the command context.
func startDebugServer(cmd *cobra.Command, a *appState) error {
	debugAddr, err := cmd.Flags().GetString(flagDebugAddr)
	if err != nil {
		return err
	}
	if debugAddr == "" {
		a.Log.Debug("Skipping debug server due to empty debug address flag")
		return nil
	}

	ln, err := net.Listen("tcp", debugAddr)
	if err != nil {
		a.Log.Error("Failed to listen on debug address. If you have another harness process open, use --" + flagDebugAddr + " to pick a different address.")
		return fmt.Errorf("failed to listen on debug address %q: %w", debugAddr, err)
	}
	log := a.Log.With(zap.String("sys", "debughttp"))
	log.Info("Debug server listening", zap.String("addr", ln.Addr().String()))
	harnessdebug.StartDebugServer(cmd.Context(), log, ln, a.Metrics.Registry)
	return nil
}
