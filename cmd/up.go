package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cosmos/ics20-harness/chain"
	"github.com/cosmos/ics20-harness/link"
)

func upCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up [contract-address|wasm-port]",
		Short: "Wait for both chains, link them through a contract port and relay until interrupted",
		Long: strings.TrimSpace(`Run the whole sequence: wait until both chains produce blocks, create clients,
a connection and a channel from the contract port, wait until the connection and
the channel are open on both chains, then relay packets and acknowledgements until
interrupted.`),
		Args: withUsage(cobra.ExactArgs(1)),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s up secret1qxxlalvsdjd07p07y3rc5fu6ll8k4tme6e2scc
$ %s up secret1qxxlalvsdjd07p07y3rc5fu6ll8k4tme6e2scc --debug-addr localhost:7597`, appName, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := startDebugServer(cmd, a); err != nil {
				return err
			}

			qa, qb, err := a.queriers()
			if err != nil {
				return err
			}
			r, err := a.relayer()
			if err != nil {
				return err
			}

			l, pair, err := bringUp(ctx, a.waiter(), qa, qb, maxTxWait(a.Config), func(ctx context.Context) (*link.Link, link.ChannelPair, error) {
				return createLink(ctx, a, r, args[0], true)
			})
			if err != nil {
				return err
			}

			if err := printChannelPair(cmd, pair); err != nil {
				return err
			}
			a.Log.Info(
				"Link is up",
				zap.String("src_port", pair.Src.PortID),
				zap.String("src_channel_id", pair.Src.ChannelID),
				zap.String("dst_port", pair.Dst.PortID),
				zap.String("dst_channel_id", pair.Dst.ChannelID),
			)

			return l.Run(ctx, a.Config.relayInterval())
		},
	}
	return debugServerFlags(a, cmd)
}

// bringUp waits for blocks on both chains, opens the link, then waits until the connection is open
// on both chains and the channel is open on each end.
func bringUp(
	ctx context.Context,
	w *chain.Waiter,
	qa, qb chain.Querier,
	pause time.Duration,
	open func(context.Context) (*link.Link, link.ChannelPair, error),
) (*link.Link, link.ChannelPair, error) {
	if err := waitBoth(ctx, w.WaitForBlocks, qa, qb); err != nil {
		return nil, link.ChannelPair{}, err
	}

	l, pair, err := open(ctx)
	if err != nil {
		return nil, link.ChannelPair{}, err
	}

	// The handshake's last transactions may not be queryable yet.
	if err := sleepContext(ctx, pause); err != nil {
		return nil, link.ChannelPair{}, err
	}

	if err := waitBoth(ctx, w.WaitForConnection, qa, qb); err != nil {
		return nil, link.ChannelPair{}, err
	}
	if err := w.WaitForChannel(ctx, qa, pair.Src.ChannelID); err != nil {
		return nil, link.ChannelPair{}, err
	}
	if err := w.WaitForChannel(ctx, qb, pair.Dst.ChannelID); err != nil {
		return nil, link.ChannelPair{}, err
	}
	return l, pair, nil
}

// waitBoth runs wait against both chains concurrently and returns the first error.
func waitBoth(ctx context.Context, wait func(context.Context, chain.Querier) error, qa, qb chain.Querier) error {
	eg, egCtx := errgroup.WithContext(ctx)
	for _, q := range []chain.Querier{qa, qb} {
		q := q
		eg.Go(func() error {
			return wait(egCtx, q)
		})
	}
	return eg.Wait()
}

func maxTxWait(c *Config) time.Duration {
	var d time.Duration
	for _, side := range link.Sides {
		if w := c.Chain(side).TxWait(); w > d {
			d = w
		}
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
