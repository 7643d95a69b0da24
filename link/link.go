// Package link bootstraps an IBC connection and channel between two chains
// and keeps packets flowing over it.
package link

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cosmos/ics20-harness/internal/harnessmetrics"
)

// DefaultRelayInterval is the pause between two relay loop iterations.
const DefaultRelayInterval = 5 * time.Second

// Link is a connection between two chains served by a Relayer.
type Link struct {
	log     *zap.Logger
	relayer Relayer
	metrics *harnessmetrics.Metrics

	Connection ConnectionPair
}

// New wraps a relayer whose path already has a connection.
func New(log *zap.Logger, r Relayer, metrics *harnessmetrics.Metrics) *Link {
	return &Link{
		log:     log,
		relayer: r,
		metrics: metrics,
	}
}

// CreateWithNewConnections creates clients and a new connection between the two chains.
// Failures are returned as is; nothing is retried here.
func CreateWithNewConnections(ctx context.Context, log *zap.Logger, r Relayer, metrics *harnessmetrics.Metrics) (*Link, error) {
	l := New(log, r, metrics)

	log.Info("Creating clients and connection")
	conn, err := r.CreateConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}
	l.Connection = conn

	log.Info(
		"Connection created",
		zap.String("a_chain_id", conn.A.ChainID),
		zap.String("a_client_id", conn.A.ClientID),
		zap.String("a_connection_id", conn.A.ConnectionID),
		zap.String("b_chain_id", conn.B.ChainID),
		zap.String("b_client_id", conn.B.ClientID),
		zap.String("b_connection_id", conn.B.ConnectionID),
	)
	return l, nil
}

// UpdateClients refreshes the clients on both sides concurrently and waits for both.
// Errors from either side are combined. Relayers implementing ClientsUpdater are called once instead.
func (l *Link) UpdateClients(ctx context.Context) error {
	if u, ok := l.relayer.(ClientsUpdater); ok {
		if err := u.UpdateClients(ctx); err != nil {
			return fmt.Errorf("failed to update clients: %w", err)
		}
		return nil
	}

	var (
		eg   errgroup.Group
		errs [len(Sides)]error
	)
	for i, side := range Sides {
		i, side := i, side
		eg.Go(func() error {
			if err := l.relayer.UpdateClient(ctx, side); err != nil {
				errs[i] = fmt.Errorf("failed to update client on side %s: %w", side, err)
			}
			return nil
		})
	}
	_ = eg.Wait()
	return multierr.Combine(errs[:]...)
}

// CreateChannel opens an ics20-1 channel from contractPort on side A to the transfer port on side B.
func (l *Link) CreateChannel(ctx context.Context, contractPort string) (ChannelPair, error) {
	return l.CreateChannelWithOptions(ctx, SideA, ICS20ChannelOptions(contractPort))
}

// CreateChannelWithOptions refreshes both clients, then opens a channel from side.
func (l *Link) CreateChannelWithOptions(ctx context.Context, side Side, opts ChannelOptions) (ChannelPair, error) {
	if err := l.UpdateClients(ctx); err != nil {
		return ChannelPair{}, err
	}

	log := l.log.With(
		zap.String("side", string(side)),
		zap.String("src_port", opts.SrcPort),
		zap.String("dst_port", opts.DstPort),
		zap.String("order", opts.Order.String()),
		zap.String("version", opts.Version),
	)
	log.Info("Creating channel")

	pair, err := l.relayer.CreateChannel(ctx, side, opts)
	if err != nil {
		return ChannelPair{}, fmt.Errorf("failed to create channel: %w", err)
	}

	log.Info(
		"Channel created",
		zap.String("src_channel_id", pair.Src.ChannelID),
		zap.String("dst_channel_id", pair.Dst.ChannelID),
	)
	return pair, nil
}

// RelayOnce relays everything pending since from, then refreshes both clients.
// The returned cursor advances whenever the relay itself succeeded, even if a client update failed.
func (l *Link) RelayOnce(ctx context.Context, from RelayHeights) (RelayHeights, error) {
	next, err := l.relayer.RelayAll(ctx, from)
	if err != nil {
		l.metrics.IncRelayError("relay")
		return from, fmt.Errorf("failed to relay packets: %w", err)
	}
	for _, side := range Sides {
		l.metrics.SetRelayedHeight(string(side), next.Get(side))
	}

	if err := l.UpdateClients(ctx); err != nil {
		l.metrics.IncRelayError("update_client")
		return next, err
	}
	return next, nil
}

// Run relays packets and acknowledgements until ctx is done, pausing interval between iterations.
// Errors are logged and never stop the loop. Run returns nil once ctx is done.
func (l *Link) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultRelayInterval
	}
	l.log.Info("Starting relay loop", zap.Duration("interval", interval))

	var next RelayHeights
	for {
		l.metrics.IncRelayIteration()

		var err error
		next, err = l.RelayOnce(ctx, next)
		if ctx.Err() != nil {
			l.log.Info("Relay loop stopped")
			return nil
		}
		if err != nil {
			l.log.Error("Caught error", zap.Error(err))
		} else {
			l.log.Debug("Relayed", zap.Int64("a_height", next.A), zap.Int64("b_height", next.B))
		}

		select {
		case <-ctx.Done():
			l.log.Info("Relay loop stopped")
			return nil
		case <-time.After(interval):
		}
	}
}
