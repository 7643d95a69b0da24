package chain

import (
	"context"
	"errors"
	"time"

	conntypes "github.com/cosmos/ibc-go/v3/modules/core/03-connection/types"
	chantypes "github.com/cosmos/ibc-go/v3/modules/core/04-channel/types"
	"go.uber.org/zap"

	"github.com/cosmos/ics20-harness/internal/harnessmetrics"
	"github.com/cosmos/ics20-harness/poll"
)

// Waiter blocks until a chain reaches a given IBC state.
// Query failures are logged at debug level and retried; they never end a wait.
type Waiter struct {
	log     *zap.Logger
	metrics *harnessmetrics.Metrics

	// Interval between two checks. Zero selects poll.DefaultInterval.
	Interval time.Duration

	// Timeout bounds each wait. Zero waits until the context is done.
	Timeout time.Duration
}

func NewWaiter(log *zap.Logger, metrics *harnessmetrics.Metrics, interval, timeout time.Duration) *Waiter {
	return &Waiter{
		log:      log,
		metrics:  metrics,
		Interval: interval,
		Timeout:  timeout,
	}
}

func (w *Waiter) until(ctx context.Context, log *zap.Logger, chainID, waiter string, cond poll.Condition) error {
	return poll.Until(ctx, cond,
		poll.WithInterval(w.Interval),
		poll.WithTimeout(w.Timeout),
		poll.WithOnRetry(func(n uint, err error) {
			w.metrics.IncPollAttempt(chainID, waiter)
			if !errors.Is(err, poll.ErrNotReady) {
				log.Debug("State query failed", zap.Uint("attempt", n+1), zap.Error(err))
			}
		}),
	)
}

// WaitForBlocks returns once the chain has produced its first block.
func (w *Waiter) WaitForBlocks(ctx context.Context, q Querier) error {
	log := w.log.With(zap.String("chain_id", q.ChainID()))
	log.Info("Waiting for blocks")

	var height int64
	err := w.until(ctx, log, q.ChainID(), "blocks", func(ctx context.Context) (bool, error) {
		h, err := q.LatestHeight(ctx)
		if err != nil {
			return false, err
		}
		height = h
		return h >= 1, nil
	})
	if err != nil {
		return err
	}

	log.Info("Current block", zap.Int64("height", height))
	return nil
}

// WaitForConnection returns once the first connection on the chain is open.
func (w *Waiter) WaitForConnection(ctx context.Context, q Querier) error {
	log := w.log.With(zap.String("chain_id", q.ChainID()))
	log.Info("Waiting for open connections")

	var connectionID string
	err := w.until(ctx, log, q.ChainID(), "connection", func(ctx context.Context) (bool, error) {
		conns, err := q.Connections(ctx)
		if err != nil {
			return false, err
		}
		if len(conns) == 0 || conns[0].State != conntypes.OPEN {
			return false, nil
		}
		connectionID = conns[0].Id
		return true, nil
	})
	if err != nil {
		return err
	}

	log.Info("Found an open connection", zap.String("connection_id", connectionID))
	return nil
}

// WaitForChannel returns once channelID is open on the chain.
func (w *Waiter) WaitForChannel(ctx context.Context, q Querier, channelID string) error {
	log := w.log.With(zap.String("chain_id", q.ChainID()), zap.String("channel_id", channelID))
	log.Info("Waiting for channel")

	err := w.until(ctx, log, q.ChainID(), "channel", func(ctx context.Context) (bool, error) {
		channels, err := q.Channels(ctx)
		if err != nil {
			return false, err
		}
		for _, c := range channels {
			if c.ChannelId == channelID && c.State == chantypes.OPEN {
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return err
	}

	log.Info("Channel is open")
	return nil
}
