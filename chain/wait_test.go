package chain_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	transfertypes "github.com/cosmos/ibc-go/v3/modules/apps/transfer/types"
	conntypes "github.com/cosmos/ibc-go/v3/modules/core/03-connection/types"
	chantypes "github.com/cosmos/ibc-go/v3/modules/core/04-channel/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cosmos/ics20-harness/chain"
	"github.com/cosmos/ics20-harness/internal/harnessmetrics"
)

// fakeQuerier replays scripted responses, repeating the last one once exhausted.
type fakeQuerier struct {
	mu sync.Mutex

	heights     []int64
	connections [][]*conntypes.IdentifiedConnection
	channels    [][]*chantypes.IdentifiedChannel
	errs        []error

	calls int
}

var _ chain.Querier = (*fakeQuerier)(nil)

func (f *fakeQuerier) ChainID() string { return "secretdev-1" }

func (f *fakeQuerier) next() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return i, f.errs[i]
	}
	return i, nil
}

func clamp(i, n int) int {
	if i >= n {
		return n - 1
	}
	return i
}

func (f *fakeQuerier) LatestHeight(ctx context.Context) (int64, error) {
	i, err := f.next()
	if err != nil {
		return -1, err
	}
	return f.heights[clamp(i, len(f.heights))], nil
}

func (f *fakeQuerier) Connections(ctx context.Context) ([]*conntypes.IdentifiedConnection, error) {
	i, err := f.next()
	if err != nil {
		return nil, err
	}
	return f.connections[clamp(i, len(f.connections))], nil
}

func (f *fakeQuerier) Channels(ctx context.Context) ([]*chantypes.IdentifiedChannel, error) {
	i, err := f.next()
	if err != nil {
		return nil, err
	}
	return f.channels[clamp(i, len(f.channels))], nil
}

func (f *fakeQuerier) DenomTrace(ctx context.Context, denom string) (*transfertypes.DenomTrace, error) {
	return nil, errors.New("not implemented")
}

func newTestWaiter(t *testing.T) *chain.Waiter {
	return chain.NewWaiter(zaptest.NewLogger(t), nil, time.Millisecond, 0)
}

func TestWaitForBlocks(t *testing.T) {
	q := &fakeQuerier{
		heights: []int64{0, 0, 0, 4},
		errs:    []error{errors.New("connection refused")},
	}

	core, logs := observer.New(zap.InfoLevel)
	w := chain.NewWaiter(zap.New(core), nil, time.Millisecond, 0)

	require.NoError(t, w.WaitForBlocks(context.Background(), q))
	require.Equal(t, 4, q.calls)

	current := logs.FilterMessage("Current block").All()
	require.Len(t, current, 1)
	require.EqualValues(t, 4, current[0].ContextMap()["height"])
	require.Equal(t, "secretdev-1", current[0].ContextMap()["chain_id"])
}

func TestWaitForConnection(t *testing.T) {
	q := &fakeQuerier{
		connections: [][]*conntypes.IdentifiedConnection{
			nil,
			{{Id: "connection-0", State: conntypes.INIT}},
			{{Id: "connection-0", State: conntypes.TRYOPEN}},
			{{Id: "connection-0", State: conntypes.OPEN}},
		},
		errs: []error{errors.New("rpc error")},
	}

	require.NoError(t, newTestWaiter(t).WaitForConnection(context.Background(), q))
	require.Equal(t, 4, q.calls)
}

func TestWaitForConnection_OnlyFirstConnectionCounts(t *testing.T) {
	q := &fakeQuerier{
		connections: [][]*conntypes.IdentifiedConnection{
			{
				{Id: "connection-0", State: conntypes.INIT},
				{Id: "connection-1", State: conntypes.OPEN},
			},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := newTestWaiter(t).WaitForConnection(ctx, q)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitForChannel(t *testing.T) {
	q := &fakeQuerier{
		channels: [][]*chantypes.IdentifiedChannel{
			{{ChannelId: "channel-0", State: chantypes.OPEN}},
			{{ChannelId: "channel-0", State: chantypes.OPEN}, {ChannelId: "channel-1", State: chantypes.TRYOPEN}},
			{{ChannelId: "channel-0", State: chantypes.OPEN}, {ChannelId: "channel-1", State: chantypes.OPEN}},
		},
	}

	require.NoError(t, newTestWaiter(t).WaitForChannel(context.Background(), q, "channel-1"))
	require.Equal(t, 3, q.calls)
}

func TestWaiter_Timeout(t *testing.T) {
	q := &fakeQuerier{heights: []int64{0}}

	metrics := harnessmetrics.New()
	w := chain.NewWaiter(zaptest.NewLogger(t), metrics, time.Millisecond, 30*time.Millisecond)

	err := w.WaitForBlocks(context.Background(), q)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	families, err := metrics.Registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
	require.Equal(t, "harness_poll_attempts_total", families[0].GetName())
	require.Greater(t, families[0].GetMetric()[0].GetCounter().GetValue(), float64(0))
}
