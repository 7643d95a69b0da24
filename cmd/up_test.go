package cmd

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
	"go.uber.org/zap/zaptest"

	"github.com/cosmos/ics20-harness/chain"
	"github.com/cosmos/ics20-harness/link"
)

// events is an ordered log shared by the fakes of one test.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, s)
}

func (e *events) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

func (e *events) index(s string) int {
	for i, v := range e.list() {
		if v == s {
			return i
		}
	}
	return -1
}

// openQuerier reports a live chain with one open connection and the given open channel.
type openQuerier struct {
	chainID   string
	channelID string
	ev        *events
}

var _ chain.Querier = (*openQuerier)(nil)

func (q *openQuerier) ChainID() string { return q.chainID }

func (q *openQuerier) LatestHeight(context.Context) (int64, error) {
	q.ev.add("height " + q.chainID)
	return 5, nil
}

func (q *openQuerier) Connections(context.Context) ([]*conntypes.IdentifiedConnection, error) {
	q.ev.add("connections " + q.chainID)
	return []*conntypes.IdentifiedConnection{{Id: "connection-0", State: conntypes.OPEN}}, nil
}

func (q *openQuerier) Channels(context.Context) ([]*chantypes.IdentifiedChannel, error) {
	q.ev.add("channels " + q.chainID)
	return []*chantypes.IdentifiedChannel{{ChannelId: q.channelID, State: chantypes.OPEN}}, nil
}

func (q *openQuerier) DenomTrace(context.Context, string) (*transfertypes.DenomTrace, error) {
	return nil, errors.New("not implemented")
}

func TestBringUp(t *testing.T) {
	ev := &events{}
	qa := &openQuerier{chainID: "secretdev-1", channelID: "channel-7", ev: ev}
	qb := &openQuerier{chainID: "secretdev-2", channelID: "channel-3", ev: ev}
	w := chain.NewWaiter(zaptest.NewLogger(t), nil, time.Millisecond, 5*time.Second)

	want := link.ChannelPair{
		Src: link.ChannelEnd{PortID: "wasm.secret1contract", ChannelID: "channel-7"},
		Dst: link.ChannelEnd{PortID: "transfer", ChannelID: "channel-3"},
	}
	_, pair, err := bringUp(context.Background(), w, qa, qb, time.Millisecond, func(context.Context) (*link.Link, link.ChannelPair, error) {
		ev.add("open")
		return nil, want, nil
	})
	require.NoError(t, err)
	require.Equal(t, want, pair)

	open := ev.index("open")
	require.Greater(t, open, ev.index("height secretdev-1"))
	require.Greater(t, open, ev.index("height secretdev-2"))
	require.Greater(t, ev.index("connections secretdev-1"), open)
	require.Greater(t, ev.index("connections secretdev-2"), open)

	// Each end's channel is checked on its own chain, after the connections.
	chA, chB := ev.index("channels secretdev-1"), ev.index("channels secretdev-2")
	require.Greater(t, chA, ev.index("connections secretdev-1"))
	require.Greater(t, chA, ev.index("connections secretdev-2"))
	require.Greater(t, chB, chA)
}

func TestBringUp_OpenFailureStops(t *testing.T) {
	ev := &events{}
	qa := &openQuerier{chainID: "secretdev-1", ev: ev}
	qb := &openQuerier{chainID: "secretdev-2", ev: ev}
	w := chain.NewWaiter(zaptest.NewLogger(t), nil, time.Millisecond, 5*time.Second)

	openErr := errors.New("no path")
	_, _, err := bringUp(context.Background(), w, qa, qb, time.Hour, func(context.Context) (*link.Link, link.ChannelPair, error) {
		return nil, link.ChannelPair{}, openErr
	})
	require.ErrorIs(t, err, openErr)
	require.Equal(t, -1, ev.index("connections secretdev-1"))
}

func TestWaitBoth_FirstErrorCancelsOther(t *testing.T) {
	qa := &openQuerier{chainID: "secretdev-1"}
	qb := &openQuerier{chainID: "secretdev-2"}

	failErr := errors.New("chain a unreachable")
	var cancelled bool
	err := waitBoth(context.Background(), func(ctx context.Context, q chain.Querier) error {
		if q.ChainID() == "secretdev-1" {
			return failErr
		}
		<-ctx.Done()
		cancelled = true
		return ctx.Err()
	}, qa, qb)
	require.ErrorIs(t, err, failErr)
	require.True(t, cancelled)
}

func TestWaitBoth_RunsConcurrently(t *testing.T) {
	qa := &openQuerier{chainID: "secretdev-1"}
	qb := &openQuerier{chainID: "secretdev-2"}

	// Each wait only returns once both have started.
	var started sync.WaitGroup
	started.Add(2)
	err := waitBoth(context.Background(), func(ctx context.Context, q chain.Querier) error {
		started.Done()
		started.Wait()
		return nil
	}, qa, qb)
	require.NoError(t, err)
}

func TestMaxTxWait(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	require.Equal(t, 6250*time.Millisecond, maxTxWait(cfg))

	cfg.Chains.B.EstimatedBlockTime = "8s"
	require.Equal(t, 8500*time.Millisecond, maxTxWait(cfg))
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), 0))
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
