// Package chain queries the IBC state of a Cosmos chain over CometBFT RPC
// and waits for that state to reach a target.
package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	querytypes "github.com/cosmos/cosmos-sdk/types/query"
	transfertypes "github.com/cosmos/ibc-go/v3/modules/apps/transfer/types"
	conntypes "github.com/cosmos/ibc-go/v3/modules/core/03-connection/types"
	chantypes "github.com/cosmos/ibc-go/v3/modules/core/04-channel/types"
	rpcclient "github.com/tendermint/tendermint/rpc/client"
	rpchttp "github.com/tendermint/tendermint/rpc/client/http"
	libclient "github.com/tendermint/tendermint/rpc/jsonrpc/client"

	"github.com/cosmos/ics20-harness/ibcdenom"
)

// Querier reads the chain state the harness waits on.
type Querier interface {
	ChainID() string
	LatestHeight(ctx context.Context) (int64, error)
	Connections(ctx context.Context) ([]*conntypes.IdentifiedConnection, error)
	Channels(ctx context.Context) ([]*chantypes.IdentifiedChannel, error)
	DenomTrace(ctx context.Context, denom string) (*transfertypes.DenomTrace, error)
}

var _ Querier = (*CosmosQuerier)(nil)

// CosmosQuerier is a Querier backed by a CometBFT RPC endpoint.
// IBC module queries are routed as gRPC requests through abci_query.
type CosmosQuerier struct {
	chainID string
	rpcAddr string

	RPCClient rpcclient.Client
}

// NewCosmosQuerier returns a querier for chainID talking to the RPC server at rpcAddr.
// A zero timeout leaves the HTTP client's default in place.
func NewCosmosQuerier(chainID, rpcAddr string, timeout time.Duration) (*CosmosQuerier, error) {
	client, err := newRPCClient(rpcAddr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc client for %s at %s: %w", chainID, rpcAddr, err)
	}
	return &CosmosQuerier{
		chainID:   chainID,
		rpcAddr:   rpcAddr,
		RPCClient: client,
	}, nil
}

func newRPCClient(addr string, timeout time.Duration) (*rpchttp.HTTP, error) {
	httpClient, err := libclient.DefaultHTTPClient(addr)
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		httpClient.Timeout = timeout
	}
	rpcClient, err := rpchttp.NewWithClient(addr, "/websocket", httpClient)
	if err != nil {
		return nil, err
	}

	return rpcClient, nil
}

func (cq *CosmosQuerier) ChainID() string {
	return cq.chainID
}

func (cq *CosmosQuerier) RPCAddr() string {
	return cq.rpcAddr
}

// LatestHeight returns the height of the latest block the node has committed.
func (cq *CosmosQuerier) LatestHeight(ctx context.Context) (int64, error) {
	stat, err := cq.RPCClient.Status(ctx)
	if err != nil {
		return -1, err
	} else if stat.SyncInfo.CatchingUp {
		return -1, fmt.Errorf("node at %s running chain %s not caught up", cq.rpcAddr, cq.chainID)
	}
	return stat.SyncInfo.LatestBlockHeight, nil
}

// Connections gets the connections on a chain
// TODO add pagination support
func (cq *CosmosQuerier) Connections(ctx context.Context) ([]*conntypes.IdentifiedConnection, error) {
	qc := conntypes.NewQueryClient(cq)
	res, err := qc.Connections(ctx, &conntypes.QueryConnectionsRequest{
		Pagination: DefaultPageRequest(),
	})
	if err != nil || res == nil {
		return nil, err
	}
	return res.Connections, nil
}

// Channels returns all the channels that are registered on a chain
// TODO add pagination support
func (cq *CosmosQuerier) Channels(ctx context.Context) ([]*chantypes.IdentifiedChannel, error) {
	qc := chantypes.NewQueryClient(cq)
	res, err := qc.Channels(ctx, &chantypes.QueryChannelsRequest{
		Pagination: DefaultPageRequest(),
	})
	if err != nil || res == nil {
		return nil, err
	}
	return res.Channels, nil
}

// DenomTrace resolves an "ibc/HASH" denom, or a bare hash, to its trace on the chain.
func (cq *CosmosQuerier) DenomTrace(ctx context.Context, denom string) (*transfertypes.DenomTrace, error) {
	hash := strings.TrimPrefix(denom, ibcdenom.DenomPrefix+"/")
	res, err := transfertypes.NewQueryClient(cq).DenomTrace(ctx, &transfertypes.QueryDenomTraceRequest{
		Hash: hash,
	})
	if err != nil {
		return nil, err
	}
	return res.DenomTrace, nil
}

func DefaultPageRequest() *querytypes.PageRequest {
	return &querytypes.PageRequest{
		Key:        []byte(""),
		Offset:     0,
		Limit:      1000,
		CountTotal: true,
	}
}
