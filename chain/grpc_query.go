package chain

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	grpctypes "github.com/cosmos/cosmos-sdk/types/grpc"
	gogogrpc "github.com/gogo/protobuf/grpc"
	gogoproto "github.com/gogo/protobuf/proto"
	abci "github.com/tendermint/tendermint/abci/types"
	rpcclient "github.com/tendermint/tendermint/rpc/client"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

var _ gogogrpc.ClientConn = &CosmosQuerier{}

// Invoke implements the grpc ClientConn.Invoke method by running the request as an ABCI query.
func (cq *CosmosQuerier) Invoke(ctx context.Context, method string, req, reply interface{}, opts ...grpc.CallOption) (err error) {
	// An empty request would panic inside the marshaller.
	if req == nil || reflect.ValueOf(req).IsNil() {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "request cannot be nil")
	}

	replyMsg, ok := reply.(gogoproto.Message)
	if !ok {
		return sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "expected proto message reply, got %T", reply)
	}

	inMd, _ := metadata.FromOutgoingContext(ctx)
	abciRes, outMd, err := cq.RunGRPCQuery(ctx, method, req, inMd)
	if err != nil {
		return err
	}

	if err = gogoproto.Unmarshal(abciRes.Value, replyMsg); err != nil {
		return err
	}

	for _, callOpt := range opts {
		header, ok := callOpt.(grpc.HeaderCallOption)
		if !ok {
			continue
		}

		*header.HeaderAddr = outMd
	}

	return nil
}

// NewStream implements the grpc ClientConn.NewStream method
func (cq *CosmosQuerier) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, fmt.Errorf("streaming rpc not supported")
}

// RunGRPCQuery runs a gRPC query given the method path and request,
// and returns the ABCI response along with a block height header.
func (cq *CosmosQuerier) RunGRPCQuery(ctx context.Context, method string, req interface{}, md metadata.MD) (abci.ResponseQuery, metadata.MD, error) {
	reqMsg, ok := req.(gogoproto.Message)
	if !ok {
		return abci.ResponseQuery{}, nil, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "expected proto message request, got %T", req)
	}
	reqBz, err := gogoproto.Marshal(reqMsg)
	if err != nil {
		return abci.ResponseQuery{}, nil, err
	}

	height, err := GetHeightFromMetadata(md)
	if err != nil {
		return abci.ResponseQuery{}, nil, err
	}
	if height < 0 {
		return abci.ResponseQuery{}, nil, sdkerrors.Wrapf(
			sdkerrors.ErrInvalidRequest,
			"height (%d) from %q must be >= 0", height, grpctypes.GRPCBlockHeightHeader)
	}

	prove, err := GetProveFromMetadata(md)
	if err != nil {
		return abci.ResponseQuery{}, nil, err
	}

	abciRes, err := cq.QueryABCI(ctx, abci.RequestQuery{
		Path:   method,
		Data:   reqBz,
		Height: height,
		Prove:  prove,
	})
	if err != nil {
		return abci.ResponseQuery{}, nil, err
	}

	md = metadata.Pairs(grpctypes.GRPCBlockHeightHeader, strconv.FormatInt(abciRes.Height, 10))
	return abciRes, md, nil
}

// QueryABCI performs an ABCI query and returns the application response.
// A non-zero response code is returned as an error.
func (cq *CosmosQuerier) QueryABCI(ctx context.Context, req abci.RequestQuery) (abci.ResponseQuery, error) {
	opts := rpcclient.ABCIQueryOptions{
		Height: req.Height,
		Prove:  req.Prove,
	}
	result, err := cq.RPCClient.ABCIQueryWithOptions(ctx, req.Path, req.Data, opts)
	if err != nil {
		return abci.ResponseQuery{}, err
	}

	if !result.Response.IsOK() {
		return abci.ResponseQuery{}, sdkerrors.ABCIError(result.Response.Codespace, result.Response.Code, result.Response.Log)
	}

	return result.Response, nil
}

func GetHeightFromMetadata(md metadata.MD) (int64, error) {
	height := md.Get(grpctypes.GRPCBlockHeightHeader)
	if len(height) == 1 {
		return strconv.ParseInt(height[0], 10, 64)
	}
	return 0, nil
}

func GetProveFromMetadata(md metadata.MD) (bool, error) {
	prove := md.Get("x-cosmos-query-prove")
	if len(prove) == 1 {
		return strconv.ParseBool(prove[0])
	}
	return false, nil
}
