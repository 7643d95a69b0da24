package cmd_test

import (
	"encoding/json"
	"strings"
	"testing"

	transfertypes "github.com/cosmos/ibc-go/v3/modules/apps/transfer/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cosmos/ics20-harness/internal/harnesstest"
)

func TestDenomHash(t *testing.T) {
	t.Parallel()

	sys := harnesstest.NewSystem(t)

	res := sys.MustRun(t, "denom", "hash", "uscrt", "transfer/channel-0")
	want := transfertypes.DenomTrace{Path: "transfer/channel-0", BaseDenom: "uscrt"}.IBCDenom()
	require.Equal(t, want+"\n", res.Stdout.String())

	// Hops may be given one per argument or joined.
	multi := sys.MustRun(t, "denom", "hash", "uatom", "transfer/channel-0", "transfer/channel-7")
	joined := sys.MustRun(t, "denom", "hash", "uatom", "transfer/channel-0/transfer/channel-7")
	require.Equal(t, multi.Stdout.String(), joined.Stdout.String())
	want = transfertypes.DenomTrace{Path: "transfer/channel-0/transfer/channel-7", BaseDenom: "uatom"}.IBCDenom()
	require.Equal(t, want, strings.TrimSpace(multi.Stdout.String()))
}

func TestDenomHash_JSON(t *testing.T) {
	t.Parallel()

	sys := harnesstest.NewSystem(t)
	res := sys.MustRun(t, "denom", "hash", "--cw20", "secret1contract", "wasm.secret1ics20/channel-1", "--json")

	var out struct {
		Denom     string `json:"denom"`
		Path      string `json:"path"`
		BaseDenom string `json:"base_denom"`
	}
	require.NoError(t, json.Unmarshal(res.Stdout.Bytes(), &out))
	require.Equal(t, "cw20:secret1contract", out.BaseDenom)
	require.Equal(t, "wasm.secret1ics20/channel-1", out.Path)
	require.Equal(t, transfertypes.DenomTrace{Path: out.Path, BaseDenom: out.BaseDenom}.IBCDenom(), out.Denom)
}

func TestDenomHash_Errors(t *testing.T) {
	t.Parallel()

	sys := harnesstest.NewSystem(t)

	res := sys.Run(zaptest.NewLogger(t), "denom", "hash")
	require.ErrorContains(t, res.Err, "base denom is required")

	res = sys.Run(zaptest.NewLogger(t), "denom", "hash", "uscrt", "transfer")
	require.ErrorContains(t, res.Err, "odd number of segments")
}

func TestDenomTrace_RejectsNonIBCDenom(t *testing.T) {
	t.Parallel()

	sys := harnesstest.NewSystem(t)

	res := sys.Run(zaptest.NewLogger(t), "denom", "trace", "a", "uscrt")
	require.ErrorContains(t, res.Err, "is not an ibc/ denom")

	res = sys.Run(zaptest.NewLogger(t), "denom", "trace", "c", "ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2")
	require.ErrorContains(t, res.Err, "invalid side")
}
