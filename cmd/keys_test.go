package cmd_test

import (
	"encoding/json"
	"strings"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/cosmos/ics20-harness/internal/harnesstest"
)

func TestKeysShow(t *testing.T) {
	t.Parallel()

	sys := harnesstest.NewSystem(t)
	res := sys.MustRun(t, "keys", "show", "--json")

	var keys []struct {
		Side    string `json:"side"`
		ChainID string `json:"chain_id"`
		KeyName string `json:"key_name"`
		Address string `json:"address"`
	}
	require.NoError(t, json.Unmarshal(res.Stdout.Bytes(), &keys))
	require.Len(t, keys, 2)

	require.Equal(t, "a", keys[0].Side)
	require.Equal(t, "secretdev-1", keys[0].ChainID)
	require.Equal(t, "b", keys[1].Side)
	require.Equal(t, "secretdev-2", keys[1].ChainID)

	// Same prefix and key on both local chains.
	require.Equal(t, keys[0].Address, keys[1].Address)
	require.True(t, strings.HasPrefix(keys[0].Address, "secret1"), keys[0].Address)
	_, err := sdk.GetFromBech32(keys[0].Address, "secret")
	require.NoError(t, err)

	plain := sys.MustRun(t, "keys", "show")
	lines := strings.Split(strings.TrimSpace(plain.Stdout.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "a\tsecretdev-1\t"+keys[0].Address, lines[0])
}

func TestVersion(t *testing.T) {
	t.Parallel()

	sys := harnesstest.NewSystem(t)
	res := sys.MustRun(t, "version", "--json")

	var v map[string]string
	require.NoError(t, json.Unmarshal(res.Stdout.Bytes(), &v))
	require.Contains(t, v["go"], "go")
	require.Contains(t, v, "ibc-go")
}
