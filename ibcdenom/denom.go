// Package ibcdenom derives the denominations a token takes on after crossing IBC hops.
package ibcdenom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tendermint/tendermint/crypto/tmhash"
	tmbytes "github.com/tendermint/tendermint/libs/bytes"
)

const (
	// DenomPrefix is the prefix of every hashed IBC voucher denom.
	DenomPrefix = "ibc"

	// Cw20Prefix prefixes the denom of a cw20 token sent through the cw20-ics20 contract.
	Cw20Prefix = "cw20:"

	// WasmPortPrefix prefixes the IBC port bound by a CosmWasm contract.
	WasmPortPrefix = "wasm."
)

var (
	ErrInvalidTrace = errors.New("invalid denom trace")
	ErrNotCw20      = errors.New("not a cw20 denom")
)

// Hop is one port/channel pair a token was received through.
type Hop struct {
	PortID    string `yaml:"port-id" json:"port-id"`
	ChannelID string `yaml:"channel-id" json:"channel-id"`
}

func (h Hop) String() string {
	return h.PortID + "/" + h.ChannelID
}

// FullPath returns the trace preimage for baseDenom received through hops, in order.
// With no hops the result is "/" + baseDenom.
func FullPath(hops []Hop, baseDenom string) string {
	parts := make([]string, len(hops))
	for i, h := range hops {
		parts[i] = h.String()
	}
	return strings.Join(parts, "/") + "/" + baseDenom
}

// IBCDenom returns "ibc/" followed by the uppercase hex SHA-256 of FullPath(hops, baseDenom).
func IBCDenom(hops []Hop, baseDenom string) string {
	hash := tmbytes.HexBytes(tmhash.Sum([]byte(FullPath(hops, baseDenom))))
	return fmt.Sprintf("%s/%s", DenomPrefix, hash.String())
}

// IsIBCDenom reports whether denom looks like a value returned by IBCDenom.
func IsIBCDenom(denom string) bool {
	hash := strings.TrimPrefix(denom, DenomPrefix+"/")
	if hash == denom || len(hash) != 2*tmhash.Size {
		return false
	}
	for _, c := range hash {
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// ParseHops splits a trace path like "transfer/channel-0/transfer/channel-7" into hops.
func ParseHops(path string) ([]Hop, error) {
	if path == "" {
		return nil, nil
	}
	segments := strings.Split(path, "/")
	if len(segments)%2 != 0 {
		return nil, fmt.Errorf("%w: %q has an odd number of segments", ErrInvalidTrace, path)
	}
	hops := make([]Hop, 0, len(segments)/2)
	for i := 0; i < len(segments); i += 2 {
		port, channel := segments[i], segments[i+1]
		if port == "" || channel == "" {
			return nil, fmt.Errorf("%w: empty identifier in %q", ErrInvalidTrace, path)
		}
		hops = append(hops, Hop{PortID: port, ChannelID: channel})
	}
	return hops, nil
}

// Cw20Denom returns the denom the cw20-ics20 contract uses for the cw20 token at addr.
func Cw20Denom(addr string) string {
	return Cw20Prefix + addr
}

// ParseCw20Denom returns the token contract address of a cw20 denom.
func ParseCw20Denom(denom string) (string, error) {
	addr := strings.TrimPrefix(denom, Cw20Prefix)
	if addr == denom || addr == "" {
		return "", fmt.Errorf("%w: %q", ErrNotCw20, denom)
	}
	return addr, nil
}

// ContractPort returns the IBC port id of the contract at addr.
// A value that is already a wasm port is returned unchanged.
func ContractPort(addr string) string {
	if strings.HasPrefix(addr, WasmPortPrefix) {
		return addr
	}
	return WasmPortPrefix + addr
}
