package link

import (
	"context"
	"fmt"

	chantypes "github.com/cosmos/ibc-go/v3/modules/core/04-channel/types"
)

const (
	// TransferPort is the counterparty port of an ICS-20 channel opened by a contract.
	TransferPort = "transfer"

	// ICS20Version is the channel version negotiated for fungible token transfer.
	ICS20Version = "ics20-1"
)

// Side names one of the two chains of a link.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// Sides lists both sides in a stable order.
var Sides = [2]Side{SideA, SideB}

func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// ParseSide accepts "a", "A", "b" or "B".
func ParseSide(s string) (Side, error) {
	switch s {
	case "a", "A":
		return SideA, nil
	case "b", "B":
		return SideB, nil
	default:
		return "", fmt.Errorf("invalid side %q, expected a or b", s)
	}
}

// ChannelOptions describes a channel to open from one side of the link.
type ChannelOptions struct {
	SrcPort string          `json:"src-port"`
	DstPort string          `json:"dst-port"`
	Order   chantypes.Order `json:"order"`
	Version string          `json:"version"`
}

// ICS20ChannelOptions returns the options of an unordered ics20-1 channel
// between contractPort and the counterparty transfer port.
func ICS20ChannelOptions(contractPort string) ChannelOptions {
	return ChannelOptions{
		SrcPort: contractPort,
		DstPort: TransferPort,
		Order:   chantypes.UNORDERED,
		Version: ICS20Version,
	}
}

// ConnectionEnd holds the identifiers of one side of a connection.
type ConnectionEnd struct {
	ChainID      string `json:"chain-id"`
	ClientID     string `json:"client-id"`
	ConnectionID string `json:"connection-id"`
}

type ConnectionPair struct {
	A ConnectionEnd `json:"a"`
	B ConnectionEnd `json:"b"`
}

func (p ConnectionPair) End(s Side) ConnectionEnd {
	if s == SideB {
		return p.B
	}
	return p.A
}

type ChannelEnd struct {
	PortID    string `json:"port-id"`
	ChannelID string `json:"channel-id"`
}

// ChannelPair holds both ends of a channel. Src is the side the channel was opened from.
type ChannelPair struct {
	Src ChannelEnd `json:"src"`
	Dst ChannelEnd `json:"dst"`
}

// RelayHeights is the cursor threaded through successive RelayAll calls.
// The zero value relays everything pending.
type RelayHeights struct {
	A int64 `json:"a"`
	B int64 `json:"b"`
}

func (h RelayHeights) Get(s Side) int64 {
	if s == SideB {
		return h.B
	}
	return h.A
}

// Relayer is the external relayer the link drives. All handshake and proof logic lives behind it.
type Relayer interface {
	// CreateConnection creates fresh clients on both chains and opens a connection between them.
	CreateConnection(ctx context.Context) (ConnectionPair, error)

	// UpdateClient refreshes the light client hosted on the given side.
	UpdateClient(ctx context.Context, side Side) error

	// CreateChannel opens a channel from side over the link's connection.
	CreateChannel(ctx context.Context, side Side, opts ChannelOptions) (ChannelPair, error)

	// RelayAll relays all packets and acknowledgements pending since from and returns the next cursor.
	RelayAll(ctx context.Context, from RelayHeights) (RelayHeights, error)
}

// ClientsUpdater is implemented by relayers that refresh the clients on both sides with a single call.
// Link prefers it over two concurrent UpdateClient calls.
type ClientsUpdater interface {
	UpdateClients(ctx context.Context) error
}
