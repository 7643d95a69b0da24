// Package rly drives the github.com/cosmos/relayer command line to serve a link between two chains.
package rly

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	chantypes "github.com/cosmos/ibc-go/v3/modules/core/04-channel/types"
	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cosmos/ics20-harness/chain"
	"github.com/cosmos/ics20-harness/link"
)

var (
	ErrNoConnection    = errors.New("path has no connection yet")
	ErrChannelNotFound = errors.New("no open channel found")
)

// Config describes the relayer home, the path it serves and the two chains at its ends.
// Chain A is the path source.
type Config struct {
	Home     string
	PathName string

	// FlushCommand is the tx subcommand relaying everything pending. Defaults to DefaultFlushCommand.
	// Only forks that rename it need to set it.
	FlushCommand string

	Signer chain.Signer

	A ChainConfig
	B ChainConfig
}

func (c Config) chain(s link.Side) ChainConfig {
	if s == link.SideB {
		return c.B
	}
	return c.A
}

// Relayer implements link.Relayer on top of the rly binary.
type Relayer struct {
	log    *zap.Logger
	runner Runner
	cmd    commander
	cfg    Config

	queriers map[link.Side]chain.Querier

	mu   sync.Mutex
	conn *link.ConnectionPair

	updates singleflight.Group
}

var (
	_ link.Relayer        = (*Relayer)(nil)
	_ link.ClientsUpdater = (*Relayer)(nil)
)

// New returns a relayer running commands through runner.
// The queriers are used to read the chain heights the relay cursor is built from.
func New(log *zap.Logger, runner Runner, cfg Config, a, b chain.Querier) *Relayer {
	if cfg.PathName == "" {
		cfg.PathName = DefaultPathName
	}
	if cfg.FlushCommand == "" {
		cfg.FlushCommand = DefaultFlushCommand
	}
	return &Relayer{
		log:    log.With(zap.String("path", cfg.PathName)),
		runner: runner,
		cmd:    commander{homeDir: cfg.Home},
		cfg:    cfg,
		queriers: map[link.Side]chain.Querier{
			link.SideA: a,
			link.SideB: b,
		},
	}
}

func (r *Relayer) run(ctx context.Context, args []string) ([]byte, error) {
	r.log.Debug("Running relayer command", zap.Strings("args", redact(args)))
	return r.runner.Run(ctx, args)
}

// runIdempotent runs a command that creates something, treating "already exists" as success.
func (r *Relayer) runIdempotent(ctx context.Context, args []string) error {
	_, err := r.run(ctx, args)
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.AlreadyExists() {
		r.log.Debug("Already configured", zap.Strings("args", redact(args)))
		return nil
	}
	return err
}

// Setup prepares the relayer home: config, both chains, the signing key on both chains and the path.
// It can be run repeatedly against the same home.
func (r *Relayer) Setup(ctx context.Context) error {
	if err := r.cfg.Signer.Validate(); err != nil {
		return err
	}

	if err := r.runIdempotent(ctx, r.cmd.Init()); err != nil {
		return fmt.Errorf("failed to initialize relayer config: %w", err)
	}

	for _, side := range link.Sides {
		c := r.cfg.chain(side)

		content, err := providerConfigContent(c, r.cfg.Signer.KeyName)
		if err != nil {
			return err
		}
		file := filepath.Join(r.cfg.Home, c.ChainID+".json")
		if err := os.MkdirAll(r.cfg.Home, 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(file, content, 0o600); err != nil {
			return fmt.Errorf("failed to write chain config for %s: %w", c.ChainID, err)
		}

		if err := r.runIdempotent(ctx, r.cmd.AddChainConfiguration(file)); err != nil {
			return fmt.Errorf("failed to add chain %s: %w", c.ChainID, err)
		}

		restore := r.cmd.RestoreKey(c.ChainID, r.cfg.Signer.KeyName, r.cfg.Signer.CoinType, r.cfg.Signer.Mnemonic)
		if err := r.runIdempotent(ctx, restore); err != nil {
			return fmt.Errorf("failed to restore key on %s: %w", c.ChainID, err)
		}
	}

	if err := r.runIdempotent(ctx, r.cmd.GeneratePath(r.cfg.A.ChainID, r.cfg.B.ChainID, r.cfg.PathName)); err != nil {
		return fmt.Errorf("failed to create path: %w", err)
	}

	r.log.Info(
		"Relayer configured",
		zap.String("home", r.cfg.Home),
		zap.String("a_chain_id", r.cfg.A.ChainID),
		zap.String("b_chain_id", r.cfg.B.ChainID),
	)
	return nil
}

// CreateConnection creates clients as needed and opens a connection on the path.
func (r *Relayer) CreateConnection(ctx context.Context) (link.ConnectionPair, error) {
	if _, err := r.run(ctx, r.cmd.CreateConnection(r.cfg.PathName)); err != nil {
		return link.ConnectionPair{}, err
	}

	conn, err := r.loadConnection(ctx)
	if err != nil {
		return link.ConnectionPair{}, err
	}
	if conn.A.ConnectionID == "" || conn.B.ConnectionID == "" {
		return link.ConnectionPair{}, ErrNoConnection
	}
	return conn, nil
}

// Connection returns the connection recorded on the path, reading the relayer config on first use.
func (r *Relayer) Connection(ctx context.Context) (link.ConnectionPair, error) {
	r.mu.Lock()
	cached := r.conn
	r.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}
	return r.loadConnection(ctx)
}

func (r *Relayer) loadConnection(ctx context.Context) (link.ConnectionPair, error) {
	out, err := r.run(ctx, r.cmd.ShowConfig())
	if err != nil {
		return link.ConnectionPair{}, err
	}
	p, err := parseConfigOutput(out, r.cfg.PathName)
	if err != nil {
		return link.ConnectionPair{}, err
	}
	if p.Src.ClientID == "" || p.Dst.ClientID == "" {
		return link.ConnectionPair{}, ErrNoConnection
	}

	conn := link.ConnectionPair{
		A: link.ConnectionEnd{ChainID: p.Src.ChainID, ClientID: p.Src.ClientID, ConnectionID: p.Src.ConnectionID},
		B: link.ConnectionEnd{ChainID: p.Dst.ChainID, ClientID: p.Dst.ClientID, ConnectionID: p.Dst.ConnectionID},
	}

	r.mu.Lock()
	r.conn = &conn
	r.mu.Unlock()
	return conn, nil
}

// UpdateClients refreshes the clients on both ends of the path with a single rly invocation.
func (r *Relayer) UpdateClients(ctx context.Context) error {
	if _, err := r.Connection(ctx); err != nil {
		return err
	}
	_, err := r.run(ctx, r.cmd.UpdateClients(r.cfg.PathName))
	return err
}

// UpdateClient refreshes the client hosted on side. rly only updates both clients of a path together,
// so concurrent calls for either side share one UpdateClients run.
func (r *Relayer) UpdateClient(ctx context.Context, side link.Side) error {
	_, err, _ := r.updates.Do(r.cfg.PathName, func() (interface{}, error) {
		return nil, r.UpdateClients(ctx)
	})
	return err
}

// CreateChannel opens a channel over the path connection. For side B the ports are swapped
// so that opts.SrcPort ends up on chain B; the handshake itself always starts on the path source.
func (r *Relayer) CreateChannel(ctx context.Context, side link.Side, opts link.ChannelOptions) (link.ChannelPair, error) {
	srcPort, dstPort := opts.SrcPort, opts.DstPort
	if side == link.SideB {
		srcPort, dstPort = dstPort, srcPort
	}

	if _, err := r.run(ctx, r.cmd.CreateChannel(r.cfg.PathName, srcPort, dstPort, opts.Order, opts.Version)); err != nil {
		return link.ChannelPair{}, err
	}

	return r.findChannel(ctx, side, opts.SrcPort, opts.DstPort)
}

// findChannel picks the newest open channel on localPort of side whose counterparty port is remotePort.
func (r *Relayer) findChannel(ctx context.Context, side link.Side, localPort, remotePort string) (link.ChannelPair, error) {
	chainID := r.cfg.chain(side).ChainID
	out, err := r.run(ctx, r.cmd.GetChannels(chainID))
	if err != nil {
		return link.ChannelPair{}, err
	}
	channels := parseChannelsOutput(r.log, out)

	var (
		best    *channelOutput
		bestSeq uint64
	)
	for i := range channels {
		ch := &channels[i]
		if !ch.isOpen() || ch.PortID != localPort || ch.Counterparty.PortID != remotePort {
			continue
		}
		seq, err := chantypes.ParseChannelSequence(ch.ChannelID)
		if err != nil {
			continue
		}
		if best == nil || seq > bestSeq {
			best, bestSeq = ch, seq
		}
	}

	if best == nil {
		r.log.Debug("Channel candidates", zap.String("chain_id", chainID), zap.String("channels", spew.Sdump(channels)))
		return link.ChannelPair{}, fmt.Errorf("%w on %s with port %s and counterparty port %s", ErrChannelNotFound, chainID, localPort, remotePort)
	}

	return link.ChannelPair{
		Src: link.ChannelEnd{PortID: best.PortID, ChannelID: best.ChannelID},
		Dst: link.ChannelEnd{PortID: best.Counterparty.PortID, ChannelID: best.Counterparty.ChannelID},
	}, nil
}

// RelayAll flushes pending packets and acknowledgements when either chain produced blocks past from.
// The returned cursor holds the heights observed before the flush.
func (r *Relayer) RelayAll(ctx context.Context, from link.RelayHeights) (link.RelayHeights, error) {
	var next link.RelayHeights
	for _, side := range link.Sides {
		h, err := r.queriers[side].LatestHeight(ctx)
		if err != nil {
			return from, fmt.Errorf("failed to query height on side %s: %w", side, err)
		}
		if side == link.SideA {
			next.A = h
		} else {
			next.B = h
		}
	}

	if next.A <= from.A && next.B <= from.B {
		return from, nil
	}

	if _, err := r.run(ctx, r.cmd.Flush(r.cfg.FlushCommand, r.cfg.PathName)); err != nil {
		return from, err
	}
	return next, nil
}
