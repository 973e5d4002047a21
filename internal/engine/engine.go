// Package engine applies signed calls to the persisted campaign of one
// network. Every successful call commits the campaign, its new events and the
// caller's nonce in one store write before subscribers hear about them.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/Mohsinsiddi/fundme/internal/store"
	"github.com/Mohsinsiddi/fundme/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
)

// Errors.
var (
	ErrWrongNetwork  = errors.New("call targets a different network")
	ErrWrongCampaign = errors.New("call targets a different campaign")
	ErrUnknownOp     = errors.New("unknown operation")
	ErrNotDevNetwork = errors.New("time can only be moved on development networks")
	ErrMissingOwner  = errors.New("missing new owner")
	// ErrReplayedCall is returned for a nonce the sender has already used.
	ErrReplayedCall = errors.New("call nonce already used")
	// ErrNonceGap is returned for a nonce ahead of the sender's next one.
	ErrNonceGap = errors.New("call nonce is ahead of the next expected nonce")
)

// Options configure Open.
type Options struct {
	Network *chain.Network
	Store   store.Store
	Feed    ledger.PriceFeed
	// Clock overrides the network clock. Development networks otherwise use
	// the wall clock shifted by the stored offset.
	Clock       ledger.Clock
	Logger      *slog.Logger
	Subscribers []ledger.Subscriber
}

// Receipt reports the outcome of one applied call.
type Receipt struct {
	Op     wallet.Op
	From   common.Address
	Amount *big.Int
	Events []ledger.Event
}

// Engine owns the in-memory campaign for one network.
type Engine struct {
	mu       sync.Mutex
	network  *chain.Network
	store    store.Store
	campaign *ledger.Campaign
	clock    ledger.Clock
	subs     []ledger.Subscriber
	logger   *slog.Logger
}

// Open loads the deployed campaign for opts.Network.
func Open(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("network", opts.Network.Name)

	st, err := opts.Store.LoadCampaign(opts.Network.Name)
	if err != nil {
		return nil, err
	}

	clock := opts.Clock
	if clock == nil {
		if opts.Network.Development {
			offset, err := opts.Store.ClockOffset(opts.Network.Name)
			if err != nil {
				return nil, err
			}
			clock = ledger.NewOffsetClock(offset)
		} else {
			clock = ledger.SystemClock{}
		}
	}

	c := ledger.Restore(*st, opts.Feed, ledger.WithClock(clock), ledger.WithLogger(logger))
	return &Engine{
		network:  opts.Network,
		store:    opts.Store,
		campaign: c,
		clock:    clock,
		subs:     opts.Subscribers,
		logger:   logger,
	}, nil
}

// Campaign returns the live campaign for read access.
func (e *Engine) Campaign() *ledger.Campaign { return e.campaign }

// Network returns the engine's network.
func (e *Engine) Network() *chain.Network { return e.network }

// Apply authenticates sc and runs it against the campaign. Nothing is
// persisted when the ledger rejects the call, and a failed commit rolls the
// in-memory campaign back, so a call is either fully applied or not at all.
func (e *Engine) Apply(sc *wallet.SignedCall) (*Receipt, error) {
	from, err := wallet.VerifyCall(sc)
	if err != nil {
		return nil, err
	}
	call := sc.Call
	if call.Network != e.network.Name {
		return nil, fmt.Errorf("%w: %s", ErrWrongNetwork, call.Network)
	}
	if call.Campaign != e.campaign.Address() {
		return nil, fmt.Errorf("%w: %s", ErrWrongCampaign, call.Campaign.Hex())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := e.store.Nonce(e.network.Name, from)
	if err != nil {
		return nil, err
	}
	switch {
	case call.Nonce < next:
		return nil, fmt.Errorf("%w: %d (next is %d)", ErrReplayedCall, call.Nonce, next)
	case call.Nonce > next:
		return nil, fmt.Errorf("%w: %d (next is %d)", ErrNonceGap, call.Nonce, next)
	}

	prev := e.campaign.Snapshot()
	rcpt := &Receipt{Op: call.Op, From: from}

	switch call.Op {
	case wallet.OpFund:
		rcpt.Amount = call.ValueInt()
		err = e.campaign.Fund(from, rcpt.Amount)
	case wallet.OpGetFund:
		rcpt.Amount, err = e.campaign.GetFund(from)
	case wallet.OpRefund:
		rcpt.Amount, err = e.campaign.Refund(from)
	case wallet.OpTransferOwnership:
		if call.NewOwner == nil {
			return nil, fmt.Errorf("%s: %w", call.Op, ErrMissingOwner)
		}
		err = e.campaign.TransferOwnership(from, *call.NewOwner)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, call.Op)
	}
	if err != nil {
		e.logger.Debug("call rejected", "op", call.Op, "from", from.Hex(), "error", err)
		return nil, err
	}

	for _, ev := range e.campaign.Events() {
		if ev.Seq > prev.Seq {
			rcpt.Events = append(rcpt.Events, ev)
		}
	}
	err = e.store.Commit(e.network.Name, store.Commit{
		State:  e.campaign.Snapshot(),
		Events: rcpt.Events,
		Caller: from,
		Nonce:  next + 1,
	})
	if err != nil {
		e.campaign.Rollback(prev)
		e.logger.Error("commit failed, call rolled back", "op", call.Op, "from", from.Hex(), "error", err)
		return nil, fmt.Errorf("committing %s: %w", call.Op, err)
	}
	e.logger.Debug("call applied", "op", call.Op, "from", from.Hex(), "nonce", call.Nonce, "events", len(rcpt.Events))
	e.notify(rcpt.Events)
	return rcpt, nil
}

// NextNonce returns the nonce addr's next call must carry.
func (e *Engine) NextNonce(addr common.Address) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Nonce(e.network.Name, addr)
}

// IncreaseTime moves a development network's clock forward by d.
func (e *Engine) IncreaseTime(d time.Duration) (time.Time, error) {
	if !e.network.Development {
		return time.Time{}, ErrNotDevNetwork
	}
	if d < 0 {
		return time.Time{}, fmt.Errorf("cannot move time backwards by %s", d)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	offset, err := e.store.ClockOffset(e.network.Name)
	if err != nil {
		return time.Time{}, err
	}
	if err := e.store.SetClockOffset(e.network.Name, offset+d); err != nil {
		return time.Time{}, err
	}
	if adv, ok := e.clock.(interface{ Advance(time.Duration) }); ok {
		adv.Advance(d)
	}
	now := e.clock.Now()
	e.logger.Info("time increased", "by", d.String(), "now", now.Format(time.RFC3339))
	return now, nil
}

// Events returns the persisted event log from seq onwards.
func (e *Engine) Events(from uint64) ([]ledger.Event, error) {
	return e.store.Events(e.network.Name, from)
}

// notify runs with e.mu held, so subscribers see events in Seq order.
func (e *Engine) notify(evs []ledger.Event) {
	for _, ev := range evs {
		for _, s := range e.subs {
			if err := s.Publish(ev); err != nil {
				e.logger.Warn("event subscriber failed", "seq", ev.Seq, "kind", string(ev.Kind), "error", err)
			}
		}
	}
}
