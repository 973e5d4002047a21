package ledger

import (
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// State is the serialisable form of a campaign.
type State struct {
	Address       common.Address                  `json:"address"`
	Owner         common.Address                  `json:"owner"`
	PriceFeed     common.Address                  `json:"price_feed"`
	CreatedAt     time.Time                       `json:"created_at"`
	Deadline      time.Time                       `json:"deadline"`
	MinimumUSD    *hexutil.Big                    `json:"minimum_usd"`
	TargetUSD     *hexutil.Big                    `json:"target_usd"`
	Contributions map[common.Address]*hexutil.Big `json:"contributions"`
	Balance       *hexutil.Big                    `json:"balance"`
	Withdrawn     bool                            `json:"withdrawn"`
	Seq           uint64                          `json:"seq"`
}

// Snapshot captures the campaign's state. Events are not included; they are
// persisted separately as an append-only log, and a restored campaign only
// holds the events committed after Restore.
func (c *Campaign) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		Address:       c.address,
		Owner:         c.owner,
		PriceFeed:     c.feedAddr,
		CreatedAt:     c.createdAt,
		Deadline:      c.deadline,
		MinimumUSD:    (*hexutil.Big)(new(big.Int).Set(c.minimum)),
		TargetUSD:     (*hexutil.Big)(new(big.Int).Set(c.target)),
		Contributions: make(map[common.Address]*hexutil.Big, len(c.contributions)),
		Balance:       (*hexutil.Big)(new(big.Int).Set(c.balance)),
		Withdrawn:     c.withdrawn,
		Seq:           c.seq,
	}
	for addr, amt := range c.contributions {
		st.Contributions[addr] = (*hexutil.Big)(new(big.Int).Set(amt))
	}
	return st
}

// Restore rebuilds a campaign from a snapshot. The deadline is taken from
// the snapshot, never recomputed.
func Restore(st State, feed PriceFeed, opts ...Option) *Campaign {
	c := &Campaign{
		owner:         st.Owner,
		feedAddr:      st.PriceFeed,
		feed:          feed,
		createdAt:     st.CreatedAt,
		deadline:      st.Deadline,
		minimum:       bigOr(st.MinimumUSD, DefaultMinimumUSD),
		target:        bigOr(st.TargetUSD, DefaultTargetUSD),
		contributions: make(map[common.Address]*big.Int, len(st.Contributions)),
		balance:       bigOr(st.Balance, new(big.Int)),
		withdrawn:     st.Withdrawn,
		seq:           st.Seq,
		clock:         SystemClock{},
		logger:        slog.Default(),
	}
	for addr, amt := range st.Contributions {
		c.contributions[addr] = bigOr(amt, new(big.Int))
	}
	for _, opt := range opts {
		opt(c)
	}
	c.address = st.Address
	return c
}

// Rollback puts the campaign back to st, a snapshot taken earlier from the
// same campaign, and drops the events recorded since. Deadline, limits and
// address are fixed at creation and left alone.
func (c *Campaign) Rollback(st State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owner = st.Owner
	c.balance = bigOr(st.Balance, new(big.Int))
	c.withdrawn = st.Withdrawn
	c.contributions = make(map[common.Address]*big.Int, len(st.Contributions))
	for addr, amt := range st.Contributions {
		c.contributions[addr] = bigOr(amt, new(big.Int))
	}
	kept := c.events[:0]
	for _, ev := range c.events {
		if ev.Seq <= st.Seq {
			kept = append(kept, ev)
		}
	}
	c.events = kept
	c.seq = st.Seq
}

func bigOr(v *hexutil.Big, def *big.Int) *big.Int {
	if v == nil {
		return new(big.Int).Set(def)
	}
	return new(big.Int).Set(v.ToInt())
}
