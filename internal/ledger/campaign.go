package ledger

import (
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PriceFeed converts a native-currency amount (wei) into a USD amount with
// 18 decimals.
type PriceFeed interface {
	ConvertToUSD(amount *big.Int) (*big.Int, error)
}

// Phase is the campaign state derived from the clock and the oracle.
type Phase string

const (
	PhaseOpen               Phase = "open"
	PhaseClosedTargetMet    Phase = "closed-target-met"
	PhaseClosedTargetMissed Phase = "closed-target-missed"
)

var usdUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// USD returns n whole dollars in the 18-decimal fixed point the feed uses.
func USD(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), usdUnit)
}

// Defaults for a new campaign.
var (
	DefaultMinimumUSD = USD(1)
	DefaultTargetUSD  = USD(1000)
)

// Campaign is a single crowdfunding campaign. All methods are safe for
// concurrent use; mutations are serialised by one mutex.
type Campaign struct {
	mu sync.Mutex

	address   common.Address
	owner     common.Address
	feedAddr  common.Address
	feed      PriceFeed
	createdAt time.Time
	deadline  time.Time
	minimum   *big.Int
	target    *big.Int

	contributions map[common.Address]*big.Int
	balance       *big.Int
	withdrawn     bool

	events []Event
	seq    uint64

	clock  Clock
	logger *slog.Logger
}

// Option configures a Campaign.
type Option func(*Campaign)

// WithClock overrides the system clock.
func WithClock(c Clock) Option {
	return func(cp *Campaign) { cp.clock = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(cp *Campaign) { cp.logger = l }
}

// WithMinimumUSD overrides the minimum contribution (18-decimal USD).
func WithMinimumUSD(v *big.Int) Option {
	return func(cp *Campaign) { cp.minimum = new(big.Int).Set(v) }
}

// WithTargetUSD overrides the funding target (18-decimal USD).
func WithTargetUSD(v *big.Int) Option {
	return func(cp *Campaign) { cp.target = new(big.Int).Set(v) }
}

// WithAddress sets the address the campaign is deployed at.
func WithAddress(a common.Address) Option {
	return func(cp *Campaign) { cp.address = a }
}

// New creates a campaign owned by owner whose window closes lockDuration
// after the clock's current time.
func New(owner common.Address, lockDuration time.Duration, feedAddr common.Address, feed PriceFeed, opts ...Option) *Campaign {
	c := &Campaign{
		owner:         owner,
		feedAddr:      feedAddr,
		feed:          feed,
		minimum:       new(big.Int).Set(DefaultMinimumUSD),
		target:        new(big.Int).Set(DefaultTargetUSD),
		contributions: make(map[common.Address]*big.Int),
		balance:       new(big.Int),
		clock:         SystemClock{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.createdAt = c.clock.Now()
	c.deadline = c.createdAt.Add(lockDuration)
	return c
}

// Fund records a contribution of amount wei from contributor.
func (c *Campaign) Fund(contributor common.Address, amount *big.Int) error {
	c.mu.Lock()
	now := c.clock.Now()
	if !now.Before(c.deadline) {
		c.mu.Unlock()
		return fmt.Errorf("%w: deadline was %s", ErrWindowClosed, c.deadline.Format(time.RFC3339))
	}
	if amount == nil || amount.Sign() <= 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: amount must be positive", ErrInsufficientAmount)
	}
	usd, err := c.convert(amount)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if usd.Cmp(c.minimum) < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s USD is below the minimum of %s USD", ErrInsufficientAmount, FormatUSD(usd), FormatUSD(c.minimum))
	}

	prev, ok := c.contributions[contributor]
	if !ok {
		prev = new(big.Int)
	}
	c.contributions[contributor] = new(big.Int).Add(prev, amount)
	c.balance = new(big.Int).Add(c.balance, amount)
	c.record(now, Event{Kind: EventFunded, Contributor: contributor, Amount: new(big.Int).Set(amount)})
	c.mu.Unlock()

	c.logger.Info("campaign funded", slog.String("contributor", contributor.Hex()), slog.String("amount", amount.String()))
	return nil
}

// GetFund transfers the whole balance to the owner and returns the amount.
func (c *Campaign) GetFund(caller common.Address) (*big.Int, error) {
	c.mu.Lock()
	if caller != c.owner {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotOwner, caller.Hex())
	}
	now := c.clock.Now()
	if now.Before(c.deadline) {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: closes at %s", ErrWindowNotClosed, c.deadline.Format(time.RFC3339))
	}
	met, err := c.targetMet()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if !met {
		c.mu.Unlock()
		return nil, ErrTargetNotReached
	}

	amount := c.balance
	c.balance = new(big.Int)
	for addr := range c.contributions {
		c.contributions[addr] = new(big.Int)
	}
	c.withdrawn = true
	c.record(now, Event{Kind: EventWithdrawnByOwner, Amount: new(big.Int).Set(amount)})
	c.mu.Unlock()

	c.logger.Info("funds withdrawn by owner", slog.String("owner", caller.Hex()), slog.String("amount", amount.String()))
	return new(big.Int).Set(amount), nil
}

// Refund returns caller's contribution and returns the amount.
func (c *Campaign) Refund(caller common.Address) (*big.Int, error) {
	c.mu.Lock()
	now := c.clock.Now()
	if now.Before(c.deadline) {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: closes at %s", ErrWindowNotClosed, c.deadline.Format(time.RFC3339))
	}
	met, err := c.targetMet()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if met {
		c.mu.Unlock()
		return nil, ErrTargetReached
	}
	amount, ok := c.contributions[caller]
	if !ok || amount.Sign() == 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNoContribution, caller.Hex())
	}

	c.contributions[caller] = new(big.Int)
	c.balance = new(big.Int).Sub(c.balance, amount)
	c.record(now, Event{Kind: EventRefundedByFunder, Contributor: caller, Amount: new(big.Int).Set(amount)})
	c.mu.Unlock()

	c.logger.Info("contribution refunded", slog.String("funder", caller.Hex()), slog.String("amount", amount.String()))
	return new(big.Int).Set(amount), nil
}

// TransferOwnership hands the campaign to newOwner.
func (c *Campaign) TransferOwnership(caller, newOwner common.Address) error {
	c.mu.Lock()
	if caller != c.owner {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotOwner, caller.Hex())
	}
	if newOwner == (common.Address{}) {
		c.mu.Unlock()
		return ErrZeroAddress
	}
	prev := c.owner
	c.owner = newOwner
	c.record(c.clock.Now(), Event{Kind: EventOwnershipTransferred, Contributor: newOwner, Previous: prev})
	c.mu.Unlock()

	c.logger.Info("ownership transferred", slog.String("from", prev.Hex()), slog.String("to", newOwner.Hex()))
	return nil
}

// Phase reports the campaign state at the clock's current time.
func (c *Campaign) Phase() (Phase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clock.Now().Before(c.deadline) {
		return PhaseOpen, nil
	}
	met, err := c.targetMet()
	if err != nil {
		return "", err
	}
	if met {
		return PhaseClosedTargetMet, nil
	}
	return PhaseClosedTargetMissed, nil
}

// Owner returns the current owner.
func (c *Campaign) Owner() common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}

// Address returns the deployment address.
func (c *Campaign) Address() common.Address {
	return c.address
}

// PriceFeed returns the oracle address.
func (c *Campaign) PriceFeed() common.Address {
	return c.feedAddr
}

// Deadline returns the window close time.
func (c *Campaign) Deadline() time.Time {
	return c.deadline
}

// Now returns the campaign clock's current time.
func (c *Campaign) Now() time.Time {
	return c.clock.Now()
}

// MinimumUSD returns the minimum contribution in 18-decimal USD.
func (c *Campaign) MinimumUSD() *big.Int {
	return new(big.Int).Set(c.minimum)
}

// TargetUSD returns the target in 18-decimal USD.
func (c *Campaign) TargetUSD() *big.Int {
	return new(big.Int).Set(c.target)
}

// Contribution returns the recorded amount for addr (zero if none).
func (c *Campaign) Contribution(addr common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.contributions[addr]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// Contributors returns every address that ever funded, sorted by address.
func (c *Campaign) Contributors() []common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]common.Address, 0, len(c.contributions))
	for addr := range c.contributions {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// Balance returns the total wei held.
func (c *Campaign) Balance() *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.balance)
}

// Withdrawn reports whether the owner has already withdrawn. It is shown to
// users only; a second GetFund is refused because the balance is zero.
func (c *Campaign) Withdrawn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.withdrawn
}

// Events returns a copy of the event log.
func (c *Campaign) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// --- internal ---

// targetMet must be called with c.mu held.
func (c *Campaign) targetMet() (bool, error) {
	usd, err := c.convert(c.balance)
	if err != nil {
		return false, err
	}
	return usd.Cmp(c.target) >= 0, nil
}

func (c *Campaign) convert(amount *big.Int) (*big.Int, error) {
	if c.feed == nil {
		return nil, fmt.Errorf("%w: no feed configured", ErrPriceFeed)
	}
	usd, err := c.feed.ConvertToUSD(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPriceFeed, err)
	}
	return usd, nil
}

// record must be called with c.mu held.
func (c *Campaign) record(now time.Time, ev Event) {
	c.seq++
	ev.Seq = c.seq
	ev.Time = now
	ev.TxHash = txHash(ev.Kind, ev.Seq, ev.Contributor, ev.Amount)
	c.events = append(c.events, ev)
}

// FormatUSD renders an 18-decimal USD amount with two decimals.
func FormatUSD(v *big.Int) string {
	f := new(big.Float).Quo(new(big.Float).SetInt(v), new(big.Float).SetInt(usdUnit))
	return f.Text('f', 2)
}
