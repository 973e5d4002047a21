package price

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// Development oracle defaults: 8 decimals, 3000 USD per ETH.
const (
	DefaultDecimals = 8
	DefaultAnswer   = 3000 * 100_000_000
)

// ErrInvalidAnswer is returned when the oracle reports a non-positive price.
var ErrInvalidAnswer = errors.New("invalid oracle answer")

// RoundData mirrors AggregatorV3Interface.latestRoundData.
type RoundData struct {
	RoundID         *big.Int
	Answer          *big.Int
	StartedAt       time.Time
	UpdatedAt       time.Time
	AnsweredInRound *big.Int
}

// Aggregator is a read-only ETH/USD price source.
type Aggregator interface {
	Decimals() (uint8, error)
	LatestRoundData() (*RoundData, error)
}

// MockAggregator is an in-process stand-in for a deployed price feed.
type MockAggregator struct {
	mu       sync.Mutex
	decimals uint8
	answer   *big.Int
	round    int64
	updated  time.Time
}

// NewMockAggregator returns a mock feed reporting initialAnswer.
func NewMockAggregator(decimals uint8, initialAnswer *big.Int) *MockAggregator {
	m := &MockAggregator{decimals: decimals}
	m.UpdateAnswer(initialAnswer)
	return m
}

// NewDefaultMockAggregator returns a mock at 3000 USD with 8 decimals.
func NewDefaultMockAggregator() *MockAggregator {
	return NewMockAggregator(DefaultDecimals, big.NewInt(DefaultAnswer))
}

// UpdateAnswer starts a new round with answer.
func (m *MockAggregator) UpdateAnswer(answer *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answer = new(big.Int).Set(answer)
	m.round++
	m.updated = time.Now()
}

// Decimals returns the answer precision.
func (m *MockAggregator) Decimals() (uint8, error) {
	return m.decimals, nil
}

// LatestRoundData returns the current round.
func (m *MockAggregator) LatestRoundData() (*RoundData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &RoundData{
		RoundID:         big.NewInt(m.round),
		Answer:          new(big.Int).Set(m.answer),
		StartedAt:       m.updated,
		UpdatedAt:       m.updated,
		AnsweredInRound: big.NewInt(m.round),
	}, nil
}

// Converter turns wei into 18-decimal USD using an Aggregator.
type Converter struct {
	agg Aggregator
}

// NewConverter wraps agg.
func NewConverter(agg Aggregator) *Converter {
	return &Converter{agg: agg}
}

// Aggregator returns the wrapped oracle.
func (c *Converter) Aggregator() Aggregator { return c.agg }

// ConvertToUSD returns amount * answer / 10^decimals. The oracle is read on
// every call.
func (c *Converter) ConvertToUSD(amount *big.Int) (*big.Int, error) {
	rd, err := c.agg.LatestRoundData()
	if err != nil {
		return nil, fmt.Errorf("reading latest round: %w", err)
	}
	if rd.Answer == nil || rd.Answer.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswer, rd.Answer)
	}
	dec, err := c.agg.Decimals()
	if err != nil {
		return nil, fmt.Errorf("reading decimals: %w", err)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(dec)), nil)
	usd := new(big.Int).Mul(amount, rd.Answer)
	return usd.Quo(usd, scale), nil
}

// Price returns the latest answer as a float, for display only.
func (c *Converter) Price() (float64, error) {
	rd, err := c.agg.LatestRoundData()
	if err != nil {
		return 0, err
	}
	dec, err := c.agg.Decimals()
	if err != nil {
		return 0, err
	}
	f := new(big.Float).SetInt(rd.Answer)
	f.Quo(f, new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(dec)), nil)))
	v, _ := f.Float64()
	return v, nil
}
