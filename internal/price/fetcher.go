package price

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"strings"
	"time"
)

const coinGeckoURL = "https://api.coingecko.com/api/v3/simple/price"

// Fetcher retrieves spot prices from CoinGecko.
type Fetcher struct {
	client   *http.Client
	baseURL  string
	currency string
}

// NewFetcher creates a new price fetcher.
func NewFetcher(currency string) *Fetcher {
	if currency == "" {
		currency = "usd"
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  coinGeckoURL,
		currency: strings.ToLower(currency),
	}
}

// coinGeckoIDs maps network names to the CoinGecko ID of their native coin.
var coinGeckoIDs = map[string]string{
	"ethereum":  "ethereum",
	"sepolia":   "ethereum",
	"hardhat":   "ethereum",
	"localhost": "ethereum",
}

// GetPrice returns the spot price of a network's native coin.
func (f *Fetcher) GetPrice(network string) (float64, error) {
	id, ok := coinGeckoIDs[strings.ToLower(network)]
	if !ok {
		return 0, fmt.Errorf("unknown network: %s", network)
	}
	prices, err := f.fetchBatch([]string{id})
	if err != nil {
		return 0, err
	}
	p, ok := prices[id]
	if !ok {
		return 0, fmt.Errorf("price not available for: %s", id)
	}
	return p, nil
}

func (f *Fetcher) fetchBatch(ids []string) (map[string]float64, error) {
	url := fmt.Sprintf("%s?ids=%s&vs_currencies=%s", f.baseURL, strings.Join(ids, ","), f.currency)

	resp, err := f.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching prices: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading price response: %w", err)
	}

	// Response: {"ethereum":{"usd":1234.56}, ...}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing price response: %w", err)
	}

	prices := make(map[string]float64)
	for id, currencies := range raw {
		if p, ok := currencies[f.currency]; ok {
			prices[id] = p
		}
	}
	return prices, nil
}

// SpotAggregator exposes a CoinGecko spot price through the Aggregator
// interface, for networks without an on-chain feed.
type SpotAggregator struct {
	fetcher  *Fetcher
	network  string
	decimals uint8
	now      func() time.Time
}

// NewSpotAggregator prices network's native coin with the given fixed-point
// decimals.
func NewSpotAggregator(f *Fetcher, network string, decimals uint8) *SpotAggregator {
	return &SpotAggregator{fetcher: f, network: network, decimals: decimals, now: time.Now}
}

// Decimals returns the configured precision.
func (a *SpotAggregator) Decimals() (uint8, error) { return a.decimals, nil }

// LatestRoundData fetches the spot price and scales it to fixed point.
func (a *SpotAggregator) LatestRoundData() (*RoundData, error) {
	p, err := a.fetcher.GetPrice(a.network)
	if err != nil {
		return nil, err
	}
	scaled := new(big.Float).Mul(big.NewFloat(p), big.NewFloat(math.Pow10(int(a.decimals))))
	answer, _ := scaled.Int(nil)
	now := a.now()
	return &RoundData{
		RoundID:         big.NewInt(now.Unix()),
		Answer:          answer,
		StartedAt:       now,
		UpdatedAt:       now,
		AnsweredInRound: big.NewInt(now.Unix()),
	}, nil
}
