package price

import (
	"errors"
	"io"
	"math/big"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// fixedTransport: replaces the HTTP client without needing a real server.
// ---------------------------------------------------------------------------

type fixedTransport struct {
	body string
	code int
	err  error
	last *http.Request
}

func (ft *fixedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ft.last = r
	if ft.err != nil {
		return nil, ft.err
	}
	return &http.Response{
		StatusCode: ft.code,
		Body:       io.NopCloser(strings.NewReader(ft.body)),
		Header:     make(http.Header),
	}, nil
}

func newMockFetcher(body string, code int) (*Fetcher, *fixedTransport) {
	ft := &fixedTransport{body: body, code: code}
	f := NewFetcher("usd")
	f.client = &http.Client{Transport: ft}
	return f, ft
}

func newErrFetcher(err error) *Fetcher {
	f := NewFetcher("usd")
	f.client = &http.Client{Transport: &fixedTransport{err: err}}
	return f
}

// ---------------------------------------------------------------------------
// NewFetcher
// ---------------------------------------------------------------------------

func TestNewFetcherDefaultCurrency(t *testing.T) {
	f := NewFetcher("")
	assert.Equal(t, "usd", f.currency)
}

func TestNewFetcherLowercasesCurrency(t *testing.T) {
	f := NewFetcher("EUR")
	assert.Equal(t, "eur", f.currency)
}

// ---------------------------------------------------------------------------
// GetPrice
// ---------------------------------------------------------------------------

func TestGetPriceKnownNetwork(t *testing.T) {
	f, ft := newMockFetcher(`{"ethereum":{"usd":3000.50}}`, http.StatusOK)

	p, err := f.GetPrice("ethereum")
	require.NoError(t, err)
	assert.InDelta(t, 3000.50, p, 0.001)
	assert.Contains(t, ft.last.URL.RawQuery, "ids=ethereum")
	assert.Contains(t, ft.last.URL.RawQuery, "vs_currencies=usd")
}

func TestGetPriceTestnetsUseEthereumID(t *testing.T) {
	for _, n := range []string{"sepolia", "hardhat", "localhost", "SEPOLIA"} {
		f, ft := newMockFetcher(`{"ethereum":{"usd":2500}}`, http.StatusOK)
		p, err := f.GetPrice(n)
		require.NoError(t, err, n)
		assert.Equal(t, 2500.0, p, n)
		assert.Contains(t, ft.last.URL.RawQuery, "ids=ethereum", n)
	}
}

func TestGetPriceUnknownNetwork(t *testing.T) {
	f, _ := newMockFetcher(`{}`, http.StatusOK)
	_, err := f.GetPrice("dogechain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown network")
}

func TestGetPriceHTTPError(t *testing.T) {
	f, _ := newMockFetcher(`rate limited`, http.StatusTooManyRequests)
	_, err := f.GetPrice("sepolia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 429")
}

func TestGetPriceNetworkError(t *testing.T) {
	f := newErrFetcher(errors.New("connection refused"))
	_, err := f.GetPrice("sepolia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetPriceBadJSON(t *testing.T) {
	f, _ := newMockFetcher(`not json`, http.StatusOK)
	_, err := f.GetPrice("sepolia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing price response")
}

func TestGetPriceMissingCurrency(t *testing.T) {
	f, _ := newMockFetcher(`{"ethereum":{"eur":2800}}`, http.StatusOK)
	_, err := f.GetPrice("sepolia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price not available")
}

// ---------------------------------------------------------------------------
// SpotAggregator
// ---------------------------------------------------------------------------

func TestSpotAggregatorScalesToDecimals(t *testing.T) {
	f, _ := newMockFetcher(`{"ethereum":{"usd":3000}}`, http.StatusOK)
	a := NewSpotAggregator(f, "sepolia", 8)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	d, err := a.Decimals()
	require.NoError(t, err)
	assert.Equal(t, uint8(8), d)

	rd, err := a.LatestRoundData()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3000_00000000).String(), rd.Answer.String())
	assert.Equal(t, fixed, rd.UpdatedAt)
}

func TestSpotAggregatorPropagatesError(t *testing.T) {
	f := newErrFetcher(errors.New("offline"))
	_, err := NewSpotAggregator(f, "sepolia", 8).LatestRoundData()
	require.Error(t, err)
}
