package price_test

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/fundme/internal/price"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wei(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return n
}

func TestMockAggregatorDefaults(t *testing.T) {
	m := price.NewDefaultMockAggregator()

	d, err := m.Decimals()
	require.NoError(t, err)
	assert.Equal(t, uint8(8), d)

	rd, err := m.LatestRoundData()
	require.NoError(t, err)
	assert.Equal(t, "300000000000", rd.Answer.String())
	assert.Equal(t, int64(1), rd.RoundID.Int64())
}

func TestMockAggregatorUpdateAnswerStartsNewRound(t *testing.T) {
	m := price.NewDefaultMockAggregator()
	m.UpdateAnswer(big.NewInt(2000_00000000))

	rd, err := m.LatestRoundData()
	require.NoError(t, err)
	assert.Equal(t, "200000000000", rd.Answer.String())
	assert.Equal(t, int64(2), rd.RoundID.Int64())
	assert.Equal(t, rd.RoundID, rd.AnsweredInRound)
}

func TestMockAggregatorAnswerIsCopied(t *testing.T) {
	in := big.NewInt(100)
	m := price.NewMockAggregator(2, in)
	in.SetInt64(5)

	rd, _ := m.LatestRoundData()
	rd.Answer.SetInt64(7)

	again, _ := m.LatestRoundData()
	assert.Equal(t, int64(100), again.Answer.Int64())
}

func TestMockAggregatorConcurrentUpdates(t *testing.T) {
	m := price.NewDefaultMockAggregator()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.UpdateAnswer(big.NewInt(int64(i + 1)))
			_, _ = m.LatestRoundData()
		}(i)
	}
	wg.Wait()
	rd, _ := m.LatestRoundData()
	assert.Equal(t, int64(51), rd.RoundID.Int64())
}

// ---------------------------------------------------------------------------
// Converter
// ---------------------------------------------------------------------------

func TestConvertToUSDOneEther(t *testing.T) {
	c := price.NewConverter(price.NewDefaultMockAggregator())
	usd, err := c.ConvertToUSD(wei("1000000000000000000"))
	require.NoError(t, err)
	assert.Equal(t, "3000000000000000000000", usd.String())
}

func TestConvertToUSDSmallAmounts(t *testing.T) {
	c := price.NewConverter(price.NewDefaultMockAggregator())

	// 0.0004 ETH at 3000 USD is 1.2 USD.
	usd, err := c.ConvertToUSD(wei("400000000000000"))
	require.NoError(t, err)
	assert.Equal(t, "1200000000000000000", usd.String())

	usd, err = c.ConvertToUSD(big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, int64(0), usd.Int64())
}

func TestConvertToUSDTruncates(t *testing.T) {
	c := price.NewConverter(price.NewMockAggregator(8, big.NewInt(1)))
	usd, err := c.ConvertToUSD(big.NewInt(99_999_999))
	require.NoError(t, err)
	assert.Equal(t, int64(0), usd.Int64())
}

func TestConvertToUSDFollowsPriceChanges(t *testing.T) {
	m := price.NewDefaultMockAggregator()
	c := price.NewConverter(m)

	before, _ := c.ConvertToUSD(wei("1000000000000000000"))
	m.UpdateAnswer(big.NewInt(1500_00000000))
	after, _ := c.ConvertToUSD(wei("1000000000000000000"))

	assert.Equal(t, "3000000000000000000000", before.String())
	assert.Equal(t, "1500000000000000000000", after.String())
}

func TestConvertToUSDRejectsNonPositiveAnswer(t *testing.T) {
	for _, a := range []int64{0, -1} {
		c := price.NewConverter(price.NewMockAggregator(8, big.NewInt(a)))
		_, err := c.ConvertToUSD(big.NewInt(1))
		require.Error(t, err)
		assert.True(t, errors.Is(err, price.ErrInvalidAnswer))
	}
}

type brokenAggregator struct{}

func (brokenAggregator) Decimals() (uint8, error) { return 0, errors.New("no decimals") }
func (brokenAggregator) LatestRoundData() (*price.RoundData, error) {
	return nil, errors.New("feed down")
}

func TestConvertToUSDAggregatorError(t *testing.T) {
	_, err := price.NewConverter(brokenAggregator{}).ConvertToUSD(big.NewInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed down")
}

func TestConverterPrice(t *testing.T) {
	p, err := price.NewConverter(price.NewDefaultMockAggregator()).Price()
	require.NoError(t, err)
	assert.InDelta(t, 3000.0, p, 1e-9)
}
