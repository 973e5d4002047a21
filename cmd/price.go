package cmd

import (
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/fundme/internal/config"
	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/Mohsinsiddi/fundme/internal/price"
	"github.com/Mohsinsiddi/fundme/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Show the oracle ETH/USD price next to the market spot price",
	Long: `Show the ETH/USD answer of the campaign's price feed and what the campaign
minimum and target are worth in ETH. The CoinGecko spot price is shown for
comparison when it can be fetched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := activeNetwork()
		if err != nil {
			return err
		}
		d := config.Deployment{Network: n.Name, MockFeed: n.Development}
		if st, err := openStore(); err == nil {
			if rec, err := deployment(n, st); err == nil {
				d = rec
			}
			_ = st.Close()
		}
		if !d.MockFeed && d.PriceFeed == (common.Address{}) {
			return fmt.Errorf("no price feed for %s: run `fundme deploy --network %s` first", n.Name, n.Name)
		}

		feed, err := feedFor(cmd.Context(), n, d)
		if err != nil {
			return err
		}
		oracle, err := feed.Price()
		if err != nil {
			return err
		}

		source := "Chainlink " + ui.TruncateAddr(d.PriceFeed.Hex())
		if d.MockFeed {
			source = "mock aggregator"
		} else if desc, ok := feed.Aggregator().(interface{ Description() (string, error) }); ok {
			if s, err := desc.Description(); err == nil && s != "" {
				source += ", " + s
			}
		}
		pairs := [][2]string{
			{"Oracle", fmt.Sprintf("$%.2f (%s)", oracle, source)},
			{"Minimum", fmt.Sprintf("$%s ≈ %.6f ETH", ledger.FormatUSD(ledger.DefaultMinimumUSD), ethFor(ledger.DefaultMinimumUSD, oracle))},
			{"Target", fmt.Sprintf("$%s ≈ %.6f ETH", ledger.FormatUSD(ledger.DefaultTargetUSD), ethFor(ledger.DefaultTargetUSD, oracle))},
		}
		spotFeed := price.NewConverter(price.NewSpotAggregator(price.NewFetcher(cfg.PriceCurrency), n.Name, config.Decimal))
		spot, err := ui.Run("fetching spot price…", spotFeed.Price)
		if err != nil {
			logger.Debug("spot price unavailable", "error", err)
			pairs = append(pairs, [2]string{"Spot", ui.Meta("unavailable")})
		} else {
			pairs = append(pairs, [2]string{"Spot", fmt.Sprintf("%.2f %s (CoinGecko)", spot, cfg.PriceCurrency)})
		}
		fmt.Println(ui.KeyValueBlock("ETH/USD · "+n.Name, pairs))
		return nil
	},
}

// ethFor converts an 18-decimal USD amount to ETH at p USD per ETH.
func ethFor(usd *big.Int, p float64) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(usd), big.NewFloat(1e18)).Float64()
	return f / p
}
