package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/deploy"
	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/Mohsinsiddi/fundme/internal/ui"
	"github.com/spf13/cobra"
)

var (
	deployReset    bool
	deployLockTime time.Duration
	deployYes      bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a campaign owned by the selected account",
	Long: `Deploy a FundMe campaign on the active network.

On development networks a MockV3Aggregator (8 decimals, 3000 USD) is deployed
first; on sepolia the Chainlink ETH/USD feed is used. The funding window
starts now and lasts FUNDME_LOCK_TIME seconds (default 180).

Examples:
  fundme deploy
  fundme deploy --network sepolia --account firstAccount
  fundme deploy --reset --lock-time 10m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := activeNetwork()
		if err != nil {
			return err
		}
		book, err := newAccountBook(n)
		if err != nil {
			return err
		}
		owner, _, err := book.resolve(accountFlag)
		if err != nil {
			return err
		}

		if deployReset && !deployYes && !n.Development {
			if !ui.ConfirmDanger(fmt.Sprintf("Drop the %s campaign and its event log?", n.Name)) {
				fmt.Println(ui.Meta("Cancelled."))
				return nil
			}
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		lock := cfg.Env.LockDuration()
		if cmd.Flags().Changed("lock-time") {
			lock = deployLockTime
		}

		res, err := deploy.Deploy(deploy.Options{
			Network:         n,
			Owner:           owner.Address,
			LockTime:        lock,
			Reset:           deployReset,
			EtherscanAPIKey: cfg.Env.EtherscanAPIKey,
			Store:           st,
			Records:         cfg,
			Logger:          logger,
		})
		if errors.Is(err, deploy.ErrAlreadyDeployed) {
			fmt.Println(ui.Hint("Inspect it with `fundme status`, or redeploy with `fundme deploy --reset`."))
		}
		if err != nil {
			return err
		}

		d := res.Deployment
		feed := d.PriceFeed.Hex()
		if d.MockFeed {
			feed += " (mock)"
		}
		fmt.Println(ui.KeyValueBlock("FundMe deployed", [][2]string{
			{"Network", n.Name},
			{"Address", d.Address.Hex()},
			{"Owner", d.Owner.Hex()},
			{"Price feed", feed},
			{"Deadline", res.State.Deadline.UTC().Format(time.RFC3339)},
			{"Minimum", "$" + ledger.FormatUSD(res.State.MinimumUSD.ToInt())},
			{"Target", "$" + ledger.FormatUSD(res.State.TargetUSD.ToInt())},
		}))
		fmt.Println(ui.Success(fmt.Sprintf("Deployed as %s", owner.Name)))
		return nil
	},
}

func init() {
	deployCmd.Flags().BoolVar(&deployReset, "reset", false, "drop an existing campaign first")
	deployCmd.Flags().BoolVarP(&deployYes, "yes", "y", false, "skip the --reset confirmation")
	deployCmd.Flags().DurationVar(&deployLockTime, "lock-time", 0, "funding window (overrides FUNDME_LOCK_TIME)")
}
