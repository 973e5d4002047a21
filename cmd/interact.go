package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/ui"
	"github.com/Mohsinsiddi/fundme/internal/wallet"
	"github.com/spf13/cobra"
)

var interactAmount string

var interactCmd = &cobra.Command{
	Use:   "interact",
	Short: "Fund from firstAccount and secondAccount, then print balances",
	Long: `Run the scripted interaction against the deployed campaign: firstAccount and
secondAccount each fund --amount ETH (default 0.0004), then the campaign
balance and both contributions are printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := chain.ParseEther(interactAmount)
		if err != nil {
			return err
		}
		for _, name := range []string{wallet.FirstAccount, wallet.SecondAccount} {
			fmt.Println(ui.Info(fmt.Sprintf("%s funds %s ETH", name, interactAmount)))
			rcpt, err := submitAs(cmd.Context(), name, wallet.OpFund, amount, nil)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			printReceipt(rcpt)
		}

		n, err := activeNetwork()
		if err != nil {
			return err
		}
		read, err := statusSource(cmd.Context(), n)
		if err != nil {
			return err
		}
		s, err := read(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Campaign balance: %s ETH", s.BalanceETH)))

		for _, name := range []string{wallet.FirstAccount, wallet.SecondAccount} {
			rows, err := localOrRemoteContributions(cmd, []string{name})
			if err != nil {
				return err
			}
			r := rows[0]
			fmt.Printf("  %-14s %s  %s ETH\n", name, ui.Addr(r.Address.Hex()), ui.Val(r.AmountETH))
		}
		return nil
	},
}

func init() {
	interactCmd.Flags().StringVar(&interactAmount, "amount", "0.0004", "ETH each account funds")
}
