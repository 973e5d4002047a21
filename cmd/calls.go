package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/engine"
	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/Mohsinsiddi/fundme/internal/ui"
	"github.com/Mohsinsiddi/fundme/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var fundCmd = &cobra.Command{
	Use:   "fund <amount-eth>",
	Short: "Contribute ETH while the window is open",
	Long: `Contribute to the campaign as the selected account. The amount is in ETH and
must be worth at least the campaign minimum (1 USD) at the oracle price.

Examples:
  fundme fund 0.0004
  fundme fund 1 --account secondAccount`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := chain.ParseEther(args[0])
		if err != nil {
			return err
		}
		rcpt, err := submit(cmd.Context(), wallet.OpFund, amount, nil)
		if err != nil {
			return err
		}
		printReceipt(rcpt)
		return nil
	},
}

var getFundCmd = &cobra.Command{
	Use:     "getfund",
	Aliases: []string{"withdraw"},
	Short:   "Withdraw the balance as owner once the target is met",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rcpt, err := submit(cmd.Context(), wallet.OpGetFund, nil, nil)
		if err != nil {
			return err
		}
		printReceipt(rcpt)
		return nil
	},
}

var refundCmd = &cobra.Command{
	Use:   "refund",
	Short: "Reclaim your contribution when the target was missed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rcpt, err := submit(cmd.Context(), wallet.OpRefund, nil, nil)
		if err != nil {
			return err
		}
		printReceipt(rcpt)
		return nil
	},
}

var transferOwnershipCmd = &cobra.Command{
	Use:   "transfer-ownership <account-or-address>",
	Short: "Hand the campaign to a new owner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := resolveAddress(args[0])
		if err != nil {
			return err
		}
		rcpt, err := submit(cmd.Context(), wallet.OpTransferOwnership, nil, &to)
		if err != nil {
			return err
		}
		printReceipt(rcpt)
		return nil
	},
}

// resolveAddress accepts a hex address or an account name.
func resolveAddress(s string) (common.Address, error) {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	n, err := activeNetwork()
	if err != nil {
		return common.Address{}, err
	}
	book, err := newAccountBook(n)
	if err != nil {
		return common.Address{}, err
	}
	a, _, err := book.resolve(s)
	if err != nil {
		return common.Address{}, err
	}
	return a.Address, nil
}

func printReceipt(r *engine.Receipt) {
	for _, ev := range r.Events {
		fmt.Println(describeEvent(ev))
	}
	fmt.Println(ui.Meta(fmt.Sprintf("%s by %s", r.Op, r.From.Hex())))
}

func describeEvent(ev ledger.Event) string {
	switch ev.Kind {
	case ledger.EventFunded:
		return ui.Success(fmt.Sprintf("Funded %s ETH from %s", chain.FormatEther(ev.Amount), ui.Addr(ev.Contributor.Hex())))
	case ledger.EventWithdrawnByOwner:
		return ui.Success(fmt.Sprintf("Owner withdrew %s ETH", chain.FormatEther(ev.Amount)))
	case ledger.EventRefundedByFunder:
		return ui.Success(fmt.Sprintf("Refunded %s ETH to %s", chain.FormatEther(ev.Amount), ui.Addr(ev.Contributor.Hex())))
	case ledger.EventOwnershipTransferred:
		return ui.Success(fmt.Sprintf("Ownership moved from %s to %s", ui.Addr(ev.Previous.Hex()), ui.Addr(ev.Contributor.Hex())))
	default:
		return ui.Info(string(ev.Kind))
	}
}
