package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/config"
	"github.com/Mohsinsiddi/fundme/internal/rpc"
	"github.com/Mohsinsiddi/fundme/internal/ui"
	"github.com/Mohsinsiddi/fundme/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	walletKeyFlag string
	walletYes     bool
)

var walletCmd = &cobra.Command{
	Use:     "wallet",
	Aliases: []string{"account"},
	Short:   "Manage accounts",
	Long: `Manage saved accounts. Keys are kept in the OS keychain (or an encrypted file
backend when no keychain is available); account metadata lives in accounts.json.

firstAccount and secondAccount are always available without saving them: they
come from PRIVATE_KEY and PRIVATE_KEY_2, or the dev node keys on development
networks. A saved account with the same name takes precedence.`,
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add a signing account (--key) or a watch-only address",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr := newWalletManager()

		if walletKeyFlag != "" {
			a, err := mgr.AddWithKey(name, walletKeyFlag)
			if err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Signing account %q added: %s", name, ui.Addr(a.Address.Hex()))))
			fmt.Println(ui.Hint(fmt.Sprintf("Set as default with: fundme wallet use %s", name)))
			return nil
		}

		if len(args) < 2 {
			return fmt.Errorf("address required for a watch-only account\n  Usage: fundme wallet add <name> <address>\n  Or for signing: fundme wallet add <name> --key <private-key>")
		}
		if !common.IsHexAddress(args[1]) {
			return fmt.Errorf("invalid address: %s", args[1])
		}
		a, err := mgr.AddWatchOnly(name, common.HexToAddress(args[1]))
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Watch-only account %q added: %s", name, ui.Addr(a.Address.Hex()))))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved and named accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := activeNetwork()
		if err != nil {
			return err
		}
		book, err := newAccountBook(n)
		if err != nil {
			return err
		}
		saved, err := book.saved.List()
		if err != nil {
			return err
		}
		named, err := book.named.List()
		if err != nil {
			return err
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 44},
			{Title: "Type", Width: 12},
			{Title: "Source", Width: 8},
			{Title: "Default", Width: 8},
		})
		seen := make(map[string]bool)
		for _, a := range saved {
			seen[a.Name] = true
			t.AddRow(accountRow(a, "saved"))
		}
		for _, a := range named {
			if !seen[a.Name] {
				t.AddRow(accountRow(a, "env"))
			}
		}
		if len(saved)+len(named) == 0 {
			fmt.Println(ui.Info("No accounts configured yet."))
			fmt.Println(ui.Hint("Set PRIVATE_KEY, or add one with: fundme wallet add myAccount --key 0x..."))
			return nil
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d saved account(s) · network %s", len(saved), n.Name)))
		return nil
	},
}

func accountRow(a *wallet.Account, source string) ui.Row {
	def := ""
	if a.IsDefault || (cfg.DefaultAccount != "" && cfg.DefaultAccount == a.Name) {
		def = ui.StyleSuccess.Render("✓")
	}
	return ui.Row{ui.Val(a.Name), ui.Addr(a.Address.Hex()), ui.Meta(accountTypeLabel(a.Type)), ui.Meta(source), def}
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a saved account and its key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !walletYes && !ui.ConfirmDanger(fmt.Sprintf("Remove account %q?", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		if err := newWalletManager().Remove(name); err != nil {
			return err
		}
		if cfg.DefaultAccount == name {
			cfg.DefaultAccount = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Println(ui.Success(fmt.Sprintf("Account %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr := newWalletManager()
		if err := mgr.SetDefault(name); err != nil {
			if name != wallet.FirstAccount && name != wallet.SecondAccount {
				return err
			}
			// Named accounts are not saved; remember the name only.
		}
		cfg.DefaultAccount = name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default account set to %q.", name)))
		fmt.Println(ui.Hint("Used by every call when --account is not given."))
		return nil
	},
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance [account-or-address]",
	Short: "Show on-chain ETH balances on the active network",
	Long: `Show the native balance of one account, or of every listed account, on the
active network's RPC. Useful before deploying or funding on sepolia. The
in-process hardhat network has no chain to ask.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := activeNetwork()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout)
		defer cancel()
		url, err := rpc.ForNetwork(ctx, n, cfg.GetRPCs(n.Name), cfg.RPCAlgorithm, logger)
		if err != nil {
			return err
		}
		if url == "" {
			fmt.Println(ui.Info(fmt.Sprintf("%s runs in-process; balances live in the campaign (see `fundme contributions`).", n.Name)))
			return nil
		}
		checkChainID(n, url)

		book, err := newAccountBook(n)
		if err != nil {
			return err
		}
		var accounts []*wallet.Account
		if len(args) == 1 {
			a, _, err := book.resolve(args[0])
			if err != nil {
				return err
			}
			accounts = append(accounts, a)
		} else {
			saved, err := book.saved.List()
			if err != nil {
				return err
			}
			named, err := book.named.List()
			if err != nil {
				return err
			}
			accounts = append(saved, named...)
		}

		client := chain.NewEVMClient(url)
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 44},
			{Title: "Balance (ETH)", Width: 24, Right: true},
		})
		for _, a := range accounts {
			bal := ui.Err("unavailable")
			if wei, err := client.GetBalance(a.Address.Hex()); err == nil {
				bal = ui.Val(chain.FormatEther(wei))
			} else {
				logger.Debug("balance lookup failed", "account", a.Name, "error", err)
			}
			t.AddRow(ui.Row{ui.Val(a.Name), ui.Addr(a.Address.Hex()), bal})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta("via " + url))
		return nil
	},
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "private key of a signing account (stored in the OS keychain)")
	walletRemoveCmd.Flags().BoolVarP(&walletYes, "yes", "y", false, "skip confirmation")
	walletCmd.AddCommand(walletAddCmd, walletListCmd, walletRemoveCmd, walletUseCmd, walletBalanceCmd)
}

// accountTypeLabel converts an account type to a user-friendly label.
func accountTypeLabel(t string) string {
	switch t {
	case wallet.TypeSigning:
		return "read-write"
	default:
		return t
	}
}
