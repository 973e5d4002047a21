package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/ui"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "List and select networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported networks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry()
		active := cfg.Network()
		t := ui.NewTable([]ui.Column{
			{Title: "", Width: 2},
			{Title: "Name", Width: 12},
			{Title: "Display", Width: 18},
			{Title: "Chain ID", Width: 10, Right: true},
			{Title: "Dev", Width: 4},
			{Title: "ETH/USD feed", Width: 16},
			{Title: "Confirms", Width: 8, Right: true},
		})
		for _, n := range reg.All() {
			mark := ""
			if n.Name == active {
				mark = ui.StyleSuccess.Render("●")
			}
			dev, feed := "", ui.TruncateAddr(n.EthUsdFeed)
			if n.Development {
				dev = "yes"
				feed = ui.Meta("mock")
			}
			t.AddRow(ui.Row{
				mark,
				ui.NetworkName(n.Name),
				n.DisplayName,
				fmt.Sprintf("%d", n.ChainID),
				dev,
				feed,
				fmt.Sprintf("%d", n.Confirmations),
			})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d networks · active %s", len(reg.All()), active)))
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use <network>",
	Short: "Set the default network",
	Long: `Set the default network and persist it to config.json. FUNDME_NETWORK and
--network still override it.

Examples:
  fundme network use sepolia
  fundme network use hardhat`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := chain.NewRegistry().GetByName(args[0])
		if err != nil {
			return fmt.Errorf("unknown network %q: run `fundme network list`", args[0])
		}
		cfg.DefaultNetwork = n.Name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default network set to %s", ui.NetworkName(n.Name))))
		if cfg.Env.Network != "" && cfg.Env.Network != n.Name {
			fmt.Println(ui.Warn(fmt.Sprintf("FUNDME_NETWORK=%s still takes precedence", cfg.Env.Network)))
		}
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkUseCmd)
}
