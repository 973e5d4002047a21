package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/config"
	"github.com/Mohsinsiddi/fundme/internal/rpc"
	"github.com/Mohsinsiddi/fundme/internal/ui"
	"github.com/spf13/cobra"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage RPC endpoints",
}

func lookupNetwork(name string) (*chain.Network, error) {
	n, err := chain.NewRegistry().GetByName(name)
	if err != nil {
		return nil, fmt.Errorf("unknown network %q: run `fundme network list`", name)
	}
	return n, nil
}

var rpcAddCmd = &cobra.Command{
	Use:   "add <network> <url>",
	Short: "Add a custom RPC URL for a network",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := lookupNetwork(args[0])
		if err != nil {
			return err
		}
		if err := cfg.AddRPC(n.Name, args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Added RPC for %s: %s", ui.NetworkName(n.Name), args[1])))
		return nil
	},
}

var rpcRemoveCmd = &cobra.Command{
	Use:   "remove <network> <url>",
	Short: "Remove a custom RPC URL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveRPC(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed RPC for %s: %s", args[0], args[1])))
		return nil
	},
}

var rpcListCmd = &cobra.Command{
	Use:   "list [network]",
	Short: "List the RPCs of a network, custom ones first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := networkArg(args)
		if err != nil {
			return err
		}
		fmt.Println(ui.StyleTitle.Render(fmt.Sprintf("RPCs for %s", n.DisplayName)))
		custom := cfg.GetRPCs(n.Name)
		if len(custom) > 0 {
			fmt.Println(ui.StyleHeader.Render("Custom:"))
			for _, r := range custom {
				fmt.Printf("  %s\n", r)
			}
		}
		fmt.Println(ui.StyleHeader.Render("Built-in:"))
		for _, r := range n.RPCs {
			fmt.Printf("  %s\n", r)
		}
		if len(n.RPCs) == 0 {
			fmt.Println(ui.Meta("  none (in-process network)"))
		}
		return nil
	},
}

var rpcTestCmd = &cobra.Command{
	Use:     "test [network]",
	Aliases: []string{"benchmark"},
	Short:   "Ping every RPC of a network and show which one would be used",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := networkArg(args)
		if err != nil {
			return err
		}
		urls := n.Endpoints(cfg.GetRPCs(n.Name))
		if len(urls) == 0 {
			fmt.Println(ui.Info(fmt.Sprintf("%s runs in-process and has no RPC endpoints.", n.Name)))
			return nil
		}
		algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout)
		defer cancel()
		results, _ := ui.Run(fmt.Sprintf("probing %d endpoint(s)…", len(urls)), func() ([]rpc.Endpoint, error) {
			return rpc.PingAll(ctx, urls), nil
		})

		winner, werr := rpc.Pick(results, algo)
		t := ui.NewTable([]ui.Column{
			{Title: "RPC URL", Width: 44},
			{Title: "Latency", Width: 10, Right: true},
			{Title: "Block #", Width: 12, Right: true},
			{Title: "Status", Width: 10},
		})
		for _, r := range results {
			status := ui.StyleSuccess.Render("healthy")
			latency := fmt.Sprintf("%dms", r.Latency.Milliseconds())
			block := fmt.Sprintf("%d", r.BlockNumber)
			if !r.Healthy() {
				status = ui.StyleError.Render("down")
				latency, block = "-", "-"
			}
			url := r.URL
			if winner != nil && winner.URL == r.URL {
				url = ui.StyleSelected.Render(url)
			}
			t.AddRow(ui.Row{url, latency, block, status})
		}
		fmt.Println(t.Render())
		if werr != nil {
			return fmt.Errorf("%s: %w", n.Name, werr)
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s picks %s", algo, winner.URL)))
		return nil
	},
}

var rpcAlgorithmCmd = &cobra.Command{
	Use:   "algorithm",
	Short: "Show or set the RPC selection algorithm",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
		if err != nil {
			return err
		}
		fmt.Println(ui.Info(fmt.Sprintf("RPC algorithm: %s", algo)))
		return nil
	},
}

var rpcAlgorithmSetCmd = &cobra.Command{
	Use:   "set <fastest|failover>",
	Short: "Set the RPC selection algorithm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		algo, err := rpc.ParseAlgorithm(args[0])
		if err != nil {
			return err
		}
		cfg.RPCAlgorithm = string(algo)
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC algorithm set to %q", algo)))
		return nil
	},
}

// networkArg returns the named network, or the active one.
func networkArg(args []string) (*chain.Network, error) {
	if len(args) == 1 {
		return lookupNetwork(args[0])
	}
	return activeNetwork()
}

func init() {
	rpcAlgorithmCmd.AddCommand(rpcAlgorithmSetCmd)
	rpcCmd.AddCommand(rpcAddCmd, rpcRemoveCmd, rpcListCmd, rpcTestCmd, rpcAlgorithmCmd)
}
