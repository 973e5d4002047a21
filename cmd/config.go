package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Println(string(data))
		fmt.Println()
		fmt.Println(ui.KeyValueBlock("Environment", [][2]string{
			{"Network", orUnset(cfg.Env.Network)},
			{"Lock time", cfg.Env.LockDuration().String()},
			{"SEPOLIA_URL", orUnset(cfg.Env.SepoliaURL)},
			{"PRIVATE_KEY", secretSet(cfg.Env.PrivateKey)},
			{"PRIVATE_KEY_2", secretSet(cfg.Env.PrivateKey2)},
			{"ETHERSCAN_API_KEY", secretSet(cfg.Env.EtherscanAPIKey)},
			{"Redis", orUnset(cfg.Env.Redis.Addr)},
			{"HTTP port", fmt.Sprintf("%d", cfg.Env.HTTP.Port)},
			{"Log", cfg.Env.Log.Level + "/" + cfg.Env.Log.SlogFormat()},
		}))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		return nil
	},
}

func orUnset(s string) string {
	if s == "" {
		return ui.Meta("unset")
	}
	return s
}

func secretSet(s string) string {
	if s == "" {
		return ui.Meta("unset")
	}
	return "set"
}

var configSetDefaultAccountCmd = &cobra.Command{
	Use:   "set-default-account <name>",
	Short: "Set the default account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.DefaultAccount = args[0]
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default account set to %q", args[0])))
		return nil
	},
}

var configSetDefaultNetworkCmd = &cobra.Command{
	Use:   "set-default-network <network>",
	Short: "Set the default network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := lookupNetwork(args[0])
		if err != nil {
			return err
		}
		cfg.DefaultNetwork = n.Name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default network set to %q", n.Name)))
		return nil
	},
}

var configSetWatchIntervalCmd = &cobra.Command{
	Use:   "set-watch-interval <seconds>",
	Short: "Set how often `status --watch` re-reads the campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := parseSeconds(args[0])
		if err != nil {
			return err
		}
		if d < time.Second {
			return fmt.Errorf("watch interval must be at least 1s")
		}
		cfg.WatchInterval = int(d.Seconds())
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Watch interval set to %ds", cfg.WatchInterval)))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd, configSetDefaultAccountCmd, configSetDefaultNetworkCmd, configSetWatchIntervalCmd)
}
