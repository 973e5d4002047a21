package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Mohsinsiddi/fundme/internal/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/fundme/cmd.Version=1.2.3" .
var Version = "1.0.0"

var (
	cfgDir      string
	cfg         *config.Config
	logger      *slog.Logger
	verbose     bool
	networkFlag string
	accountFlag string
	apiFlag     string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "fundme",
	Short: "Time-boxed crowdfunding ledger",
	Long: `fundme runs a FundMe campaign: contributors fund it while the window is open,
then the owner withdraws if the USD target was met, or every funder takes a refund.

The network comes from --network, then FUNDME_NETWORK, then the configured
default (hardhat). Development networks (hardhat, localhost) use a mock
ETH/USD oracle at 3000 USD and a clock you can move with ` + "`fundme time increase`" + `.

Accounts: firstAccount and secondAccount are seeded from PRIVATE_KEY and
PRIVATE_KEY_2, or from the dev node's well-known keys on development networks.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if verbose {
			cfg.Env.Log.Level = "debug"
		}
		logger = cfg.Env.Log.NewLogger(os.Stderr).With("run_id", uuid.NewString())
		slog.SetDefault(logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// FUNDME_CONFIG_DIR overrides the --config default.
	if envDir := os.Getenv("FUNDME_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.fundme)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVarP(&networkFlag, "network", "n", "", "network to use (hardhat, localhost, sepolia)")
	pf.StringVarP(&accountFlag, "account", "a", "", "account name or address (default: configured default, then firstAccount)")
	pf.StringVar(&apiFlag, "api", "", "submit calls to a running `fundme serve` at this URL instead of the local store")

	rootCmd.AddCommand(
		deployCmd,
		fundCmd,
		getFundCmd,
		refundCmd,
		transferOwnershipCmd,
		statusCmd,
		contributionsCmd,
		eventsCmd,
		interactCmd,
		timeCmd,
		priceCmd,
		walletCmd,
		networkCmd,
		rpcCmd,
		configCmd,
		serveCmd,
	)
}
