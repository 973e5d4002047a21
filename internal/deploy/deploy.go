// Package deploy creates a campaign on a network: a mock price feed first on
// development networks, then the campaign itself.
package deploy

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/config"
	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/Mohsinsiddi/fundme/internal/store"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Errors.
var (
	ErrAlreadyDeployed = errors.New("campaign already deployed (use --reset to redeploy)")
	ErrNoFeed          = errors.New("network has no ETH/USD price feed configured")
)

// Records persists deployment metadata and deployer nonces.
type Records interface {
	LoadDeployments() (*config.DeploymentsFile, error)
	SaveDeployments(*config.DeploymentsFile) error
}

// Options configure one deployment.
type Options struct {
	Network  *chain.Network
	Owner    common.Address
	LockTime time.Duration
	// Reset drops an existing campaign and its event log first.
	Reset bool
	// EtherscanAPIKey only affects the verification log line.
	EtherscanAPIKey string

	Store   store.Store
	Records Records
	Logger  *slog.Logger
	// Clock overrides the network clock.
	Clock ledger.Clock
}

// Result describes a completed deployment.
type Result struct {
	Deployment config.Deployment
	State      ledger.State
}

// Deploy runs both deployment steps and persists the new campaign.
func Deploy(opts Options) (*Result, error) {
	n := opts.Network
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("network", n.Name)

	if _, err := opts.Store.LoadCampaign(n.Name); err == nil {
		if !opts.Reset {
			return nil, ErrAlreadyDeployed
		}
		if err := reset(opts.Store, n.Name); err != nil {
			return nil, err
		}
		logger.Info("previous campaign removed")
	} else if !errors.Is(err, store.ErrNoCampaign) {
		return nil, err
	}

	records, err := opts.Records.LoadDeployments()
	if err != nil {
		return nil, fmt.Errorf("loading deployments: %w", err)
	}
	nonceKey := n.Name + "/" + strings.ToLower(opts.Owner.Hex())
	nonce := records.Nonces[nonceKey]

	// Step 1: price feed.
	var feed common.Address
	mock := n.Development
	if mock {
		feed = crypto.CreateAddress(opts.Owner, nonce)
		nonce++
		logger.Info("MockV3Aggregator deployed",
			"address", feed.Hex(), "decimals", config.Decimal, "initial_answer", config.InitialAnswer)
	} else {
		if !common.IsHexAddress(n.EthUsdFeed) {
			return nil, fmt.Errorf("%s: %w", n.Name, ErrNoFeed)
		}
		feed = common.HexToAddress(n.EthUsdFeed)
		logger.Info("using ETH/USD feed", "address", feed.Hex())
	}

	// Step 2: campaign.
	addr := crypto.CreateAddress(opts.Owner, nonce)
	nonce++

	clock := ledger.Clock(ledger.SystemClock{})
	if mock {
		offset, err := opts.Store.ClockOffset(n.Name)
		if err != nil {
			return nil, err
		}
		clock = ledger.NewOffsetClock(offset)
	}
	if opts.Clock != nil {
		clock = opts.Clock
	}
	c := ledger.New(opts.Owner, opts.LockTime, feed, nil,
		ledger.WithAddress(addr), ledger.WithClock(clock), ledger.WithLogger(logger))
	st := c.Snapshot()

	if n.Confirmations > 0 {
		logger.Info("waiting for confirmations", "confirmations", n.Confirmations)
	}
	if err := opts.Store.SaveCampaign(n.Name, st); err != nil {
		return nil, fmt.Errorf("saving campaign: %w", err)
	}

	d := config.Deployment{
		Network:    n.Name,
		Address:    addr,
		Owner:      opts.Owner,
		PriceFeed:  feed,
		MockFeed:   mock,
		Nonce:      nonce - 1,
		LockTime:   uint64(opts.LockTime / time.Second),
		DeployedAt: st.CreatedAt,
	}
	records.Deployments[n.Name] = d
	records.Nonces[nonceKey] = nonce
	if err := opts.Records.SaveDeployments(records); err != nil {
		return nil, fmt.Errorf("saving deployments: %w", err)
	}

	logger.Info("FundMe deployed",
		"address", addr.Hex(), "owner", opts.Owner.Hex(), "deadline", st.Deadline.Format(time.RFC3339))

	switch {
	case mock:
	case opts.EtherscanAPIKey == "":
		logger.Info("verification skipped: ETHERSCAN_API_KEY not set")
	default:
		logger.Info("verification skipped: source verification is not supported", "explorer", n.Explorer)
	}

	return &Result{Deployment: d, State: st}, nil
}

func reset(s store.Store, network string) error {
	if err := s.DeleteCampaign(network); err != nil {
		return fmt.Errorf("removing campaign: %w", err)
	}
	if err := s.SetClockOffset(network, 0); err != nil {
		return fmt.Errorf("resetting clock: %w", err)
	}
	return nil
}
