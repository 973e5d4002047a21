package deploy_test

import (
	"testing"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/config"
	"github.com/Mohsinsiddi/fundme/internal/deploy"
	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/Mohsinsiddi/fundme/internal/store"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

func network(t *testing.T, name string) *chain.Network {
	t.Helper()
	n, err := chain.NewRegistry().GetByName(name)
	require.NoError(t, err)
	return n
}

func options(t *testing.T, name string) deploy.Options {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	return deploy.Options{
		Network:  network(t, name),
		Owner:    owner,
		LockTime: 180 * time.Second,
		Store:    store.NewMemory(),
		Records:  cfg,
		Clock:    ledger.NewManualClock(start),
	}
}

func TestDeployDevelopmentUsesMockFeed(t *testing.T) {
	opts := options(t, "hardhat")
	res, err := deploy.Deploy(opts)
	require.NoError(t, err)

	// Same addresses a fresh hardhat node assigns to the first two deployments.
	assert.Equal(t, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), res.Deployment.PriceFeed)
	assert.Equal(t, common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"), res.Deployment.Address)
	assert.True(t, res.Deployment.MockFeed)
	assert.Equal(t, uint64(180), res.Deployment.LockTime)

	st, err := opts.Store.LoadCampaign("hardhat")
	require.NoError(t, err)
	assert.Equal(t, owner, st.Owner)
	assert.Equal(t, res.Deployment.Address, st.Address)
	assert.Equal(t, res.Deployment.PriceFeed, st.PriceFeed)
	assert.True(t, start.Equal(st.CreatedAt))
	assert.True(t, start.Add(180*time.Second).Equal(st.Deadline))
	assert.Equal(t, "0x0", st.Balance.String())
}

func TestDeploySepoliaUsesConfiguredFeed(t *testing.T) {
	opts := options(t, "sepolia")
	res, err := deploy.Deploy(opts)
	require.NoError(t, err)

	assert.False(t, res.Deployment.MockFeed)
	assert.Equal(t, common.HexToAddress("0x694AA1769357215DE4FAC081bf1f309aDC325306"), res.Deployment.PriceFeed)
	// No mock deployment, so the campaign takes nonce 0.
	assert.Equal(t, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), res.Deployment.Address)
}

func TestDeployWithoutFeedFails(t *testing.T) {
	opts := options(t, "sepolia")
	opts.Network = &chain.Network{Name: "custom", ChainID: 1}
	_, err := deploy.Deploy(opts)
	assert.ErrorIs(t, err, deploy.ErrNoFeed)
}

func TestRedeployRequiresReset(t *testing.T) {
	opts := options(t, "hardhat")
	first, err := deploy.Deploy(opts)
	require.NoError(t, err)

	_, err = deploy.Deploy(opts)
	assert.ErrorIs(t, err, deploy.ErrAlreadyDeployed)

	require.NoError(t, opts.Store.AppendEvents("hardhat", []ledger.Event{{Seq: 1, Kind: ledger.EventFunded}}))
	require.NoError(t, opts.Store.SetClockOffset("hardhat", time.Hour))

	opts.Reset = true
	second, err := deploy.Deploy(opts)
	require.NoError(t, err)

	// The deployer nonce keeps counting, so addresses never repeat.
	assert.NotEqual(t, first.Deployment.Address, second.Deployment.Address)
	assert.Equal(t, uint64(3), second.Deployment.Nonce)

	evs, err := opts.Store.Events("hardhat", 0)
	require.NoError(t, err)
	assert.Empty(t, evs)
	offset, err := opts.Store.ClockOffset("hardhat")
	require.NoError(t, err)
	assert.Zero(t, offset)

	records, err := opts.Records.LoadDeployments()
	require.NoError(t, err)
	assert.Equal(t, second.Deployment.Address, records.Deployments["hardhat"].Address)
}

func TestDeployOffsetClockOnDevelopment(t *testing.T) {
	opts := options(t, "localhost")
	opts.Clock = nil
	require.NoError(t, opts.Store.SetClockOffset("localhost", 24*time.Hour))

	res, err := deploy.Deploy(opts)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), res.State.CreatedAt, time.Minute)
}
