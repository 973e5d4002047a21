package cmd

import (
	"math/big"
	"testing"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/api"
	"github.com/Mohsinsiddi/fundme/internal/config"
	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/Mohsinsiddi/fundme/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// parseSeconds
// ---------------------------------------------------------------------------

func TestParseSeconds_Integer(t *testing.T) {
	d, err := parseSeconds("200")
	require.NoError(t, err)
	assert.Equal(t, 200*time.Second, d)
}

func TestParseSeconds_Duration(t *testing.T) {
	d, err := parseSeconds("3m30s")
	require.NoError(t, err)
	assert.Equal(t, 210*time.Second, d)
}

func TestParseSeconds_Invalid(t *testing.T) {
	_, err := parseSeconds("soon")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// price helpers
// ---------------------------------------------------------------------------

func TestEthFor_TargetAtMockPrice(t *testing.T) {
	assert.InDelta(t, 1.0/3, ethFor(ledger.DefaultTargetUSD, 3000), 1e-9)
	assert.InDelta(t, 0.0005, ethFor(ledger.DefaultMinimumUSD, 2000), 1e-12)
}

// ---------------------------------------------------------------------------
// receipts and views
// ---------------------------------------------------------------------------

func TestReceiptFromView(t *testing.T) {
	from := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	r := receiptFromView(&api.ReceiptView{
		Op:        wallet.OpRefund,
		From:      from,
		AmountWei: "400000000000000",
		Events:    []ledger.Event{{Seq: 2, Kind: ledger.EventRefundedByFunder}},
	})
	assert.Equal(t, wallet.OpRefund, r.Op)
	assert.Equal(t, from, r.From)
	assert.Equal(t, big.NewInt(400_000_000_000_000), r.Amount)
	assert.Len(t, r.Events, 1)
}

func TestReceiptFromView_NoAmount(t *testing.T) {
	r := receiptFromView(&api.ReceiptView{Op: wallet.OpTransferOwnership})
	assert.Nil(t, r.Amount)
}

func TestDescribeEvent(t *testing.T) {
	a := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	b := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	amt := big.NewInt(400_000_000_000_000)

	assert.Contains(t, describeEvent(ledger.Event{Kind: ledger.EventFunded, Contributor: a, Amount: amt}), "Funded 0.0004 ETH")
	assert.Contains(t, describeEvent(ledger.Event{Kind: ledger.EventRefundedByFunder, Contributor: a, Amount: amt}), "Refunded 0.0004 ETH")
	assert.Contains(t, describeEvent(ledger.Event{Kind: ledger.EventWithdrawnByOwner, Amount: amt}), "Owner withdrew 0.0004 ETH")

	got := describeEvent(ledger.Event{Kind: ledger.EventOwnershipTransferred, Contributor: a, Previous: b})
	assert.Contains(t, got, b.Hex())
	assert.Contains(t, got, a.Hex())
}

func TestStatusFromView(t *testing.T) {
	deadline := time.Date(2026, 1, 1, 0, 3, 0, 0, time.UTC)
	s := statusFromView(&api.CampaignView{
		Network:      "hardhat",
		Deadline:     deadline,
		Now:          deadline.Add(-time.Minute),
		Phase:        ledger.PhaseOpen,
		BalanceETH:   "0.0008",
		MinimumUSD:   "1.00",
		TargetUSD:    "1000.00",
		Contributors: []common.Address{{1}, {2}},
	})
	assert.Equal(t, "hardhat", s.Network)
	assert.Equal(t, ledger.PhaseOpen, s.Phase)
	assert.Equal(t, 2, s.Contributors)
	assert.Equal(t, time.Minute, s.Deadline.Sub(s.Now))
}

// ---------------------------------------------------------------------------
// account resolution
// ---------------------------------------------------------------------------

func testBook(t *testing.T) *accountBook {
	t.Helper()
	named := wallet.NewManager()
	require.NoError(t, named.SeedNamed(config.DevKey0, config.DevKey1))
	return &accountBook{saved: wallet.NewManager(), named: named}
}

func TestResolve_DefaultsToFirstAccount(t *testing.T) {
	cfg = &config.Config{}
	a, _, err := testBook(t).resolve("")
	require.NoError(t, err)
	assert.Equal(t, wallet.FirstAccount, a.Name)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), a.Address)
}

func TestResolve_ConfiguredDefault(t *testing.T) {
	cfg = &config.Config{DefaultAccount: wallet.SecondAccount}
	a, _, err := testBook(t).resolve("")
	require.NoError(t, err)
	assert.Equal(t, wallet.SecondAccount, a.Name)
}

func TestResolve_SavedShadowsNamed(t *testing.T) {
	cfg = &config.Config{}
	b := testBook(t)
	other := common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678")
	_, err := b.saved.AddWatchOnly(wallet.FirstAccount, other)
	require.NoError(t, err)

	a, mgr, err := b.resolve(wallet.FirstAccount)
	require.NoError(t, err)
	assert.Equal(t, other, a.Address)
	assert.Same(t, b.saved, mgr)

	_, _, err = b.signer(wallet.FirstAccount)
	assert.ErrorIs(t, err, wallet.ErrWatchOnly)
}

func TestResolve_Unknown(t *testing.T) {
	cfg = &config.Config{}
	_, _, err := testBook(t).resolve("nobody")
	assert.ErrorIs(t, err, wallet.ErrAccountNotFound)
}
