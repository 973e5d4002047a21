package store_test

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/Mohsinsiddi/fundme/internal/store"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner  = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	funder = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func openStores(t *testing.T) map[string]store.Store {
	t.Helper()
	ldb, err := store.OpenLevelDB(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	t.Cleanup(func() { ldb.Close() })
	return map[string]store.Store{
		"leveldb": ldb,
		"memory":  store.NewMemory(),
	}
}

func sampleState() ledger.State {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return ledger.State{
		Address:    common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		Owner:      owner,
		PriceFeed:  common.HexToAddress("0x694AA1769357215DE4FAC081bf1f309aDC325306"),
		CreatedAt:  created,
		Deadline:   created.Add(180 * time.Second),
		MinimumUSD: (*hexutil.Big)(ledger.USD(1)),
		TargetUSD:  (*hexutil.Big)(ledger.USD(1000)),
		Contributions: map[common.Address]*hexutil.Big{
			funder: (*hexutil.Big)(big.NewInt(400_000_000_000_000)),
		},
		Balance: (*hexutil.Big)(big.NewInt(400_000_000_000_000)),
		Seq:     1,
	}
}

func event(seq uint64) ledger.Event {
	return ledger.Event{
		Seq:         seq,
		Kind:        ledger.EventFunded,
		Contributor: funder,
		Amount:      big.NewInt(int64(seq) * 1000),
		Time:        time.Date(2026, 1, 1, 0, 0, int(seq), 0, time.UTC),
		TxHash:      common.BigToHash(big.NewInt(int64(seq))),
	}
}

func TestLoadCampaignMissing(t *testing.T) {
	for name, s := range openStores(t) {
		_, err := s.LoadCampaign("hardhat")
		assert.ErrorIs(t, err, store.ErrNoCampaign, name)
	}
}

func TestCampaignRoundTrip(t *testing.T) {
	for name, s := range openStores(t) {
		st := sampleState()
		require.NoError(t, s.SaveCampaign("sepolia", st), name)

		got, err := s.LoadCampaign("sepolia")
		require.NoError(t, err, name)
		assert.Equal(t, st.Address, got.Address, name)
		assert.Equal(t, st.Owner, got.Owner, name)
		assert.True(t, st.Deadline.Equal(got.Deadline), name)
		assert.Equal(t, st.Balance.String(), got.Balance.String(), name)
		assert.Equal(t, "0x16bcc41e90000", got.Contributions[funder].String(), name)
		assert.Equal(t, uint64(1), got.Seq, name)

		_, err = s.LoadCampaign("localhost")
		assert.ErrorIs(t, err, store.ErrNoCampaign, name)
	}
}

func TestEventsOrderedFromSeq(t *testing.T) {
	for name, s := range openStores(t) {
		require.NoError(t, s.AppendEvents("hardhat", []ledger.Event{event(3), event(1)}), name)
		require.NoError(t, s.AppendEvents("hardhat", []ledger.Event{event(2), event(256)}), name)
		require.NoError(t, s.AppendEvents("localhost", []ledger.Event{event(9)}), name)

		all, err := s.Events("hardhat", 0)
		require.NoError(t, err, name)
		require.Len(t, all, 4, name)
		assert.Equal(t, []uint64{1, 2, 3, 256}, []uint64{all[0].Seq, all[1].Seq, all[2].Seq, all[3].Seq}, name)
		assert.Equal(t, "2000", all[1].Amount.String(), name)
		assert.Equal(t, ledger.EventFunded, all[0].Kind, name)

		tail, err := s.Events("hardhat", 3)
		require.NoError(t, err, name)
		require.Len(t, tail, 2, name)
		assert.Equal(t, uint64(3), tail[0].Seq, name)
	}
}

func TestAppendEventsOverwritesSameSeq(t *testing.T) {
	for name, s := range openStores(t) {
		require.NoError(t, s.AppendEvents("hardhat", []ledger.Event{event(1)}), name)
		replaced := event(1)
		replaced.Kind = ledger.EventRefundedByFunder
		require.NoError(t, s.AppendEvents("hardhat", []ledger.Event{replaced}), name)

		evs, err := s.Events("hardhat", 0)
		require.NoError(t, err, name)
		require.Len(t, evs, 1, name)
		assert.Equal(t, ledger.EventRefundedByFunder, evs[0].Kind, name)
	}
}

func TestDeleteCampaignDropsEvents(t *testing.T) {
	for name, s := range openStores(t) {
		require.NoError(t, s.SaveCampaign("hardhat", sampleState()), name)
		require.NoError(t, s.AppendEvents("hardhat", []ledger.Event{event(1), event(2)}), name)
		require.NoError(t, s.AppendEvents("localhost", []ledger.Event{event(1)}), name)

		require.NoError(t, s.DeleteCampaign("hardhat"), name)

		_, err := s.LoadCampaign("hardhat")
		assert.ErrorIs(t, err, store.ErrNoCampaign, name)
		evs, err := s.Events("hardhat", 0)
		require.NoError(t, err, name)
		assert.Empty(t, evs, name)

		other, err := s.Events("localhost", 0)
		require.NoError(t, err, name)
		assert.Len(t, other, 1, name)
	}
}

func TestCommitWritesStateEventsAndNonce(t *testing.T) {
	for name, s := range openStores(t) {
		n, err := s.Nonce("hardhat", funder)
		require.NoError(t, err, name)
		assert.Zero(t, n, name)

		require.NoError(t, s.Commit("hardhat", store.Commit{
			State:  sampleState(),
			Events: []ledger.Event{event(1)},
			Caller: funder,
			Nonce:  1,
		}), name)

		st, err := s.LoadCampaign("hardhat")
		require.NoError(t, err, name)
		assert.Equal(t, uint64(1), st.Seq, name)
		evs, err := s.Events("hardhat", 0)
		require.NoError(t, err, name)
		assert.Len(t, evs, 1, name)
		n, err = s.Nonce("hardhat", funder)
		require.NoError(t, err, name)
		assert.Equal(t, uint64(1), n, name)

		// Nonces are per network and per address.
		n, _ = s.Nonce("localhost", funder)
		assert.Zero(t, n, name)
		n, _ = s.Nonce("hardhat", owner)
		assert.Zero(t, n, name)

		require.NoError(t, s.DeleteCampaign("hardhat"), name)
		n, err = s.Nonce("hardhat", funder)
		require.NoError(t, err, name)
		assert.Zero(t, n, name)
	}
}

func TestClockOffset(t *testing.T) {
	for name, s := range openStores(t) {
		d, err := s.ClockOffset("hardhat")
		require.NoError(t, err, name)
		assert.Zero(t, d, name)

		require.NoError(t, s.SetClockOffset("hardhat", 200*time.Second), name)
		d, err = s.ClockOffset("hardhat")
		require.NoError(t, err, name)
		assert.Equal(t, 200*time.Second, d, name)
	}
}

func TestLevelDBPersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	s, err := store.OpenLevelDB(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveCampaign("localhost", sampleState()))
	require.NoError(t, s.AppendEvents("localhost", []ledger.Event{event(1)}))
	require.NoError(t, s.SetClockOffset("localhost", time.Minute))
	require.NoError(t, s.Commit("localhost", store.Commit{State: sampleState(), Caller: funder, Nonce: 4}))
	require.NoError(t, s.Close())

	s, err = store.OpenLevelDB(dir)
	require.NoError(t, err)
	defer s.Close()

	st, err := s.LoadCampaign("localhost")
	require.NoError(t, err)
	assert.Equal(t, owner, st.Owner)
	evs, err := s.Events("localhost", 0)
	require.NoError(t, err)
	assert.Len(t, evs, 1)
	n, err := s.Nonce("localhost", funder)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
	d, err := s.ClockOffset("localhost")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)
}
