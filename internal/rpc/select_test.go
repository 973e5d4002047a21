package rpc_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockServer answers eth_blockNumber with blockNum after delay.
func blockServer(t *testing.T, blockNum uint64, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":"0x%x"}`, blockNum)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const deadURL = "http://127.0.0.1:1"

func TestPingAllKeepsOrder(t *testing.T) {
	a := blockServer(t, 10, 0)
	b := blockServer(t, 12, 0)

	eps := rpc.PingAll(context.Background(), []string{a.URL, deadURL, b.URL})
	require.Len(t, eps, 3)
	assert.Equal(t, a.URL, eps[0].URL)
	assert.Equal(t, uint64(10), eps[0].BlockNumber)
	assert.True(t, eps[0].Healthy())
	assert.False(t, eps[1].Healthy())
	assert.Equal(t, uint64(12), eps[2].BlockNumber)
}

func TestSelectBestSingleURLSkipsPing(t *testing.T) {
	url, err := rpc.SelectBest(context.Background(), []string{deadURL}, "")
	require.NoError(t, err)
	assert.Equal(t, deadURL, url)
}

func TestSelectBestNoURLs(t *testing.T) {
	_, err := rpc.SelectBest(context.Background(), nil, "fastest")
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}

func TestSelectBestFastest(t *testing.T) {
	slow := blockServer(t, 100, 150*time.Millisecond)
	fast := blockServer(t, 100, 0)

	url, err := rpc.SelectBest(context.Background(), []string{slow.URL, fast.URL}, "fastest")
	require.NoError(t, err)
	assert.Equal(t, fast.URL, url)
}

func TestSelectBestFailover(t *testing.T) {
	slow := blockServer(t, 100, 50*time.Millisecond)
	fast := blockServer(t, 100, 0)

	url, err := rpc.SelectBest(context.Background(), []string{deadURL, slow.URL, fast.URL}, "failover")
	require.NoError(t, err)
	assert.Equal(t, slow.URL, url)
}

func TestSelectBestAllDown(t *testing.T) {
	_, err := rpc.SelectBest(context.Background(), []string{deadURL, "http://127.0.0.1:2"}, "fastest")
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}

func TestSelectBestBadAlgorithm(t *testing.T) {
	_, err := rpc.SelectBest(context.Background(), []string{deadURL}, "random")
	require.Error(t, err)
}

func TestForNetworkInProcess(t *testing.T) {
	n, err := chain.NewRegistry().GetByName("hardhat")
	require.NoError(t, err)

	url, err := rpc.ForNetwork(context.Background(), n, nil, "", nil)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestForNetworkPrefersCustom(t *testing.T) {
	srv := blockServer(t, 1, 0)
	n := &chain.Network{Name: "sepolia"}

	url, err := rpc.ForNetwork(context.Background(), n, []string{srv.URL}, "failover", nil)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, url)
}

func TestForNetworkNoEndpoints(t *testing.T) {
	n := &chain.Network{Name: "sepolia"}
	_, err := rpc.ForNetwork(context.Background(), n, nil, "", nil)
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}
