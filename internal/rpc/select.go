package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/chain"
)

// pingTimeout bounds a single endpoint ping.
const pingTimeout = 5 * time.Second

// PingAll pings every URL in parallel. Results keep the input order.
func PingAll(ctx context.Context, urls []string) []Endpoint {
	out := make([]Endpoint, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()
			latency, block, err := chain.NewEVMClient(u).Ping(pctx)
			out[i] = Endpoint{URL: u, Latency: latency, BlockNumber: block, Err: err}
		}(i, u)
	}
	wg.Wait()
	return out
}

// SelectBest pings urls and returns the winner under algorithm. A single URL
// is returned without probing.
func SelectBest(ctx context.Context, urls []string, algorithm string) (string, error) {
	algo, err := ParseAlgorithm(algorithm)
	if err != nil {
		return "", err
	}
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}
	winner, err := Pick(PingAll(ctx, urls), algo)
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}

// ForNetwork resolves the RPC URL for network, trying custom endpoints ahead
// of the built-in ones. It returns "" for in-process networks with no RPC.
func ForNetwork(ctx context.Context, n *chain.Network, custom []string, algorithm string, logger *slog.Logger) (string, error) {
	urls := n.Endpoints(custom)
	if len(urls) == 0 {
		if n.Development {
			return "", nil
		}
		return "", fmt.Errorf("%s: %w", n.Name, ErrNoHealthyRPC)
	}
	url, err := SelectBest(ctx, urls, algorithm)
	if err != nil {
		return "", fmt.Errorf("%s: %w", n.Name, err)
	}
	if logger != nil {
		logger.Debug("rpc selected", "network", n.Name, "url", url, "candidates", len(urls))
	}
	return url, nil
}
