package rpc

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoHealthyRPC is returned when no endpoint answered a ping.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm decides which pinged endpoint serves a network.
type Algorithm string

const (
	// AlgorithmFastest picks the lowest-latency endpoint near the chain head.
	AlgorithmFastest Algorithm = "fastest"
	// AlgorithmFailover picks the first healthy endpoint in configured order.
	AlgorithmFailover Algorithm = "failover"

	// Endpoints more than this many blocks behind the best one are skipped.
	staleBlockThreshold = 3
)

// ParseAlgorithm validates a configured algorithm name. Empty means fastest.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "", AlgorithmFastest:
		return AlgorithmFastest, nil
	case AlgorithmFailover:
		return AlgorithmFailover, nil
	}
	return "", fmt.Errorf("unknown RPC algorithm %q (want fastest or failover)", s)
}

// Endpoint is one pinged RPC URL.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// Healthy reports whether the ping succeeded.
func (e Endpoint) Healthy() bool { return e.Err == nil }

// Pick chooses an endpoint from ping results.
func Pick(endpoints []Endpoint, algo Algorithm) (*Endpoint, error) {
	if algo == AlgorithmFailover {
		for i := range endpoints {
			if endpoints[i].Healthy() {
				return &endpoints[i], nil
			}
		}
		return nil, ErrNoHealthyRPC
	}

	var best uint64
	for _, e := range endpoints {
		if e.Healthy() && e.BlockNumber > best {
			best = e.BlockNumber
		}
	}

	var winner *Endpoint
	for i := range endpoints {
		e := &endpoints[i]
		if !e.Healthy() || best-e.BlockNumber > staleBlockThreshold {
			continue
		}
		if winner == nil || e.Latency < winner.Latency {
			winner = e
		}
	}
	if winner == nil {
		return nil, ErrNoHealthyRPC
	}
	return winner, nil
}
