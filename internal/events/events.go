// Package events fans committed campaign events out to the structured logger
// and an optional Redis list.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/go-redis/redis/v8"
)

// DefaultRedisKey is the list events are pushed to.
const DefaultRedisKey = "fundme:events"

// LogSubscriber writes one structured log line per event.
type LogSubscriber struct {
	logger  *slog.Logger
	network string
}

// NewLogSubscriber returns a subscriber logging to logger.
func NewLogSubscriber(logger *slog.Logger, network string) *LogSubscriber {
	return &LogSubscriber{logger: logger, network: network}
}

// Publish logs e at info level.
func (l *LogSubscriber) Publish(e ledger.Event) error {
	attrs := []any{
		"network", l.network,
		"seq", e.Seq,
		"kind", string(e.Kind),
		"tx", e.TxHash.Hex(),
	}
	switch e.Kind {
	case ledger.EventOwnershipTransferred:
		attrs = append(attrs, "previous", e.Previous.Hex(), "owner", e.Contributor.Hex())
	case ledger.EventWithdrawnByOwner:
		attrs = append(attrs, "amount_eth", chain.FormatEther(e.Amount))
	default:
		attrs = append(attrs, "account", e.Contributor.Hex(), "amount_eth", chain.FormatEther(e.Amount))
	}
	l.logger.Info("campaign event", attrs...)
	return nil
}

// Message is the JSON document pushed to Redis.
type Message struct {
	Network string       `json:"network"`
	Topic   string       `json:"topic"`
	Event   ledger.Event `json:"event"`
}

// listPusher is the part of *redis.Client the publisher uses.
type listPusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisPublisher pushes events onto a Redis list for external consumers.
type RedisPublisher struct {
	client  listPusher
	key     string
	network string
	timeout time.Duration
}

// NewRedisClient connects to addr, accepting host:port or a redis:// URL.
func NewRedisClient(addr string) (*redis.Client, error) {
	if strings.HasPrefix(addr, "redis://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

// NewRedisPublisher publishes events for network to key. An empty key uses
// DefaultRedisKey.
func NewRedisPublisher(client listPusher, key, network string) *RedisPublisher {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisPublisher{client: client, key: key, network: network, timeout: 3 * time.Second}
}

// Publish RPUSHes e as JSON.
func (p *RedisPublisher) Publish(e ledger.Event) error {
	data, err := json.Marshal(Message{Network: p.network, Topic: e.Kind.Topic().Hex(), Event: e})
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.client.RPush(ctx, p.key, string(data)).Err(); err != nil {
		return fmt.Errorf("event push to list %s: %w", p.key, err)
	}
	return nil
}
