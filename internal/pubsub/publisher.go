package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

// Publisher forwards gateway messages to namespaced bus channels. It is
// safe to use before Init: publishes are then logged no-ops, so a slow
// Redis startup never takes client connections down with it.
type Publisher struct {
	mu     sync.Mutex
	rdb    *goredis.Client
	prefix string
}

// NewPublisher creates a Publisher namespacing all channels with prefix.
func NewPublisher(prefix string) *Publisher {
	return &Publisher{prefix: prefix}
}

// Init attaches a live Redis client.
func (p *Publisher) Init(rdb *goredis.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rdb = rdb
}

// Publish serializes v and publishes it to "<prefix>.<channel>".
func (p *Publisher) Publish(ctx context.Context, channel string, v any) error {
	p.mu.Lock()
	rdb := p.rdb
	p.mu.Unlock()

	if rdb == nil {
		slog.Warn("attempted to publish but redis is not initialized", "channel", channel)
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling message for %s: %w", channel, err)
	}

	full := p.prefix + "." + channel
	if err := rdb.Publish(ctx, full, data).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", full, err)
	}
	return nil
}

// Close drops the client reference. Safe to call multiple times; the
// underlying client is owned and closed by the caller.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rdb = nil
}
