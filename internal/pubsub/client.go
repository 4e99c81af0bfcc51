package pubsub

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// NewClient creates a Redis client from a URL and verifies the connection.
func NewClient(redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return rdb, nil
}

// Channel names on the bus, published relative to the configured prefix.
const (
	ChannelChatIncoming = "chat.incoming"
	ChannelGameIncoming = "game.incoming"
	ChannelDisconnected = "client.disconnected"
	ChannelWSOutgoing   = "ws.outgoing"
)
