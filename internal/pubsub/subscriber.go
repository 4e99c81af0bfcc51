package pubsub

import (
	"context"
	"log/slog"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/protocol"
)

// Broadcaster delivers a frame to every live connection of a user. The
// gateway's connection registry implements it.
type Broadcaster interface {
	Broadcast(userID string, frame *protocol.Frame)
}

// Subscriber listens on the single inbound bus channel and bridges
// validated envelopes to the Broadcaster. Malformed messages are dropped
// and logged; there is no client connection to attribute them to.
type Subscriber struct {
	rdb      *goredis.Client
	channel  string
	registry Broadcaster

	sub       *goredis.PubSub
	done      chan struct{}
	closeOnce sync.Once
}

// NewSubscriber creates a Subscriber for "<prefix>.ws.outgoing".
func NewSubscriber(rdb *goredis.Client, prefix string, registry Broadcaster) *Subscriber {
	return &Subscriber{
		rdb:      rdb,
		channel:  prefix + "." + ChannelWSOutgoing,
		registry: registry,
		done:     make(chan struct{}),
	}
}

// Start subscribes and begins delivering messages. It returns once the
// subscription is confirmed by Redis.
func (s *Subscriber) Start(ctx context.Context) error {
	s.sub = s.rdb.Subscribe(ctx, s.channel)
	if _, err := s.sub.Receive(ctx); err != nil {
		return err
	}

	go s.loop()
	slog.Info("redis subscriber started", "channel", s.channel)
	return nil
}

func (s *Subscriber) loop() {
	ch := s.sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handle(msg)
		case <-s.done:
			return
		}
	}
}

func (s *Subscriber) handle(msg *goredis.Message) {
	env, err := protocol.ParseEnvelope([]byte(msg.Payload))
	if err != nil {
		slog.Error("dropping invalid message from redis", "channel", msg.Channel, "error", err)
		return
	}
	s.registry.Broadcast(env.UserID, env.Frame())
}

// Close unsubscribes and stops the delivery loop. Idempotent.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.sub != nil {
			if err := s.sub.Close(); err != nil {
				slog.Error("closing redis subscription", "error", err)
			}
		}
	})
}
