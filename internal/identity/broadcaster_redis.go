package identity

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultEventChannel is the Redis channel carrying principal events.
const DefaultEventChannel = "portal:identity:events"

// RedisBroadcaster bridges a Hub across portal instances via Redis pub/sub.
type RedisBroadcaster struct {
	client  *redis.Client
	hub     *Hub
	channel string
	origin  string
	logger  *slog.Logger
}

// NewRedisBroadcaster wires hub to the given channel and installs itself as
// the hub relay.
func NewRedisBroadcaster(client *redis.Client, hub *Hub, channel string, logger *slog.Logger) *RedisBroadcaster {
	if channel == "" {
		channel = DefaultEventChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &RedisBroadcaster{
		client:  client,
		hub:     hub,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
	hub.SetRelay(b.forward)
	return b
}

// Origin identifies this instance in published events.
func (b *RedisBroadcaster) Origin() string {
	return b.origin
}

func (b *RedisBroadcaster) forward(ev Event) {
	if ev.Origin != "" {
		return
	}
	ev.Origin = b.origin
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Warn("identity event encode", slog.Any("error", err))
		return
	}
	if err := b.client.Publish(context.Background(), b.channel, payload).Err(); err != nil {
		b.logger.Warn("identity event publish", slog.Any("error", err))
	}
}

// Start subscribes to the channel and delivers remote events to local
// subscribers until ctx is cancelled. It returns once the subscription is
// confirmed by Redis.
func (b *RedisBroadcaster) Start(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("identity event decode", slog.Any("error", err))
					continue
				}
				if ev.Origin == b.origin {
					continue
				}
				b.hub.deliver(ev)
			}
		}
	}()
	return nil
}
