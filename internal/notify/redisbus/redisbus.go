// Package redisbus is the production notify.Bus: Redis pub/sub
// (github.com/go-redis/redis/v8), the concrete transport named in
// SPEC_FULL.md §4.9. Grounded on the go-redis Publish/Subscribe usage in
// the reference device-adapter's websocket hub (other_examples
// fca11cca_m0rjc-OsmDeviceAdapter, internal/websocket/hub.go), adapted from
// a fan-out-to-local-sockets hub to a single outbound publisher.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/meridian-net/meridian/internal/notify"
)

// DefaultChannel is the Redis pub/sub channel controller-transaction
// notifications are published on.
const DefaultChannel = "meridian.transactions"

// Bus publishes notify.Notification values as JSON on a Redis channel.
type Bus struct {
	client  *redis.Client
	channel string
}

// New returns a Bus connected to addr (host:port), publishing on
// DefaultChannel unless overridden with WithChannel.
func New(addr string) *Bus {
	return &Bus{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		channel: DefaultChannel,
	}
}

// WithChannel overrides the channel name, returning b for chaining.
func (b *Bus) WithChannel(channel string) *Bus {
	b.channel = channel
	return b
}

// Publish JSON-encodes n and publishes it on the configured channel.
func (b *Bus) Publish(ctx context.Context, n notify.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("redisbus: marshal notification: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redisbus: publish: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (b *Bus) Close() error {
	return b.client.Close()
}
