package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/promptmesh/core"
)

// DefaultChannel is the redis pub/sub channel events are broadcast on when
// no override is configured.
const DefaultChannel = "promptmesh.events"

// RedisOptions configure the redis publisher.
type RedisOptions struct {
	// Channel to publish on; defaults to DefaultChannel.
	Channel string
}

// RedisPublisher broadcasts domain events as JSON on a redis pub/sub channel.
// Pub/sub gives at-most-once delivery: subscribers not connected at publish
// time miss the event, which matches the core's fire-and-forget contract.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher wraps an existing redis client.
func NewRedisPublisher(client redis.UniversalClient, optFns ...func(o *RedisOptions)) *RedisPublisher {
	opts := RedisOptions{Channel: DefaultChannel}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RedisPublisher{client: client, channel: opts.Channel}
}

// Publish encodes the event as JSON and publishes it.
func (p *RedisPublisher) Publish(ctx context.Context, event core.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("publisher: encode event %s: %w", event.ID, err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publisher: publish event %s: %w", event.ID, err)
	}
	return nil
}
