package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisPublisher publishes to Redis so every instance's hub receives the
// update through its Relay.
type RedisPublisher struct {
	Client *redis.Client
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Client.Publish(ctx, channel, data).Err()
}

// Relay forwards every mood-updates:* message from Redis into hub until
// ctx is done.
func Relay(ctx context.Context, client *redis.Client, hub *Hub, logger zerolog.Logger) error {
	sub := client.PSubscribe(ctx, ChannelPrefix+"*")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	logger.Info().Str("pattern", ChannelPrefix+"*").Msg("redis relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := hub.deliver(ctx, msg.Channel, json.RawMessage(msg.Payload)); err != nil {
				return nil
			}
			logger.Debug().Str("region", regionOf(msg.Channel)).Msg("relayed update")
		}
	}
}
