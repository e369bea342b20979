package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis wraps a go-redis client. Errors are logged and degrade to a miss.
type Redis struct {
	Client *redis.Client
	Prefix string
	Logger zerolog.Logger
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.Client.Get(ctx, r.Prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.Logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		return nil, false
	}
	return b, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.Client.Set(ctx, r.Prefix+key, value, ttl).Err(); err != nil {
		r.Logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}
