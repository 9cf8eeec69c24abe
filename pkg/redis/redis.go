// Package redis opens the Redis client used by the target cache.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPingTimeout = 5 * time.Second

// Option tunes the client options parsed from the connection URL.
type Option func(*redis.Options)

func WithPoolSize(n int) Option {
	return func(o *redis.Options) {
		if n > 0 {
			o.PoolSize = n
		}
	}
}

func WithMinIdleConns(n int) Option {
	return func(o *redis.Options) {
		if n > 0 {
			o.MinIdleConns = n
		}
	}
}

// New parses url (redis://[:password@]host:port/db), connects and pings the server.
// The caller owns the client and must Close it on shutdown.
func New(ctx context.Context, url string, opts ...Option) (*redis.Client, error) {
	const op = "redis.New"

	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid redis url: %w", op, err)
	}

	for _, opt := range opts {
		opt(redisOpts)
	}

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
	}

	return client, nil
}
