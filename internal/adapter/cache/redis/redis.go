// Package redis caches the code to target mapping used by the redirect path.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/tinylink/internal/entity"
)

const keyPrefix = "tinylink:link:"

const DefaultTTL = 10 * time.Minute

// cachedLink holds only the immutable part of a link. Click statistics are
// always read from the store.
type cachedLink struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Target string `json:"target"`
}

type LinkCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewLinkCache(client redis.Cmdable, ttl time.Duration) *LinkCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &LinkCache{
		client: client,
		ttl:    ttl,
	}
}

func key(code string) string {
	return keyPrefix + code
}

// Get returns the cached link for code. A miss is reported as (nil, false, nil).
func (c *LinkCache) Get(ctx context.Context, code string) (*entity.Link, bool, error) {
	const op = "adapter.cache.redis.LinkCache.Get"

	data, err := c.client.Get(ctx, key(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("%s: failed to get key: %w", op, err)
	}

	var cached cachedLink
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("%s: failed to decode cached link: %w", op, err)
	}

	return &entity.Link{
		ID:     cached.ID,
		Code:   cached.Code,
		Target: cached.Target,
	}, true, nil
}

func (c *LinkCache) Set(ctx context.Context, link *entity.Link) error {
	const op = "adapter.cache.redis.LinkCache.Set"

	data, err := json.Marshal(cachedLink{
		ID:     link.ID,
		Code:   link.Code,
		Target: link.Target,
	})
	if err != nil {
		return fmt.Errorf("%s: failed to encode link: %w", op, err)
	}

	if err := c.client.Set(ctx, key(link.Code), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: failed to set key: %w", op, err)
	}

	return nil
}

func (c *LinkCache) Delete(ctx context.Context, code string) error {
	const op = "adapter.cache.redis.LinkCache.Delete"

	if err := c.client.Del(ctx, key(code)).Err(); err != nil {
		return fmt.Errorf("%s: failed to delete key: %w", op, err)
	}

	return nil
}
