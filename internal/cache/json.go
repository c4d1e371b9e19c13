package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SuggestionTTL is how long generated AI output stays cached
const SuggestionTTL = 24 * time.Hour

// ErrMiss is returned by Get when the key is not cached
var ErrMiss = errors.New("cache miss")

// JSONCache stores JSON encoded values under a key prefix
type JSONCache struct {
	client redis.Cmdable
	prefix string
}

func NewJSONCache(client redis.Cmdable, prefix string) *JSONCache {
	return &JSONCache{client: client, prefix: prefix}
}

// SuggestionKey builds the key of a cached AI suggestion for a blog
func SuggestionKey(blogID, kind string) string {
	return "blog:" + blogID + ":" + kind
}

func (c *JSONCache) Get(ctx context.Context, key string, dst any) error {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

func (c *JSONCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

func (c *JSONCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.client.Del(ctx, full...).Err()
}
