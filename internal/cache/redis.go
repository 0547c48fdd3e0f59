package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	linkKeyPrefix = "link:"
	statsKey      = "link_stats"
)

// RedirectCache keeps code→URL mappings with a TTL and buffers redirect
// counts in a sorted set until the stats flush drains them.
type RedirectCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedirectCache(addr string, ttl time.Duration) (*RedirectCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedirectCache{client: client, ttl: ttl}, nil
}

func (c *RedirectCache) Close() error {
	return c.client.Close()
}

func (c *RedirectCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Lookup returns the cached target URL for a code, reporting a miss without
// error when the key is absent or expired.
func (c *RedirectCache) Lookup(ctx context.Context, code string) (string, bool, error) {
	val, err := c.client.Get(ctx, linkKeyPrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cached url: %w", err)
	}
	return val, true, nil
}

func (c *RedirectCache) Store(ctx context.Context, code, originalURL string) error {
	if err := c.client.Set(ctx, linkKeyPrefix+code, originalURL, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache url: %w", err)
	}
	return nil
}

// Forget drops a cached mapping so a deleted or rotated code stops
// redirecting immediately.
func (c *RedirectCache) Forget(ctx context.Context, code string) error {
	if err := c.client.Del(ctx, linkKeyPrefix+code).Err(); err != nil {
		return fmt.Errorf("drop cached url: %w", err)
	}
	return nil
}

// RecordHit buffers one redirect for a code. ZINCRBY is atomic per member,
// so concurrent redirects need no extra locking.
func (c *RedirectCache) RecordHit(ctx context.Context, code string) error {
	if err := c.client.ZIncrBy(ctx, statsKey, 1, code).Err(); err != nil {
		return fmt.Errorf("record hit: %w", err)
	}
	return nil
}

// PendingCounts reads the buffered redirect counts without clearing them.
func (c *RedirectCache) PendingCounts(ctx context.Context) (map[string]int64, error) {
	members, err := c.client.ZRangeWithScores(ctx, statsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read pending counts: %w", err)
	}

	counts := make(map[string]int64, len(members))
	for _, member := range members {
		code, ok := member.Member.(string)
		if !ok {
			continue
		}
		counts[code] = int64(member.Score)
	}

	return counts, nil
}

// ClearPending removes the drained counter structure. Hits recorded between
// PendingCounts and ClearPending are lost; the stats flush accepts that.
func (c *RedirectCache) ClearPending(ctx context.Context) error {
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("clear pending counts: %w", err)
	}
	return nil
}
