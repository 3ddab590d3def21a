package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// UnreadCounter caches per-user unread notification counts in Redis.
// A nil *UnreadCounter is valid and behaves as a permanent cache miss.
type UnreadCounter struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewUnreadCounter 返回 nil 表示未配置 Redis
func NewUnreadCounter(addr, password string, db int) *UnreadCounter {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewUnreadCounterWithClient(rdb, 30*time.Second)
}

// NewUnreadCounterWithClient wraps an existing client.
func NewUnreadCounterWithClient(rdb *redis.Client, ttl time.Duration) *UnreadCounter {
	return &UnreadCounter{rdb: rdb, ttl: ttl}
}

// Ping checks connectivity at startup.
func (c *UnreadCounter) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return errors.Wrap(c.rdb.Ping(ctx).Err(), "redis ping")
}

func key(userID uint) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}

// Get returns the cached count and whether it was present.
func (c *UnreadCounter) Get(ctx context.Context, userID uint) (int64, bool) {
	if c == nil {
		return 0, false
	}
	n, err := c.rdb.Get(ctx, key(userID)).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logrus.WithError(err).Warn("unread counter read failed")
		}
		return 0, false
	}
	return n, true
}

// Set stores the count with the configured TTL.
func (c *UnreadCounter) Set(ctx context.Context, userID uint, count int64) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, key(userID), count, c.ttl).Err(); err != nil {
		logrus.WithError(err).Warn("unread counter write failed")
	}
}

// Invalidate drops the cached count for each user.
func (c *UnreadCounter) Invalidate(ctx context.Context, userIDs ...uint) {
	if c == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, key(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logrus.WithError(err).Warn("unread counter invalidate failed")
	}
}

// Close releases the underlying connection pool.
func (c *UnreadCounter) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
