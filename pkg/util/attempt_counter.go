package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AttemptCounter counts events per key inside a fixed window, e.g. failed logins
// per email. Redis failures are logged and treated as a zero count so that an
// unavailable Redis never blocks a request.
type AttemptCounter struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewAttemptCounter(rdb redis.Cmdable, prefix string, ttl time.Duration, logger *zap.Logger) *AttemptCounter {
	return &AttemptCounter{
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *AttemptCounter) key(name string) string {
	return fmt.Sprintf("%s:%s", c.prefix, name)
}

// Increment bumps the counter and starts the window on the first hit.
func (c *AttemptCounter) Increment(ctx context.Context, name string) int64 {
	key := c.key(name)

	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		c.logger.Warn("Redis attempt counter increment failed",
			zap.String("key", key),
			zap.Error(err),
		)
		return 0
	}

	if count == 1 {
		if err := c.rdb.Expire(ctx, key, c.ttl).Err(); err != nil {
			c.logger.Warn("Redis attempt counter expire failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	return count
}

// Get returns the current count, 0 when the window has expired.
func (c *AttemptCounter) Get(ctx context.Context, name string) int64 {
	key := c.key(name)

	count, err := c.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0
	}
	if err != nil {
		c.logger.Warn("Redis attempt counter read failed, allowing request",
			zap.String("key", key),
			zap.Error(err),
		)
		return 0
	}
	return count
}

// Reset clears the counter.
func (c *AttemptCounter) Reset(ctx context.Context, name string) {
	key := c.key(name)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("Redis attempt counter reset failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
