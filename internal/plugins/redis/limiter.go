package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter implements a fixed-window counter per key. The first hit
// in a window sets the expiry; later hits only increment.
type RedisRateLimiter struct {
	rdb *redis.Client
}

func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	rkey := "ratelimit:" + key
	count, err := l.rdb.Incr(ctx, rkey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, rkey, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}
