package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisLimiter counts attempts in fixed windows shared by every server
// instance. The counter key expires with its window.
type RedisLimiter struct {
	client goredis.Cmdable
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client goredis.Cmdable, prefix string, limit int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "taskkeeper:ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix, limit: int64(limit), window: window, now: time.Now}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := r.now().UnixNano() / int64(r.window)
	k := r.prefix + ":" + key + ":" + strconv.FormatInt(slot, 10)

	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit incr: %w", err)
	}
	if n == 1 {
		if err := r.client.Expire(ctx, k, r.window).Err(); err != nil {
			return false, fmt.Errorf("ratelimit expire: %w", err)
		}
	}
	return n <= r.limit, nil
}
