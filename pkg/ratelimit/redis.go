package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var failureScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RedisLimiter is a LoginLimiter backed by a shared Redis counter so that
// every instance of the service sees the same attempt count. Each identifier
// maps to one key whose TTL is the remaining window.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(addr, password, prefix string, limit int, window time.Duration) (*RedisLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "commsdesk:login"
	}
	return &RedisLimiter{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		prefix: prefix,
		limit:  limit,
		window: window,
	}, nil
}

func (l *RedisLimiter) key(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		identifier = "unknown"
	}
	return l.prefix + ":" + identifier
}

func (l *RedisLimiter) Check(ctx context.Context, identifier string) (bool, int, time.Time, error) {
	key := l.key(identifier)

	count, err := l.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, l.limit, time.Now().Add(l.window), nil
		}
		return false, 0, time.Time{}, err
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}
	resetAt := time.Now().Add(ttl)

	if count >= l.limit {
		return false, 0, resetAt, nil
	}
	return true, l.limit - count, resetAt, nil
}

func (l *RedisLimiter) RecordFailure(ctx context.Context, identifier string) error {
	return failureScript.Run(ctx, l.client, []string{l.key(identifier)}, l.window.Milliseconds()).Err()
}

func (l *RedisLimiter) Reset(ctx context.Context, identifier string) error {
	return l.client.Del(ctx, l.key(identifier)).Err()
}

func (l *RedisLimiter) Limit() int {
	return l.limit
}
