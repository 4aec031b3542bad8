// Package redis implements the rate limiter port with a fixed-window
// counter per key.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/TStakhniuk/contacts-api/internal/core/ports"
)

// allowScript increments the window counter, arming its expiry on first
// use. It returns 0 while the counter is within the limit, otherwise
// the remaining window in milliseconds.
var allowScript = goredis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return ttl
end
return 0
`)

type Limiter struct {
	client *goredis.Client
}

func NewLimiter(client *goredis.Client) ports.RateLimiter {
	return &Limiter{client: client}
}

func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (time.Duration, error) {
	remaining, err := allowScript.Run(ctx, l.client, []string{key}, window.Milliseconds(), limit).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if remaining <= 0 {
		return 0, nil
	}
	return time.Duration(remaining) * time.Millisecond, nil
}
