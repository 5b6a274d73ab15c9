package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// slidingWindowScript trims expired entries, counts the remainder and only
// records the new attempt when the quota allows it. Running it as one script
// keeps check-and-increment atomic across concurrent callers.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
local count = redis.call("ZCARD", key)
if count < limit then
    redis.call("ZADD", key, now, member)
    redis.call("PEXPIRE", key, window)
    return 1
end
return 0
`)

// RedisLimiter implements the sliding-window quota on a shared Redis
// counter store. It is the production implementation: consistency across
// concurrent callers with the same key is delegated to Redis.
type RedisLimiter struct {
	client *redis.Client
	policy Policy
	prefix string
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter connects to Redis and verifies the connection.
func NewRedisLimiter(ctx context.Context, opts *redis.Options, policy Policy) (*RedisLimiter, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisLimiter{
		client: client,
		policy: policy,
		prefix: "ratelimit:",
	}, nil
}

// Allow reports whether the keyed caller may act now, recording the attempt
// when allowed.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now().UnixMilli()
	res, err := slidingWindowScript.Run(ctx, l.client,
		[]string{l.prefix + key},
		now,
		l.policy.Window.Milliseconds(),
		l.policy.Limit,
		uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check: %w", err)
	}
	return res == 1, nil
}

// Close releases the Redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
