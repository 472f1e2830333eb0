package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medoffice/scheduling/internal/clock"
)

// incrScript counts a hit and starts the window's TTL on the first one, as a
// single atomic step on the Redis side.
var incrScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// RedisStore shares window state across processes, making the quota global
// where MemoryStore would be per process. Expiry is delegated to key TTLs.
type RedisStore struct {
	client *redis.Client
	clock  clock.Clock
}

func NewRedisStore(client *redis.Client, clk clock.Clock) *RedisStore {
	if clk == nil {
		clk = clock.System()
	}
	return &RedisStore{
		client: client,
		clock:  clk,
	}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (Entry, error) {
	res, err := incrScript.Run(ctx, s.client, []string{redisKey(key)}, window.Milliseconds()).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("ratelimit incr: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return Entry{}, fmt.Errorf("ratelimit incr: unexpected script reply %T", res)
	}
	count, _ := vals[0].(int64)
	ttlMs, _ := vals[1].(int64)
	if ttlMs < 0 {
		ttlMs = window.Milliseconds()
	}

	return Entry{
		Count:   int(count),
		ResetAt: s.clock.Now().Add(time.Duration(ttlMs) * time.Millisecond),
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("ratelimit delete: %w", err)
	}
	return nil
}

func redisKey(key string) string {
	return "ratelimit:" + key
}
