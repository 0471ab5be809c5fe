package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"invochat-core-sync-layer/internal/ports"
)

// Rule bounds how many attempts an action allows within a rolling window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// DefaultRules covers the write paths the API throttles. Unknown actions
// fall back to the "default" rule.
var DefaultRules = map[string]Rule{
	"integration_connect": {Limit: 3, Window: time.Hour},
	"manual_sync":         {Limit: 10, Window: time.Hour},
	"default":             {Limit: 60, Window: time.Minute},
}

// RedisLimiter is a sliding-window limiter on redis sorted sets. Each
// (identifier, action) pair owns one set whose members are attempt
// timestamps; counting survives process restarts and is shared across
// instances.
type RedisLimiter struct {
	client *redis.Client
	rules  map[string]Rule
	now    func() time.Time
}

// NewRedisLimiter builds a limiter with the given per-action rules. Pass nil
// to use DefaultRules.
func NewRedisLimiter(client *redis.Client, rules map[string]Rule) *RedisLimiter {
	if rules == nil {
		rules = DefaultRules
	}
	return &RedisLimiter{client: client, rules: rules, now: time.Now}
}

func (l *RedisLimiter) rule(action string) Rule {
	if r, ok := l.rules[action]; ok {
		return r
	}
	return l.rules["default"]
}

// Allow records the attempt and reports whether it fits inside the window.
// The attempt is counted even when rejected, so hammering a limited endpoint
// keeps the window full.
func (l *RedisLimiter) Allow(ctx context.Context, identifier, action string) (bool, error) {
	rule := l.rule(action)
	key := fmt.Sprintf("ratelimit:%s:%s", action, identifier)
	now := l.now()
	windowStart := now.Add(-rule.Window)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, rule.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed for %s: %w", key, err)
	}
	return count.Val() <= int64(rule.Limit), nil
}

var _ ports.RateLimiter = (*RedisLimiter)(nil)
