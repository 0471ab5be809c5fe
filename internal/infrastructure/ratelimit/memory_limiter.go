package ratelimit

import (
	"context"
	"sync"
	"time"

	"invochat-core-sync-layer/internal/ports"
)

// MemoryLimiter mirrors RedisLimiter semantics in-process. It backs tests
// and single-instance deployments that run without redis.
type MemoryLimiter struct {
	mu       sync.Mutex
	rules    map[string]Rule
	attempts map[string][]time.Time
	now      func() time.Time
}

func NewMemoryLimiter(rules map[string]Rule) *MemoryLimiter {
	if rules == nil {
		rules = DefaultRules
	}
	return &MemoryLimiter{
		rules:    rules,
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

func (l *MemoryLimiter) rule(action string) Rule {
	if r, ok := l.rules[action]; ok {
		return r
	}
	return l.rules["default"]
}

func (l *MemoryLimiter) Allow(_ context.Context, identifier, action string) (bool, error) {
	rule := l.rule(action)
	key := action + ":" + identifier
	now := l.now()
	windowStart := now.Add(-rule.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.attempts[key][:0]
	for _, at := range l.attempts[key] {
		if at.After(windowStart) {
			kept = append(kept, at)
		}
	}
	kept = append(kept, now)
	l.attempts[key] = kept
	return len(kept) <= rule.Limit, nil
}

var _ ports.RateLimiter = (*MemoryLimiter)(nil)
