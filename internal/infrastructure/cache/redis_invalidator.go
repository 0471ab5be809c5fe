package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"invochat-core-sync-layer/internal/ports"
)

// RedisInvalidator drops tagged response caches for a company. Cached
// entries register themselves in a per-(company, tag) set; invalidating a
// tag deletes every registered key plus the set itself.
type RedisInvalidator struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRedisInvalidator(client *redis.Client, logger zerolog.Logger) *RedisInvalidator {
	return &RedisInvalidator{client: client, logger: logger}
}

func tagKey(companyID, tag string) string {
	return fmt.Sprintf("cache:tags:%s:%s", companyID, tag)
}

// InvalidateCompany removes all cache entries registered under the given
// tags for the company. Missing tags are a no-op.
func (i *RedisInvalidator) InvalidateCompany(ctx context.Context, companyID string, tags ...string) error {
	for _, tag := range tags {
		key := tagKey(companyID, tag)
		members, err := i.client.SMembers(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("failed to read cache tag %s: %w", key, err)
		}
		doomed := append(members, key)
		if err := i.client.Del(ctx, doomed...).Err(); err != nil {
			return fmt.Errorf("failed to invalidate cache tag %s: %w", key, err)
		}
		i.logger.Debug().
			Str("company_id", companyID).
			Str("tag", tag).
			Int("entries", len(members)).
			Msg("cache tag invalidated")
	}
	return nil
}

// Register adds a cache key under the company's tag so a later invalidation
// sweeps it. Read paths call this when they populate an entry.
func (i *RedisInvalidator) Register(ctx context.Context, companyID, tag, cacheKey string) error {
	if err := i.client.SAdd(ctx, tagKey(companyID, tag), cacheKey).Err(); err != nil {
		return fmt.Errorf("failed to register cache key under tag %s: %w", tag, err)
	}
	return nil
}

var _ ports.CacheInvalidator = (*RedisInvalidator)(nil)
