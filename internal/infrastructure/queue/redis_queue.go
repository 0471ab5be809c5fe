package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/ports"
)

const defaultQueueKey = "sync:jobs"

// RedisQueue is a FIFO job queue on a redis list. Producers LPUSH, the
// worker BRPOPs; jobs survive process restarts and are shared across
// worker instances.
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client, key: defaultQueueKey}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job domain.SyncJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal sync job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue sync job: %w", err)
	}
	return nil
}

// Dequeue blocks until a job is available or ctx is cancelled. The short
// poll timeout keeps cancellation responsive since BRPOP itself does not
// observe ctx once issued.
func (q *RedisQueue) Dequeue(ctx context.Context) (domain.SyncJob, error) {
	for {
		result, err := q.client.BRPop(ctx, 2*time.Second, q.key).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return domain.SyncJob{}, ctx.Err()
			}
			continue
		}
		if err != nil {
			return domain.SyncJob{}, fmt.Errorf("failed to dequeue sync job: %w", err)
		}
		var job domain.SyncJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			return domain.SyncJob{}, fmt.Errorf("failed to unmarshal sync job: %w", err)
		}
		return job, nil
	}
}

var _ ports.SyncQueue = (*RedisQueue)(nil)
