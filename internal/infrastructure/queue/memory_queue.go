package queue

import (
	"context"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/ports"
)

// MemoryQueue is a channel-backed queue for tests and single-process runs.
type MemoryQueue struct {
	jobs chan domain.SyncJob
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 128
	}
	return &MemoryQueue{jobs: make(chan domain.SyncJob, capacity)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job domain.SyncJob) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (domain.SyncJob, error) {
	select {
	case job := <-q.jobs:
		return job, nil
	case <-ctx.Done():
		return domain.SyncJob{}, ctx.Err()
	}
}

// Len reports the number of queued jobs, for tests.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}

var _ ports.SyncQueue = (*MemoryQueue)(nil)
