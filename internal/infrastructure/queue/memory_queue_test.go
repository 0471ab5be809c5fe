package queue

import (
	"context"
	"testing"
	"time"

	"invochat-core-sync-layer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueFIFO(t *testing.T) {
	q := NewMemoryQueue(4)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, domain.SyncJob{IntegrationID: "a"}))
	require.NoError(t, q.Enqueue(ctx, domain.SyncJob{IntegrationID: "b"}))
	assert.Equal(t, 2, q.Len())

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", job.IntegrationID)
	job, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", job.IntegrationID)
}

func TestMemoryQueueDequeueObservesCancellation(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
