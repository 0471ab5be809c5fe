package application

import (
	"context"
	"errors"
	"time"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/ports"

	"github.com/rs/zerolog"
)

// SyncWorker consumes the sync queue and executes runs. It also sweeps
// integrations whose status got stuck in a running state, for example after
// a crash mid-sync or a remote call that never returned.
type SyncWorker struct {
	queue        ports.SyncQueue
	sync         *SyncService
	integrations ports.IntegrationRepository
	staleAfter   time.Duration
	logger       zerolog.Logger
}

// NewSyncWorker creates a worker. staleAfter governs the stale-status sweep;
// zero disables it.
func NewSyncWorker(
	queue ports.SyncQueue,
	sync *SyncService,
	integrations ports.IntegrationRepository,
	staleAfter time.Duration,
	logger zerolog.Logger,
) *SyncWorker {
	return &SyncWorker{
		queue:        queue,
		sync:         sync,
		integrations: integrations,
		staleAfter:   staleAfter,
		logger:       logger,
	}
}

// Run blocks consuming jobs until ctx is cancelled. Job failures are logged
// and absorbed; the terminal outcome of each run lives in the integration's
// sync_status.
func (w *SyncWorker) Run(ctx context.Context) {
	w.logger.Info().Msg("Sync worker started")
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info().Msg("Sync worker stopped")
				return
			}
			w.logger.Error().Err(err).Msg("Failed to dequeue sync job")
			continue
		}

		if err := w.sync.RunSync(ctx, job.IntegrationID, job.CompanyID); err != nil {
			if errors.Is(err, domain.ErrSyncInProgress) {
				continue // already logged by the orchestrator
			}
			w.logger.Error().Err(err).
				Str("integrationId", job.IntegrationID).
				Str("trigger", string(job.Trigger)).
				Msg("Sync job failed")
		}
	}
}

// RunStaleSweep periodically resets integrations stuck in a running status
// back to error so the next trigger can claim them.
func (w *SyncWorker) RunStaleSweep(ctx context.Context, interval time.Duration) {
	if w.staleAfter <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reset, err := w.integrations.ResetStale(ctx, w.staleAfter)
			if err != nil {
				w.logger.Error().Err(err).Msg("Stale status sweep failed")
				continue
			}
			if reset > 0 {
				w.logger.Warn().Int64("reset", reset).Msg("Reset stale sync statuses")
			}
		}
	}
}
