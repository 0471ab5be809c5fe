package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/infrastructure/metrics"
	"invochat-core-sync-layer/internal/ports"

	"github.com/rs/zerolog"
)

// CacheTags are the per-company response-cache namespaces invalidated after
// a successful sync.
var CacheTags = []string{"dashboard", "alerts", "deadstock", "inventory", "suppliers"}

// SyncService orchestrates a full sync run: claim the integration, pull the
// remote catalog and order history page by page, upsert into the internal
// store, and land a terminal status. Runs execute on the worker, detached
// from the HTTP request that triggered them; failures surface only through
// the persisted sync_status and logs.
type SyncService struct {
	integrations ports.IntegrationRepository
	catalog      ports.CatalogRepository
	vault        ports.SecretVault
	clients      ports.PlatformClientFactory
	cache        ports.CacheInvalidator
	reports      ports.ReportRefresher
	queue        ports.SyncQueue
	metrics      *metrics.SyncMetrics
	logger       zerolog.Logger
}

// NewSyncService creates a new sync orchestrator.
func NewSyncService(
	integrations ports.IntegrationRepository,
	catalog ports.CatalogRepository,
	vault ports.SecretVault,
	clients ports.PlatformClientFactory,
	cache ports.CacheInvalidator,
	reports ports.ReportRefresher,
	queue ports.SyncQueue,
	m *metrics.SyncMetrics,
	logger zerolog.Logger,
) *SyncService {
	return &SyncService{
		integrations: integrations,
		catalog:      catalog,
		vault:        vault,
		clients:      clients,
		cache:        cache,
		reports:      reports,
		queue:        queue,
		metrics:      m,
		logger:       logger,
	}
}

// Dispatch enqueues a sync job for the worker and returns once the job is
// queued. The HTTP caller sees success at this point regardless of how the
// run later ends.
func (s *SyncService) Dispatch(ctx context.Context, integration *domain.Integration, trigger domain.SyncTrigger) error {
	job := domain.SyncJob{
		IntegrationID: integration.ID,
		CompanyID:     integration.CompanyID,
		Platform:      integration.Platform,
		Trigger:       trigger,
		EnqueuedAt:    time.Now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue sync job: %w", err)
	}
	s.logger.Info().
		Str("integrationId", integration.ID).
		Str("companyId", integration.CompanyID).
		Str("platform", integration.Platform.String()).
		Str("trigger", string(trigger)).
		Msg("Sync job enqueued")
	return nil
}

// RunSync executes one sync run for an integration. Re-running a failed sync
// from scratch is always safe: every write is an upsert keyed on the remote
// external id.
func (s *SyncService) RunSync(ctx context.Context, integrationID, companyID string) error {
	started := time.Now()

	integration, err := s.integrations.GetByID(ctx, integrationID)
	if err != nil {
		return fmt.Errorf("failed to load integration %s: %w", integrationID, err)
	}
	// A company can only sync its own integration.
	if integration.CompanyID != companyID {
		return domain.ErrNotFound
	}

	log := s.logger.With().
		Str("integrationId", integration.ID).
		Str("companyId", integration.CompanyID).
		Str("platform", integration.Platform.String()).
		Logger()

	// Claim the integration. The check-and-set serializes concurrent
	// triggers for the same integration: losers drop out here without
	// touching catalog or status state.
	err = s.integrations.TransitionStatus(ctx, integration.ID, domain.StartableStatuses(), domain.SyncStatusCredentialsCheck)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			log.Warn().Msg("Sync already running, dropping trigger")
			s.metrics.SyncRuns.WithLabelValues(integration.Platform.String(), "skipped").Inc()
			return err
		}
		return fmt.Errorf("failed to claim integration: %w", err)
	}

	if err := s.runClaimed(ctx, integration, log); err != nil {
		// Unconditional write: the run owns the status until it lands a
		// terminal state, whatever intermediate state it reached.
		if serr := s.integrations.SetStatus(ctx, integration.ID, domain.SyncStatusError); serr != nil {
			log.Error().Err(serr).Msg("Failed to persist error status")
		}
		log.Error().Err(err).Msg("Sync failed")
		s.metrics.SyncRuns.WithLabelValues(integration.Platform.String(), "error").Inc()
		return err
	}

	if err := s.integrations.MarkSyncSuccess(ctx, integration.ID, time.Now().UTC()); err != nil {
		log.Error().Err(err).Msg("Failed to persist success status")
		return err
	}

	if err := s.cache.InvalidateCompany(ctx, integration.CompanyID, CacheTags...); err != nil {
		// Stale cache, not stale data. The sync itself succeeded.
		log.Warn().Err(err).Msg("Cache invalidation failed after sync")
	}
	if err := s.reports.RefreshCompanyMetrics(ctx, integration.CompanyID); err != nil {
		log.Warn().Err(err).Msg("Materialized view refresh failed after sync")
	}

	s.metrics.SyncRuns.WithLabelValues(integration.Platform.String(), "success").Inc()
	s.metrics.SyncDuration.WithLabelValues(integration.Platform.String()).Observe(time.Since(started).Seconds())
	log.Info().Dur("took", time.Since(started)).Msg("Sync completed")
	return nil
}

// runClaimed is the body of a sync run once the integration is claimed. Any
// error returned here lands the error status in RunSync.
func (s *SyncService) runClaimed(ctx context.Context, integration *domain.Integration, log zerolog.Logger) error {
	// Credentials are decrypted immediately before use and go out of scope
	// with this call.
	creds, err := s.vault.Get(ctx, integration.CompanyID, integration.Platform)
	if err != nil {
		return fmt.Errorf("credentials check failed: %w", err)
	}

	client, err := s.clients.ClientFor(integration.Platform)
	if err != nil {
		return err
	}

	if err := s.integrations.TransitionStatus(ctx, integration.ID,
		[]domain.SyncStatus{domain.SyncStatusCredentialsCheck}, domain.SyncStatusSyncingProducts); err != nil {
		return fmt.Errorf("failed to enter syncing_products: %w", err)
	}
	if err := s.syncProducts(ctx, integration, client.Products(creds), log); err != nil {
		return err
	}

	// Orders reference variants, so products always finish first.
	if err := s.integrations.TransitionStatus(ctx, integration.ID,
		[]domain.SyncStatus{domain.SyncStatusSyncingProducts}, domain.SyncStatusSyncingSales); err != nil {
		return fmt.Errorf("failed to enter syncing_sales: %w", err)
	}
	if err := s.syncOrders(ctx, integration, client.Orders(creds), log); err != nil {
		return err
	}
	return nil
}

func (s *SyncService) syncProducts(ctx context.Context, integration *domain.Integration, pager ports.ProductPager, log zerolog.Logger) error {
	count := 0
	for {
		page, ok, err := pager.Next(ctx)
		if err != nil {
			return fmt.Errorf("product fetch failed: %w", err)
		}
		if !ok {
			break
		}
		s.metrics.PagesFetched.WithLabelValues(integration.Platform.String(), "products").Inc()

		for i := range page {
			product := &page[i]
			product.CompanyID = integration.CompanyID
			product.Platform = integration.Platform
			for j := range product.Variants {
				product.Variants[j].CompanyID = integration.CompanyID
				product.Variants[j].Platform = integration.Platform
			}
			if err := s.catalog.UpsertProduct(ctx, product); err != nil {
				return fmt.Errorf("product upsert failed for %s: %w", product.ExternalID, err)
			}
			count++
		}
	}
	log.Info().Int("products", count).Msg("Product sync done")
	return nil
}

func (s *SyncService) syncOrders(ctx context.Context, integration *domain.Integration, pager ports.OrderPager, log zerolog.Logger) error {
	count := 0
	for {
		page, ok, err := pager.Next(ctx)
		if err != nil {
			return fmt.Errorf("order fetch failed: %w", err)
		}
		if !ok {
			break
		}
		s.metrics.PagesFetched.WithLabelValues(integration.Platform.String(), "orders").Inc()

		for i := range page {
			order := &page[i]
			order.CompanyID = integration.CompanyID
			order.Platform = integration.Platform
			s.resolveLineItems(ctx, order, log)
			if err := s.catalog.RecordOrder(ctx, order); err != nil {
				return fmt.Errorf("order record failed for %s: %w", order.ExternalID, err)
			}
			count++
		}
	}
	log.Info().Int("orders", count).Msg("Order sync done")
	return nil
}

// resolveLineItems resolves each line's variant within the order's company
// scope. Lines whose variant cannot be found are dropped with a warning; a
// variant belonging to another company is treated the same as no match.
func (s *SyncService) resolveLineItems(ctx context.Context, order *domain.Order, log zerolog.Logger) {
	resolved := order.LineItems[:0]
	for _, line := range order.LineItems {
		variant, err := s.catalog.FindVariant(ctx, order.CompanyID, order.Platform, line.SKU, line.ExternalVariantID)
		if err != nil {
			log.Warn().
				Str("orderId", order.ExternalID).
				Str("sku", line.SKU).
				Str("externalVariantId", line.ExternalVariantID).
				Msg("Order line references unknown variant, skipping line")
			continue
		}
		line.VariantID = variant.ID
		if line.CostAtTimeCents == 0 {
			line.CostAtTimeCents = variant.CostCents
		}
		resolved = append(resolved, line)
	}
	order.LineItems = resolved
}
