package ports

import (
	"context"
	"time"

	"invochat-core-sync-layer/internal/domain"
)

// IntegrationRepository persists integrations and their sync lifecycle.
// Status writes go through TransitionStatus so concurrent syncs for the same
// integration serialize on a check-and-set instead of clobbering each other.
type IntegrationRepository interface {
	// Upsert creates or updates the integration keyed on (company, platform).
	// When the key already exists, the stored id and created_at win: the
	// passed integration is updated in place to the persisted identity.
	Upsert(ctx context.Context, integration *domain.Integration) error

	// GetByID returns the integration or domain.ErrNotFound.
	GetByID(ctx context.Context, id string) (*domain.Integration, error)

	// GetByCompanyAndPlatform returns the integration or domain.ErrNotFound.
	GetByCompanyAndPlatform(ctx context.Context, companyID string, platform domain.Platform) (*domain.Integration, error)

	// GetByShopDomain resolves a webhook's target integration or returns
	// domain.ErrNotFound.
	GetByShopDomain(ctx context.Context, platform domain.Platform, shopDomain string) (*domain.Integration, error)

	// ListByCompany returns all of a company's integrations.
	ListByCompany(ctx context.Context, companyID string) ([]*domain.Integration, error)

	// TransitionStatus sets sync_status to `to` only if the current status is
	// one of `from`. Returns domain.ErrSyncInProgress when the check fails.
	TransitionStatus(ctx context.Context, id string, from []domain.SyncStatus, to domain.SyncStatus) error

	// SetStatus sets sync_status unconditionally. Used for the error
	// transition, which must land regardless of the observed state.
	SetStatus(ctx context.Context, id string, to domain.SyncStatus) error

	// MarkSyncSuccess sets sync_status to success and records last_sync_at.
	MarkSyncSuccess(ctx context.Context, id string, at time.Time) error

	// ResetStale flips integrations stuck in a running status for longer
	// than maxAge back to error. Returns the number reset.
	ResetStale(ctx context.Context, maxAge time.Duration) (int64, error)

	// Delete removes the integration. Only the explicit disconnect flow
	// calls this.
	Delete(ctx context.Context, id string) error
}

// CatalogRepository persists the normalized product, variant and order data
// a sync run writes. All upserts are idempotent on
// (company_id, platform, external_id).
type CatalogRepository interface {
	// UpsertProduct writes the product and its variants.
	UpsertProduct(ctx context.Context, product *domain.Product) error

	// FindVariant resolves an order line's variant by SKU first, then by
	// external variant id, always inside companyID's scope. Returns
	// domain.ErrNotFound on a miss; a match in another company is a miss.
	FindVariant(ctx context.Context, companyID string, platform domain.Platform, sku, externalVariantID string) (*domain.Variant, error)

	// RecordOrder upserts the order keyed on
	// (company_id, platform, external_order_id) and decrements variant
	// inventory for line items not seen before. Re-recording an unchanged
	// order is a no-op. The operation is not internally atomic: it relies
	// on the sync_status check-and-set admitting a single sync run per
	// integration, making the caller the only concurrent writer of the
	// order and its inventory adjustments.
	RecordOrder(ctx context.Context, order *domain.Order) error
}

// WebhookLedger is the append-only idempotency ledger for webhook delivery.
type WebhookLedger interface {
	// RecordIfNew inserts the (integration, webhook id) pair and reports
	// whether it was the first delivery. A unique-key conflict means a
	// replay and returns accepted=false with no error.
	RecordIfNew(ctx context.Context, event *domain.WebhookEvent) (accepted bool, err error)
}

// SecretVault stores per-(company, platform) API credentials encrypted at
// rest. Get returns the decrypted form; callers must keep it scoped to the
// operation at hand.
type SecretVault interface {
	Store(ctx context.Context, companyID string, platform domain.Platform, creds domain.Credentials) error
	Get(ctx context.Context, companyID string, platform domain.Platform) (domain.Credentials, error)
	Delete(ctx context.Context, companyID string, platform domain.Platform) error
}
