package application

import (
	"context"
	"testing"
	"time"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/infrastructure/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncFixture struct {
	svc          *SyncService
	integrations *fakeIntegrationRepo
	catalog      *fakeCatalog
	vault        *fakeVault
	cache        *fakeCache
	reports      *fakeReports
	queue        *fakeQueue
	client       *stubClient
}

func newSyncFixture(t *testing.T, integration *domain.Integration, client *stubClient) *syncFixture {
	t.Helper()
	f := &syncFixture{
		integrations: newFakeIntegrationRepo(integration),
		catalog:      newFakeCatalog(),
		vault:        newFakeVault(),
		cache:        newFakeCache(),
		reports:      &fakeReports{},
		queue:        &fakeQueue{},
		client:       client,
	}
	f.svc = NewSyncService(
		f.integrations,
		f.catalog,
		f.vault,
		&stubFactory{client: client},
		f.cache,
		f.reports,
		f.queue,
		metrics.New(prometheus.NewRegistry()),
		zerolog.Nop(),
	)
	return f
}

func shopifyIntegration() *domain.Integration {
	return &domain.Integration{
		ID:         "int-1",
		CompanyID:  "co-1",
		Platform:   domain.PlatformShopify,
		ShopName:   "Test Store",
		ShopDomain: "test-store.myshopify.com",
		IsActive:   true,
		SyncStatus: domain.SyncStatusIdle,
	}
}

func shopifyCreds() domain.Credentials {
	return domain.Credentials{
		ShopDomain:    "test-store.myshopify.com",
		AccessToken:   "shpat_test",
		WebhookSecret: "whsec",
	}
}

func productPage(ids ...string) []domain.Product {
	page := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		page = append(page, domain.Product{
			ExternalID: id,
			Title:      "Product " + id,
			Tags:       []string{},
			Variants: []domain.Variant{{
				ExternalID:        "v-" + id,
				SKU:               "SKU-" + id,
				PriceCents:        1999,
				CostCents:         750,
				InventoryQuantity: 10,
			}},
		})
	}
	return page
}

func TestRunSyncSuccess(t *testing.T) {
	client := &stubClient{
		platform:     domain.PlatformShopify,
		productPages: [][]domain.Product{productPage("p1", "p2"), productPage("p3")},
		orderPages: [][]domain.Order{{
			{
				ExternalID:  "o1",
				OrderNumber: "#1001",
				TotalCents:  1999,
				LineItems: []domain.OrderLineItem{{
					ExternalLineID: "l1",
					SKU:            "SKU-p1",
					Quantity:       2,
					PriceCents:     1999,
				}},
			},
		}},
	}
	f := newSyncFixture(t, shopifyIntegration(), client)
	require.NoError(t, f.vault.Store(context.Background(), "co-1", domain.PlatformShopify, shopifyCreds()))

	err := f.svc.RunSync(context.Background(), "int-1", "co-1")
	require.NoError(t, err)

	got, err := f.integrations.GetByID(context.Background(), "int-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSuccess, got.SyncStatus)
	require.NotNil(t, got.LastSyncAt)
	assert.WithinDuration(t, time.Now(), *got.LastSyncAt, time.Minute)

	assert.Len(t, f.catalog.products, 3)
	assert.Equal(t, "co-1", f.catalog.products["p1"].CompanyID)
	assert.Equal(t, domain.PlatformShopify, f.catalog.products["p1"].Platform)

	// The order line resolved to the synced variant and the sale moved stock.
	order := f.catalog.orders["o1"]
	require.Len(t, order.LineItems, 1)
	assert.NotEmpty(t, order.LineItems[0].VariantID)
	assert.Equal(t, int64(750), order.LineItems[0].CostAtTimeCents)
	variant, err := f.catalog.FindVariant(context.Background(), "co-1", domain.PlatformShopify, "SKU-p1", "")
	require.NoError(t, err)
	assert.Equal(t, 8, variant.InventoryQuantity)
	assert.Equal(t, 10, variant.RemoteQuantity)

	assert.ElementsMatch(t, CacheTags, f.cache.invalidated["co-1"])
	assert.Equal(t, []string{"co-1"}, f.reports.refreshed)
}

func TestRunSyncSecondPageFailureKeepsFirstPage(t *testing.T) {
	client := &stubClient{
		platform:     domain.PlatformShopify,
		productPages: [][]domain.Product{productPage("p1", "p2"), productPage("p3")},
		failProducts: 2,
	}
	f := newSyncFixture(t, shopifyIntegration(), client)
	require.NoError(t, f.vault.Store(context.Background(), "co-1", domain.PlatformShopify, shopifyCreds()))

	err := f.svc.RunSync(context.Background(), "int-1", "co-1")
	require.Error(t, err)

	got, err := f.integrations.GetByID(context.Background(), "int-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusError, got.SyncStatus)
	assert.Nil(t, got.LastSyncAt)

	// Page one landed before the failure and stays.
	assert.Len(t, f.catalog.products, 2)
	assert.Empty(t, f.cache.invalidated)
	assert.Empty(t, f.reports.refreshed)
}

func TestRunSyncMissingCredentialsAbortsBeforeAnyFetch(t *testing.T) {
	client := &stubClient{
		platform:     domain.PlatformShopify,
		productPages: [][]domain.Product{productPage("p1")},
	}
	f := newSyncFixture(t, shopifyIntegration(), client)

	err := f.svc.RunSync(context.Background(), "int-1", "co-1")
	require.ErrorIs(t, err, domain.ErrMissingCredentials)

	assert.Zero(t, client.pagerCalls)
	assert.Empty(t, f.catalog.products)

	got, err := f.integrations.GetByID(context.Background(), "int-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusError, got.SyncStatus)
}

func TestRunSyncFetchesExactlyOnePastFinalPage(t *testing.T) {
	client := &stubClient{
		platform:     domain.PlatformShopify,
		productPages: [][]domain.Product{productPage("p1"), productPage("p2"), productPage("p3")},
	}
	f := newSyncFixture(t, shopifyIntegration(), client)
	require.NoError(t, f.vault.Store(context.Background(), "co-1", domain.PlatformShopify, shopifyCreds()))

	require.NoError(t, f.svc.RunSync(context.Background(), "int-1", "co-1"))

	// Three pages plus the terminating call that reports the end.
	assert.Equal(t, 4, client.pagerCalls)
}

func TestRunSyncRejectsConcurrentRun(t *testing.T) {
	integration := shopifyIntegration()
	integration.SyncStatus = domain.SyncStatusSyncingProducts
	client := &stubClient{platform: domain.PlatformShopify}
	f := newSyncFixture(t, integration, client)
	require.NoError(t, f.vault.Store(context.Background(), "co-1", domain.PlatformShopify, shopifyCreds()))

	err := f.svc.RunSync(context.Background(), "int-1", "co-1")
	require.ErrorIs(t, err, domain.ErrSyncInProgress)

	// Losing the claim must not clobber the running status.
	got, err := f.integrations.GetByID(context.Background(), "int-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSyncingProducts, got.SyncStatus)
	assert.Zero(t, client.pagerCalls)
}

func TestRunSyncOtherCompanyLooksLikeNotFound(t *testing.T) {
	client := &stubClient{platform: domain.PlatformShopify}
	f := newSyncFixture(t, shopifyIntegration(), client)

	err := f.svc.RunSync(context.Background(), "int-1", "someone-else")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunSyncTwiceIsIdempotent(t *testing.T) {
	order := domain.Order{
		ExternalID: "o1",
		LineItems: []domain.OrderLineItem{{
			ExternalLineID: "l1",
			SKU:            "SKU-p1",
			Quantity:       3,
		}},
	}
	client := &stubClient{
		platform:     domain.PlatformShopify,
		productPages: [][]domain.Product{productPage("p1")},
		orderPages:   [][]domain.Order{{order}},
	}
	f := newSyncFixture(t, shopifyIntegration(), client)
	require.NoError(t, f.vault.Store(context.Background(), "co-1", domain.PlatformShopify, shopifyCreds()))

	require.NoError(t, f.svc.RunSync(context.Background(), "int-1", "co-1"))
	afterFirst := append([]domain.Variant(nil), f.catalog.variants...)

	require.NoError(t, f.svc.RunSync(context.Background(), "int-1", "co-1"))

	assert.Len(t, f.catalog.products, 1)
	assert.Len(t, f.catalog.orders, 1)

	// Inventory moved once for the line, not once per run. In particular the
	// second run's variant upsert must not restore the stock the recorded
	// sale consumed.
	variant, err := f.catalog.FindVariant(context.Background(), "co-1", domain.PlatformShopify, "SKU-p1", "")
	require.NoError(t, err)
	assert.Equal(t, 7, variant.InventoryQuantity)
	assert.Equal(t, 10, variant.RemoteQuantity)

	// The whole variant table is unchanged by the second run.
	assert.Equal(t, afterFirst, f.catalog.variants)
}

func TestRunSyncDropsUnresolvableOrderLines(t *testing.T) {
	client := &stubClient{
		platform:     domain.PlatformShopify,
		productPages: [][]domain.Product{productPage("p1")},
		orderPages: [][]domain.Order{{
			{
				ExternalID: "o1",
				LineItems: []domain.OrderLineItem{
					{ExternalLineID: "l1", SKU: "SKU-p1", Quantity: 1},
					{ExternalLineID: "l2", SKU: "SKU-unknown", Quantity: 1},
				},
			},
		}},
	}
	f := newSyncFixture(t, shopifyIntegration(), client)
	require.NoError(t, f.vault.Store(context.Background(), "co-1", domain.PlatformShopify, shopifyCreds()))

	require.NoError(t, f.svc.RunSync(context.Background(), "int-1", "co-1"))

	order := f.catalog.orders["o1"]
	require.Len(t, order.LineItems, 1)
	assert.Equal(t, "l1", order.LineItems[0].ExternalLineID)
}

func TestDispatchEnqueuesJob(t *testing.T) {
	client := &stubClient{platform: domain.PlatformShopify}
	f := newSyncFixture(t, shopifyIntegration(), client)

	integration := shopifyIntegration()
	require.NoError(t, f.svc.Dispatch(context.Background(), integration, domain.TriggerManual))

	require.Equal(t, 1, f.queue.len())
	job, err := f.queue.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "int-1", job.IntegrationID)
	assert.Equal(t, "co-1", job.CompanyID)
	assert.Equal(t, domain.TriggerManual, job.Trigger)
}
