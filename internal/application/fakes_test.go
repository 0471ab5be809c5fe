package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/ports"
)

// In-memory doubles for the repository and service ports. They reproduce
// the semantics the mongo implementations get from unique indexes: CAS on
// sync_status, insert-or-conflict on the webhook ledger, company-scoped
// variant lookup.

type fakeIntegrationRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Integration
}

func newFakeIntegrationRepo(integrations ...*domain.Integration) *fakeIntegrationRepo {
	r := &fakeIntegrationRepo{byID: make(map[string]*domain.Integration)}
	for _, in := range integrations {
		cp := *in
		r.byID[in.ID] = &cp
	}
	return r
}

func (r *fakeIntegrationRepo) Upsert(_ context.Context, integration *domain.Integration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.CompanyID == integration.CompanyID && existing.Platform == integration.Platform {
			integration.ID = existing.ID
			integration.CreatedAt = existing.CreatedAt
			break
		}
	}
	cp := *integration
	r.byID[integration.ID] = &cp
	return nil
}

func (r *fakeIntegrationRepo) GetByID(_ context.Context, id string) (*domain.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *in
	return &cp, nil
}

func (r *fakeIntegrationRepo) GetByCompanyAndPlatform(_ context.Context, companyID string, platform domain.Platform) (*domain.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.byID {
		if in.CompanyID == companyID && in.Platform == platform {
			cp := *in
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeIntegrationRepo) GetByShopDomain(_ context.Context, platform domain.Platform, shopDomain string) (*domain.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.byID {
		if in.Platform == platform && in.ShopDomain == shopDomain {
			cp := *in
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeIntegrationRepo) ListByCompany(_ context.Context, companyID string) ([]*domain.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Integration
	for _, in := range r.byID {
		if in.CompanyID == companyID {
			cp := *in
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeIntegrationRepo) TransitionStatus(_ context.Context, id string, from []domain.SyncStatus, to domain.SyncStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	for _, f := range from {
		if in.SyncStatus == f {
			in.SyncStatus = to
			in.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return domain.ErrSyncInProgress
}

func (r *fakeIntegrationRepo) SetStatus(_ context.Context, id string, to domain.SyncStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	in.SyncStatus = to
	return nil
}

func (r *fakeIntegrationRepo) MarkSyncSuccess(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	in.SyncStatus = domain.SyncStatusSuccess
	in.LastSyncAt = &at
	return nil
}

func (r *fakeIntegrationRepo) ResetStale(_ context.Context, maxAge time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	var reset int64
	for _, in := range r.byID {
		if in.SyncStatus.Running() && in.UpdatedAt.Before(cutoff) {
			in.SyncStatus = domain.SyncStatusError
			reset++
		}
	}
	return reset, nil
}

func (r *fakeIntegrationRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

var _ ports.IntegrationRepository = (*fakeIntegrationRepo)(nil)

type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]domain.Product // keyed by external id
	variants []domain.Variant
	orders   map[string]domain.Order // keyed by external order id
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: make(map[string]domain.Product),
		orders:   make(map[string]domain.Order),
	}
}

func (c *fakeCatalog) UpsertProduct(_ context.Context, product *domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[product.ExternalID] = *product
	for _, v := range product.Variants {
		// InventoryQuantity seeds from the remote figure on insert and then
		// belongs to recorded sales; re-upserts keep the stored value and
		// only refresh the remote snapshot.
		v.RemoteQuantity = v.InventoryQuantity
		replaced := false
		for i := range c.variants {
			if c.variants[i].CompanyID == v.CompanyID && c.variants[i].ExternalID == v.ExternalID {
				v.ID = c.variants[i].ID
				v.InventoryQuantity = c.variants[i].InventoryQuantity
				c.variants[i] = v
				replaced = true
				break
			}
		}
		if !replaced {
			if v.ID == "" {
				v.ID = fmt.Sprintf("var-%d", len(c.variants)+1)
			}
			c.variants = append(c.variants, v)
		}
	}
	return nil
}

func (c *fakeCatalog) FindVariant(_ context.Context, companyID string, platform domain.Platform, sku, externalVariantID string) (*domain.Variant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sku != "" {
		for i := range c.variants {
			v := &c.variants[i]
			if v.CompanyID == companyID && v.Platform == platform && v.SKU == sku {
				cp := *v
				return &cp, nil
			}
		}
	}
	if externalVariantID != "" {
		for i := range c.variants {
			v := &c.variants[i]
			if v.CompanyID == companyID && v.Platform == platform && v.ExternalID == externalVariantID {
				cp := *v
				return &cp, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (c *fakeCatalog) RecordOrder(_ context.Context, order *domain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, seen := c.orders[order.ExternalID]
	recorded := map[string]bool{}
	if seen {
		for _, line := range existing.LineItems {
			recorded[line.ExternalLineID] = true
		}
	}
	for _, line := range order.LineItems {
		if recorded[line.ExternalLineID] || line.VariantID == "" {
			continue
		}
		for i := range c.variants {
			if c.variants[i].ID == line.VariantID {
				c.variants[i].InventoryQuantity -= line.Quantity
			}
		}
	}
	c.orders[order.ExternalID] = *order
	return nil
}

var _ ports.CatalogRepository = (*fakeCatalog)(nil)

type fakeVault struct {
	mu    sync.Mutex
	creds map[string]domain.Credentials
}

func newFakeVault() *fakeVault {
	return &fakeVault{creds: make(map[string]domain.Credentials)}
}

func vaultKey(companyID string, platform domain.Platform) string {
	return companyID + "/" + string(platform)
}

func (v *fakeVault) Store(_ context.Context, companyID string, platform domain.Platform, creds domain.Credentials) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.creds[vaultKey(companyID, platform)] = creds
	return nil
}

func (v *fakeVault) Get(_ context.Context, companyID string, platform domain.Platform) (domain.Credentials, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	creds, ok := v.creds[vaultKey(companyID, platform)]
	if !ok {
		return domain.Credentials{}, domain.ErrMissingCredentials
	}
	return creds, nil
}

func (v *fakeVault) Delete(_ context.Context, companyID string, platform domain.Platform) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.creds, vaultKey(companyID, platform))
	return nil
}

var _ ports.SecretVault = (*fakeVault)(nil)

type fakeLedger struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{seen: make(map[string]bool)}
}

func (l *fakeLedger) RecordIfNew(_ context.Context, event *domain.WebhookEvent) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := event.IntegrationID + "/" + event.WebhookID
	if l.seen[key] {
		return false, nil
	}
	l.seen[key] = true
	return true, nil
}

var _ ports.WebhookLedger = (*fakeLedger)(nil)

type fakeQueue struct {
	mu   sync.Mutex
	jobs []domain.SyncJob
}

func (q *fakeQueue) Enqueue(_ context.Context, job domain.SyncJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context) (domain.SyncJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return domain.SyncJob{}, ctx.Err()
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, nil
}

func (q *fakeQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

var _ ports.SyncQueue = (*fakeQueue)(nil)

type fakeCache struct {
	mu          sync.Mutex
	invalidated map[string][]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{invalidated: make(map[string][]string)}
}

func (c *fakeCache) InvalidateCompany(_ context.Context, companyID string, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated[companyID] = append(c.invalidated[companyID], tags...)
	return nil
}

var _ ports.CacheInvalidator = (*fakeCache)(nil)

type fakeReports struct {
	mu        sync.Mutex
	refreshed []string
}

func (r *fakeReports) RefreshCompanyMetrics(_ context.Context, companyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshed = append(r.refreshed, companyID)
	return nil
}

var _ ports.ReportRefresher = (*fakeReports)(nil)

// stubPager yields preconfigured pages and can inject a failure before a
// given page number.
type stubProductPager struct {
	pages  [][]domain.Product
	failAt int // 1-based page index that fails; 0 disables
	calls  *int
	pos    int
}

func (p *stubProductPager) Next(_ context.Context) ([]domain.Product, bool, error) {
	if p.calls != nil {
		*p.calls++
	}
	if p.failAt > 0 && p.pos+1 == p.failAt {
		return nil, false, fmt.Errorf("remote returned status 500")
	}
	if p.pos >= len(p.pages) {
		return nil, false, nil
	}
	page := p.pages[p.pos]
	p.pos++
	return page, true, nil
}

type stubOrderPager struct {
	pages  [][]domain.Order
	failAt int
	pos    int
}

func (p *stubOrderPager) Next(_ context.Context) ([]domain.Order, bool, error) {
	if p.failAt > 0 && p.pos+1 == p.failAt {
		return nil, false, fmt.Errorf("remote returned status 500")
	}
	if p.pos >= len(p.pages) {
		return nil, false, nil
	}
	page := p.pages[p.pos]
	p.pos++
	return page, true, nil
}

type stubClient struct {
	platform     domain.Platform
	productPages [][]domain.Product
	orderPages   [][]domain.Order
	failProducts int
	failOrders   int
	pagerCalls   int
}

func (c *stubClient) Platform() domain.Platform { return c.platform }

func (c *stubClient) Products(domain.Credentials) ports.ProductPager {
	return &stubProductPager{pages: c.productPages, failAt: c.failProducts, calls: &c.pagerCalls}
}

func (c *stubClient) Orders(domain.Credentials) ports.OrderPager {
	return &stubOrderPager{pages: c.orderPages, failAt: c.failOrders}
}

var _ ports.PlatformClient = (*stubClient)(nil)

type stubFactory struct {
	client ports.PlatformClient
}

func (f *stubFactory) ClientFor(p domain.Platform) (ports.PlatformClient, error) {
	if f.client == nil || f.client.Platform() != p {
		return nil, domain.ErrUnknownPlatform
	}
	return f.client, nil
}

var _ ports.PlatformClientFactory = (*stubFactory)(nil)
