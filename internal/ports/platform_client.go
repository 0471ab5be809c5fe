package ports

import (
	"context"

	"invochat-core-sync-layer/internal/domain"
)

// ProductPager streams one page of normalized products per call. Pages are
// fetched lazily and sequentially, so the orchestrator controls backpressure:
// at most one remote round-trip is in flight. The sequence is finite and
// non-restartable.
type ProductPager interface {
	// Next returns the next page. ok=false with a nil error marks the end of
	// the sequence. A non-2xx remote response aborts the sequence with an
	// error; pages already yielded stand.
	Next(ctx context.Context) (page []domain.Product, ok bool, err error)
}

// OrderPager is the order-side equivalent of ProductPager.
type OrderPager interface {
	Next(ctx context.Context) (page []domain.Order, ok bool, err error)
}

// PlatformClient fetches a remote store's catalog and order history using
// vault credentials, already mapped into the internal schema. Implementations
// exist for the closed set of supported platforms and carry no per-company
// state; credentials arrive per call.
type PlatformClient interface {
	Platform() domain.Platform
	Products(creds domain.Credentials) ProductPager
	Orders(creds domain.Credentials) OrderPager
}

// PlatformClientFactory selects the client for an integration's platform.
type PlatformClientFactory interface {
	ClientFor(platform domain.Platform) (PlatformClient, error)
}

// WebhookVerifier validates inbound webhook authenticity for one platform.
// Implementations fail closed: missing header or secret rejects.
type WebhookVerifier interface {
	// Verify checks the signature over the exact raw request body against
	// the platform-specific shared secret.
	Verify(rawBody []byte, signatureHeader, secret string) bool
}
