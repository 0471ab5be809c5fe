package api

import (
	"net/http"
	"time"

	"invochat-core-sync-layer/internal/domain"
)

// webhookDeliveryFromRequest assembles a WebhookDelivery from the platform's
// signature headers. The second return is false when the request carries no
// signature header, which routes it to the session-authenticated path
// instead.
func webhookDeliveryFromRequest(r *http.Request, platform domain.Platform, rawBody []byte) (*domain.WebhookDelivery, bool) {
	switch platform {
	case domain.PlatformShopify:
		signature := r.Header.Get("X-Shopify-Hmac-Sha256")
		if signature == "" {
			return nil, false
		}
		return &domain.WebhookDelivery{
			Platform:    platform,
			RawBody:     rawBody,
			Signature:   signature,
			WebhookID:   r.Header.Get("X-Shopify-Webhook-Id"),
			ShopDomain:  r.Header.Get("X-Shopify-Shop-Domain"),
			Topic:       r.Header.Get("X-Shopify-Topic"),
			TriggeredAt: parseTriggeredAt(r.Header.Get("X-Shopify-Triggered-At")),
		}, true
	case domain.PlatformWooCommerce:
		signature := r.Header.Get("X-WC-Webhook-Signature")
		if signature == "" {
			return nil, false
		}
		webhookID := r.Header.Get("X-WC-Webhook-Delivery-ID")
		if webhookID == "" {
			webhookID = r.Header.Get("X-WC-Webhook-ID")
		}
		return &domain.WebhookDelivery{
			Platform:   platform,
			RawBody:    rawBody,
			Signature:  signature,
			WebhookID:  webhookID,
			ShopDomain: r.Header.Get("X-WC-Webhook-Source"),
			Topic:      r.Header.Get("X-WC-Webhook-Topic"),
		}, true
	}
	return nil, false
}

// parseTriggeredAt parses the timestamp header; an absent or malformed value
// maps to the zero time, which skips the staleness check.
func parseTriggeredAt(header string) time.Time {
	if header == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, header)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
