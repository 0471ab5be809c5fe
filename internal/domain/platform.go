package domain

import "fmt"

// Platform identifies an external sales channel a company can connect.
type Platform string

const (
	PlatformShopify     Platform = "shopify"
	PlatformWooCommerce Platform = "woocommerce"
	PlatformAmazonFBA   Platform = "amazon_fba"
)

// ParsePlatform validates a platform string coming from a URL segment or
// request body.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformShopify, PlatformWooCommerce, PlatformAmazonFBA:
		return Platform(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

func (p Platform) String() string {
	return string(p)
}

// SupportsWebhooks reports whether the platform delivers signed webhooks to
// the sync endpoint. Amazon FBA syncs are user-triggered only.
func (p Platform) SupportsWebhooks() bool {
	return p == PlatformShopify || p == PlatformWooCommerce
}
