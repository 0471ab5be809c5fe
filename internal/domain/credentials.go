package domain

import "fmt"

// Credentials is the decrypted per-platform API credential set stored in the
// secret vault. Only the fields relevant to the integration's platform are
// populated. Instances live for the duration of a single sync run and must
// never be persisted in decrypted form.
type Credentials struct {
	// Shopify
	ShopDomain    string `json:"shop_domain,omitempty"`
	AccessToken   string `json:"access_token,omitempty"`
	WebhookSecret string `json:"webhook_secret,omitempty"`

	// WooCommerce
	StoreURL       string `json:"store_url,omitempty"`
	ConsumerKey    string `json:"consumer_key,omitempty"`
	ConsumerSecret string `json:"consumer_secret,omitempty"`

	// Amazon FBA (SP-API)
	SellerID      string `json:"seller_id,omitempty"`
	RefreshToken  string `json:"refresh_token,omitempty"`
	MarketplaceID string `json:"marketplace_id,omitempty"`
}

// Validate checks the credential shape for the target platform. Connect
// rejects payloads that fail here before anything is written to the vault.
func (c Credentials) Validate(platform Platform) error {
	switch platform {
	case PlatformShopify:
		if c.ShopDomain == "" || c.AccessToken == "" {
			return fmt.Errorf("%w: shopify requires shop_domain and access_token", ErrInvalidCredentials)
		}
	case PlatformWooCommerce:
		if c.StoreURL == "" || c.ConsumerKey == "" || c.ConsumerSecret == "" {
			return fmt.Errorf("%w: woocommerce requires store_url, consumer_key and consumer_secret", ErrInvalidCredentials)
		}
	case PlatformAmazonFBA:
		if c.SellerID == "" || c.RefreshToken == "" || c.MarketplaceID == "" {
			return fmt.Errorf("%w: amazon_fba requires seller_id, refresh_token and marketplace_id", ErrInvalidCredentials)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}
	return nil
}

// SigningSecret returns the shared secret webhooks for this platform are
// signed with. Empty when the platform has none configured.
func (c Credentials) SigningSecret(platform Platform) string {
	switch platform {
	case PlatformShopify:
		return c.WebhookSecret
	case PlatformWooCommerce:
		return c.ConsumerSecret
	}
	return ""
}
