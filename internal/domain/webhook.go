package domain

import "time"

// WebhookEvent is one row of the append-only idempotency ledger. The unique
// (integration_id, webhook_id) index makes insertion the replay check.
type WebhookEvent struct {
	ID            string    `json:"id" bson:"_id"`
	IntegrationID string    `json:"integration_id" bson:"integration_id"`
	Platform      Platform  `json:"platform" bson:"platform"`
	WebhookID     string    `json:"webhook_id" bson:"webhook_id"`
	Topic         string    `json:"topic,omitempty" bson:"topic,omitempty"`
	ReceivedAt    time.Time `json:"received_at" bson:"received_at"`
}

// WebhookDelivery carries the verbatim pieces of an inbound webhook request
// the sync trigger path needs. RawBody is the exact bytes read off the wire;
// the HMAC is computed over them, so they must be captured before any JSON
// parsing.
type WebhookDelivery struct {
	Platform    Platform
	RawBody     []byte
	Signature   string
	WebhookID   string
	ShopDomain  string
	Topic       string
	TriggeredAt time.Time // zero when the platform sent no timestamp header
}
