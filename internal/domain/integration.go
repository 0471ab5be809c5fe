package domain

import "time"

// SyncStatus is the persisted lifecycle state of an integration's sync.
// Transitions are driven exclusively by the sync orchestrator.
type SyncStatus string

const (
	SyncStatusIdle             SyncStatus = "idle"
	SyncStatusCredentialsCheck SyncStatus = "connecting_credentials_check"
	SyncStatusSyncingProducts  SyncStatus = "syncing_products"
	SyncStatusSyncingSales     SyncStatus = "syncing_sales"
	SyncStatusSuccess          SyncStatus = "success"
	SyncStatusError            SyncStatus = "error"
)

// Terminal reports whether the status is a resting state a new sync may
// start from.
func (s SyncStatus) Terminal() bool {
	return s == SyncStatusIdle || s == SyncStatusSuccess || s == SyncStatusError
}

// Running reports whether a sync run currently owns the integration.
func (s SyncStatus) Running() bool {
	return s == SyncStatusCredentialsCheck ||
		s == SyncStatusSyncingProducts ||
		s == SyncStatusSyncingSales
}

// StartableStatuses lists the states a new sync run may be claimed from.
// Used as the compare set of the status check-and-set that serializes
// concurrent syncs per integration.
func StartableStatuses() []SyncStatus {
	return []SyncStatus{SyncStatusIdle, SyncStatusSuccess, SyncStatusError}
}

// Integration is a company's connection to one external sales platform.
// One row per (company, platform).
type Integration struct {
	ID         string     `json:"id" bson:"_id"`
	CompanyID  string     `json:"company_id" bson:"company_id"`
	Platform   Platform   `json:"platform" bson:"platform"`
	ShopName   string     `json:"shop_name" bson:"shop_name"`
	ShopDomain string     `json:"shop_domain,omitempty" bson:"shop_domain,omitempty"` // used for webhook routing
	IsActive   bool       `json:"is_active" bson:"is_active"`
	SyncStatus SyncStatus `json:"sync_status" bson:"sync_status"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty" bson:"last_sync_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" bson:"updated_at"`
}
