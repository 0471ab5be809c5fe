package domain

import "time"

// SyncTrigger records what initiated a sync job.
type SyncTrigger string

const (
	TriggerManual  SyncTrigger = "manual"
	TriggerWebhook SyncTrigger = "webhook"
)

// SyncJob is the unit of work the HTTP handlers enqueue and the sync worker
// consumes. Terminal outcome is only observable through the integration's
// persisted sync_status.
type SyncJob struct {
	IntegrationID string      `json:"integration_id"`
	CompanyID     string      `json:"company_id"`
	Platform      Platform    `json:"platform"`
	Trigger       SyncTrigger `json:"trigger"`
	EnqueuedAt    time.Time   `json:"enqueued_at"`
}
