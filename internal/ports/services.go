package ports

import (
	"context"

	"invochat-core-sync-layer/internal/domain"
)

// EncryptionService encrypts and decrypts credential blobs for the vault.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// RateLimiter is a sliding-window limiter keyed by (identifier, action).
// State is shared across instances (backed by redis in production).
type RateLimiter interface {
	// Allow records an attempt and reports whether it is within the window
	// limit for the action.
	Allow(ctx context.Context, identifier, action string) (bool, error)
}

// CacheInvalidator drops a company's cached response namespaces after a sync
// lands new data.
type CacheInvalidator interface {
	InvalidateCompany(ctx context.Context, companyID string, tags ...string) error
}

// ReportRefresher recomputes the precomputed aggregates that feed dashboard
// and dead-stock reports for a company.
type ReportRefresher interface {
	RefreshCompanyMetrics(ctx context.Context, companyID string) error
}

// SyncQueue decouples sync dispatch from execution: HTTP handlers enqueue,
// the worker dequeues and runs. Dequeue blocks until a job arrives or ctx is
// cancelled.
type SyncQueue interface {
	Enqueue(ctx context.Context, job domain.SyncJob) error
	Dequeue(ctx context.Context) (domain.SyncJob, error)
}
