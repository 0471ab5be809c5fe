package domain

import "errors"

// Sentinel errors shared across services and mapped to HTTP status codes at
// the handler boundary.
var (
	// ErrNotFound indicates a missing integration or other record.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateWebhook indicates a webhook delivery whose id was already
	// recorded in the event ledger.
	ErrDuplicateWebhook = errors.New("duplicate webhook event")

	// ErrStaleWebhook indicates a webhook whose timestamp fell outside the
	// accepted delivery window.
	ErrStaleWebhook = errors.New("stale webhook event")

	// ErrRateLimited indicates the caller exceeded the sliding-window limit
	// for an action.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrSyncInProgress indicates a sync was requested while another run for
	// the same integration holds a non-terminal status.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrMissingCredentials indicates the secret vault holds no credential
	// for the integration's company and platform.
	ErrMissingCredentials = errors.New("credentials not configured")

	// ErrInvalidCredentials indicates a connect request whose credential
	// fields fail shape validation for the target platform.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnknownPlatform indicates a platform outside the supported set.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrInvalidSignature indicates a webhook whose HMAC did not verify.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
