package application

import (
	"context"
	"fmt"
	"time"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/infrastructure/metrics"
	"invochat-core-sync-layer/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxWebhookAge bounds how old a timestamped webhook may be before it is
// rejected. Platforms that send no timestamp header are exempt.
const maxWebhookAge = 5 * time.Minute

// WebhookService processes inbound platform webhooks: integration
// resolution, signature verification, replay protection, then sync dispatch.
// Everything here runs before any side-effecting work, so a rejection is
// side-effect free apart from the ledger row a first delivery writes.
type WebhookService struct {
	integrations ports.IntegrationRepository
	vault        ports.SecretVault
	ledger       ports.WebhookLedger
	verifiers    map[domain.Platform]ports.WebhookVerifier
	sync         *SyncService
	metrics      *metrics.SyncMetrics
	logger       zerolog.Logger
	now          func() time.Time
}

// NewWebhookService creates a new webhook service.
func NewWebhookService(
	integrations ports.IntegrationRepository,
	vault ports.SecretVault,
	ledger ports.WebhookLedger,
	verifiers map[domain.Platform]ports.WebhookVerifier,
	sync *SyncService,
	m *metrics.SyncMetrics,
	logger zerolog.Logger,
) *WebhookService {
	return &WebhookService{
		integrations: integrations,
		vault:        vault,
		ledger:       ledger,
		verifiers:    verifiers,
		sync:         sync,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

// HandleDelivery validates a webhook delivery and enqueues the sync it
// triggers. Rejections surface as ErrNotFound (unknown shop domain),
// ErrInvalidSignature, ErrStaleWebhook, or ErrDuplicateWebhook.
func (s *WebhookService) HandleDelivery(ctx context.Context, delivery *domain.WebhookDelivery) error {
	platform := delivery.Platform
	if !platform.SupportsWebhooks() {
		return fmt.Errorf("%w: %s sends no webhooks", domain.ErrUnknownPlatform, platform)
	}

	// Unknown shop domain short-circuits before the ledger: there is no
	// integration to dedupe against.
	integration, err := s.integrations.GetByShopDomain(ctx, platform, delivery.ShopDomain)
	if err != nil {
		s.metrics.WebhooksRejected.WithLabelValues(platform.String(), "unknown_shop").Inc()
		return err
	}

	creds, err := s.vault.Get(ctx, integration.CompanyID, platform)
	if err != nil {
		// No secret means no way to authenticate the sender. Fail closed.
		s.logger.Error().Err(err).
			Str("integrationId", integration.ID).
			Msg("Webhook rejected: no signing secret configured")
		s.metrics.WebhooksRejected.WithLabelValues(platform.String(), "no_secret").Inc()
		return domain.ErrInvalidSignature
	}

	verifier, ok := s.verifiers[platform]
	if !ok || !verifier.Verify(delivery.RawBody, delivery.Signature, creds.SigningSecret(platform)) {
		s.metrics.WebhooksRejected.WithLabelValues(platform.String(), "bad_signature").Inc()
		return domain.ErrInvalidSignature
	}

	if !delivery.TriggeredAt.IsZero() && s.now().Sub(delivery.TriggeredAt) > maxWebhookAge {
		s.metrics.WebhooksRejected.WithLabelValues(platform.String(), "stale").Inc()
		return domain.ErrStaleWebhook
	}

	accepted, err := s.ledger.RecordIfNew(ctx, &domain.WebhookEvent{
		ID:            uuid.NewString(),
		IntegrationID: integration.ID,
		Platform:      platform,
		WebhookID:     delivery.WebhookID,
		Topic:         delivery.Topic,
		ReceivedAt:    s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	if !accepted {
		s.metrics.WebhooksRejected.WithLabelValues(platform.String(), "replay").Inc()
		return domain.ErrDuplicateWebhook
	}

	s.logger.Info().
		Str("integrationId", integration.ID).
		Str("webhookId", delivery.WebhookID).
		Str("topic", delivery.Topic).
		Msg("Webhook accepted")
	return s.sync.Dispatch(ctx, integration, domain.TriggerWebhook)
}
