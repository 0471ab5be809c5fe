package application

import (
	"context"
	"fmt"
	"time"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ConnectService handles the connect and disconnect flows: credential shape
// validation, vault storage, and the integration row itself.
type ConnectService struct {
	integrations ports.IntegrationRepository
	vault        ports.SecretVault
	logger       zerolog.Logger
}

// NewConnectService creates a new connect service.
func NewConnectService(
	integrations ports.IntegrationRepository,
	vault ports.SecretVault,
	logger zerolog.Logger,
) *ConnectService {
	return &ConnectService{
		integrations: integrations,
		vault:        vault,
		logger:       logger,
	}
}

// ConnectInput carries the connect request after body decoding.
type ConnectInput struct {
	ShopName    string
	Credentials domain.Credentials
}

// Connect validates the credential shape, stores the secret (upsert keyed on
// company and platform), and upserts the integration with sync_status reset
// to idle. Re-connecting an existing integration replaces its credential.
func (s *ConnectService) Connect(ctx context.Context, companyID string, platform domain.Platform, input ConnectInput) (*domain.Integration, error) {
	if err := input.Credentials.Validate(platform); err != nil {
		return nil, err
	}

	if err := s.vault.Store(ctx, companyID, platform, input.Credentials); err != nil {
		return nil, fmt.Errorf("failed to store credentials: %w", err)
	}

	now := time.Now().UTC()
	integration := &domain.Integration{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		Platform:   platform,
		ShopName:   input.ShopName,
		ShopDomain: shopDomainFor(platform, input.Credentials),
		IsActive:   true,
		SyncStatus: domain.SyncStatusIdle,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.integrations.Upsert(ctx, integration); err != nil {
		return nil, fmt.Errorf("failed to upsert integration: %w", err)
	}

	s.logger.Info().
		Str("companyId", companyID).
		Str("platform", platform.String()).
		Str("shopDomain", integration.ShopDomain).
		Msg("Platform connected")
	return integration, nil
}

// Disconnect removes the integration and its vault entry. This is the only
// path that deletes an integration.
func (s *ConnectService) Disconnect(ctx context.Context, companyID string, platform domain.Platform) error {
	integration, err := s.integrations.GetByCompanyAndPlatform(ctx, companyID, platform)
	if err != nil {
		return err
	}
	if err := s.vault.Delete(ctx, companyID, platform); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	if err := s.integrations.Delete(ctx, integration.ID); err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}
	s.logger.Info().
		Str("companyId", companyID).
		Str("platform", platform.String()).
		Msg("Platform disconnected")
	return nil
}

// List returns a company's integrations with their current sync status. The
// UI polls this to observe eventual sync success or failure.
func (s *ConnectService) List(ctx context.Context, companyID string) ([]*domain.Integration, error) {
	return s.integrations.ListByCompany(ctx, companyID)
}

// shopDomainFor derives the webhook-routing domain from the credential set.
func shopDomainFor(platform domain.Platform, creds domain.Credentials) string {
	switch platform {
	case domain.PlatformShopify:
		return creds.ShopDomain
	case domain.PlatformWooCommerce:
		return creds.StoreURL
	}
	return ""
}
