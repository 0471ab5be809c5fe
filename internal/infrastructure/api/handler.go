package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"invochat-core-sync-layer/internal/application"
	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/infrastructure/metrics"
	"invochat-core-sync-layer/internal/ports"
)

// maxBodyBytes caps inbound request bodies; webhook payloads and credential
// blobs are both small.
const maxBodyBytes = 1 << 20

// Handler exposes the sync subsystem's REST surface. All platform routes
// take the platform slug as a path parameter; company identity arrives via
// the X-Company-ID header, webhook identity via platform signature headers.
type Handler struct {
	connect      *application.ConnectService
	sync         *application.SyncService
	webhooks     *application.WebhookService
	integrations ports.IntegrationRepository
	limiter      ports.RateLimiter
	metrics      *metrics.SyncMetrics
	logger       zerolog.Logger
}

// NewHandler creates the REST handler set.
func NewHandler(
	connect *application.ConnectService,
	sync *application.SyncService,
	webhooks *application.WebhookService,
	integrations ports.IntegrationRepository,
	limiter ports.RateLimiter,
	m *metrics.SyncMetrics,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		connect:      connect,
		sync:         sync,
		webhooks:     webhooks,
		integrations: integrations,
		limiter:      limiter,
		metrics:      m,
		logger:       logger,
	}
}

// Routes mounts the API routes on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Use(CompanyAuthMiddleware())
	r.Get("/integrations", h.ListIntegrations)
	r.Post("/{platform}/connect", h.Connect)
	r.Post("/{platform}/disconnect", h.Disconnect)
	r.Post("/{platform}/sync", h.TriggerSync)
}

// TriggerSync dispatches a sync for the integration. Two callers share the
// route: the UI with a session-derived company header, and platform
// webhooks carrying a signature header. The signature header decides which
// path the request takes.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	platform, err := domain.ParsePlatform(chi.URLParam(r, "platform"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The HMAC covers the exact wire bytes, so capture them before anything
	// parses the body.
	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	if delivery, ok := webhookDeliveryFromRequest(r, platform, rawBody); ok {
		h.handleWebhook(w, r, delivery)
		return
	}
	h.handleManualSync(w, r, platform, rawBody)
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request, delivery *domain.WebhookDelivery) {
	if err := h.webhooks.HandleDelivery(r.Context(), delivery); err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error().Err(err).
				Str("platform", delivery.Platform.String()).
				Str("webhookId", delivery.WebhookID).
				Msg("Webhook processing failed")
		}
		writeError(w, status, messageFor(err, status))
		return
	}
	writeJSON(w, http.StatusAccepted, apiResponse{Success: true, Message: "sync triggered"})
}

// syncRequest is the optional manual-trigger body. The integration resolves
// from (company, platform) either way; a provided id must match it.
type syncRequest struct {
	IntegrationID string `json:"integrationId"`
}

func (h *Handler) handleManualSync(w http.ResponseWriter, r *http.Request, platform domain.Platform, rawBody []byte) {
	ctx := r.Context()
	companyID := domain.CompanyIDFromContext(ctx)
	if companyID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req syncRequest
	if len(bytes.TrimSpace(rawBody)) > 0 {
		if err := json.Unmarshal(rawBody, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	allowed, err := h.limiter.Allow(ctx, companyID, "manual_sync")
	if err != nil {
		h.logger.Error().Err(err).Msg("Rate limit check failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !allowed {
		h.metrics.RateLimited.Inc()
		writeError(w, http.StatusTooManyRequests, "too many sync requests, try again later")
		return
	}

	integration, err := h.integrations.GetByCompanyAndPlatform(ctx, companyID, platform)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no integration connected for platform "+platform.String())
			return
		}
		h.logger.Error().Err(err).Msg("Integration lookup failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if req.IntegrationID != "" && req.IntegrationID != integration.ID {
		writeError(w, http.StatusNotFound, "integration not found")
		return
	}

	if err := h.sync.Dispatch(ctx, integration, domain.TriggerManual); err != nil {
		h.logger.Error().Err(err).Msg("Sync dispatch failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusAccepted, apiResponse{Success: true, Message: "sync triggered"})
}

// clientIP keys per-IP rate-limit windows. The RealIP middleware has
// already folded any forwarding headers into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type connectRequest struct {
	ShopName    string             `json:"shop_name"`
	Credentials domain.Credentials `json:"credentials"`
}

// Connect stores platform credentials and creates (or refreshes) the
// company's integration. Throttled per caller IP to slow credential
// stuffing spread across companies.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companyID := domain.CompanyIDFromContext(ctx)
	if companyID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	platform, err := domain.ParsePlatform(chi.URLParam(r, "platform"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	allowed, err := h.limiter.Allow(ctx, clientIP(r), "integration_connect")
	if err != nil {
		h.logger.Error().Err(err).Msg("Rate limit check failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !allowed {
		h.metrics.RateLimited.Inc()
		writeError(w, http.StatusTooManyRequests, "too many connection attempts, try again later")
		return
	}

	var req connectRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	integration, err := h.connect.Connect(ctx, companyID, platform, application.ConnectInput{
		ShopName:    req.ShopName,
		Credentials: req.Credentials,
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("platform", platform.String()).Msg("Connect failed")
		}
		writeError(w, status, messageFor(err, status))
		return
	}
	writeJSON(w, http.StatusCreated, apiResponse{Success: true, Message: "platform connected", Data: integration})
}

// Disconnect removes the integration and its stored credentials.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companyID := domain.CompanyIDFromContext(ctx)
	if companyID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	platform, err := domain.ParsePlatform(chi.URLParam(r, "platform"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.connect.Disconnect(ctx, companyID, platform); err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("platform", platform.String()).Msg("Disconnect failed")
		}
		writeError(w, status, messageFor(err, status))
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "platform disconnected"})
}

// ListIntegrations returns the company's integrations with their current
// sync status. The UI polls this after triggering a sync.
func (h *Handler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companyID := domain.CompanyIDFromContext(ctx)
	if companyID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	integrations, err := h.connect.List(ctx, companyID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Integration list failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if integrations == nil {
		integrations = []*domain.Integration{}
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: integrations})
}
