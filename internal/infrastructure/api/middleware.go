package api

import (
	"net/http"

	"invochat-core-sync-layer/internal/domain"
)

// CompanyAuthMiddleware lifts the authenticated company identity from the
// X-Company-ID header into the request context. The gateway in front of this
// service validates the session and sets the header; here an absent header
// just means the request can only take the webhook path.
func CompanyAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if companyID := r.Header.Get("X-Company-ID"); companyID != "" {
				r = r.WithContext(domain.WithCompanyID(r.Context(), companyID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
