package domain

import "context"

// contextKey is a private type for context keys to avoid collisions
type contextKey string

const companyIDKey contextKey = "company_id"

// WithCompanyID returns a context carrying the authenticated company ID.
func WithCompanyID(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, companyIDKey, companyID)
}

// CompanyIDFromContext returns the authenticated company ID, or "" when the
// request carried no session.
func CompanyIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(companyIDKey).(string); ok {
		return v
	}
	return ""
}
