package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/norvantechnology/hisab/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// CompanyContextKey is the context key for the authenticated company scope
	CompanyContextKey ContextKey = "company"

	// CompanyIDHeader carries the company scope when authentication is
	// disabled, for local development and trusted internal callers.
	CompanyIDHeader = "X-Company-ID"
)

// AuthMiddleware creates an authentication middleware. Every authenticated
// request carries a company scope; handlers never see another company's
// accounts.
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), CompanyContextKey, claims.CompanyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HeaderCompanyMiddleware resolves the company scope from the request header
// when authentication is disabled.
func HeaderCompanyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		companyID := r.Header.Get(CompanyIDHeader)
		if companyID == "" {
			http.Error(w, "missing company header", http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), CompanyContextKey, companyID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CompanyFromContext extracts the company scope from context
func CompanyFromContext(ctx context.Context) (string, bool) {
	companyID, ok := ctx.Value(CompanyContextKey).(string)
	return companyID, ok && companyID != ""
}
