package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/thriftline/thriftline/pkg/auth"
	"github.com/thriftline/thriftline/pkg/response"
)

// claimsKey is the unexported context key for the verified token claims.
type claimsKey struct{}

// Auth verifies the Bearer token and stores the claims in the request
// context. Missing or invalid tokens end the request with 401.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.Replace(r.Header.Get("Authorization"), "Bearer ", "", 1)

		if token == "" {
			response.Unauthorized(w)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly allows only callers whose token carries the admin claim.
// It performs its own token verification, so admin routes do not need Auth
// stacked in front.
func AdminOnly(next http.Handler) http.Handler {
	return Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromCtx(r.Context())
		if !ok || !claims.IsAdmin {
			response.Forbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// ClaimsFromCtx returns the verified claims stored by Auth.
func ClaimsFromCtx(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok
}

// UserIDFromCtx returns the authenticated caller's ID.
func UserIDFromCtx(ctx context.Context) (uint, bool) {
	claims, ok := ClaimsFromCtx(ctx)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}

// IsAdminCtx reports whether the caller holds the admin claim.
func IsAdminCtx(ctx context.Context) bool {
	claims, ok := ClaimsFromCtx(ctx)
	return ok && claims.IsAdmin
}

// WithClaims returns a context carrying the given claims. Exposed for handler
// tests that bypass the HTTP middleware.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}
