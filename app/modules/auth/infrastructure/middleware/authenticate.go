package authmiddleware

import (
	"context"
	"net/http"
	"strings"

	authdomain "github.com/tipping-league/prediction-core/app/modules/auth/domain"
	authjwt "github.com/tipping-league/prediction-core/app/modules/auth/infrastructure/jwt"
	"github.com/tipping-league/prediction-core/app/shared/apperr"
	"github.com/tipping-league/prediction-core/app/shared/httpx"
)

type claimsKey struct{}

// WithClaims stores claims on ctx.
func WithClaims(ctx context.Context, claims *authdomain.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims set by Authenticate.
func ClaimsFromContext(ctx context.Context) (*authdomain.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*authdomain.Claims)
	return claims, ok && claims != nil
}

// Authenticate requires a valid bearer token and stores its claims on the
// request context.
func Authenticate(provider authjwt.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				httpx.WriteAppError(w, apperr.Unauthorized("Missing bearer token"))
				return
			}

			claims, err := provider.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				httpx.WriteAppError(w, apperr.Wrap(apperr.CodeUnauthorized, "Invalid or expired token", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin only lets admin tokens through. It must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			httpx.WriteAppError(w, apperr.Unauthorized("Missing bearer token"))
			return
		}
		if !claims.IsAdmin() {
			httpx.WriteAppError(w, apperr.Forbidden("Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
