// internal/api/handler/middleware.go
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"billing-api/internal/auth"
	"billing-api/internal/domain"
	"billing-api/internal/util"
)

type contextKey string

const principalKey contextKey = "principal"

// Authenticator verifies the Bearer token on every request it wraps and
// stores the resulting principal in the request context. Requests without
// a valid access token are rejected with 401 before any handler runs.
func Authenticator(tokens *auth.TokenManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				respondWithError(w, logger, util.ErrUnauthorized)
				return
			}
			principal, err := tokens.ParseAccessToken(tokenStr)
			if err != nil {
				respondWithError(w, logger, util.ErrUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects non-admin principals with 403. It must run after
// Authenticator.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				respondWithError(w, logger, util.ErrUnauthorized)
				return
			}
			if !principal.IsAdmin() {
				respondWithError(w, logger, util.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromContext returns the authenticated principal stored by
// Authenticator.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(domain.Principal)
	return principal, ok
}
