package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/turbovets/taskboard/internal/platform/httpx"
	"github.com/turbovets/taskboard/internal/rbac"
)

type claimsContextKey struct{}

// ContextWithClaims stores verified token claims in ctx.
func ContextWithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext extracts token claims stored by the authenticator.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(Claims)
	return claims, ok
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticator rejects requests without a valid bearer token and attaches
// the resolved principal to the request context.
func Authenticator(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, claims, err := service.Authenticate(r.Context(), BearerToken(r.Header.Get("Authorization")))
			if err != nil {
				if httpx.StatusFor(err) == http.StatusUnauthorized {
					httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
					return
				}
				if logger != nil {
					logger.Error("authenticate request", slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			ctx := rbac.ContextWithPrincipal(r.Context(), principal)
			ctx = ContextWithClaims(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
