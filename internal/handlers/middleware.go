package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/sketchrelay/sketchrelay/internal/services"
)

// TokenVerifier checks a bearer token and returns the identity it carries.
type TokenVerifier interface {
	VerifyToken(token string) (*services.TokenClaims, error)
}

type contextKey string

const userContextKey contextKey = "user"

// AuthMiddleware rejects requests without a valid bearer token and stores the
// token claims on the request context.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user's claims, or nil when the
// request did not pass through AuthMiddleware.
func UserFromContext(ctx context.Context) *services.TokenClaims {
	claims, _ := ctx.Value(userContextKey).(*services.TokenClaims)
	return claims
}
