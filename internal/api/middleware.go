package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/terra-clan/mentor-engine/internal/auth"
)

// AuthMiddleware validates the bearer credential on every request via
// the identity verifier.
type AuthMiddleware struct {
	verifier auth.Verifier
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(verifier auth.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate verifies the token from the Authorization header and adds
// the resulting identity to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "provide a bearer credential in the Authorization header")
			return
		}

		user, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				slog.Warn("rejected credential", "token_prefix", maskToken(token), "remote_addr", r.RemoteAddr)
				respondError(w, http.StatusUnauthorized, "unauthorized", "invalid credential")
				return
			}
			slog.Error("identity verification failed", "error", err, "token_prefix", maskToken(token))
			respondError(w, http.StatusInternalServerError, "auth_error", "could not verify credential")
			return
		}

		slog.Debug("authenticated request", "user", user.ID)

		ctx := ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken pulls the credential out of the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return authHeader
}

// maskToken returns the first 8 chars of a token for safe logging
func maskToken(token string) string {
	if len(token) < 8 {
		return "***"
	}
	return token[:8] + "..."
}
