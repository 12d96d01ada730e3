package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/phrazzld/smartmark/internal/api/shared"
	"github.com/phrazzld/smartmark/internal/platform/logger"
)

// TokenAuth guards the message API with a shared secret that the extension
// sends as a bearer token. An empty token disables the check, which suits a
// daemon bound to localhost.
type TokenAuth struct {
	token []byte
}

// NewTokenAuth creates a TokenAuth for the given secret.
func NewTokenAuth(token string) *TokenAuth {
	return &TokenAuth{token: []byte(strings.TrimSpace(token))}
}

// Enabled reports whether requests must carry the token.
func (m *TokenAuth) Enabled() bool {
	return len(m.token) > 0
}

// Authenticate rejects requests without the configured bearer token.
func (m *TokenAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), m.token) != 1 {
			logger.FromContext(r.Context()).Warn("rejected request with wrong API token",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr)
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
