package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"assetlib/internal/auth"
	"assetlib/internal/httputil"
)

// bearerToken extracts the bearer value from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// OwnerAuth requires a valid owner JWT and stores the owner ID on the
// request context.
func OwnerAuth(verifier auth.OwnerVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			ownerID, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("owner token rejected", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithOwnerID(r, ownerID))
		})
	}
}
