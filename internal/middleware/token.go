package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"assetlib/internal/domain/services"
	"assetlib/internal/httputil"
)

// ServiceOrFolderToken guards the asset surface. The bearer value is either
// the static service token (full access) or a folder token issued for one
// folder; the resolved folder token is stored on the context so handlers can
// check its scope and permission flags.
func ServiceOrFolderToken(serviceToken string, tokens services.TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := bearerToken(r)
			if presented == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			if serviceToken != "" &&
				subtle.ConstantTimeCompare([]byte(presented), []byte(serviceToken)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			record, err := tokens.Resolve(r.Context(), presented)
			if err != nil {
				logger.Debug("asset token rejected", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithFolderToken(r, record))
		})
	}
}
