package admin

import (
	"log/slog"
	"net/http"

	"agrifund/pkg/platform/secrets"
	"agrifund/pkg/requestcontext"
)

// RequireAdminToken guards authority mutation routes with a shared token.
// The configured value is either a bcrypt hash of the token or, for
// development, the plaintext token itself; see secrets.Verify.
func RequireAdminToken(configuredToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			if !secrets.Verify(token, configuredToken) {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
