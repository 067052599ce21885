// Package recovery converts handler panics into 500 responses instead of
// taking down the whole server.
package recovery

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	dErrors "agrifund/pkg/domain-errors"
	"agrifund/pkg/platform/httputil"
	"agrifund/pkg/requestcontext"
)

// Middleware recovers from panics, logs the stack, and writes an internal
// error envelope.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					ctx := r.Context()
					logger.ErrorContext(ctx, "panic recovered",
						"request_id", requestcontext.RequestID(ctx),
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
