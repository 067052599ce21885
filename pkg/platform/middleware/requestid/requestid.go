// Package requestid assigns a correlation ID to every request so log lines
// and audit events from one request can be stitched together.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"agrifund/pkg/requestcontext"
)

// Header is the response header carrying the correlation ID.
const Header = "X-Request-Id"

// Middleware reuses an inbound X-Request-Id when present, otherwise mints a
// new UUID, and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(Header)
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(Header, rid)
		ctx := requestcontext.WithRequestID(r.Context(), rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
