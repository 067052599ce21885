// Package requesttime captures one "now" per HTTP request. Every mutation
// inside a single request observes the same timestamp, which keeps audit
// events and domain timestamps consistent.
package requesttime

import (
	"net/http"
	"time"

	"agrifund/pkg/requestcontext"
)

// Middleware stores the current time in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
