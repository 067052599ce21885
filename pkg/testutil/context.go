package testutil

import (
	"net/http"
	"time"

	id "agrifund/pkg/domain"
	"agrifund/pkg/requestcontext"
)

// WithRole stamps the acting portal role on the request context, simulating
// what the role-resolver middleware does in production.
func WithRole(req *http.Request, role id.Role) *http.Request {
	return req.WithContext(requestcontext.WithRole(req.Context(), role))
}

// WithRequestID stamps a request ID on the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithTime pins the request-scoped clock so timestamps are deterministic.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
