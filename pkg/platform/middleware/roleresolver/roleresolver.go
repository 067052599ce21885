// Package roleresolver derives the acting portal role from the request path.
//
// The portal is role-segmented: each role owns a fixed path prefix and the
// longest matching prefix wins. The role is taken from routing context only;
// it is identity resolution, not authentication.
package roleresolver

import (
	"net/http"

	id "agrifund/pkg/domain"
	"agrifund/pkg/requestcontext"
)

// Middleware resolves the role for the request path and stores it in the
// context. Paths outside every portal prefix pass through with no role set;
// downstream handlers respond with an empty feed or 404 rather than an error.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if role, ok := id.RoleForPath(r.URL.Path); ok {
			r = r.WithContext(requestcontext.WithRole(r.Context(), role))
		}
		next.ServeHTTP(w, r)
	})
}
