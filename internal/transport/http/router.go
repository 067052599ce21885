// Package httptransport assembles the portal's HTTP surface.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	approvalhandler "agrifund/internal/approval/handler"
	notifhandler "agrifund/internal/notification/handler"
	reghandler "agrifund/internal/registry/handler"
	"agrifund/pkg/platform/middleware/admin"
	"agrifund/pkg/platform/middleware/logging"
	"agrifund/pkg/platform/middleware/recovery"
	"agrifund/pkg/platform/middleware/requestid"
	"agrifund/pkg/platform/middleware/requesttime"
	"agrifund/pkg/platform/middleware/roleresolver"
)

// Deps collects the handlers and cross-cutting inputs the router mounts.
type Deps struct {
	Logger        *slog.Logger
	AdminToken    string
	Notifications *notifhandler.Handler
	Approvals     *approvalhandler.Handler
	Registry      *reghandler.Handler
}

// NewRouter wires every portal under its role prefix. The authority portal
// additionally carries the review-session routes behind the admin token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(recovery.Middleware(deps.Logger))
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(logging.Middleware(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/portal", func(pr chi.Router) {
		pr.Route("/authority", func(ar chi.Router) {
			ar.Use(roleresolver.Middleware)
			deps.Notifications.Register(ar)
			deps.Approvals.RegisterPortal(ar)
			ar.Group(func(g chi.Router) {
				g.Use(admin.RequireAdminToken(deps.AdminToken, deps.Logger))
				deps.Approvals.RegisterReviews(g)
			})
		})
		pr.Route("/{portalRole}", func(rr chi.Router) {
			rr.Use(roleresolver.Middleware)
			deps.Notifications.Register(rr)
			deps.Approvals.RegisterPortal(rr)
			deps.Registry.Register(rr)
		})
	})

	return r
}
