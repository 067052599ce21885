// Package handler exposes the notification feed over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agrifund/internal/notification/models"
	"agrifund/internal/notification/service"
	id "agrifund/pkg/domain"
	dErrors "agrifund/pkg/domain-errors"
	"agrifund/pkg/platform/httputil"
	"agrifund/pkg/requestcontext"
)

// FeedService is the slice of the feed the transport needs.
type FeedService interface {
	Project(ctx context.Context, role id.Role) ([]*models.Notification, error)
	Append(ctx context.Context, req service.AppendRequest) (*models.Notification, error)
}

// Handler serves the per-role notification feed.
type Handler struct {
	feed   FeedService
	logger *slog.Logger
}

// New creates the notification Handler.
func New(feed FeedService, logger *slog.Logger) *Handler {
	return &Handler{feed: feed, logger: logger}
}

// Register mounts the feed routes on a per-role portal subtree. The viewer's
// role arrives in the request context, resolved from the path prefix.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.handleFeed)
	r.Post("/notifications", h.handleAppend)
}

type feedResponse struct {
	Role          id.Role                `json:"role"`
	Notifications []*models.Notification `json:"notifications"`
}

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role := requestcontext.Role(ctx)
	if !role.IsValid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown portal"))
		return
	}

	filter, err := service.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	feed, err := h.feed.Project(ctx, role)
	if err != nil {
		h.logger.ErrorContext(ctx, "feed projection failed",
			"role", role,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	feed = service.Select(feed, filter)
	if feed == nil {
		feed = []*models.Notification{}
	}

	httputil.WriteJSON(w, http.StatusOK, feedResponse{Role: role, Notifications: feed})
}

type appendRequest struct {
	Origin     string          `json:"origin,omitempty"`
	TargetRole string          `json:"target_role"`
	Message    string          `json:"message"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type payloadEnvelope struct {
	Kind models.PayloadKind `json:"kind"`
	Data json.RawMessage    `json:"data"`
}

func (h *Handler) handleAppend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	senderRole := requestcontext.Role(ctx)
	if !senderRole.IsValid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown portal"))
		return
	}

	req, ok := httputil.Decode[appendRequest](w, r, h.logger)
	if !ok {
		return
	}

	targetRole, err := id.ParseRole(req.TargetRole)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	origin := req.Origin
	if origin == "" {
		origin = senderRole.Display()
	}

	var payload models.Payload
	if len(req.Payload) > 0 {
		var env payloadEnvelope
		if err := json.Unmarshal(req.Payload, &env); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid payload envelope"))
			return
		}
		payload, err = models.DecodePayload(env.Kind, env.Data)
		if err != nil {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "invalid payload: %v", err))
			return
		}
	}

	n, err := h.feed.Append(ctx, service.AppendRequest{
		Origin:     origin,
		TargetRole: targetRole,
		Message:    req.Message,
		Payload:    payload,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "notification append failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, n)
}
