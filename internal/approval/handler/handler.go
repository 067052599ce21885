// Package handler exposes review sessions and decision routes.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agrifund/internal/approval"
	"agrifund/internal/notification/models"
	id "agrifund/pkg/domain"
	"agrifund/pkg/platform/httputil"
	"agrifund/pkg/requestcontext"
)

// Service is the approval surface the transport needs.
type Service interface {
	OpenSession(ctx context.Context, nid id.NotificationID) (*approval.Session, *models.Notification, error)
	SubmitDecision(ctx context.Context, sid id.SessionID, decision approval.Decision, remarks string) (*approval.Session, error)
	Confirm(ctx context.Context, sid id.SessionID) (*models.Notification, error)
	Cancel(ctx context.Context, sid id.SessionID) (*approval.Session, error)
	Acknowledge(ctx context.Context, nid id.NotificationID) (*models.Notification, error)
	ResolveGeneric(ctx context.Context, nid id.NotificationID, decision approval.Decision) (*models.Notification, error)
}

// Opener opens a notification without starting a review session.
type Opener interface {
	Open(ctx context.Context, nid id.NotificationID) (*models.Notification, error)
}

// Handler serves the review workflow.
type Handler struct {
	service Service
	opener  Opener
	logger  *slog.Logger
}

// New creates the approval Handler.
func New(service Service, opener Opener, logger *slog.Logger) *Handler {
	return &Handler{service: service, opener: opener, logger: logger}
}

// RegisterPortal mounts the open/acknowledge routes on a per-role portal
// subtree.
func (h *Handler) RegisterPortal(r chi.Router) {
	r.Post("/notifications/{notificationID}/open", h.handleOpen)
	r.Post("/acknowledge/{notificationID}", h.handleAcknowledge)
}

// RegisterReviews mounts the authority-only session routes.
func (h *Handler) RegisterReviews(r chi.Router) {
	r.Post("/reviews/{sessionID}/decision", h.handleDecision)
	r.Post("/reviews/{sessionID}/confirm", h.handleConfirm)
	r.Post("/reviews/{sessionID}/cancel", h.handleCancel)
}

type sessionResponse struct {
	SessionID id.SessionID         `json:"session_id"`
	State     approval.State       `json:"state"`
	Decision  approval.Decision    `json:"decision,omitempty"`
	Remarks   string               `json:"remarks,omitempty"`
	Record    *models.Notification `json:"notification,omitempty"`
}

func toSessionResponse(sess *approval.Session, n *models.Notification) sessionResponse {
	return sessionResponse{
		SessionID: sess.ID,
		State:     sess.State,
		Decision:  sess.Decision,
		Remarks:   sess.Remarks,
		Record:    n,
	}
}

// handleOpen marks a notification viewed. The authority additionally gets a
// review session; every other role gets the opened record back.
func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nid, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if requestcontext.Role(ctx).IsAuthority() {
		sess, n, err := h.service.OpenSession(ctx, nid)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toSessionResponse(sess, n))
		return
	}

	n, err := h.opener.Open(ctx, nid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}

type acknowledgeRequest struct {
	Decision string `json:"decision,omitempty"`
}

// handleAcknowledge resolves a notification without a review session: bare
// acknowledgement when no decision is supplied, otherwise the generic
// approved/ignored settlement.
func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nid, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req acknowledgeRequest
	if r.Body != nil && r.ContentLength != 0 {
		var ok bool
		req, ok = httputil.Decode[acknowledgeRequest](w, r, h.logger)
		if !ok {
			return
		}
	}

	var n *models.Notification
	if req.Decision == "" {
		n, err = h.service.Acknowledge(ctx, nid)
	} else {
		var decision approval.Decision
		decision, err = approval.ParseDecision(req.Decision)
		if err == nil {
			n, err = h.service.ResolveGeneric(ctx, nid, decision)
		}
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Remarks  string `json:"remarks,omitempty"`
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[decisionRequest](w, r, h.logger)
	if !ok {
		return
	}
	decision, err := approval.ParseDecision(req.Decision)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sess, err := h.service.SubmitDecision(ctx, sid, decision, req.Remarks)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(sess, nil))
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	n, err := h.service.Confirm(ctx, sid)
	if err != nil {
		h.logger.WarnContext(ctx, "decision confirmation failed",
			"session_id", sid,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sess, err := h.service.Cancel(ctx, sid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(sess, nil))
}
