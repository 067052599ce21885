// Package handler exposes applicant registration and scheme applications.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	notifmodels "agrifund/internal/notification/models"
	"agrifund/internal/registry/models"
	"agrifund/internal/registry/service"
	id "agrifund/pkg/domain"
	dErrors "agrifund/pkg/domain-errors"
	"agrifund/pkg/platform/httputil"
	"agrifund/pkg/requestcontext"
)

// RegistryService is the slice of the registry the transport needs.
type RegistryService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*models.Applicant, error)
	ApplyToScheme(ctx context.Context, req service.ApplyRequest) (*notifmodels.Notification, error)
	ActiveApplicant(ctx context.Context, role id.Role) (*models.Applicant, error)
}

// Handler serves registration routes.
type Handler struct {
	registry RegistryService
	logger   *slog.Logger
}

// New creates the registry Handler.
func New(registry RegistryService, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// Register mounts the registration routes on a per-role portal subtree.
func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Get("/registration", h.handleActiveRegistration)
	r.Post("/schemes/{schemeID}/apply", h.handleApply)
}

type registerRequest struct {
	Name        string                        `json:"name"`
	CompanyName string                        `json:"company_name,omitempty"`
	Email       string                        `json:"email,omitempty"`
	Phone       string                        `json:"phone,omitempty"`
	DocumentURL string                        `json:"document_url,omitempty"`
	Form        *notifmodels.RegistrationForm `json:"form,omitempty"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role := requestcontext.Role(ctx)
	if !role.IsValid() || role.IsAuthority() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "this portal does not register applicants"))
		return
	}

	req, ok := httputil.Decode[registerRequest](w, r, h.logger)
	if !ok {
		return
	}

	a, err := h.registry.Register(ctx, service.RegisterRequest{
		Category:    role,
		Name:        req.Name,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Phone:       req.Phone,
		DocumentURL: req.DocumentURL,
		Form:        req.Form,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleActiveRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role := requestcontext.Role(ctx)
	if !role.IsValid() || role.IsAuthority() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no registration record for this portal"))
		return
	}

	a, err := h.registry.ActiveApplicant(ctx, role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if a == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no active registration"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

type applyRequest struct {
	SchemeName string `json:"scheme_name"`
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role := requestcontext.Role(ctx)
	if !role.IsValid() || role.IsAuthority() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "this portal does not apply to schemes"))
		return
	}

	schemeID, err := id.ParseSchemeID(chi.URLParam(r, "schemeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[applyRequest](w, r, h.logger)
	if !ok {
		return
	}

	n, err := h.registry.ApplyToScheme(ctx, service.ApplyRequest{
		Role:       role,
		SchemeID:   schemeID,
		SchemeName: req.SchemeName,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, n)
}
