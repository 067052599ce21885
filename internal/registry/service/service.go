// Package service orchestrates applicant registration lifecycle: submission,
// identity resolution for feeds, and the status mutations the approval
// engine applies.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	notifmodels "agrifund/internal/notification/models"
	notifsvc "agrifund/internal/notification/service"
	"agrifund/internal/registry/models"
	"agrifund/internal/registry/store"
	id "agrifund/pkg/domain"
	dErrors "agrifund/pkg/domain-errors"
	"agrifund/pkg/platform/sentinel"
	"agrifund/pkg/requestcontext"
)

// Service is the applicant registry.
type Service struct {
	applicants store.Store
	feed       *notifsvc.Feed
	logger     *slog.Logger

	// Per-role memos of the record lookups. The portal session model is one
	// record per category, so a tiny cache removes repeated store hits on
	// every feed projection. memoActive excludes unverified records;
	// memoLatest holds the most recent record of any status.
	memoMu     sync.Mutex
	memoActive map[id.Role]*models.Applicant
	memoLatest map[id.Role]*models.Applicant
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the registry service.
func New(applicants store.Store, feed *notifsvc.Feed, opts ...Option) *Service {
	s := &Service{
		applicants: applicants,
		feed:       feed,
		memoActive: make(map[id.Role]*models.Applicant),
		memoLatest: make(map[id.Role]*models.Applicant),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ActiveRecord resolves the feed identity for a role: the most recently
// created record of any status, memoized per role until the next registry
// write. A rejected applicant keeps feed identity, so the rejection response
// stays deliverable until a new registration supersedes the record.
// Implements the feed's TenantResolver: a missing record is
// (zero, false, nil), never an error.
func (s *Service) ActiveRecord(ctx context.Context, role id.Role) (id.TenantID, bool, error) {
	a, err := s.lookupMemoized(ctx, role, s.memoLatest, s.applicants.FindLatestByCategory)
	if err != nil {
		return id.TenantID{}, false, err
	}
	if a == nil {
		return id.TenantID{}, false, nil
	}
	return a.ID, true, nil
}

// ActiveApplicant returns the role's active registration record, or nil.
// Unlike ActiveRecord this excludes rejected records: a rejected applicant
// has no active registration and may submit a new one.
func (s *Service) ActiveApplicant(ctx context.Context, role id.Role) (*models.Applicant, error) {
	return s.activeApplicant(ctx, role)
}

func (s *Service) activeApplicant(ctx context.Context, role id.Role) (*models.Applicant, error) {
	return s.lookupMemoized(ctx, role, s.memoActive, s.applicants.FindActiveByCategory)
}

func (s *Service) lookupMemoized(ctx context.Context, role id.Role, cache map[id.Role]*models.Applicant, find func(context.Context, id.Role) (*models.Applicant, error)) (*models.Applicant, error) {
	if !role.IsValid() || role.IsAuthority() {
		return nil, nil
	}

	s.memoMu.Lock()
	cached, ok := cache[role]
	s.memoMu.Unlock()
	if ok {
		return cached, nil
	}

	a, err := find(ctx, role)
	if errors.Is(err, sentinel.ErrNotFound) {
		a = nil
	} else if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve applicant record")
	}

	s.memoMu.Lock()
	cache[role] = a
	s.memoMu.Unlock()
	return a, nil
}

func (s *Service) invalidateMemo(role id.Role) {
	s.memoMu.Lock()
	delete(s.memoActive, role)
	delete(s.memoLatest, role)
	s.memoMu.Unlock()
}

// Applicant returns one record by ID.
func (s *Service) Applicant(ctx context.Context, tenantID id.TenantID) (*models.Applicant, error) {
	a, err := s.applicants.FindByID(ctx, tenantID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "applicant not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applicant")
	}
	return a, nil
}

// UpdateStatusOpts carries the optional parts of a status mutation.
type UpdateStatusOpts struct {
	// RejectionReason is stored only when the new status is unverified.
	RejectionReason string
}

// UpdateStatus persists the authority's verify/reject decision on an
// applicant. Any decision clears the pending-notification back-reference.
func (s *Service) UpdateStatus(ctx context.Context, tenantID id.TenantID, status models.RegistrationStatus, opts UpdateStatusOpts) (*models.Applicant, error) {
	if status != models.StatusVerified && status != models.StatusUnverified {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "invalid decision status: %q", status)
	}

	now := requestcontext.Now(ctx)
	a, err := s.applicants.Execute(ctx, tenantID, nil, func(rec *models.Applicant) {
		if status == models.StatusVerified {
			rec.ApplyVerification(now)
		} else {
			rec.ApplyRejection(opts.RejectionReason, now)
		}
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "applicant not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update applicant status")
	}

	s.invalidateMemo(a.Category)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "applicant status updated",
			"tenant_id", a.ID,
			"category", a.Category,
			"status", a.Status,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return a, nil
}

// RegisterRequest shapes a new registration submission.
type RegisterRequest struct {
	Category    id.Role
	Name        string
	CompanyName string
	Email       string
	Phone       string
	DocumentURL string
	Form        *notifmodels.RegistrationForm
}

// Register creates a pending applicant record and emits the registration
// notification the authority reviews. The applicant keeps a back-reference
// to that notification until a decision clears it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Applicant, error) {
	now := requestcontext.Now(ctx)
	a, err := models.NewApplicant(id.NewTenantID(), req.Category, req.Name, now)
	if err != nil {
		return nil, err
	}
	a.CompanyName = strings.TrimSpace(req.CompanyName)
	a.Email = strings.TrimSpace(req.Email)
	a.Phone = strings.TrimSpace(req.Phone)
	a.DocumentURL = strings.TrimSpace(req.DocumentURL)

	if err := s.applicants.Create(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create applicant")
	}
	s.invalidateMemo(a.Category)

	n, err := s.feed.Append(ctx, notifsvc.AppendRequest{
		Origin:     req.Category.Display(),
		TargetRole: id.RoleAuthority,
		Message:    a.Name + " submitted a new " + req.Category.Display() + " registration",
		Applicant:  a.Snapshot(),
		Payload: &notifmodels.RegistrationPayload{
			Category:    req.Category,
			ApplicantID: a.ID,
			Form:        req.Form,
		},
	})
	if err != nil {
		return nil, err
	}

	a, err = s.applicants.Execute(ctx, a.ID, nil, func(rec *models.Applicant) {
		rec.PendingNotificationID = n.ID
		rec.UpdatedAt = now
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to link pending notification")
	}
	s.invalidateMemo(a.Category)
	return a, nil
}

// ApplyRequest shapes a scheme application submission.
type ApplyRequest struct {
	Role       id.Role
	SchemeID   id.SchemeID
	SchemeName string
}

// ApplyToScheme emits a scheme-application notification to the authority on
// behalf of the role's active, verified applicant.
func (s *Service) ApplyToScheme(ctx context.Context, req ApplyRequest) (*notifmodels.Notification, error) {
	if req.SchemeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "scheme id is required")
	}
	a, err := s.activeApplicant(ctx, req.Role)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no active registration for this role")
	}
	if !a.IsVerified() {
		return nil, dErrors.New(dErrors.CodeForbidden, "registration must be verified before applying to a scheme")
	}

	return s.feed.Append(ctx, notifsvc.AppendRequest{
		Origin:     req.Role.Display(),
		TargetRole: id.RoleAuthority,
		Message:    a.Name + " applied to scheme " + req.SchemeName,
		Applicant:  a.Snapshot(),
		Payload: &notifmodels.SchemeApplicationPayload{
			SchemeID:      req.SchemeID,
			SchemeName:    req.SchemeName,
			ApplicantRole: req.Role,
			ApplicantID:   a.ID,
			Status:        notifmodels.ApplicationPending,
		},
	})
}
