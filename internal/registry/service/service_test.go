package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	notifmodels "agrifund/internal/notification/models"
	notifsvc "agrifund/internal/notification/service"
	notifstore "agrifund/internal/notification/store"
	"agrifund/internal/registry/models"
	"agrifund/internal/registry/store"
	id "agrifund/pkg/domain"
	dErrors "agrifund/pkg/domain-errors"
)

type RegistrySuite struct {
	suite.Suite
	applicants *store.InMemory
	notifs     *notifstore.InMemory
	feed       *notifsvc.Feed
	service    *Service
	ctx        context.Context
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.applicants = store.NewInMemory()
	s.notifs = notifstore.NewInMemory()
	s.ctx = context.Background()

	// The feed and the registry reference each other; the service is its
	// own tenant resolver, so wire the feed through the suite field.
	s.feed = notifsvc.NewFeed(s.notifs, suiteResolver{&s.service})
	s.service = New(s.applicants, s.feed)
}

type suiteResolver struct {
	service **Service
}

func (r suiteResolver) ActiveRecord(ctx context.Context, role id.Role) (id.TenantID, bool, error) {
	return (*r.service).ActiveRecord(ctx, role)
}

func (s *RegistrySuite) register(category id.Role, name string) *models.Applicant {
	a, err := s.service.Register(s.ctx, RegisterRequest{
		Category: category,
		Name:     name,
		Email:    "applicant@example.org",
	})
	s.Require().NoError(err)
	return a
}

func (s *RegistrySuite) TestRegisterCreatesPendingApplicantAndNotifiesAuthority() {
	a := s.register(id.RolePFI, "First Harvest Bank")

	s.Equal(models.StatusPending, a.Status)
	s.False(a.PendingNotificationID.IsNil())

	feed, err := s.feed.Project(s.ctx, id.RoleAuthority)
	s.Require().NoError(err)
	s.Require().Len(feed, 1)
	s.Equal(a.PendingNotificationID, feed[0].ID)

	payload, ok := feed[0].Payload.(*notifmodels.RegistrationPayload)
	s.Require().True(ok)
	s.Equal(id.RolePFI, payload.Category)
	s.Equal(a.ID, payload.ApplicantID)
	s.Equal("First Harvest Bank", feed[0].Applicant.Name)
}

func (s *RegistrySuite) TestRegisterRejectsAuthorityAndBlankName() {
	_, err := s.service.Register(s.ctx, RegisterRequest{Category: id.RoleAuthority, Name: "x"})
	s.Require().Error(err)

	_, err = s.service.Register(s.ctx, RegisterRequest{Category: id.RolePFI, Name: "   "})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *RegistrySuite) TestActiveRecordFollowsDecisions() {
	a := s.register(id.RoleAnchor, "Golden Grain Ltd")

	tid, ok, err := s.service.ActiveRecord(s.ctx, id.RoleAnchor)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(a.ID, tid)

	s.Run("rejection keeps feed identity but clears the active registration", func() {
		_, err := s.service.UpdateStatus(s.ctx, a.ID, models.StatusUnverified, UpdateStatusOpts{RejectionReason: "incomplete documents"})
		s.Require().NoError(err)

		// The rejected record still resolves for feed projection, so the
		// rejection response notification stays visible.
		tid, ok, err := s.service.ActiveRecord(s.ctx, id.RoleAnchor)
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(a.ID, tid)

		active, err := s.service.ActiveApplicant(s.ctx, id.RoleAnchor)
		s.Require().NoError(err)
		s.Nil(active)
	})

	s.Run("resubmission supersedes the rejected record", func() {
		b := s.register(id.RoleAnchor, "Golden Grain Ltd")

		tid, ok, err := s.service.ActiveRecord(s.ctx, id.RoleAnchor)
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(b.ID, tid)

		active, err := s.service.ActiveApplicant(s.ctx, id.RoleAnchor)
		s.Require().NoError(err)
		s.Require().NotNil(active)
		s.Equal(b.ID, active.ID)
	})
}

func (s *RegistrySuite) TestUpdateStatus() {
	a := s.register(id.RoleLeadFirm, "Northline Traders")

	s.Run("verification clears the pending back-reference", func() {
		updated, err := s.service.UpdateStatus(s.ctx, a.ID, models.StatusVerified, UpdateStatusOpts{})
		s.Require().NoError(err)
		s.Equal(models.StatusVerified, updated.Status)
		s.True(updated.PendingNotificationID.IsNil())
		s.Empty(updated.RejectionReason)
	})

	s.Run("rejection stores the trimmed reason", func() {
		updated, err := s.service.UpdateStatus(s.ctx, a.ID, models.StatusUnverified, UpdateStatusOpts{RejectionReason: "  missing ID document  "})
		s.Require().NoError(err)
		s.Equal(models.StatusUnverified, updated.Status)
		s.Equal("missing ID document", updated.RejectionReason)
	})

	s.Run("pending is not a decision", func() {
		_, err := s.service.UpdateStatus(s.ctx, a.ID, models.StatusPending, UpdateStatusOpts{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unknown applicant", func() {
		_, err := s.service.UpdateStatus(s.ctx, id.NewTenantID(), models.StatusVerified, UpdateStatusOpts{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *RegistrySuite) TestApplyToScheme() {
	a := s.register(id.RolePFI, "First Harvest Bank")

	s.Run("pending registration cannot apply", func() {
		_, err := s.service.ApplyToScheme(s.ctx, ApplyRequest{
			Role:       id.RolePFI,
			SchemeID:   id.NewSchemeID(),
			SchemeName: "Dry Season Rice 2026",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("verified registration applies", func() {
		_, err := s.service.UpdateStatus(s.ctx, a.ID, models.StatusVerified, UpdateStatusOpts{})
		s.Require().NoError(err)

		schemeID := id.NewSchemeID()
		n, err := s.service.ApplyToScheme(s.ctx, ApplyRequest{
			Role:       id.RolePFI,
			SchemeID:   schemeID,
			SchemeName: "Dry Season Rice 2026",
		})
		s.Require().NoError(err)
		s.Equal(id.RoleAuthority, n.TargetRole)

		payload, ok := n.Payload.(*notifmodels.SchemeApplicationPayload)
		s.Require().True(ok)
		s.Equal(schemeID, payload.SchemeID)
		s.Equal(notifmodels.ApplicationPending, payload.Status)
		s.Equal(a.ID, payload.ApplicantID)
	})

	s.Run("missing scheme id", func() {
		_, err := s.service.ApplyToScheme(s.ctx, ApplyRequest{Role: id.RolePFI})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("role with no record at all", func() {
		_, err := s.service.ApplyToScheme(s.ctx, ApplyRequest{
			Role:       id.RoleResearcher,
			SchemeID:   id.NewSchemeID(),
			SchemeName: "Dry Season Rice 2026",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// The memo must never serve a stale record across writes.
func (s *RegistrySuite) TestActiveRecordMemoInvalidation() {
	a := s.register(id.RoleProducer, "Ada Farms")

	for i := 0; i < 3; i++ {
		tid, ok, err := s.service.ActiveRecord(s.ctx, id.RoleProducer)
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(a.ID, tid)
	}

	_, err := s.service.UpdateStatus(s.ctx, a.ID, models.StatusVerified, UpdateStatusOpts{})
	s.Require().NoError(err)

	active, err := s.service.ActiveApplicant(s.ctx, id.RoleProducer)
	s.Require().NoError(err)
	s.Require().NotNil(active)
	s.Equal(models.StatusVerified, active.Status)
}

// NewApplicant stamps CreatedAt from the caller's clock.
func TestNewApplicantTimestamps(t *testing.T) {
	now := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	a, err := models.NewApplicant(id.NewTenantID(), id.RoleProducer, "Ada Farms", now)
	if err != nil {
		t.Fatal(err)
	}
	if !a.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt = %v, want %v", a.CreatedAt, now)
	}
}
