//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"agrifund/internal/notification/models"
	id "agrifund/pkg/domain"
	"agrifund/pkg/testutil/containers"
)

const notificationsDDL = `
CREATE TABLE notifications (
    id                 UUID PRIMARY KEY,
    seq                BIGSERIAL,
    target_role        TEXT NOT NULL,
    scheme_id          UUID,
    applicant_role     TEXT,
    application_status TEXT,
    record             JSONB NOT NULL
);
CREATE INDEX notifications_target_role_idx ON notifications (target_role, seq);
CREATE INDEX notifications_scheme_idx ON notifications (scheme_id, applicant_role)
    WHERE application_status = 'approved';
`

// BackendSuite runs the store contract against a real backend.
type BackendSuite struct {
	suite.Suite
	store Store
	ctx   context.Context
}

func (s *BackendSuite) newSchemeApplication(scheme id.SchemeID, applicantRole id.Role, status models.ApplicationStatus) *models.Notification {
	n, err := models.NewNotification(id.NewNotificationID(), applicantRole.Display(), id.RoleAuthority, "scheme application submitted", time.Now().UTC().Truncate(time.Millisecond))
	s.Require().NoError(err)
	n.Payload = &models.SchemeApplicationPayload{
		SchemeID:      scheme,
		SchemeName:    "Dry Season Input Scheme",
		ApplicantRole: applicantRole,
		ApplicantID:   id.NewTenantID(),
		Status:        status,
	}
	return n
}

func (s *BackendSuite) TestRoundTrip() {
	n := s.newSchemeApplication(id.NewSchemeID(), id.RolePFI, models.ApplicationPending)
	s.Require().NoError(s.store.Append(s.ctx, n))

	found, err := s.store.FindByID(s.ctx, n.ID)
	s.Require().NoError(err)
	s.Equal(n.Message, found.Message)
	s.Equal(models.KindSchemeApplication, found.Payload.Kind())
	s.Equal(n.ReceivedAt.UTC(), found.ReceivedAt.UTC())
}

func (s *BackendSuite) TestListByTargetRoleKeepsCreationOrder() {
	first := s.newSchemeApplication(id.NewSchemeID(), id.RolePFI, models.ApplicationPending)
	second := s.newSchemeApplication(id.NewSchemeID(), id.RoleAnchor, models.ApplicationPending)
	s.Require().NoError(s.store.Append(s.ctx, first))
	s.Require().NoError(s.store.Append(s.ctx, second))

	list, err := s.store.ListByTargetRole(s.ctx, id.RoleAuthority)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(first.ID, list[0].ID)
	s.Equal(second.ID, list[1].ID)
}

func (s *BackendSuite) TestExecuteMutatesAtomically() {
	n := s.newSchemeApplication(id.NewSchemeID(), id.RoleLeadFirm, models.ApplicationPending)
	s.Require().NoError(s.store.Append(s.ctx, n))

	updated, err := s.store.Execute(s.ctx, n.ID, nil, func(rec *models.Notification) {
		rec.MarkViewed()
		rec.Payload.(*models.SchemeApplicationPayload).Status = models.ApplicationApproved
	})
	s.Require().NoError(err)
	s.True(updated.Viewed)

	found, err := s.store.FindByID(s.ctx, n.ID)
	s.Require().NoError(err)
	s.True(found.Viewed)
	s.Equal(models.ApplicationApproved, found.Payload.(*models.SchemeApplicationPayload).Status)
}

func (s *BackendSuite) TestFindApprovedApplication() {
	scheme := id.NewSchemeID()
	winner := s.newSchemeApplication(scheme, id.RolePFI, models.ApplicationApproved)
	loser := s.newSchemeApplication(scheme, id.RolePFI, models.ApplicationPending)
	otherRole := s.newSchemeApplication(scheme, id.RoleAnchor, models.ApplicationApproved)
	s.Require().NoError(s.store.Append(s.ctx, winner))
	s.Require().NoError(s.store.Append(s.ctx, loser))
	s.Require().NoError(s.store.Append(s.ctx, otherRole))

	found, err := s.store.FindApprovedApplication(s.ctx, scheme, id.RolePFI)
	s.Require().NoError(err)
	s.Equal(winner.ID, found.ID)

	_, err = s.store.FindApprovedApplication(s.ctx, id.NewSchemeID(), id.RolePFI)
	s.Require().Error(err)
}

type RedisBackendSuite struct {
	BackendSuite
	container *containers.RedisContainer
}

func TestRedisBackendSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	rc := containers.NewRedisContainer(t)
	suite.Run(t, &RedisBackendSuite{container: rc})
}

func (s *RedisBackendSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.container.FlushAll(s.ctx))
	s.store = NewRedis(s.container.Client)
}

type PostgresBackendSuite struct {
	BackendSuite
	container *containers.PostgresContainer
}

func TestPostgresBackendSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	pc := containers.NewPostgresContainer(t, notificationsDDL)
	suite.Run(t, &PostgresBackendSuite{container: pc})
}

func (s *PostgresBackendSuite) SetupTest() {
	s.ctx = context.Background()
	_, err := s.container.DB.ExecContext(s.ctx, "TRUNCATE notifications")
	s.Require().NoError(err)
	s.store = NewPostgres(s.container.DB)
}
