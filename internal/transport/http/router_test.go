package httptransport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrifund/internal/approval"
	approvalhandler "agrifund/internal/approval/handler"
	notifhandler "agrifund/internal/notification/handler"
	notifsvc "agrifund/internal/notification/service"
	notifstore "agrifund/internal/notification/store"
	"agrifund/internal/registry/adapters"
	reghandler "agrifund/internal/registry/handler"
	regsvc "agrifund/internal/registry/service"
	regstore "agrifund/internal/registry/store"
	id "agrifund/pkg/domain"
	"agrifund/pkg/testutil"
)

const adminToken = "test-admin-token"

type fixture struct {
	router http.Handler
}

// lateResolver mirrors the production wiring: the registry service is its
// own tenant resolver, created after the feed it plugs into.
type lateResolver struct {
	registry **regsvc.Service
}

func (r lateResolver) ActiveRecord(ctx context.Context, role id.Role) (id.TenantID, bool, error) {
	return (*r.registry).ActiveRecord(ctx, role)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	notifStore := notifstore.NewInMemory()
	var registry *regsvc.Service
	feed := notifsvc.NewFeed(notifStore, lateResolver{&registry}, notifsvc.WithLogger(logger))
	registry = regsvc.New(regstore.NewInMemory(), feed, regsvc.WithLogger(logger))

	approvals := approval.New(
		notifStore,
		feed,
		approval.NewWinnerChecker(notifStore),
		adapters.NewStatusUpdater(registry),
		approval.WithLogger(logger),
	)

	router := NewRouter(Deps{
		Logger:        logger,
		AdminToken:    adminToken,
		Notifications: notifhandler.New(feed, logger),
		Approvals:     approvalhandler.New(approvals, feed, logger),
		Registry:      reghandler.New(registry, logger),
	})
	return &fixture{router: router}
}

func (f *fixture) do(t *testing.T, method, path string, body any, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(t, method, path, body)
	} else {
		req = testutil.NewRequest(t, method, path)
	}
	if admin {
		req.Header.Set("X-Admin-Token", adminToken)
	}
	return testutil.DoRequest(f.router, req)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	testutil.AssertStatusOK(t, f.do(t, http.MethodGet, "/healthz", nil, false))
	testutil.AssertStatusOK(t, f.do(t, http.MethodGet, "/metrics", nil, false))
}

func TestReviewRoutesRequireAdminToken(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodPost,
		"/portal/authority/reviews/3f1d9a34-7a07-4a64-b61a-17b6ba9c0f11/decision",
		map[string]string{"decision": "approve"})
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusForbidden)
}

// Full registration review over HTTP: a producer registers, the authority
// opens the request, rejects it with a reason, and the producer's next feed
// shows the rejection response while the registry releases the record.
func TestProducerRejectionFlow(t *testing.T) {
	f := newFixture(t)

	var pendingID, sessionID string

	testutil.Given(t, "a producer has registered", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/portal/producer/register", map[string]any{
			"name":  "Ada Farms",
			"email": "ada@example.org",
		}, false)
		testutil.AssertStatus(t, rr, http.StatusCreated)
		applicant := testutil.UnmarshalResponse[struct {
			ID                    string `json:"id"`
			Status                string `json:"status"`
			PendingNotificationID string `json:"pending_notification_id"`
		}](t, rr)
		assert.Equal(t, "pending", applicant.Status)
		require.NotEmpty(t, applicant.PendingNotificationID)
		pendingID = applicant.PendingNotificationID

		rr = f.do(t, http.MethodGet, "/portal/authority/notifications?filter=unread", nil, false)
		testutil.AssertStatusOK(t, rr)
		feed := testutil.UnmarshalResponse[struct {
			Notifications []struct {
				ID     string `json:"id"`
				Viewed bool   `json:"viewed"`
			} `json:"notifications"`
		}](t, rr)
		require.Len(t, feed.Notifications, 1)
		assert.Equal(t, pendingID, feed.Notifications[0].ID)
	})

	testutil.When(t, "the authority rejects the registration", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/portal/authority/notifications/"+pendingID+"/open", nil, false)
		testutil.AssertStatusOK(t, rr)
		session := testutil.UnmarshalResponse[struct {
			SessionID string `json:"session_id"`
			State     string `json:"state"`
		}](t, rr)
		assert.Equal(t, "open", session.State)
		sessionID = session.SessionID

		reviewPath := func(action string) string {
			return fmt.Sprintf("/portal/authority/reviews/%s/%s", sessionID, action)
		}

		// Rejecting without a reason is blocked at submission time.
		rr = f.do(t, http.MethodPost, reviewPath("decision"), map[string]string{"decision": "reject"}, true)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_failed")

		rr = f.do(t, http.MethodPost, reviewPath("decision"), map[string]string{
			"decision": "reject",
			"remarks":  "missing ID document",
		}, true)
		testutil.AssertStatusOK(t, rr)

		rr = f.do(t, http.MethodPost, reviewPath("confirm"), nil, true)
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "lifecycle", "rejected")
	})

	testutil.Then(t, "the producer sees the rejection response and can re-register", func(t *testing.T) {
		// The rejected record keeps feed identity until resubmission, so
		// the response carrying the reason reaches the producer.
		rr := f.do(t, http.MethodGet, "/portal/producer/notifications", nil, false)
		testutil.AssertStatusOK(t, rr)
		feed := testutil.UnmarshalResponse[struct {
			Notifications []struct {
				Message string `json:"message"`
				Payload struct {
					Kind string `json:"kind"`
				} `json:"payload"`
			} `json:"notifications"`
		}](t, rr)
		require.Len(t, feed.Notifications, 1)
		assert.Equal(t, "registration_response", feed.Notifications[0].Payload.Kind)
		assert.Contains(t, feed.Notifications[0].Message, "missing ID document")

		rr = f.do(t, http.MethodGet, "/portal/producer/registration", nil, false)
		testutil.AssertStatus(t, rr, http.StatusNotFound)

		rr = f.do(t, http.MethodPost, "/portal/producer/register", map[string]any{
			"name": "Ada Farms",
		}, false)
		testutil.AssertStatus(t, rr, http.StatusCreated)
	})
}

// Scheme application flow: a verified PFI applies and wins; a second PFI
// record cannot exist, so the single-winner conflict is exercised through a
// second scheme application from the same record.
func TestSchemeApplicationFlow(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/portal/pfi/register", map[string]any{"name": "First Harvest Bank"}, false)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	applicant := testutil.UnmarshalResponse[struct {
		PendingNotificationID string `json:"pending_notification_id"`
	}](t, rr)

	// Approve the registration.
	openAndDecide(t, f, applicant.PendingNotificationID, "approve", "")

	// The PFI sees its approval response.
	rr = f.do(t, http.MethodGet, "/portal/pfi/notifications", nil, false)
	testutil.AssertStatusOK(t, rr)
	feed := testutil.UnmarshalResponse[struct {
		Notifications []struct {
			Message string `json:"message"`
			Payload struct {
				Kind string `json:"kind"`
			} `json:"payload"`
		} `json:"notifications"`
	}](t, rr)
	require.Len(t, feed.Notifications, 1)
	assert.Equal(t, "registration_response", feed.Notifications[0].Payload.Kind)

	// Apply to a scheme.
	schemeID := "0c9f2f0a-95a3-47f3-8f2e-6f4f5f1c2d3e"
	rr = f.do(t, http.MethodPost, "/portal/pfi/schemes/"+schemeID+"/apply", map[string]string{
		"scheme_name": "Dry Season Rice 2026",
	}, false)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	application := testutil.UnmarshalResponse[struct {
		ID string `json:"id"`
	}](t, rr)

	openAndDecide(t, f, application.ID, "approve", "")

	// A second application to the same scheme from the same role cannot be
	// approved: the winner slot is taken.
	rr = f.do(t, http.MethodPost, "/portal/pfi/schemes/"+schemeID+"/apply", map[string]string{
		"scheme_name": "Dry Season Rice 2026",
	}, false)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	second := testutil.UnmarshalResponse[struct {
		ID string `json:"id"`
	}](t, rr)

	rr = f.do(t, http.MethodPost, "/portal/authority/notifications/"+second.ID+"/open", nil, false)
	testutil.AssertStatusOK(t, rr)
	sess := testutil.UnmarshalResponse[struct {
		SessionID string `json:"session_id"`
	}](t, rr)
	rr = f.do(t, http.MethodPost, "/portal/authority/reviews/"+sess.SessionID+"/decision",
		map[string]string{"decision": "approve"}, true)
	testutil.AssertStatusOK(t, rr)
	rr = f.do(t, http.MethodPost, "/portal/authority/reviews/"+sess.SessionID+"/confirm", nil, true)
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
}

// openAndDecide runs the three-step review over HTTP and requires success.
func openAndDecide(t *testing.T, f *fixture, notificationID, decision, remarks string) {
	t.Helper()

	rr := f.do(t, http.MethodPost, "/portal/authority/notifications/"+notificationID+"/open", nil, false)
	testutil.AssertStatusOK(t, rr)
	sess := testutil.UnmarshalResponse[struct {
		SessionID string `json:"session_id"`
	}](t, rr)

	body := map[string]string{"decision": decision}
	if remarks != "" {
		body["remarks"] = remarks
	}
	rr = f.do(t, http.MethodPost, "/portal/authority/reviews/"+sess.SessionID+"/decision", body, true)
	testutil.AssertStatusOK(t, rr)

	rr = f.do(t, http.MethodPost, "/portal/authority/reviews/"+sess.SessionID+"/confirm", nil, true)
	testutil.AssertStatusOK(t, rr)
}

func TestUnknownPortalIs404(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/portal/warlord/notifications", nil, false)
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}
