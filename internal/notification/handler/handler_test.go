package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrifund/internal/notification/models"
	notifsvc "agrifund/internal/notification/service"
	notifstore "agrifund/internal/notification/store"
	id "agrifund/pkg/domain"
	"agrifund/pkg/testutil"
)

type allResolver struct{ tenant id.TenantID }

func (r allResolver) ActiveRecord(context.Context, id.Role) (id.TenantID, bool, error) {
	return r.tenant, true, nil
}

func newHandler(t *testing.T) (*Handler, *notifsvc.Feed) {
	t.Helper()
	feed := notifsvc.NewFeed(notifstore.NewInMemory(), allResolver{tenant: id.NewTenantID()})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(feed, logger), feed
}

func mount(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestFeedRejectsUnknownFilter(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.NewRequest(t, http.MethodGet, "/notifications?filter=starred")
	req = testutil.WithRole(req, id.RoleAuthority)
	rr := testutil.DoRequest(mount(h), req)

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

func TestFeedWithoutRoleIs404(t *testing.T) {
	h, _ := newHandler(t)

	rr := testutil.DoRequest(mount(h), testutil.NewRequest(t, http.MethodGet, "/notifications"))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestAppendWithEnvelopePayload(t *testing.T) {
	h, feed := newHandler(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/notifications", map[string]any{
		"target_role": "authority",
		"message":     "scheme application submitted",
		"payload": map[string]any{
			"kind": "scheme_application",
			"data": map[string]any{
				"scheme_id":      "7b1b30d4-9f6c-4f21-9e1f-2d3c4b5a6978",
				"scheme_name":    "Dry Season Rice 2026",
				"applicant_role": "pfi",
				"applicant_id":   "a1e7c1de-0a7b-4b5e-9a3f-8d2c1b0a9f8e",
				"status":         "pending",
			},
		},
	})
	req = testutil.WithRole(req, id.RolePFI)
	rr := testutil.DoRequest(mount(h), req)

	testutil.AssertStatus(t, rr, http.StatusCreated)

	list, err := feed.Project(req.Context(), id.RoleAuthority)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id.RolePFI.Display(), list[0].Origin)
	payload, ok := list[0].Payload.(*models.SchemeApplicationPayload)
	require.True(t, ok)
	assert.Equal(t, "Dry Season Rice 2026", payload.SchemeName)
}

func TestAppendRejectsBadPayloadKind(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/notifications", map[string]any{
		"target_role": "authority",
		"message":     "hello",
		"payload":     map[string]any{"kind": "carrier-pigeon", "data": map[string]any{}},
	})
	req = testutil.WithRole(req, id.RoleProducer)
	rr := testutil.DoRequest(mount(h), req)

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

func TestAppendRejectsUnknownTargetRole(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/notifications", map[string]any{
		"target_role": "overlord",
		"message":     "hello",
	})
	req = testutil.WithRole(req, id.RoleProducer)
	rr := testutil.DoRequest(mount(h), req)

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
}
