package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrifund/pkg/platform/secrets"
)

func guarded(t *testing.T, configured string) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return RequireAdminToken(configured, logger)(next)
}

func do(handler http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/reviews", nil)
	if token != "" {
		req.Header.Set("X-Admin-Token", token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestPlaintextToken(t *testing.T) {
	h := guarded(t, "dev-admin-token")

	assert.Equal(t, http.StatusNoContent, do(h, "dev-admin-token").Code)
	assert.Equal(t, http.StatusForbidden, do(h, "wrong").Code)
	assert.Equal(t, http.StatusForbidden, do(h, "").Code)
}

func TestHashedToken(t *testing.T) {
	hash, err := secrets.Hash("review-token")
	require.NoError(t, err)
	h := guarded(t, hash)

	assert.Equal(t, http.StatusNoContent, do(h, "review-token").Code)
	assert.Equal(t, http.StatusForbidden, do(h, hash).Code)
	assert.Equal(t, http.StatusForbidden, do(h, "wrong").Code)
}

func TestEmptyConfiguredTokenDeniesAll(t *testing.T) {
	h := guarded(t, "")

	assert.Equal(t, http.StatusForbidden, do(h, "").Code)
	assert.Equal(t, http.StatusForbidden, do(h, "anything").Code)
}
