package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixgate/internal/auth"
	"pixgate/internal/model"
	"pixgate/internal/service"
)

type allowAllSessions struct{}

func (allowAllSessions) SessionExists(context.Context, auth.Kind, string) (bool, error) {
	return true, nil
}

func TestRequireSessionPassesIdentity(t *testing.T) {
	resolver := auth.NewResolver([]byte(testSecret), allowAllSessions{})

	var seen *auth.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	gated := RequireSession(resolver, auth.KindDashboard, model.RoleSeller)(next)

	token, err := auth.SignToken([]byte(testSecret), auth.Identity{
		ID:        "seller-1",
		Role:      model.RoleSeller,
		SessionID: "sess-1",
	}, auth.KindDashboard, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth-token", Value: token})
	rec := httptest.NewRecorder()
	gated.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "seller-1", seen.ID)
}

func TestRequireSessionRoleMismatch(t *testing.T) {
	resolver := auth.NewResolver([]byte(testSecret), allowAllSessions{})
	gated := RequireSession(resolver, auth.KindDashboard, auth.BackofficeRoles...)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	token, err := auth.SignToken([]byte(testSecret), auth.Identity{
		ID:        "user-1",
		Role:      model.RoleUser,
		SessionID: "sess-1",
	}, auth.KindDashboard, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth-token", Value: token})
	rec := httptest.NewRecorder()
	gated.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeNotAdmin, decodeEnvelope(t, rec).Code)
}

func TestRequireAPIKeyRejectionCodes(t *testing.T) {
	keys := newTestAPIKeyService(t)
	created, err := keys.CreateKey(context.Background(), "user-1", "k", []string{"payments:read"}, nil, nil)
	require.NoError(t, err)

	gated := RequireAPIKey(keys, "webhooks:write")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Missing header.
	rec := httptest.NewRecorder()
	gated.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeMissingToken, decodeEnvelope(t, rec).Code)

	// Unknown key.
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer pk_live_bogus")
	rec = httptest.NewRecorder()
	gated.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeInvalidKey, decodeEnvelope(t, rec).Code)

	// Valid key, wrong scope.
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+created.Key)
	rec = httptest.NewRecorder()
	gated.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeScopeDenied, decodeEnvelope(t, rec).Code)
}

func newTestAPIKeyService(t *testing.T) *service.APIKeyService {
	t.Helper()
	return service.NewAPIKeyService(&memKeyRepo{
		byID:   map[string]*model.APIKey{},
		byHash: map[string]*model.APIKey{},
	})
}
