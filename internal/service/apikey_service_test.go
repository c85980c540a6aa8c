package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestKey(t *testing.T, svc *APIKeyService, scopes, ips []string, expiresAt *time.Time) *CreatedKey {
	t.Helper()
	created, err := svc.CreateKey(context.Background(), "user-1", "ci key", scopes, ips, expiresAt)
	require.NoError(t, err)
	return created
}

func TestCreateKey(t *testing.T) {
	svc := NewAPIKeyService(newStubKeyRepo())

	created := createTestKey(t, svc, []string{"payments:read"}, nil, nil)
	assert.True(t, strings.HasPrefix(created.Key, "pk_live_"))
	assert.NotContains(t, created.Record.KeyHash, created.Key)
	assert.Equal(t, []string{"payments:read"}, created.Record.Scopes)
}

func TestCreateKeyValidation(t *testing.T) {
	svc := NewAPIKeyService(newStubKeyRepo())

	_, err := svc.CreateKey(context.Background(), "user-1", "k", nil, nil, nil)
	assert.ErrorIs(t, err, ErrBadScopes)

	_, err = svc.CreateKey(context.Background(), "user-1", "k", []string{""}, nil, nil)
	assert.ErrorIs(t, err, ErrBadScopes)

	_, err = svc.CreateKey(context.Background(), "user-1", "k", []string{"payments:read"}, []string{"not-an-ip"}, nil)
	assert.ErrorIs(t, err, ErrBadIPWhitelist)
}

func TestValidateKey(t *testing.T) {
	svc := NewAPIKeyService(newStubKeyRepo())
	created := createTestKey(t, svc, []string{"payments:read"}, nil, nil)

	key, err := svc.ValidateKey(context.Background(), created.Key, "payments:read", "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, created.Record.KeyID, key.KeyID)

	_, err = svc.ValidateKey(context.Background(), "pk_live_bogus", "payments:read", "203.0.113.9")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestValidateKeyScopeWildcard(t *testing.T) {
	svc := NewAPIKeyService(newStubKeyRepo())
	created := createTestKey(t, svc, []string{"webhooks:*"}, nil, nil)

	_, err := svc.ValidateKey(context.Background(), created.Key, "webhooks:read", "203.0.113.9")
	assert.NoError(t, err)

	_, err = svc.ValidateKey(context.Background(), created.Key, "payments:read", "203.0.113.9")
	assert.ErrorIs(t, err, ErrScopeDenied)
}

func TestValidateKeyExpiry(t *testing.T) {
	svc := NewAPIKeyService(newStubKeyRepo())
	expires := time.Now().Add(time.Hour)
	created := createTestKey(t, svc, []string{"payments:read"}, nil, &expires)

	_, err := svc.ValidateKey(context.Background(), created.Key, "payments:read", "203.0.113.9")
	assert.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateKey(context.Background(), created.Key, "payments:read", "203.0.113.9")
	assert.ErrorIs(t, err, ErrKeyExpired)
}

func TestValidateKeyIPWhitelist(t *testing.T) {
	svc := NewAPIKeyService(newStubKeyRepo())
	created := createTestKey(t, svc, []string{"payments:read"}, []string{"10.0.0.0/8", "203.0.113.9"}, nil)

	_, err := svc.ValidateKey(context.Background(), created.Key, "payments:read", "10.1.2.3")
	assert.NoError(t, err)

	_, err = svc.ValidateKey(context.Background(), created.Key, "payments:read", "203.0.113.9")
	assert.NoError(t, err)

	_, err = svc.ValidateKey(context.Background(), created.Key, "payments:read", "198.51.100.1")
	assert.ErrorIs(t, err, ErrIPNotAllowed)
}

func TestRevokeKey(t *testing.T) {
	svc := NewAPIKeyService(newStubKeyRepo())
	created := createTestKey(t, svc, []string{"payments:read"}, nil, nil)

	// Only the owner can revoke.
	assert.ErrorIs(t, svc.RevokeKey(context.Background(), "someone-else", created.Record.KeyID), ErrInvalidKey)

	require.NoError(t, svc.RevokeKey(context.Background(), "user-1", created.Record.KeyID))

	_, err := svc.ValidateKey(context.Background(), created.Key, "payments:read", "203.0.113.9")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
