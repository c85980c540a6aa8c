package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixgate/internal/auth"
	"pixgate/internal/config"
	"pixgate/internal/events"
	"pixgate/internal/hashing"
	"pixgate/internal/model"
)

const testSecret = "test-session-secret"

func testHasher() *hashing.Hasher {
	return hashing.NewHasher(&config.Config{
		Hashing: config.HashingConfig{
			Argon2MemoryCost:  8 * 1024,
			Argon2TimeCost:    1,
			Argon2Parallelism: 1,
			Pepper:            "test-pepper",
		},
	})
}

func newAuthFixture(t *testing.T) (*AuthService, *stubSessionStore) {
	t.Helper()
	hasher := testHasher()

	sellerHash, err := hasher.HashPassword("seller-pass")
	require.NoError(t, err)
	adminHash, err := hasher.HashPassword("admin-pass")
	require.NoError(t, err)
	pendingHash, err := hasher.HashPassword("pending-pass")
	require.NoError(t, err)

	users := newStubUserRepo(
		&model.User{UserID: "seller-1", Email: "seller@shop.com", Name: "Seller", PasswordHash: sellerHash, Role: model.RoleSeller, Status: model.StatusApproved},
		&model.User{UserID: "admin-1", Email: "admin@shop.com", Name: "Admin", PasswordHash: adminHash, Role: model.RoleAdmin, Status: model.StatusApproved},
		&model.User{UserID: "pending-1", Email: "pending@shop.com", Name: "Pending", PasswordHash: pendingHash, Role: model.RoleUser, Status: model.StatusPending},
	)

	sessions := newStubSessionStore()
	svc := NewAuthService(users, sessions, hasher, events.NewPublisher(nil), config.SessionConfig{
		Secret:        testSecret,
		DashboardTTL:  24 * time.Hour,
		BackofficeTTL: 8 * time.Hour,
	})
	return svc, sessions
}

func TestLogin(t *testing.T) {
	svc, sessions := newAuthFixture(t)

	res, err := svc.Login(context.Background(), auth.KindDashboard, "seller@shop.com", "seller-pass", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "seller-1", res.Identity.ID)
	assert.Equal(t, model.RoleSeller, res.Identity.Role)
	assert.Equal(t, 24*time.Hour, res.TTL)

	identity, err := auth.ParseToken([]byte(testSecret), res.Token, auth.KindDashboard)
	require.NoError(t, err)
	assert.Equal(t, "seller-1", identity.ID)

	ok, err := sessions.SessionExists(context.Background(), auth.KindDashboard, identity.SessionID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginNormalizesEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), auth.KindDashboard, "  Seller@Shop.COM ", "seller-pass", "")
	assert.NoError(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), auth.KindDashboard, "seller@shop.com", "wrong", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), auth.KindDashboard, "nobody@shop.com", "seller-pass", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsPendingAccount(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), auth.KindDashboard, "pending@shop.com", "pending-pass", "")
	assert.ErrorIs(t, err, ErrAccountNotApproved)
}

func TestBackofficeLoginRequiresAdminRole(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), auth.KindBackoffice, "seller@shop.com", "seller-pass", "")
	assert.ErrorIs(t, err, ErrNotBackofficeRole)

	res, err := svc.Login(context.Background(), auth.KindBackoffice, "admin@shop.com", "admin-pass", "")
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, res.TTL)

	// A backoffice token must not resolve under the dashboard namespace.
	_, err = auth.ParseToken([]byte(testSecret), res.Token, auth.KindDashboard)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	svc, sessions := newAuthFixture(t)

	res, err := svc.Login(context.Background(), auth.KindDashboard, "seller@shop.com", "seller-pass", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), auth.KindDashboard, &res.Identity))

	ok, err := sessions.SessionExists(context.Background(), auth.KindDashboard, res.Identity.SessionID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Logging out again is a no-op.
	assert.NoError(t, svc.Logout(context.Background(), auth.KindDashboard, &res.Identity))
}
