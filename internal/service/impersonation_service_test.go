package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixgate/internal/config"
	"pixgate/internal/events"
	"pixgate/internal/model"
)

func newImpersonationFixture(t *testing.T) (*ImpersonationService, *stubUserRepo, *recordingAuditor) {
	t.Helper()
	users := newStubUserRepo(
		&model.User{UserID: "seller-1", Email: "seller@shop.com", Name: "Seller", Role: model.RoleSeller, Status: model.StatusApproved},
		&model.User{UserID: "user-1", Email: "user@shop.com", Name: "User", Role: model.RoleUser, Status: model.StatusApproved},
	)
	auditor := &recordingAuditor{}
	svc := NewImpersonationService(users, newStubImpersonationStore(), auditor, events.NewPublisher(nil), config.SessionConfig{
		ImpersonationTTL: 30 * time.Minute,
	})
	return svc, users, auditor
}

func TestStartImpersonation(t *testing.T) {
	svc, _, auditor := newImpersonationFixture(t)

	res, err := svc.Start(context.Background(), "admin-1", "seller-1", "10.0.0.1", "cli")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "seller-1", res.Seller.ID)
	assert.True(t, res.ExpiresAt.After(time.Now()))

	require.Len(t, auditor.impersonations, 1)
	assert.Equal(t, "started", auditor.impersonations[0].Action)
}

func TestStartImpersonationRejectsNonSeller(t *testing.T) {
	svc, _, _ := newImpersonationFixture(t)

	_, err := svc.Start(context.Background(), "admin-1", "user-1", "", "")
	assert.ErrorIs(t, err, ErrSellerNotFound)

	_, err = svc.Start(context.Background(), "admin-1", "missing", "", "")
	assert.ErrorIs(t, err, ErrSellerNotFound)
}

func TestValidateImpersonation(t *testing.T) {
	svc, _, _ := newImpersonationFixture(t)

	res, err := svc.Start(context.Background(), "admin-1", "seller-1", "", "")
	require.NoError(t, err)

	session, err := svc.Validate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", session.AdminID)
	assert.Equal(t, "seller-1", session.SellerID)

	_, err = svc.Validate(context.Background(), "unknown-token")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestValidateExpiredImpersonation(t *testing.T) {
	svc, _, auditor := newImpersonationFixture(t)

	res, err := svc.Start(context.Background(), "admin-1", "seller-1", "", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(31 * time.Minute) }

	_, err = svc.Validate(context.Background(), res.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// Expiry is terminal: the session must not resurrect even if the clock
	// were to move back.
	svc.now = time.Now
	_, err = svc.Validate(context.Background(), res.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	require.Len(t, auditor.impersonations, 2)
	assert.Equal(t, "expired", auditor.impersonations[1].Action)
}

func TestEndImpersonation(t *testing.T) {
	svc, _, auditor := newImpersonationFixture(t)

	res, err := svc.Start(context.Background(), "admin-1", "seller-1", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.End(context.Background(), res.Token, "10.0.0.2", "cli"))

	_, err = svc.Validate(context.Background(), res.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	require.Len(t, auditor.impersonations, 2)
	assert.Equal(t, "ended", auditor.impersonations[1].Action)
	assert.Equal(t, "10.0.0.2", auditor.impersonations[1].IP)
}

func TestEndImpersonationTwice(t *testing.T) {
	svc, _, auditor := newImpersonationFixture(t)

	res, err := svc.Start(context.Background(), "admin-1", "seller-1", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.End(context.Background(), res.Token, "", ""))
	assert.ErrorIs(t, svc.End(context.Background(), res.Token, "", ""), ErrSessionAlreadyEnded)

	// Exactly one legitimate end event in the audit trail.
	endCount := 0
	for _, e := range auditor.impersonations {
		if e.Action == "ended" {
			endCount++
		}
	}
	assert.Equal(t, 1, endCount)
}

func TestImpersonationHistory(t *testing.T) {
	svc, _, _ := newImpersonationFixture(t)

	res, err := svc.Start(context.Background(), "admin-1", "seller-1", "", "")
	require.NoError(t, err)
	require.NoError(t, svc.End(context.Background(), res.Token, "", ""))

	history, err := svc.History(context.Background(), "admin-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "started", history[0].Action)
	assert.Equal(t, "ended", history[1].Action)

	// Another admin sees nothing.
	history, err = svc.History(context.Background(), "admin-2", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestEndUnknownImpersonation(t *testing.T) {
	svc, _, _ := newImpersonationFixture(t)
	assert.ErrorIs(t, svc.End(context.Background(), "unknown", "", ""), ErrInvalidSession)
}

func TestEndExpiredImpersonation(t *testing.T) {
	svc, _, _ := newImpersonationFixture(t)

	res, err := svc.Start(context.Background(), "admin-1", "seller-1", "", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	assert.ErrorIs(t, svc.End(context.Background(), res.Token, "", ""), ErrInvalidSession)
}
