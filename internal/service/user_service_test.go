package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixgate/internal/events"
	"pixgate/internal/model"
	esrepo "pixgate/internal/repository/es"
)

type recordingSearcher struct {
	mu      sync.Mutex
	indexed []*model.User
}

func (s *recordingSearcher) IndexUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *user
	s.indexed = append(s.indexed, &copied)
	return nil
}

func (s *recordingSearcher) SearchUsers(context.Context, string, int) ([]*esrepo.SearchResult, error) {
	return nil, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	approvals []string
	rejects   []string
}

func (n *recordingNotifier) SendApprovalNotice(_ context.Context, to, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approvals = append(n.approvals, to)
	return nil
}

func (n *recordingNotifier) SendRejectionNotice(_ context.Context, to, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejects = append(n.rejects, to)
	return nil
}

func newUserFixture(t *testing.T) (*UserService, *stubUserRepo, *recordingSearcher, *recordingNotifier) {
	t.Helper()
	users := newStubUserRepo()
	searcher := &recordingSearcher{}
	notifier := &recordingNotifier{}
	svc := NewUserService(users, searcher, notifier, testHasher(), events.NewPublisher(nil))
	return svc, users, searcher, notifier
}

func TestRegister(t *testing.T) {
	svc, _, searcher, _ := newUserFixture(t)

	user, err := svc.Register(context.Background(), " New@Shop.COM ", "New Seller", "secret-pass", model.RoleSeller)
	require.NoError(t, err)
	assert.Equal(t, "new@shop.com", user.Email)
	assert.Equal(t, model.StatusPending, user.Status)
	assert.NotEqual(t, "secret-pass", user.PasswordHash)

	require.Len(t, searcher.indexed, 1)
	assert.Equal(t, user.UserID, searcher.indexed[0].UserID)

	_, err = svc.Register(context.Background(), "new@shop.com", "Dup", "other-pass", model.RoleSeller)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestApprove(t *testing.T) {
	svc, users, searcher, notifier := newUserFixture(t)

	user, err := svc.Register(context.Background(), "s@shop.com", "S", "pass-123", model.RoleSeller)
	require.NoError(t, err)

	require.NoError(t, svc.Approve(context.Background(), user.UserID, "admin-1"))

	stored, err := users.GetUserByID(context.Background(), user.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, stored.Status)

	assert.Equal(t, []string{"s@shop.com"}, notifier.approvals)
	assert.Empty(t, notifier.rejects)

	// Registration plus the status change both reindex.
	assert.Len(t, searcher.indexed, 2)
	assert.Equal(t, model.StatusApproved, searcher.indexed[1].Status)
}

func TestReject(t *testing.T) {
	svc, _, _, notifier := newUserFixture(t)

	user, err := svc.Register(context.Background(), "r@shop.com", "R", "pass-123", model.RoleSeller)
	require.NoError(t, err)

	require.NoError(t, svc.Reject(context.Background(), user.UserID, "admin-1"))
	assert.Equal(t, []string{"r@shop.com"}, notifier.rejects)
}

func TestStatusChangeOnlyFromPending(t *testing.T) {
	svc, _, _, _ := newUserFixture(t)

	user, err := svc.Register(context.Background(), "x@shop.com", "X", "pass-123", model.RoleSeller)
	require.NoError(t, err)

	require.NoError(t, svc.Approve(context.Background(), user.UserID, "admin-1"))
	assert.ErrorIs(t, svc.Reject(context.Background(), user.UserID, "admin-1"), ErrInvalidStatus)
	assert.ErrorIs(t, svc.Approve(context.Background(), user.UserID, "admin-1"), ErrInvalidStatus)
}

func TestApproveUnknownUser(t *testing.T) {
	svc, _, _, _ := newUserFixture(t)
	assert.ErrorIs(t, svc.Approve(context.Background(), "missing", "admin-1"), ErrUserNotFound)
}

func TestListByStatusValidation(t *testing.T) {
	svc, _, _, _ := newUserFixture(t)

	_, err := svc.ListByStatus(context.Background(), "bogus", 10)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.ListByStatus(context.Background(), model.StatusPending, 10)
	assert.NoError(t, err)
}
