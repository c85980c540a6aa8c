package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pixgate/internal/events"
	"pixgate/internal/hashing"
	"pixgate/internal/mailer"
	"pixgate/internal/model"
	esrepo "pixgate/internal/repository/es"
	"pixgate/internal/repository/scylla"
	"pixgate/internal/util"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrInvalidStatus = errors.New("invalid status transition")
)

// UserSearcher is the search-index surface for user records.
type UserSearcher interface {
	IndexUser(ctx context.Context, user *model.User) error
	SearchUsers(ctx context.Context, text string, limit int) ([]*esrepo.SearchResult, error)
}

var _ UserSearcher = (*esrepo.UserIndex)(nil)

// Notifier sends account lifecycle mail.
type Notifier interface {
	SendApprovalNotice(ctx context.Context, to, name string) error
	SendRejectionNotice(ctx context.Context, to, name string) error
}

var _ Notifier = (*mailer.Mailer)(nil)

// UserService covers registration and the backoffice user administration
// surface: listing, search, approval and rejection.
type UserService struct {
	users     scylla.UserRepository
	search    UserSearcher
	notifier  Notifier
	hasher    *hashing.Hasher
	publisher *events.Publisher
}

func NewUserService(
	users scylla.UserRepository,
	search UserSearcher,
	notifier Notifier,
	hasher *hashing.Hasher,
	publisher *events.Publisher,
) *UserService {
	return &UserService{
		users:     users,
		search:    search,
		notifier:  notifier,
		hasher:    hasher,
		publisher: publisher,
	}
}

// Register creates a pending account. Accounts stay pending until an
// operator approves them.
func (s *UserService) Register(ctx context.Context, email, name, password string, role model.Role) (*model.User, error) {
	email = util.NormalizeEmail(email)
	name = util.SanitizeInput(name)

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, scylla.ErrUserNotFound) {
		return nil, fmt.Errorf("email lookup: %w", err)
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		UserID:       uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		Status:       model.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.index(ctx, user)

	util.Info("User registered",
		util.String("user_id", user.UserID),
		util.String("role", string(role)))
	return user, nil
}

// GetUser loads one user by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, scylla.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListByStatus lists users in one status, newest first.
func (s *UserService) ListByStatus(ctx context.Context, status string, limit int) ([]*model.User, error) {
	switch status {
	case model.StatusPending, model.StatusApproved, model.StatusRejected:
	default:
		return nil, ErrInvalidStatus
	}
	return s.users.ListByStatus(ctx, status, limit)
}

// Search runs a free-text query against the user index.
func (s *UserService) Search(ctx context.Context, text string, limit int) ([]*esrepo.SearchResult, error) {
	if s.search == nil {
		return nil, errors.New("user search index unavailable")
	}
	return s.search.SearchUsers(ctx, text, limit)
}

// Approve moves a pending user to approved and notifies them by mail.
func (s *UserService) Approve(ctx context.Context, userID, actorID string) error {
	return s.setStatus(ctx, userID, actorID, model.StatusApproved)
}

// Reject moves a pending user to rejected and notifies them by mail.
func (s *UserService) Reject(ctx context.Context, userID, actorID string) error {
	return s.setStatus(ctx, userID, actorID, model.StatusRejected)
}

func (s *UserService) setStatus(ctx context.Context, userID, actorID, status string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, scylla.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}

	if user.Status != model.StatusPending {
		return ErrInvalidStatus
	}

	if err := s.users.UpdateUserStatus(ctx, userID, status); err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	user.Status = status
	s.index(ctx, user)

	s.publisher.Publish(ctx, events.TypeUserStatusChanged, userID, events.UserStatusChanged{
		UserID:    userID,
		Status:    status,
		ChangedBy: actorID,
	})

	if s.notifier != nil {
		var mailErr error
		if status == model.StatusApproved {
			mailErr = s.notifier.SendApprovalNotice(ctx, user.Email, user.Name)
		} else {
			mailErr = s.notifier.SendRejectionNotice(ctx, user.Email, user.Name)
		}
		if mailErr != nil {
			// The status change already committed; mail is best effort.
			util.Warn("Failed to send status mail",
				util.String("user_id", userID),
				util.String("status", status),
				util.ErrorField(mailErr))
		}
	}

	util.Info("User status changed",
		util.String("user_id", userID),
		util.String("status", status),
		util.String("changed_by", actorID))
	return nil
}

func (s *UserService) index(ctx context.Context, user *model.User) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexUser(ctx, user); err != nil {
		util.Warn("Failed to index user",
			util.String("user_id", user.UserID),
			util.ErrorField(err))
	}
}
